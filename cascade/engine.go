// ABOUTME: Cascade engine that fires follow-on work items from embedded state
// ABOUTME: Evaluates triggers, creates successors, rewrites state on both sides, posts linkage notes
package cascade

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/avriosolutions/gehn/models"
	"github.com/avriosolutions/gehn/workstate"
)

// API is the slice of the Karbon client the engine needs.
type API interface {
	GetEntity(ctx context.Context, entityType models.EntityType, key string, query url.Values) (models.Entity, error)
	CreateEntity(ctx context.Context, entityType models.EntityType, body models.Entity) (models.Entity, error)
	UpdateEntity(ctx context.Context, entityType models.EntityType, key string, body models.Entity) (models.Entity, error)
	AddNote(ctx context.Context, note models.Note) (models.Entity, error)
}

// Firing is the journal's record of one trigger firing. It exists so a retry
// after a partial failure can find the successor it already created instead
// of creating a second one: Karbon offers no idempotency key on create and no
// version check on update, so this local record is the only guard.
type Firing struct {
	WorkItemKey          string
	TemplateKey          string
	ResultingWorkItemKey string
	ResultingTitle       string
	Completed            bool
}

// Journal persists firing records across invocations.
type Journal interface {
	FindFiring(workItemKey, templateKey string) (*Firing, error)
	RecordFiringIntent(workItemKey, templateKey string) error
	MarkFiringCreated(workItemKey, templateKey, resultKey, resultTitle string) error
	MarkFiringCompleted(workItemKey, templateKey string) error
}

// noopJournal is used when no journal is configured (manual CLI runs); the
// duplicate-successor guard is then the trigger flag alone.
type noopJournal struct{}

func (noopJournal) FindFiring(string, string) (*Firing, error)              { return nil, nil }
func (noopJournal) RecordFiringIntent(string, string) error                 { return nil }
func (noopJournal) MarkFiringCreated(string, string, string, string) error  { return nil }
func (noopJournal) MarkFiringCompleted(string, string) error                { return nil }

// Outcome of one engine invocation.
type Outcome string

const (
	// Idle: no embedded state, or state present but unusable.
	Idle Outcome = "idle"
	// Skipped: a trigger exists but already fired or its status does not match.
	Skipped Outcome = "skipped"
	// Completed: a trigger fired and both work items were updated.
	Completed Outcome = "completed"
)

// Result describes what one Process call did.
type Result struct {
	Outcome              Outcome
	WorkItemKey          string
	ResultingWorkItemKey string
	ResultingTitle       string
}

// Engine drives the cascade workflow. One invocation handles one webhook
// delivery for one work item; there is no shared mutable state between
// invocations.
//
// Known limitation: concurrent deliveries for the same work item race on the
// remote read-modify-write of the embedded state. Karbon's update is a plain
// PUT with no compare-and-swap, so the last writer wins. The journal protects
// against duplicate successor creation but not against lost state rewrites.
type Engine struct {
	api     API
	journal Journal
	appURL  string
	now     func() time.Time
	log     *slog.Logger
}

// New builds an engine. appURL is the web app root used for note links, e.g.
// "https://app2.karbonhq.com".
func New(api API, journal Journal, appURL string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if journal == nil {
		journal = noopJournal{}
	}
	return &Engine{
		api:     api,
		journal: journal,
		appURL:  appURL,
		now:     time.Now,
		log:     logger,
	}
}

// Process evaluates the work item's first pending trigger and fires it when
// its status condition is met. Only the first trigger in list order is
// considered per invocation; draining multiple pending triggers takes
// multiple webhook deliveries.
func (e *Engine) Process(ctx context.Context, item models.Entity) (*Result, error) {
	key := item.String("WorkItemKey")
	log := e.log.With("work_item", key)

	state, err := workstate.Decode(item.String("Description"))
	if err != nil {
		// A bad region means no usable workflow state, not a failed webhook.
		log.Warn("embedded state unreadable, skipping cascade", "error", err)
		return &Result{Outcome: Idle, WorkItemKey: key}, nil
	}
	if state == nil || len(state.FollowOnWorkItems) == 0 {
		return &Result{Outcome: Idle, WorkItemKey: key}, nil
	}

	trigger := &state.FollowOnWorkItems[0]
	if trigger.IsTriggered {
		log.Info("trigger already fired", "template", trigger.NextWorkTemplateKey)
		return &Result{Outcome: Skipped, WorkItemKey: key}, nil
	}
	if trigger.StatusForNextWorkToTrigger != item.String("WorkStatus") {
		log.Info("status does not match trigger",
			"status", item.String("WorkStatus"),
			"wanted", trigger.StatusForNextWorkToTrigger)
		return &Result{Outcome: Skipped, WorkItemKey: key}, nil
	}

	log.Info("firing trigger", "template", trigger.NextWorkTemplateKey)

	successorKey, successorTitle, err := e.ensureSuccessor(ctx, item, state, trigger)
	if err != nil {
		return nil, err
	}

	// Update the predecessor: extend the chain, retire the trigger, advance
	// the status, and splice the state back into the description.
	state.AppendWork(successorKey, successorTitle)
	trigger.IsTriggered = true
	trigger.ResultingWorkItemKey = successorKey
	trigger.TriggeredDateTime = e.now().UTC().Format(time.RFC3339)
	if trigger.StatusForThisWorkAfterTrigger != "" {
		item["WorkStatus"] = trigger.StatusForThisWorkAfterTrigger
	}

	updatedDescription, err := workstate.Encode(item.String("Description"), state)
	if err != nil {
		return nil, fmt.Errorf("cascade: rewriting state on %s: %w", key, err)
	}
	item["Description"] = updatedDescription

	if _, err := e.api.UpdateEntity(ctx, models.EntityWorkItem, key, item); err != nil {
		return nil, fmt.Errorf("cascade: updating work item %s: %w", key, err)
	}
	if err := e.journal.MarkFiringCompleted(key, trigger.NextWorkTemplateKey); err != nil {
		log.Warn("journal update failed", "error", err)
	}

	// Linkage note is best effort; a note failure never rolls back the firing.
	if err := e.postChainNote(ctx, item, state); err != nil {
		log.Warn("linkage note failed", "error", err)
	}

	log.Info("trigger fired", "successor", successorKey)
	return &Result{
		Outcome:              Completed,
		WorkItemKey:          key,
		ResultingWorkItemKey: successorKey,
		ResultingTitle:       successorTitle,
	}, nil
}

// ensureSuccessor creates the follow-on work item, or recovers the one a
// previous attempt created before failing to update the predecessor.
func (e *Engine) ensureSuccessor(ctx context.Context, item models.Entity, state *workstate.State, trigger *workstate.Trigger) (string, string, error) {
	key := item.String("WorkItemKey")

	if prior, err := e.journal.FindFiring(key, trigger.NextWorkTemplateKey); err != nil {
		e.log.Warn("journal lookup failed", "error", err)
	} else if prior != nil && prior.ResultingWorkItemKey != "" {
		e.log.Info("reusing successor from interrupted firing",
			"work_item", key, "successor", prior.ResultingWorkItemKey)
		return prior.ResultingWorkItemKey, prior.ResultingTitle, nil
	}

	template, err := e.api.GetEntity(ctx, models.EntityWorkTemplate, trigger.NextWorkTemplateKey, nil)
	if err != nil {
		return "", "", fmt.Errorf("cascade: fetching template %s: %w", trigger.NextWorkTemplateKey, err)
	}
	templateState, err := workstate.Decode(template.String("Description"))
	if err != nil {
		return "", "", fmt.Errorf("cascade: template %s: %w", trigger.NextWorkTemplateKey, err)
	}
	if templateState == nil {
		return "", "", fmt.Errorf("cascade: template %s has no embedded state", trigger.NextWorkTemplateKey)
	}

	// Merge the predecessor's naming and chain into the successor's state.
	if templateState.Details.TakeTitleFromUpstream {
		templateState.Details.ThisTemplateNameBase = state.Details.ThisTemplateNameBase
	}
	templateState.Details.ThisWorkItemPeriod = state.Details.ThisWorkItemPeriod
	templateState.AppendWork(key, item.String("Title"))

	successorDescription, err := workstate.Encode(template.String("Description"), templateState)
	if err != nil {
		return "", "", fmt.Errorf("cascade: writing successor state: %w", err)
	}

	title := templateState.Details.ThisWorkItemPeriod + " " +
		templateState.Details.ThisTemplateNameBase + " " +
		templateState.Details.ThisTemplateNameStatus

	body := models.Entity{
		"AssigneeEmailAddress":  item["AssigneeEmailAddress"],
		"Title":                 title,
		"ClientKey":             item["ClientKey"],
		"ClientType":            item["ClientType"],
		"RelatedClientGroupKey": item["RelatedClientGroupKey"],
		"DueDate":               item["DueDate"],
		"DeadlineDate":          item["DeadlineDate"],
		"WorkTemplateKey":       trigger.NextWorkTemplateKey,
		"Description":           successorDescription,
		"StartDate":             e.now().UTC().Format("2006-01-02T15:04:05Z"),
	}

	if err := e.journal.RecordFiringIntent(key, trigger.NextWorkTemplateKey); err != nil {
		e.log.Warn("journal intent failed", "error", err)
	}

	created, err := e.api.CreateEntity(ctx, models.EntityWorkItem, body)
	if err != nil {
		return "", "", fmt.Errorf("cascade: creating successor for %s: %w", key, err)
	}

	createdKey := created.String("WorkItemKey")
	createdTitle := created.String("Title")
	if err := e.journal.MarkFiringCreated(key, trigger.NextWorkTemplateKey, createdKey, createdTitle); err != nil {
		e.log.Warn("journal creation record failed", "error", err)
	}
	return createdKey, createdTitle, nil
}

// postChainNote posts one note, linked to every work item in the chain,
// listing the whole cascade in order.
func (e *Engine) postChainNote(ctx context.Context, item models.Entity, state *workstate.State) error {
	key := item.String("WorkItemKey")

	body := "<p>The following work items are associated through a cascading work flow:</p><ol>"
	timelines := []models.Timeline{{EntityType: models.EntityWorkItem, EntityKey: key}}
	for _, ref := range state.Details.AssociatedWork {
		body += fmt.Sprintf("<li><a href='%s/WorkItems/%s'>%s</a></li>", e.appURL, ref.WorkItemKey, ref.Title)
		timelines = append(timelines, models.Timeline{EntityType: models.EntityWorkItem, EntityKey: ref.WorkItemKey})
	}
	body += fmt.Sprintf("<li><a href='%s/WorkItems/%s'>%s</a></li></ol>", e.appURL, key, item.String("Title"))

	_, err := e.api.AddNote(ctx, models.Note{
		Subject:              "Work Item Triggered",
		Body:                 body,
		Timelines:            timelines,
		AssigneeEmailAddress: item.String("AssigneeEmailAddress"),
	})
	return err
}
