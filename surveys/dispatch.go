// ABOUTME: Survey dispatch: eligibility check, contact/email resolution, and trigger fan-out
// ABOUTME: Posts advisory notes back to Karbon when contact information is missing
package surveys

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/avriosolutions/gehn/models"
)

// completionWindow bounds how old a completion may be to still count as
// "just completed". Work items get touched long after completion; those
// updates must not re-trigger surveys.
const completionWindow = time.Hour

// API is the slice of the Karbon client the dispatcher needs.
type API interface {
	GetEntity(ctx context.Context, entityType models.EntityType, key string, query url.Values) (models.Entity, error)
	AddNote(ctx context.Context, note models.Note) (models.Entity, error)
}

// Surveyor sends one survey trigger; satisfied by AskNicelyClient.
type Surveyor interface {
	TriggerSurvey(ctx context.Context, card BusinessCard) (bool, error)
}

// Dispatcher resolves a completed work item's client to concrete people with
// email addresses and triggers a survey for each.
type Dispatcher struct {
	api             API
	surveyor        Surveyor
	eligibleTypes   map[string]bool
	defaultAssignee string
	now             func() time.Time
	log             *slog.Logger
}

// NewDispatcher builds a dispatcher limited to the given work types. When
// defaultAssignee is non-empty, advisory notes are assigned to it instead of
// the work item's own assignee.
func NewDispatcher(api API, surveyor Surveyor, eligibleTypes []string, defaultAssignee string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	types := make(map[string]bool, len(eligibleTypes))
	for _, t := range eligibleTypes {
		types[t] = true
	}
	return &Dispatcher{
		api:             api,
		surveyor:        surveyor,
		eligibleTypes:   types,
		defaultAssignee: defaultAssignee,
		now:             time.Now,
		log:             logger,
	}
}

// Eligible reports whether a work item qualifies for a survey: completed, an
// allowlisted work type, and completed within the last hour.
func (d *Dispatcher) Eligible(item models.Entity) bool {
	if item.String("PrimaryStatus") != models.StatusCompleted {
		return false
	}
	if !d.eligibleTypes[item.String("WorkType")] {
		return false
	}
	completed, ok := models.ParseTime(item.String("CompletedDate"))
	if !ok {
		return false
	}
	return d.now().UTC().Sub(completed.UTC()) <= completionWindow
}

// Dispatch resolves the work item's client to contacts and triggers one
// survey per reachable contact. Missing contacts or email addresses produce
// an advisory note instead of an error.
func (d *Dispatcher) Dispatch(ctx context.Context, item models.Entity) error {
	clientKey := item.String("ClientKey")
	clientType := item.String("ClientType")
	clientName := item.String("ClientName")
	log := d.log.With("work_item", item.String("WorkItemKey"), "client", clientKey)

	var contacts []models.Entity
	switch models.EntityType(clientType) {
	case models.EntityOrganization:
		org, err := d.api.GetEntity(ctx, models.EntityOrganization, clientKey, url.Values{"$expand": {"Contacts"}})
		if err != nil {
			return err
		}
		contacts = org.Entities("Contacts")
		if len(contacts) == 0 {
			log.Info("organization has no contacts, leaving a note")
			d.noteMissingContacts(ctx, item)
			return nil
		}
	case models.EntityContact:
		contacts = []models.Entity{{"ContactKey": clientKey, "FullName": clientName}}
	default:
		log.Info("client is neither an organization nor a contact", "client_type", clientType)
		return nil
	}

	for _, contact := range contacts {
		contactKey := contact.String("ContactKey")
		details, err := d.api.GetEntity(ctx, models.EntityContact, contactKey, url.Values{"$expand": {"BusinessCards"}})
		if err != nil {
			return err
		}

		firstName := details.String("PreferredName")
		if firstName == "" {
			firstName = details.String("FirstName")
		}

		email := EmailFromBusinessCards(details.Entities("BusinessCards"), clientKey)
		if email == "" {
			log.Info("no email for contact, leaving a note", "contact", contactKey)
			d.noteMissingEmail(ctx, item, contact)
			continue
		}

		sent, err := d.surveyor.TriggerSurvey(ctx, BusinessCard{
			FirstName:    firstName,
			LastName:     details.String("LastName"),
			Email:        email,
			ClientName:   clientName,
			ClientKey:    clientKey,
			ClientType:   clientType,
			WorkItemName: item.String("Title"),
			WorkItemKey:  item.String("WorkItemKey"),
			WorkType:     item.String("WorkType"),
		})
		if err != nil {
			log.Error("survey trigger failed", "contact", contactKey, "error", err)
			continue
		}
		if !sent {
			log.Info("survey skipped by AskNicely rules", "contact", contactKey)
			continue
		}

		// FYI note is best effort.
		note := models.Note{
			Subject: "FYI: Sent NPS survey",
			Body: "I sent an NPS survey to " + contact.String("FullName") +
				" after we completed '" + item.String("Title") + "' for '" + clientName + "'.",
			Timelines: timelinesFor(item, contactKey),
		}
		if _, err := d.api.AddNote(ctx, note); err != nil {
			log.Warn("FYI note failed", "contact", contactKey, "error", err)
		}
	}
	return nil
}

// EmailFromBusinessCards picks the best email for a contact: a card tied to
// the client organization wins, then the primary card, then any card with an
// address at all.
func EmailFromBusinessCards(cards []models.Entity, clientKey string) string {
	primary := ""
	fallback := ""
	for _, card := range cards {
		var addresses []string
		if raw, ok := card["EmailAddresses"].([]any); ok {
			for _, a := range raw {
				if s, ok := a.(string); ok && s != "" {
					addresses = append(addresses, s)
				}
			}
		}
		if len(addresses) == 0 {
			continue
		}
		if card.String("OrganizationKey") == clientKey {
			return addresses[0]
		}
		if isPrimary, _ := card["IsPrimaryCard"].(bool); isPrimary && primary == "" {
			primary = addresses[0]
		}
		if fallback == "" {
			fallback = addresses[0]
		}
	}
	if primary != "" {
		return primary
	}
	return fallback
}

// noteAssignee picks who gets the advisory note: the configured default
// assignee when one is set, otherwise the work item's own assignee.
func (d *Dispatcher) noteAssignee(item models.Entity) string {
	if d.defaultAssignee != "" {
		return d.defaultAssignee
	}
	return item.String("AssigneeEmailAddress")
}

func (d *Dispatcher) noteMissingContacts(ctx context.Context, item models.Entity) {
	note := models.Note{
		Subject: "OH NO! No people connected to this organization",
		Body: "I tried to send out some NPS surveys because we just finished up the " +
			item.String("Title") + " for " + item.String("ClientName") +
			", but I couldn't find any people attached to this organization. " +
			"Please take care of this right away so I can send out NPS surveys in the future.",
		Timelines:            timelinesFor(item, ""),
		AssigneeEmailAddress: d.noteAssignee(item),
	}
	if _, err := d.api.AddNote(ctx, note); err != nil {
		d.log.Warn("missing-contacts note failed", "error", err)
	}
}

func (d *Dispatcher) noteMissingEmail(ctx context.Context, item models.Entity, contact models.Entity) {
	now := d.now().UTC()
	note := models.Note{
		Subject: "OH NO! Missing contact information",
		Body: "I tried to send an NPS survey to " + contact.String("FullName") +
			" after we finished their " + item.String("Title") +
			", but I cannot locate an email address. " +
			"Please take care of this right away so I can send out their NPS survey.",
		Timelines:            timelinesFor(item, contact.String("ContactKey")),
		AssigneeEmailAddress: d.noteAssignee(item),
		TodoDate:             &now,
		DueDate:              &now,
	}
	if _, err := d.api.AddNote(ctx, note); err != nil {
		d.log.Warn("missing-email note failed", "error", err)
	}
}

func timelinesFor(item models.Entity, contactKey string) []models.Timeline {
	timelines := []models.Timeline{
		{EntityType: models.EntityWorkItem, EntityKey: item.String("WorkItemKey")},
		{EntityType: models.EntityType(item.String("ClientType")), EntityKey: item.String("ClientKey")},
	}
	if contactKey != "" {
		timelines = append(timelines, models.Timeline{EntityType: models.EntityContact, EntityKey: contactKey})
	}
	return timelines
}
