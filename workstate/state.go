// ABOUTME: Workflow state carried inside a work item's description field
// ABOUTME: Trigger chain, naming details, and the append-only associated-work list
package workstate

// WorkRef points at one work item in a cascade chain.
type WorkRef struct {
	WorkItemKey string `json:"WorkItemKey"`
	Title       string `json:"Title"`
}

// Details carries the naming and linkage fields a cascade merges forward from
// one work item to the next.
type Details struct {
	ThisTemplateNameBase   string `json:"thisTemplateNameBase"`
	ThisTemplateNameStatus string `json:"thisTemplateNameStatus"`
	ThisWorkItemPeriod     string `json:"thisWorkItemPeriod"`
	TakeTitleFromUpstream  bool   `json:"takeTitleFromUpstream"`

	// AssociatedWork is append-only and order-preserving; it accumulates the
	// full ancestor chain as triggers fire. Never reorder or truncate it.
	AssociatedWork []WorkRef `json:"associatedWork"`
}

// Trigger is one pending or fired transition in the cascade. Once IsTriggered
// is set the trigger is terminal; it is never evaluated again, which is what
// keeps duplicate webhook deliveries from firing twice.
type Trigger struct {
	StatusForNextWorkToTrigger    string `json:"statusForNextWorkToTrigger"`
	StatusForThisWorkAfterTrigger string `json:"statusForThisWorkAfterTrigger"`
	NextWorkTemplateKey           string `json:"nextWorkTemplateKey"`
	IsTriggered                   bool   `json:"isTriggered"`
	ResultingWorkItemKey          string `json:"resultingWorkItemKey,omitempty"`
	TriggeredDateTime             string `json:"triggeredDateTime,omitempty"`
}

// State is the embedded workflow state for one work item.
type State struct {
	Details           Details   `json:"details"`
	FollowOnWorkItems []Trigger `json:"followOnWorkItems"`
}

// AppendWork adds a work item to the associated-work chain.
func (s *State) AppendWork(key, title string) {
	s.Details.AssociatedWork = append(s.Details.AssociatedWork, WorkRef{WorkItemKey: key, Title: title})
}
