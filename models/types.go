// ABOUTME: Data models for Karbon webhook payloads and entity snapshots
// ABOUTME: Defines WebhookEvent, Entity, Note, and Timeline types plus shared constants
package models

import (
	"encoding/json"
	"time"
)

// EntityType identifies a kind of Karbon record. The API addresses records
// at "{EntityType}s/{key}".
type EntityType string

const (
	EntityWorkItem     EntityType = "WorkItem"
	EntityWorkTemplate EntityType = "WorkTemplate"
	EntityWorkSchedule EntityType = "WorkSchedule"
	EntityContact      EntityType = "Contact"
	EntityOrganization EntityType = "Organization"
	EntityNote         EntityType = "Note"
)

// Work item status constants.
const (
	StatusCompleted = "Completed"
)

// WebhookEvent is the inbound webhook body. All three fields must be present
// for the payload to qualify as a Karbon webhook.
type WebhookEvent struct {
	ResourcePermaKey string `json:"ResourcePermaKey"`
	ResourceType     string `json:"ResourceType"`
	ActionType       string `json:"ActionType"`
}

// Valid reports whether the event carries the keys every Karbon webhook has.
func (e WebhookEvent) Valid() bool {
	return e.ResourcePermaKey != "" && e.ResourceType != "" && e.ActionType != ""
}

// Entity is a transient snapshot of a remote record. Karbon is the system of
// record; snapshots are fetched per request, mutated, and pushed back whole.
// Using a map keeps fields we never touch intact across the round trip.
type Entity map[string]any

// String returns the named field as a string, or "" when absent or not a string.
func (e Entity) String(field string) string {
	v, ok := e[field].(string)
	if !ok {
		return ""
	}
	return v
}

// Int returns the named field as an int. JSON numbers decode as float64.
func (e Entity) Int(field string) int {
	switch v := e[field].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Entities returns the named field as a list of entity snapshots.
func (e Entity) Entities(field string) []Entity {
	raw, ok := e[field].([]any)
	if !ok {
		return nil
	}
	out := make([]Entity, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Entity(m))
		}
	}
	return out
}

// Clone returns a shallow copy of the snapshot.
func (e Entity) Clone() Entity {
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// DecodeEntity unmarshals a raw API response into an Entity snapshot.
func DecodeEntity(raw json.RawMessage) (Entity, error) {
	var e Entity
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// Timeline links a note to one entity's activity feed.
type Timeline struct {
	EntityType EntityType `json:"EntityType"`
	EntityKey  string     `json:"EntityKey"`
}

// Note is an outbound Karbon note. The client decorates Body with the bot
// greeting and signature before posting.
type Note struct {
	Subject              string
	Body                 string
	Timelines            []Timeline
	AssigneeEmailAddress string
	TodoDate             *time.Time
	DueDate              *time.Time
}

// Karbon timestamps come in a few shapes; dates sometimes omit the time part.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a Karbon timestamp string. Returns the zero time and false
// when the field is empty or unparseable.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
