// ABOUTME: Note posting against the Karbon Notes endpoint
// ABOUTME: Decorates every note body with the bot greeting and signature block
package karbon

import (
	"context"
	"time"

	"github.com/avriosolutions/gehn/models"
)

const (
	noteGreeting  = "Hi there,</br></br>"
	noteSignature = "</br></br>Thank you,</br>Gehn</br><i>Automation Bot</i>"
)

// AddNote posts a note to every timeline it names. The body is wrapped with
// the standing greeting and signature so all bot notes read the same.
func (c *Client) AddNote(ctx context.Context, note models.Note) (models.Entity, error) {
	body := models.Entity{
		"AssigneeEmailAddress": emptyToNil(note.AssigneeEmailAddress),
		"AuthorEmailAddress":   c.noteAuthor,
		"Subject":              note.Subject,
		"Body":                 noteGreeting + note.Body + noteSignature,
		"DueDate":              timeToNil(note.DueDate),
		"TodoDate":             timeToNil(note.TodoDate),
		"Timelines":            note.Timelines,
	}
	return c.CreateEntity(ctx, models.EntityNote, body)
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timeToNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
