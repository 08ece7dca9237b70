// ABOUTME: Note webhook handler
// ABOUTME: Acknowledges note events; no automation hangs off them today
package handlers

import (
	"context"
	"log/slog"

	"github.com/avriosolutions/gehn/models"
)

// NoteHandler acknowledges note events, including the bot's own linkage
// notes echoing back through the webhook.
type NoteHandler struct {
	log *slog.Logger
}

func NewNoteHandler(logger *slog.Logger) *NoteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteHandler{log: logger}
}

func (h *NoteHandler) Handle(_ context.Context, event models.WebhookEvent) error {
	h.log.Info("note event acknowledged", "note", event.ResourcePermaKey, "action", event.ActionType)
	return nil
}
