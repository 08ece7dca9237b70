// ABOUTME: Contact webhook handler
// ABOUTME: Acknowledges contact events; no automation hangs off them today
package handlers

import (
	"context"
	"log/slog"

	"github.com/avriosolutions/gehn/models"
)

// ContactHandler acknowledges contact events. Karbon sends them whenever a
// contact changes; nothing downstream consumes them yet.
type ContactHandler struct {
	log *slog.Logger
}

func NewContactHandler(logger *slog.Logger) *ContactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{log: logger}
}

func (h *ContactHandler) Handle(_ context.Context, event models.WebhookEvent) error {
	h.log.Info("contact event acknowledged", "contact", event.ResourcePermaKey, "action", event.ActionType)
	return nil
}
