// ABOUTME: Work item webhook handler
// ABOUTME: Fetches the full work item and runs survey dispatch, the cascade engine, and schedule updates
package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avriosolutions/gehn/cascade"
	"github.com/avriosolutions/gehn/karbon"
	"github.com/avriosolutions/gehn/models"
	"github.com/avriosolutions/gehn/schedules"
	"github.com/avriosolutions/gehn/surveys"
)

// WorkItemHandler reacts to work item events. Each delivery fetches the full
// record once and feeds it to every workflow that cares.
type WorkItemHandler struct {
	api        *karbon.Client
	engine     *cascade.Engine
	dispatcher *surveys.Dispatcher
	log        *slog.Logger
}

// NewWorkItemHandler wires the work item pipeline together.
func NewWorkItemHandler(api *karbon.Client, engine *cascade.Engine, dispatcher *surveys.Dispatcher, logger *slog.Logger) *WorkItemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkItemHandler{api: api, engine: engine, dispatcher: dispatcher, log: logger}
}

// Handle processes one work item event. Survey dispatch is advisory; cascade
// and schedule failures are fatal for the delivery so the sender retries.
func (h *WorkItemHandler) Handle(ctx context.Context, event models.WebhookEvent) error {
	log := h.log.With("work_item", event.ResourcePermaKey, "action", event.ActionType)
	log.Info("handling work item event")

	item, err := h.api.GetEntity(ctx, models.EntityWorkItem, event.ResourcePermaKey, nil)
	if err != nil {
		return fmt.Errorf("handlers: fetching work item %s: %w", event.ResourcePermaKey, err)
	}

	if h.dispatcher != nil && h.dispatcher.Eligible(item) {
		log.Info("work item eligible for NPS survey")
		if err := h.dispatcher.Dispatch(ctx, item); err != nil {
			// Survey problems never block the cascade.
			log.Error("survey dispatch failed", "error", err)
		}
	}

	result, err := h.engine.Process(ctx, item)
	if err != nil {
		return fmt.Errorf("handlers: cascade for %s: %w", event.ResourcePermaKey, err)
	}
	log.Info("cascade finished", "outcome", result.Outcome)

	if err := schedules.Update(ctx, h.api, item, h.log); err != nil {
		return fmt.Errorf("handlers: schedule update for %s: %w", event.ResourcePermaKey, err)
	}

	return nil
}
