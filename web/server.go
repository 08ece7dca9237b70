// ABOUTME: Webhook ingress HTTP server
// ABOUTME: Validates Karbon webhook payloads, routes by resource type, and journals each delivery
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avriosolutions/gehn/db"
	"github.com/avriosolutions/gehn/models"
)

// EventHandler processes one validated webhook event.
type EventHandler interface {
	Handle(ctx context.Context, event models.WebhookEvent) error
}

// Server is the webhook ingress shell. Processing happens synchronously
// inside the request; the response is the only acknowledgment Karbon gets,
// and it carries no error detail.
type Server struct {
	mux      *http.ServeMux
	handlers map[string]EventHandler
	journal  *db.Journal
	log      *slog.Logger
}

// NewServer builds the ingress server. The handlers map routes by
// ResourceType ("WorkItem", "Contact", "Note").
func NewServer(handlers map[string]EventHandler, journal *db.Journal, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mux:      http.NewServeMux(),
		handlers: handlers,
		journal:  journal,
		log:      logger,
	}
	s.mux.HandleFunc("POST /webhooks/karbon", s.handleWebhook)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// Handler exposes the routing mux, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start blocks serving HTTP on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.log.Info("starting webhook server", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleWebhook accepts one delivery. Callers only ever see "Webhook
// accepted" or "Server error"; anything that doesn't qualify as a Karbon
// webhook is logged and acknowledged so the sender stops retrying it.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var event models.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.log.Warn("webhook body is not valid JSON", "error", err)
		accepted(w)
		return
	}

	if !event.Valid() {
		s.log.Warn("request did not qualify as a Karbon webhook")
		accepted(w)
		return
	}

	log := s.log.With("resource_type", event.ResourceType, "resource_key", event.ResourcePermaKey, "action", event.ActionType)

	deliveryID := ""
	if s.journal != nil {
		id, err := s.journal.RecordDelivery(event.ResourceType, event.ResourcePermaKey, event.ActionType)
		if err != nil {
			log.Warn("failed to journal delivery", "error", err)
		} else {
			deliveryID = id
		}
	}

	handler, ok := s.handlers[event.ResourceType]
	if !ok {
		log.Warn("unhandled resource type")
		s.completeDelivery(deliveryID, nil)
		accepted(w)
		return
	}

	err := s.safeHandle(r.Context(), handler, event)
	s.completeDelivery(deliveryID, err)
	if err != nil {
		log.Error("event processing failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Server error"))
		return
	}

	log.Info("event processed")
	accepted(w)
}

// safeHandle converts a handler panic into an ordinary error so the sender
// still gets the generic 500 body instead of a dropped connection.
func (s *Server) safeHandle(ctx context.Context, h EventHandler, event models.WebhookEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("web: handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, event)
}

func (s *Server) completeDelivery(id string, err error) {
	if s.journal == nil || id == "" {
		return
	}
	if jerr := s.journal.CompleteDelivery(id, err); jerr != nil {
		s.log.Warn("failed to update journaled delivery", "error", jerr)
	}
}

func accepted(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("Webhook accepted"))
}
