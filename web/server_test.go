// ABOUTME: Tests for the webhook ingress server
// ABOUTME: Verifies acknowledgment behavior, routing, and error responses
package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avriosolutions/gehn/models"
)

type recordingHandler struct {
	events []models.WebhookEvent
	err    error
}

func (h *recordingHandler) Handle(_ context.Context, event models.WebhookEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func post(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhooks/karbon", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRoutesByResourceType(t *testing.T) {
	workItems := &recordingHandler{}
	contacts := &recordingHandler{}
	server := NewServer(map[string]EventHandler{
		"WorkItem": workItems,
		"Contact":  contacts,
	}, nil, nil)

	rec := post(t, server.Handler(), `{"ResourcePermaKey":"w-1","ResourceType":"WorkItem","ActionType":"Updated"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "Webhook accepted", rec.Body.String())

	require.Len(t, workItems.events, 1)
	assert.Equal(t, "w-1", workItems.events[0].ResourcePermaKey)
	assert.Empty(t, contacts.events)
}

func TestWebhookAcknowledgesInvalidJSON(t *testing.T) {
	workItems := &recordingHandler{}
	server := NewServer(map[string]EventHandler{"WorkItem": workItems}, nil, nil)

	rec := post(t, server.Handler(), `not json at all`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, workItems.events)
}

func TestWebhookAcknowledgesIncompletePayload(t *testing.T) {
	workItems := &recordingHandler{}
	server := NewServer(map[string]EventHandler{"WorkItem": workItems}, nil, nil)

	// Valid JSON that is not a Karbon webhook.
	rec := post(t, server.Handler(), `{"hello":"world"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, workItems.events)
}

func TestWebhookAcknowledgesUnknownResourceType(t *testing.T) {
	server := NewServer(map[string]EventHandler{}, nil, nil)

	rec := post(t, server.Handler(), `{"ResourcePermaKey":"t-1","ResourceType":"Timesheet","ActionType":"Updated"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestWebhookHandlerErrorReturns500(t *testing.T) {
	workItems := &recordingHandler{err: errors.New("karbon unreachable")}
	server := NewServer(map[string]EventHandler{"WorkItem": workItems}, nil, nil)

	rec := post(t, server.Handler(), `{"ResourcePermaKey":"w-1","ResourceType":"WorkItem","ActionType":"Updated"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The error detail stays in the logs, not the response.
	assert.Equal(t, "Server error", rec.Body.String())
	assert.Len(t, workItems.events, 1)
}

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, models.WebhookEvent) error {
	panic("nil state dereference")
}

func TestWebhookHandlerPanicReturns500(t *testing.T) {
	server := NewServer(map[string]EventHandler{"WorkItem": panickingHandler{}}, nil, nil)

	rec := post(t, server.Handler(), `{"ResourcePermaKey":"w-1","ResourceType":"WorkItem","ActionType":"Updated"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error", rec.Body.String())
}

func TestHealthz(t *testing.T) {
	server := NewServer(nil, nil, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
