// ABOUTME: Tests for the work item webhook handler
// ABOUTME: Runs the pipeline against a stub Karbon server over a real client
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avriosolutions/gehn/cascade"
	"github.com/avriosolutions/gehn/karbon"
	"github.com/avriosolutions/gehn/models"
)

func newStubKarbon(t *testing.T, routes map[string]string) (*httptest.Server, *karbon.Client) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	client := karbon.NewClient(server.URL, "test-token", "test-access", "bot@example.com", nil)
	return server, client
}

func TestHandleQuietWorkItem(t *testing.T) {
	// No embedded state, no schedule: every workflow is a no-op.
	_, client := newStubKarbon(t, map[string]string{
		"GET /WorkItems/w-1": `{"WorkItemKey":"w-1","Title":"Plain work","WorkStatus":"In Progress","Description":"nothing embedded"}`,
	})
	engine := cascade.New(client, nil, "https://app.example.com", nil)
	handler := NewWorkItemHandler(client, engine, nil, nil)

	err := handler.Handle(context.Background(), models.WebhookEvent{
		ResourcePermaKey: "w-1",
		ResourceType:     "WorkItem",
		ActionType:       "Updated",
	})
	require.NoError(t, err)
}

func TestHandleFetchFailureIsFatal(t *testing.T) {
	_, client := newStubKarbon(t, map[string]string{})
	engine := cascade.New(client, nil, "https://app.example.com", nil)
	handler := NewWorkItemHandler(client, engine, nil, nil)

	err := handler.Handle(context.Background(), models.WebhookEvent{
		ResourcePermaKey: "w-404",
		ResourceType:     "WorkItem",
		ActionType:       "Updated",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "w-404")
}
