// ABOUTME: MCP tool handlers for inspecting and driving the automation
// ABOUTME: Implements get_work_state, list_deliveries, and fire_cascade tools
package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/avriosolutions/gehn/cascade"
	"github.com/avriosolutions/gehn/db"
	"github.com/avriosolutions/gehn/karbon"
	"github.com/avriosolutions/gehn/models"
	"github.com/avriosolutions/gehn/workstate"
)

// ToolHandlers backs the MCP inspection server.
type ToolHandlers struct {
	api     *karbon.Client
	engine  *cascade.Engine
	journal *db.Journal
	log     *slog.Logger
}

func NewToolHandlers(api *karbon.Client, engine *cascade.Engine, journal *db.Journal, logger *slog.Logger) *ToolHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolHandlers{api: api, engine: engine, journal: journal, log: logger}
}

type GetWorkStateInput struct {
	WorkItemKey string `json:"work_item_key" jsonschema:"Karbon work item key (required)"`
}

type GetWorkStateOutput struct {
	WorkItemKey string           `json:"work_item_key"`
	Title       string           `json:"title"`
	WorkStatus  string           `json:"work_status"`
	HasState    bool             `json:"has_state"`
	State       *workstate.State `json:"state,omitempty"`
}

// GetWorkState fetches a work item and decodes its embedded workflow state.
func (h *ToolHandlers) GetWorkState(ctx context.Context, _ *mcp.CallToolRequest, input GetWorkStateInput) (*mcp.CallToolResult, GetWorkStateOutput, error) {
	if input.WorkItemKey == "" {
		return nil, GetWorkStateOutput{}, fmt.Errorf("work_item_key is required")
	}

	item, err := h.api.GetEntity(ctx, models.EntityWorkItem, input.WorkItemKey, nil)
	if err != nil {
		return nil, GetWorkStateOutput{}, fmt.Errorf("failed to fetch work item: %w", err)
	}

	out := GetWorkStateOutput{
		WorkItemKey: item.String("WorkItemKey"),
		Title:       item.String("Title"),
		WorkStatus:  item.String("WorkStatus"),
	}
	state, err := workstate.Decode(item.String("Description"))
	if err != nil {
		return nil, out, fmt.Errorf("embedded state is malformed: %w", err)
	}
	out.HasState = state != nil
	out.State = state
	return nil, out, nil
}

type ListDeliveriesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum deliveries to return (default 50)"`
}

type DeliveryOutput struct {
	ID           string `json:"id"`
	ReceivedAt   string `json:"received_at"`
	ResourceType string `json:"resource_type"`
	ResourceKey  string `json:"resource_key"`
	ActionType   string `json:"action_type"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

type ListDeliveriesOutput struct {
	Deliveries []DeliveryOutput `json:"deliveries"`
	Count      int              `json:"count"`
}

// ListDeliveries returns recent journaled webhook deliveries.
func (h *ToolHandlers) ListDeliveries(_ context.Context, _ *mcp.CallToolRequest, input ListDeliveriesInput) (*mcp.CallToolResult, ListDeliveriesOutput, error) {
	deliveries, err := h.journal.ListDeliveries(input.Limit)
	if err != nil {
		return nil, ListDeliveriesOutput{}, fmt.Errorf("failed to list deliveries: %w", err)
	}

	out := ListDeliveriesOutput{Count: len(deliveries)}
	for _, d := range deliveries {
		out.Deliveries = append(out.Deliveries, DeliveryOutput{
			ID:           d.ID,
			ReceivedAt:   d.ReceivedAt.Format("2006-01-02 15:04:05"),
			ResourceType: d.ResourceType,
			ResourceKey:  d.ResourceKey,
			ActionType:   d.ActionType,
			Status:       d.Status,
			Error:        d.Error,
		})
	}
	return nil, out, nil
}

type FireCascadeInput struct {
	WorkItemKey string `json:"work_item_key" jsonschema:"Karbon work item key (required)"`
}

type FireCascadeOutput struct {
	Outcome              string `json:"outcome"`
	ResultingWorkItemKey string `json:"resulting_work_item_key,omitempty"`
	ResultingTitle       string `json:"resulting_title,omitempty"`
}

// FireCascade runs the cascade engine against one work item on demand, the
// same path a webhook delivery takes.
func (h *ToolHandlers) FireCascade(ctx context.Context, _ *mcp.CallToolRequest, input FireCascadeInput) (*mcp.CallToolResult, FireCascadeOutput, error) {
	if input.WorkItemKey == "" {
		return nil, FireCascadeOutput{}, fmt.Errorf("work_item_key is required")
	}

	item, err := h.api.GetEntity(ctx, models.EntityWorkItem, input.WorkItemKey, nil)
	if err != nil {
		return nil, FireCascadeOutput{}, fmt.Errorf("failed to fetch work item: %w", err)
	}

	result, err := h.engine.Process(ctx, item)
	if err != nil {
		return nil, FireCascadeOutput{}, fmt.Errorf("cascade failed: %w", err)
	}
	return nil, FireCascadeOutput{
		Outcome:              string(result.Outcome),
		ResultingWorkItemKey: result.ResultingWorkItemKey,
		ResultingTitle:       result.ResultingTitle,
	}, nil
}
