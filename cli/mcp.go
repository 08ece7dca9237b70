// ABOUTME: MCP server subcommand
// ABOUTME: Exposes workflow inspection tools over stdio for agent integration
package cli

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/avriosolutions/gehn/config"
	"github.com/avriosolutions/gehn/handlers"
)

// MCPCommand starts the MCP server on stdio.
func MCPCommand(cfg *config.Config, logger *slog.Logger) error {
	c, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	tools := handlers.NewToolHandlers(c.api, c.engine, c.journal, logger)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "gehn",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_work_state",
		Description: "Fetch a Karbon work item and decode its embedded cascade state",
	}, tools.GetWorkState)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_deliveries",
		Description: "List recent webhook deliveries from the local journal",
	}, tools.ListDeliveries)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fire_cascade",
		Description: "Run the cascade engine against one work item on demand",
	}, tools.FireCascade)

	ctx := context.Background()
	return server.Run(ctx, &mcp.StdioTransport{})
}
