// ABOUTME: Manual cascade subcommand
// ABOUTME: Fetches a work item and runs one cascade evaluation against it
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avriosolutions/gehn/config"
	"github.com/avriosolutions/gehn/models"
)

// CascadeCommand runs the cascade engine once for the given work item key,
// exactly as a webhook delivery would.
func CascadeCommand(cfg *config.Config, logger *slog.Logger, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("work item key required")
	}
	key := args[0]

	c, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	ctx := context.Background()
	item, err := c.api.GetEntity(ctx, models.EntityWorkItem, key, nil)
	if err != nil {
		return err
	}

	result, err := c.engine.Process(ctx, item)
	if err != nil {
		return err
	}

	fmt.Printf("Outcome: %s\n", result.Outcome)
	if result.ResultingWorkItemKey != "" {
		fmt.Printf("Created: %s (%s)\n", result.ResultingTitle, result.ResultingWorkItemKey)
	}
	return nil
}
