// ABOUTME: Visualization subcommand
// ABOUTME: Renders a work item's cascade chain as DOT or SVG
package cli

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/avriosolutions/gehn/config"
	"github.com/avriosolutions/gehn/models"
	"github.com/avriosolutions/gehn/viz"
)

// VizCommand renders the cascade chain for one work item.
func VizCommand(cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("viz", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	svg := fs.Bool("svg", false, "Render SVG instead of DOT")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("work item key required")
	}
	key := fs.Arg(0)

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

	var rendered []byte
	if *svg {
		rendered, err = viz.ChainSVG(ctx, item)
	} else {
		var dot string
		dot, err = viz.ChainDOT(ctx, item)
		rendered = []byte(dot)
	}
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, rendered, 0644)
	}
	fmt.Println(string(rendered))
	return nil
}
