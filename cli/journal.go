// ABOUTME: Journal subcommands
// ABOUTME: Prints recent webhook deliveries or opens the interactive browser
package cli

import (
	"flag"
	"fmt"
	"log/slog"

	"github.com/avriosolutions/gehn/config"
	"github.com/avriosolutions/gehn/db"
	"github.com/avriosolutions/gehn/tui"
)

// JournalCommand prints recent webhook deliveries.
func JournalCommand(cfg *config.Config, _ *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of deliveries to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	journal, err := db.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	deliveries, err := journal.ListDeliveries(*limit)
	if err != nil {
		return err
	}
	if len(deliveries) == 0 {
		fmt.Println("No deliveries recorded.")
		return nil
	}

	fmt.Printf("%-19s  %-12s  %-24s  %-10s  %-9s  %s\n",
		"RECEIVED", "RESOURCE", "KEY", "ACTION", "STATUS", "ERROR")
	for _, d := range deliveries {
		fmt.Printf("%-19s  %-12s  %-24s  %-10s  %-9s  %s\n",
			d.ReceivedAt.Format("2006-01-02 15:04:05"),
			d.ResourceType, d.ResourceKey, d.ActionType, d.Status, d.Error)
	}
	return nil
}

// TUICommand opens the interactive journal browser.
func TUICommand(cfg *config.Config, _ *slog.Logger) error {
	journal, err := db.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	return tui.Run(journal)
}
