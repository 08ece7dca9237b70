// ABOUTME: Entry point for the gehn webhook automation service
// ABOUTME: Routes to serve, mcp, tui, cascade, viz, and journal commands
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/avriosolutions/gehn/cli"
	"github.com/avriosolutions/gehn/config"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("gehn version %s\n", version)
		os.Exit(0)
	}

	logger := newLogger(*debug)
	slog.SetDefault(logger)

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "serve":
		err = cli.ServeCommand(cfg, logger)
	case "mcp":
		err = cli.MCPCommand(cfg, logger)
	case "tui":
		err = cli.TUICommand(cfg, logger)
	case "cascade":
		err = cli.CascadeCommand(cfg, logger, commandArgs)
	case "viz":
		err = cli.VizCommand(cfg, logger, commandArgs)
	case "journal":
		err = cli.JournalCommand(cfg, logger, commandArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func printUsage() {
	fmt.Println(`gehn - Karbon webhook automation

Usage:
  gehn serve               Start the webhook server
  gehn mcp                 Start the MCP inspection server on stdio
  gehn tui                 Browse the delivery journal interactively
  gehn cascade <work-key>  Run the cascade engine for one work item
  gehn viz <work-key>      Render a work item's cascade chain (-svg, -output)
  gehn journal             Show recent webhook deliveries (-limit)

Flags:
  -version                 Show version and exit
  -debug                   Enable debug logging

Environment:
  KARBON_BEARER_TOKEN      Karbon API bearer token (required)
  KARBON_ACCESS_KEY        Karbon tenant access key (required)
  ASKNICELY_API_KEY        AskNicely API key (surveys disabled when unset)
  NPS_ELIGIBLE_WORK_TYPES  Comma-separated work types eligible for surveys
  GEHN_PORT                Webhook server port (default 8080)
  GEHN_DB_PATH             Journal database path`)
}
