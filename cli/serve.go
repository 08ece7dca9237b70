// ABOUTME: Webhook server subcommand
// ABOUTME: Starts the ingress HTTP server with all three resource handlers wired
package cli

import (
	"log/slog"

	"github.com/avriosolutions/gehn/config"
	"github.com/avriosolutions/gehn/handlers"
	"github.com/avriosolutions/gehn/models"
	"github.com/avriosolutions/gehn/web"
)

// ServeCommand runs the webhook ingress server until it fails or is killed.
func ServeCommand(cfg *config.Config, logger *slog.Logger) error {
	c, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	eventHandlers := map[string]web.EventHandler{
		string(models.EntityWorkItem): handlers.NewWorkItemHandler(c.api, c.engine, c.dispatcher, logger),
		string(models.EntityContact):  handlers.NewContactHandler(logger),
		string(models.EntityNote):     handlers.NewNoteHandler(logger),
	}

	server := web.NewServer(eventHandlers, c.journal, logger)
	return server.Start(cfg.Port)
}
