// ABOUTME: Shared component wiring for CLI commands
// ABOUTME: Builds the Karbon client, journal, cascade engine, and survey dispatcher from config
package cli

import (
	"log/slog"

	"github.com/avriosolutions/gehn/cascade"
	"github.com/avriosolutions/gehn/config"
	"github.com/avriosolutions/gehn/db"
	"github.com/avriosolutions/gehn/karbon"
	"github.com/avriosolutions/gehn/surveys"
)

// components holds everything a command might need, wired once per run.
type components struct {
	journal    *db.Journal
	api        *karbon.Client
	engine     *cascade.Engine
	dispatcher *surveys.Dispatcher
	log        *slog.Logger
}

func buildComponents(cfg *config.Config, logger *slog.Logger) (*components, error) {
	journal, err := db.Open(cfg.JournalPath)
	if err != nil {
		return nil, err
	}

	api := karbon.NewClient(cfg.KarbonAPIURL, cfg.KarbonBearerToken, cfg.KarbonAccessKey, cfg.NoteAuthor, logger)
	engine := cascade.New(api, journal, cfg.KarbonAppURL, logger)

	var dispatcher *surveys.Dispatcher
	if cfg.AskNicelyAPIKey != "" {
		surveyor := surveys.NewAskNicelyClient(cfg.AskNicelyURL, cfg.AskNicelyAPIKey, cfg.SurveyDelayMinutes, logger)
		dispatcher = surveys.NewDispatcher(api, surveyor, cfg.EligibleWorkTypes, cfg.DefaultAssignee, logger)
	} else {
		logger.Warn("ASKNICELY_API_KEY not set, survey dispatch disabled")
	}

	return &components{
		journal:    journal,
		api:        api,
		engine:     engine,
		dispatcher: dispatcher,
		log:        logger,
	}, nil
}

func (c *components) close() {
	_ = c.journal.Close()
}
