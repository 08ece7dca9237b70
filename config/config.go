// ABOUTME: Process configuration loaded once at startup from the environment
// ABOUTME: Supports .env files via godotenv and sensible defaults for optional values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	defaultKarbonAPIURL    = "https://api.karbonhq.com/v3"
	defaultKarbonAppURL    = "https://app2.karbonhq.com"
	defaultAskNicelyURL    = "https://avriosolutions.asknice.ly/api/v1/contact/trigger"
	defaultNoteAuthor      = "karbonbot@avriopro.com"
	defaultSurveyDelayMins = 1440
	defaultPort            = 8080
)

// Config holds everything the process needs. It is built once in main and
// passed explicitly into each component; no package reads the environment on
// its own.
type Config struct {
	KarbonBearerToken string
	KarbonAccessKey   string
	KarbonAPIURL      string
	KarbonAppURL      string

	AskNicelyAPIKey    string
	AskNicelyURL       string
	SurveyDelayMinutes int

	// Work types whose completion triggers an NPS survey.
	EligibleWorkTypes []string

	NoteAuthor      string
	DefaultAssignee string

	Port        int
	JournalPath string
}

// Load builds a Config from the environment. A .env file in the working
// directory is read first when present. Karbon credentials are required;
// everything else has a default.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		KarbonBearerToken:  os.Getenv("KARBON_BEARER_TOKEN"),
		KarbonAccessKey:    os.Getenv("KARBON_ACCESS_KEY"),
		KarbonAPIURL:       envOr("KARBON_API_URL", defaultKarbonAPIURL),
		KarbonAppURL:       envOr("KARBON_APP_URL", defaultKarbonAppURL),
		AskNicelyAPIKey:    os.Getenv("ASKNICELY_API_KEY"),
		AskNicelyURL:       envOr("ASKNICELY_API_URL", defaultAskNicelyURL),
		SurveyDelayMinutes: envInt("ASKNICELY_DELAY_MINUTES", defaultSurveyDelayMins),
		NoteAuthor:         envOr("GEHN_NOTE_AUTHOR", defaultNoteAuthor),
		DefaultAssignee:    os.Getenv("GEHN_DEFAULT_ASSIGNEE"),
		Port:               envInt("GEHN_PORT", defaultPort),
		JournalPath:        envOr("GEHN_DB_PATH", DefaultJournalPath()),
	}

	if types := os.Getenv("NPS_ELIGIBLE_WORK_TYPES"); types != "" {
		for _, t := range strings.Split(types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.EligibleWorkTypes = append(cfg.EligibleWorkTypes, t)
			}
		}
	}

	if cfg.KarbonBearerToken == "" {
		return nil, fmt.Errorf("KARBON_BEARER_TOKEN is required")
	}
	if cfg.KarbonAccessKey == "" {
		return nil, fmt.Errorf("KARBON_ACCESS_KEY is required")
	}

	return cfg, nil
}

// DefaultJournalPath returns the XDG-compliant path for the local journal.
func DefaultJournalPath() string {
	return filepath.Join(xdg.DataHome, "gehn", "gehn.db")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
