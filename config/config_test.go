// ABOUTME: Tests for environment-driven configuration
// ABOUTME: Uses t.Setenv so each test gets a clean environment
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("KARBON_BEARER_TOKEN", "token")
	t.Setenv("KARBON_ACCESS_KEY", "access")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.KarbonBearerToken)
	assert.Equal(t, "access", cfg.KarbonAccessKey)
	assert.Equal(t, "https://api.karbonhq.com/v3", cfg.KarbonAPIURL)
	assert.Equal(t, "https://app2.karbonhq.com", cfg.KarbonAppURL)
	assert.Equal(t, 1440, cfg.SurveyDelayMinutes)
	assert.Equal(t, "karbonbot@avriopro.com", cfg.NoteAuthor)
	assert.Equal(t, 8080, cfg.Port)
	assert.NotEmpty(t, cfg.JournalPath)
	assert.Empty(t, cfg.EligibleWorkTypes)
}

func TestLoadRequiresKarbonCredentials(t *testing.T) {
	t.Setenv("KARBON_BEARER_TOKEN", "")
	t.Setenv("KARBON_ACCESS_KEY", "access")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KARBON_BEARER_TOKEN")

	t.Setenv("KARBON_BEARER_TOKEN", "token")
	t.Setenv("KARBON_ACCESS_KEY", "")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KARBON_ACCESS_KEY")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("KARBON_API_URL", "https://karbon.test/v3")
	t.Setenv("GEHN_PORT", "9090")
	t.Setenv("ASKNICELY_DELAY_MINUTES", "60")
	t.Setenv("GEHN_DB_PATH", "/tmp/test.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://karbon.test/v3", cfg.KarbonAPIURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 60, cfg.SurveyDelayMinutes)
	assert.Equal(t, "/tmp/test.db", cfg.JournalPath)
}

func TestLoadBadIntFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("GEHN_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

func TestEligibleWorkTypes(t *testing.T) {
	setRequired(t)
	t.Setenv("NPS_ELIGIBLE_WORK_TYPES", "Bookkeeping, Tax Return ,,Payroll")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Bookkeeping", "Tax Return", "Payroll"}, cfg.EligibleWorkTypes)
}
