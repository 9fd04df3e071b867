/*
PURPOSE:
  Configuration layering and validation tests. Each test pins one rule:
  which layer wins, what counts as missing, and how the operator-facing
  formats (dealer channel pairs, service keys) are parsed.
*/
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisonhq/salesbison/config"
)

// clearEnv blanks every variable Load consults so a test starts from a
// known state regardless of the developer's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DISCORD_TOKEN", "DISCORD_APP_ID", "DEV_GUILD_ID",
		"GOOGLE_SHEET_ID", "GOOGLE_SERVICE_JSON",
		"SALES_RANGE", "ROSTER_RANGE",
		"SALES_CHANNEL_ID", "MANAGERS_CHANNEL_ID", "DEALER_CHANNELS",
		"OPS_ADDR", "LOG_LEVEL", "CONFIG_FILE",
	} {
		t.Setenv(key, "")
	}
}

// setRequiredEnv populates the minimum viable environment.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "tok-123")
	t.Setenv("DISCORD_APP_ID", "9001")
	t.Setenv("GOOGLE_SHEET_ID", "sheet-abc")
	t.Setenv("GOOGLE_SERVICE_JSON", `{"type":"service_account"}`)
	t.Setenv("SALES_CHANNEL_ID", "111")
	t.Setenv("MANAGERS_CHANNEL_ID", "222")
}

func TestLoad_MissingEverythingListsAllSettings(t *testing.T) {
	// GIVEN an empty environment
	clearEnv(t)

	// WHEN loading
	_, err := config.Load("")

	// THEN every required setting is named in one ConfigError
	require.Error(t, err)
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{
		"DISCORD_APP_ID", "DISCORD_TOKEN", "GOOGLE_SERVICE_JSON",
		"GOOGLE_SHEET_ID", "MANAGERS_CHANNEL_ID", "SALES_CHANNEL_ID",
	}, cfgErr.Missing)
}

func TestLoad_EnvOnlyAppliesDefaults(t *testing.T) {
	// GIVEN only the required environment
	setRequiredEnv(t)

	// WHEN loading
	cfg, err := config.Load("")
	require.NoError(t, err)

	// THEN required values land and defaults fill the rest
	assert.Equal(t, "tok-123", cfg.DiscordToken)
	assert.Equal(t, "9001", cfg.DiscordAppID)
	assert.Equal(t, "sheet-abc", cfg.SheetID)
	assert.Equal(t, []byte(`{"type":"service_account"}`), cfg.ServiceJSON)
	assert.Equal(t, "Sales!A:G", cfg.SalesRange)
	assert.Equal(t, "Roster!A:D", cfg.RosterRange)
	assert.Equal(t, ":8080", cfg.OpsAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.DevGuildID)
	assert.Empty(t, cfg.DealerChannels)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	// GIVEN a YAML file and an environment that disagrees on the sheet
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "salesbison.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"sheet_id: from-file\nops_addr: \":9999\"\nsales_range: \"Ledger!A:G\"\n",
	), 0o600))
	t.Setenv("GOOGLE_SHEET_ID", "from-env")

	// WHEN loading with the file
	cfg, err := config.Load(path)
	require.NoError(t, err)

	// THEN the environment wins where both speak, the file fills the rest
	assert.Equal(t, "from-env", cfg.SheetID)
	assert.Equal(t, ":9999", cfg.OpsAddr)
	assert.Equal(t, "Ledger!A:G", cfg.SalesRange)
}

func TestLoad_ConfigFileEnvPointsAtFile(t *testing.T) {
	// GIVEN CONFIG_FILE instead of an explicit path
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dev_guild_id: \"777\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "777", cfg.DevGuildID)
}

func TestLoad_DealerChannelPairs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEALER_CHANNELS", "333=Eastside Dealers, 444=Westside Dealers")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"333": "Eastside Dealers",
		"444": "Westside Dealers",
	}, cfg.DealerChannels)
}

func TestLoad_DealerChannelBadPair(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEALER_CHANNELS", "333")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEALER_CHANNELS")
}

func TestLoad_ServiceKeyFromFile(t *testing.T) {
	// GIVEN the key stored on disk rather than inline
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"service_account","project_id":"p"}`), 0o600))
	t.Setenv("GOOGLE_SERVICE_JSON", path)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Contains(t, string(cfg.ServiceJSON), "project_id")
}

func TestLoad_ServiceKeyRejectsGarbage(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_SERVICE_JSON", `{"type": oops`)

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestLoad_LogLevels(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)

	t.Setenv("LOG_LEVEL", "shouting")
	_, err = config.Load("")
	require.Error(t, err)
}

func TestConfig_ChannelHelpers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEALER_CHANNELS", "333=Eastside Dealers")
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.True(t, cfg.GeneralChannel("111"))
	assert.True(t, cfg.GeneralChannel("222"))
	assert.False(t, cfg.GeneralChannel("333"))

	label, ok := cfg.DealerLabel("333")
	assert.True(t, ok)
	assert.Equal(t, "Eastside Dealers", label)
	_, ok = cfg.DealerLabel("111")
	assert.False(t, ok)
}
