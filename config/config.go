/*
Package config loads and validates process configuration.

PURPOSE:
  Everything the bot needs to start lives here: Discord credentials,
  the spreadsheet identity and ranges, the channel permissions, and the
  ops server address. Configuration is resolved in three layers, later
  layers winning:

    1. Built-in defaults
    2. Optional YAML file (--config flag / CONFIG_FILE)
    3. Environment variables (a .env file is honored when present)

  Validation is all-at-once: a misconfigured deployment learns every
  missing setting from a single failed start, and the process never
  begins serving with a partial configuration.

ENVIRONMENT VARIABLES:
  DISCORD_TOKEN        bot token                              (required)
  DISCORD_APP_ID       application ID for command registration (required)
  DEV_GUILD_ID         guild for instant command sync (optional; global when empty)
  GOOGLE_SHEET_ID      spreadsheet ID                          (required)
  GOOGLE_SERVICE_JSON  service-account key: inline JSON or a file path (required)
  SALES_RANGE          sales range       (default Sales!A:G)
  ROSTER_RANGE         roster range      (default Roster!A:D)
  SALES_CHANNEL_ID     #sales channel                          (required)
  MANAGERS_CHANNEL_ID  #managers channel                       (required)
  DEALER_CHANNELS      id=Label pairs, comma separated (optional)
  OPS_ADDR             ops HTTP listen address (default :8080)
  LOG_LEVEL            debug|info|warn|error   (default info)

SEE ALSO:
  - cmd/salesbison: flag parsing and startup
*/
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the fully resolved, validated process configuration.
type Config struct {
	DiscordToken string
	DiscordAppID string
	DevGuildID   string // empty means global command sync

	SheetID     string
	ServiceJSON []byte // service-account key material
	SalesRange  string
	RosterRange string

	SalesChannelID    string
	ManagersChannelID string
	// DealerChannels maps a dealer channel ID to the dealer-group label
	// written into the manager column of its bulk rows.
	DealerChannels map[string]string

	OpsAddr  string
	LogLevel slog.Level
}

// fileConfig is the YAML layer. Field names match what an operator would
// naturally write; anything omitted falls through to env or defaults.
type fileConfig struct {
	DiscordToken      string            `yaml:"discord_token"`
	DiscordAppID      string            `yaml:"discord_app_id"`
	DevGuildID        string            `yaml:"dev_guild_id"`
	SheetID           string            `yaml:"sheet_id"`
	ServiceJSON       string            `yaml:"service_json"` // inline JSON or a file path
	SalesRange        string            `yaml:"sales_range"`
	RosterRange       string            `yaml:"roster_range"`
	SalesChannelID    string            `yaml:"sales_channel_id"`
	ManagersChannelID string            `yaml:"managers_channel_id"`
	DealerChannels    map[string]string `yaml:"dealer_channels"`
	OpsAddr           string            `yaml:"ops_addr"`
	LogLevel          string            `yaml:"log_level"`
}

// Load resolves configuration from defaults, an optional YAML file, and
// the environment. path may be empty; CONFIG_FILE is consulted then.
func Load(path string) (*Config, error) {
	// A local .env is a development convenience, never required.
	_ = godotenv.Load()

	cfg := &Config{
		SalesRange:  "Sales!A:G",
		RosterRange: "Roster!A:D",
		OpsAddr:     ":8080",
		LogLevel:    slog.LevelInfo,
	}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	serviceJSON := ""
	if path != "" {
		fc, err := readFile(path)
		if err != nil {
			return nil, err
		}
		applyString(&cfg.DiscordToken, fc.DiscordToken)
		applyString(&cfg.DiscordAppID, fc.DiscordAppID)
		applyString(&cfg.DevGuildID, fc.DevGuildID)
		applyString(&cfg.SheetID, fc.SheetID)
		applyString(&serviceJSON, fc.ServiceJSON)
		applyString(&cfg.SalesRange, fc.SalesRange)
		applyString(&cfg.RosterRange, fc.RosterRange)
		applyString(&cfg.SalesChannelID, fc.SalesChannelID)
		applyString(&cfg.ManagersChannelID, fc.ManagersChannelID)
		applyString(&cfg.OpsAddr, fc.OpsAddr)
		if len(fc.DealerChannels) > 0 {
			cfg.DealerChannels = fc.DealerChannels
		}
		if fc.LogLevel != "" {
			lvl, err := parseLogLevel(fc.LogLevel)
			if err != nil {
				return nil, err
			}
			cfg.LogLevel = lvl
		}
	}

	// Environment overrides.
	applyString(&cfg.DiscordToken, os.Getenv("DISCORD_TOKEN"))
	applyString(&cfg.DiscordAppID, os.Getenv("DISCORD_APP_ID"))
	applyString(&cfg.DevGuildID, os.Getenv("DEV_GUILD_ID"))
	applyString(&cfg.SheetID, os.Getenv("GOOGLE_SHEET_ID"))
	applyString(&serviceJSON, os.Getenv("GOOGLE_SERVICE_JSON"))
	applyString(&cfg.SalesRange, os.Getenv("SALES_RANGE"))
	applyString(&cfg.RosterRange, os.Getenv("ROSTER_RANGE"))
	applyString(&cfg.SalesChannelID, os.Getenv("SALES_CHANNEL_ID"))
	applyString(&cfg.ManagersChannelID, os.Getenv("MANAGERS_CHANNEL_ID"))
	applyString(&cfg.OpsAddr, os.Getenv("OPS_ADDR"))
	if env := os.Getenv("DEALER_CHANNELS"); env != "" {
		dealers, err := parseDealerChannels(env)
		if err != nil {
			return nil, err
		}
		cfg.DealerChannels = dealers
	}
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		lvl, err := parseLogLevel(env)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = lvl
	}

	if serviceJSON != "" {
		key, err := resolveServiceJSON(serviceJSON)
		if err != nil {
			return nil, err
		}
		cfg.ServiceJSON = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigError lists every required setting a deployment is missing.
// Startup treats it as fatal: the process never serves on a partial
// configuration.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "config: missing required settings: " + strings.Join(e.Missing, ", ")
}

func (c *Config) validate() error {
	var missing []string
	if c.DiscordToken == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	if c.DiscordAppID == "" {
		missing = append(missing, "DISCORD_APP_ID")
	}
	if c.SheetID == "" {
		missing = append(missing, "GOOGLE_SHEET_ID")
	}
	if len(c.ServiceJSON) == 0 {
		missing = append(missing, "GOOGLE_SERVICE_JSON")
	}
	if c.SalesChannelID == "" {
		missing = append(missing, "SALES_CHANNEL_ID")
	}
	if c.ManagersChannelID == "" {
		missing = append(missing, "MANAGERS_CHANNEL_ID")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ConfigError{Missing: missing}
	}
	return nil
}

func readFile(path string) (*fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	fc := &fileConfig{}
	if err := yaml.Unmarshal(raw, fc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return fc, nil
}

// resolveServiceJSON accepts either the key itself or a path to it.
// Inline keys start with "{"; anything else is read as a file.
func resolveServiceJSON(v string) ([]byte, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "{") {
		if !json.Valid([]byte(v)) {
			return nil, fmt.Errorf("config: GOOGLE_SERVICE_JSON is not valid JSON")
		}
		return []byte(v), nil
	}
	raw, err := os.ReadFile(v)
	if err != nil {
		return nil, fmt.Errorf("config: reading service key %s: %w", v, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("config: service key %s is not valid JSON", v)
	}
	return raw, nil
}

// parseDealerChannels parses "id=Label,id=Label". Labels may contain
// spaces; IDs may not.
func parseDealerChannels(env string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(env, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, label, ok := strings.Cut(pair, "=")
		id, label = strings.TrimSpace(id), strings.TrimSpace(label)
		if !ok || id == "" || label == "" {
			return nil, fmt.Errorf("config: bad DEALER_CHANNELS entry %q, want id=Label", pair)
		}
		out[id] = label
	}
	return out, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log level %q", s)
	}
}

func applyString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// DealerLabel returns the dealer-group label for a channel and whether
// the channel is a dealer context at all.
func (c *Config) DealerLabel(channelID string) (string, bool) {
	label, ok := c.DealerChannels[channelID]
	return label, ok
}

// GeneralChannel reports whether a channel is one of the two general
// command contexts (#sales or #managers).
func (c *Config) GeneralChannel(channelID string) bool {
	return channelID == c.SalesChannelID || channelID == c.ManagersChannelID
}
