package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/dshills/quorum/internal/review"
)

// Config represents the quorum configuration.
type Config struct {
	Provider       string        `json:"provider"`
	Model          string        `json:"model"`
	Agents         []string      `json:"agents"`
	Format         string        `json:"format"`
	FailOn         string        `json:"failOn"`
	Instructions   string        `json:"instructions,omitempty"`
	PostComments   bool          `json:"postComments"`
	TimeoutSeconds int           `json:"timeoutSeconds"`
	Temperature    float64       `json:"temperature"`
	MaxDiffChars   int           `json:"maxDiffChars"`
	ContextLines   int           `json:"contextLines"`
	Include        []string      `json:"include"`
	Exclude        []string      `json:"exclude"`
	MaxDiffBytes   int           `json:"maxDiffBytes"`
	RosterFile     string        `json:"rosterFile,omitempty"`
	SkipExtensions []string      `json:"skipExtensions,omitempty"`
	SkipPatterns   []string      `json:"skipPatterns,omitempty"`
	Cache          CacheConfig   `json:"cache"`
	Privacy        PrivacyConfig `json:"privacy"`
	Server         ServerConfig  `json:"server"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// ServerConfig controls serve mode.
type ServerConfig struct {
	Addr          string `json:"addr"`
	WebhookSecret string `json:"webhookSecret,omitempty"`
	LogFile       string `json:"logFile,omitempty"`
	EventBuffer   int    `json:"eventBuffer"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:       "openrouter",
		Model:          "meta-llama/llama-3.1-8b-instruct:free",
		Agents:         review.DefaultAgentIDs(),
		Format:         "text",
		FailOn:         "none",
		TimeoutSeconds: 60,
		Temperature:    0.3,
		MaxDiffChars:   15000,
		ContextLines:   3,
		Include:        []string{"**/*"},
		Exclude:        []string{"vendor/**", "**/*.gen.go", "**/dist/**"},
		MaxDiffBytes:   500000,
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8000",
			EventBuffer: 256,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for quorum.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quorum"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	base := filepath.Join(home, ".config")
	switch runtime.GOOS {
	case "darwin":
		base = filepath.Join(home, "Library", "Application Support")
	case "windows":
		base = filepath.Join(home, "AppData", "Roaming")
		if appData := os.Getenv("APPDATA"); appData != "" {
			base = appData
		}
	}
	return filepath.Join(base, "quorum"), nil
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only set flags should be present).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()
	if err := overlayFile(&cfg); err != nil {
		return Config{}, err
	}
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)
	return cfg, nil
}

// LoadFile loads config from the config file as written, without defaults.
// Returns zero Config and nil error if the file doesn't exist.
func LoadFile() (Config, error) {
	var cfg Config
	if err := overlayFile(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// overlayFile unmarshals the config file over cfg. Fields the file omits
// keep whatever value cfg already holds; a missing file is not an error.
func overlayFile(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// envVars lists the environment variables Load recognizes, beyond the
// provider API keys which the providers package reads itself.
var envVars = []struct {
	name  string
	apply func(*Config, string)
}{
	{"QUORUM_PROVIDER", func(c *Config, v string) { c.Provider = v }},
	{"QUORUM_MODEL", func(c *Config, v string) { c.Model = v }},
	{"QUORUM_FORMAT", func(c *Config, v string) { c.Format = v }},
	{"QUORUM_FAIL_ON", func(c *Config, v string) { c.FailOn = v }},
	{"QUORUM_AGENTS", func(c *Config, v string) { c.Agents = review.ParseAgentList(v) }},
	{"QUORUM_TIMEOUT", func(c *Config, v string) { mergeInt(&c.TimeoutSeconds, v) }},
	{"GITHUB_WEBHOOK_SECRET", func(c *Config, v string) { c.Server.WebhookSecret = v }},
}

func mergeEnv(cfg *Config) {
	for _, e := range envVars {
		if v := os.Getenv(e.name); v != "" {
			e.apply(cfg, v)
		}
	}
}

// flagKeys maps CLI override keys to their merge behavior. Keys the CLI
// never sends are simply absent from the overrides map.
var flagKeys = map[string]func(*Config, string){
	"provider":     func(c *Config, v string) { c.Provider = v },
	"model":        func(c *Config, v string) { c.Model = v },
	"format":       func(c *Config, v string) { c.Format = v },
	"failOn":       func(c *Config, v string) { c.FailOn = v },
	"agents":       func(c *Config, v string) { c.Agents = review.ParseAgentList(v) },
	"instructions": func(c *Config, v string) { c.Instructions = v },
	"rosterFile":   func(c *Config, v string) { c.RosterFile = v },
	"timeout":      func(c *Config, v string) { mergeInt(&c.TimeoutSeconds, v) },
	"maxDiffChars": func(c *Config, v string) { mergeInt(&c.MaxDiffChars, v) },
	"maxDiffBytes": func(c *Config, v string) { mergeInt(&c.MaxDiffBytes, v) },
	"contextLines": func(c *Config, v string) { mergeInt(&c.ContextLines, v) },
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if apply, ok := flagKeys[key]; ok {
			apply(cfg, v)
		}
	}
}

// mergeInt stores the parsed value in dst, keeping the current value when
// v is not an integer. Merge layers never fail the load over a bad number;
// SetField is where values get validated.
func mergeInt(dst *int, v string) {
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "agents":
		cfg.Agents = review.ParseAgentList(value)
	case "instructions":
		cfg.Instructions = value
	case "rosterFile":
		cfg.RosterFile = value
	case "server.addr":
		cfg.Server.Addr = value
	case "server.webhookSecret":
		cfg.Server.WebhookSecret = value
	case "server.logFile":
		cfg.Server.LogFile = value
	case "postComments":
		return setBool(&cfg.PostComments, key, value)
	case "temperature":
		return setFloat(&cfg.Temperature, key, value)
	case "timeout":
		return setInt(&cfg.TimeoutSeconds, key, value)
	case "maxDiffChars":
		return setInt(&cfg.MaxDiffChars, key, value)
	case "maxDiffBytes":
		return setInt(&cfg.MaxDiffBytes, key, value)
	case "contextLines":
		return setInt(&cfg.ContextLines, key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

func setFloat(dst *float64, key, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number: %w", key, err)
	}
	*dst = f
	return nil
}
