// Package config provides Viper-based configuration loading for codebattle.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings for the redis profile backend.
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	MaxRetries int    `mapstructure:"max_retries"`
	// KeyPrefix namespaces profile keys.
	KeyPrefix string `mapstructure:"key_prefix"`
	// TTL expires stored profiles; 0 keeps them forever.
	TTL time.Duration `mapstructure:"ttl"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is a zap sink: "stderr", "stdout", or a file path. The terminal
	// game renders on stdout, so logs default to a file.
	Output string `mapstructure:"output"`
}

// StorageConfig selects where the player profile lives.
type StorageConfig struct {
	// Backend is one of "memory", "file", "postgres", "redis".
	Backend string `mapstructure:"backend"`
	// Dir is the profile directory for the file backend.
	Dir string `mapstructure:"dir"`
}

// PlayerConfig identifies the local player.
type PlayerConfig struct {
	ProfileID string `mapstructure:"profile_id"`
	// StarterPath is a YAML starting character; empty selects the built-in one.
	StarterPath string `mapstructure:"starter_path"`
}

// AnthropicConfig holds language model settings for the llm provider.
type AnthropicConfig struct {
	Model string `mapstructure:"model"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv  string `mapstructure:"api_key_env"`
	MaxTokens  int    `mapstructure:"max_tokens"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// APIKey reads the key from the configured environment variable.
func (a AnthropicConfig) APIKey() string { return os.Getenv(a.APIKeyEnv) }

// ProviderConfig selects where enemies and their decisions come from.
type ProviderConfig struct {
	// Definitions is "roster" or "llm".
	Definitions string `mapstructure:"definitions"`
	// Decisions is "tactician", "script", or "llm".
	Decisions string `mapstructure:"decisions"`
	// RosterDir holds enemy YAML templates.
	RosterDir string `mapstructure:"roster_dir"`
	// ScriptPath is a Lua file or directory defining choose_action.
	ScriptPath string `mapstructure:"script_path"`
	// InstructionLimit bounds each script call.
	InstructionLimit int             `mapstructure:"instruction_limit"`
	Anthropic        AnthropicConfig `mapstructure:"anthropic"`
}

// BattleConfig holds encounter timing and randomness settings.
type BattleConfig struct {
	DefinitionTimeout time.Duration `mapstructure:"definition_timeout"`
	DecisionTimeout   time.Duration `mapstructure:"decision_timeout"`
	SaveTimeout       time.Duration `mapstructure:"save_timeout"`
	PortraitTimeout   time.Duration `mapstructure:"portrait_timeout"`
	// Seed makes rolls reproducible; 0 uses crypto randomness.
	Seed uint64 `mapstructure:"seed"`
	// EventBuffer sizes the presentation event channel.
	EventBuffer int `mapstructure:"event_buffer"`
}

// PortraitConfig holds image generation settings.
type PortraitConfig struct {
	// Enabled turns on remote generation; placeholders are used otherwise.
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
	// RequestSize is the image size asked of the endpoint, e.g. "1024x1024".
	RequestSize string `mapstructure:"request_size"`
	// Size is the edge length in pixels portraits are normalized to.
	Size      int           `mapstructure:"size"`
	APIKeyEnv string        `mapstructure:"api_key_env"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// OutputDir receives resolved portraits as PNG files; empty disables.
	OutputDir string `mapstructure:"output_dir"`
}

// APIKey reads the key from the configured environment variable.
func (p PortraitConfig) APIKey() string { return os.Getenv(p.APIKeyEnv) }

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Player   PlayerConfig   `mapstructure:"player"`
	Provider ProviderConfig `mapstructure:"provider"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Portrait PortraitConfig `mapstructure:"portrait"`
}

// Validate checks all configuration invariants. Database and Redis settings
// are only checked when the storage backend uses them.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	switch c.Storage.Backend {
	case "postgres":
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	case "redis":
		if err := validateRedis(c.Redis); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Player.ProfileID == "" {
		errs = append(errs, "player.profile_id must not be empty")
	}
	if err := validateProvider(c.Provider); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validatePortrait(c.Portrait); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		errs = append(errs, fmt.Sprintf("database.min_conns must be 0-%d, got %d", d.MaxConns, d.MinConns))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateRedis(r RedisConfig) error {
	var errs []string
	if r.Addr == "" {
		errs = append(errs, "redis.addr must not be empty")
	}
	if r.DB < 0 {
		errs = append(errs, fmt.Sprintf("redis.db must be >= 0, got %d", r.DB))
	}
	if r.TTL < 0 {
		errs = append(errs, "redis.ttl must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.Output == "" {
		return errors.New("logging.output must not be empty")
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Backend {
	case "memory", "postgres", "redis":
		return nil
	case "file":
		if s.Dir == "" {
			return errors.New("storage.dir must not be empty for the file backend")
		}
		return nil
	default:
		return fmt.Errorf("storage.backend must be one of [memory, file, postgres, redis], got %q", s.Backend)
	}
}

func validateProvider(p ProviderConfig) error {
	var errs []string
	switch p.Definitions {
	case "roster":
		if p.RosterDir == "" {
			errs = append(errs, "provider.roster_dir must not be empty for roster definitions")
		}
	case "llm":
	default:
		errs = append(errs, fmt.Sprintf("provider.definitions must be one of [roster, llm], got %q", p.Definitions))
	}
	switch p.Decisions {
	case "tactician", "llm":
	case "script":
		if p.ScriptPath == "" {
			errs = append(errs, "provider.script_path must not be empty for script decisions")
		}
		if p.InstructionLimit < 1 {
			errs = append(errs, fmt.Sprintf("provider.instruction_limit must be >= 1, got %d", p.InstructionLimit))
		}
	default:
		errs = append(errs, fmt.Sprintf("provider.decisions must be one of [tactician, script, llm], got %q", p.Decisions))
	}
	if p.Definitions == "llm" || p.Decisions == "llm" {
		if p.Anthropic.Model == "" {
			errs = append(errs, "provider.anthropic.model must not be empty")
		}
		if p.Anthropic.APIKeyEnv == "" {
			errs = append(errs, "provider.anthropic.api_key_env must not be empty")
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	for name, d := range map[string]time.Duration{
		"definition_timeout": b.DefinitionTimeout,
		"decision_timeout":   b.DecisionTimeout,
		"save_timeout":       b.SaveTimeout,
		"portrait_timeout":   b.PortraitTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("battle.%s must be positive, got %s", name, d))
		}
	}
	if b.EventBuffer < 1 {
		errs = append(errs, fmt.Sprintf("battle.event_buffer must be >= 1, got %d", b.EventBuffer))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validatePortrait(p PortraitConfig) error {
	var errs []string
	if p.Size < 16 || p.Size > 1024 {
		errs = append(errs, fmt.Sprintf("portrait.size must be 16-1024, got %d", p.Size))
	}
	if p.Enabled {
		if p.Endpoint == "" {
			errs = append(errs, "portrait.endpoint must not be empty when enabled")
		}
		if p.Model == "" {
			errs = append(errs, "portrait.model must not be empty when enabled")
		}
		if p.Timeout <= 0 {
			errs = append(errs, "portrait.timeout must be positive when enabled")
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with CODEBATTLE_ prefix
	v.SetEnvPrefix("CODEBATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only default values, suitable
// for running without a config file.
func Defaults() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CODEBATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "codebattle.log")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "codebattle")
	v.SetDefault("database.password", "codebattle")
	v.SetDefault("database.name", "codebattle")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.key_prefix", "codebattle:profile:")
	v.SetDefault("redis.ttl", "0s")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dir", ".codebattle")

	v.SetDefault("player.profile_id", "local")
	v.SetDefault("player.starter_path", "")

	v.SetDefault("provider.definitions", "roster")
	v.SetDefault("provider.decisions", "script")
	v.SetDefault("provider.roster_dir", "content/enemies")
	v.SetDefault("provider.script_path", "content/scripts")
	v.SetDefault("provider.instruction_limit", 100000)
	v.SetDefault("provider.anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("provider.anthropic.api_key_env", "ANTHROPIC_API_KEY")
	v.SetDefault("provider.anthropic.max_tokens", 1024)
	v.SetDefault("provider.anthropic.max_retries", 2)

	v.SetDefault("battle.definition_timeout", "15s")
	v.SetDefault("battle.decision_timeout", "10s")
	v.SetDefault("battle.save_timeout", "5s")
	v.SetDefault("battle.portrait_timeout", "30s")
	v.SetDefault("battle.seed", 0)
	v.SetDefault("battle.event_buffer", 256)

	v.SetDefault("portrait.enabled", false)
	v.SetDefault("portrait.endpoint", "https://api.openai.com/v1/images/generations")
	v.SetDefault("portrait.model", "dall-e-3")
	v.SetDefault("portrait.request_size", "1024x1024")
	v.SetDefault("portrait.size", 256)
	v.SetDefault("portrait.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("portrait.timeout", "60s")
	v.SetDefault("portrait.output_dir", "")
}
