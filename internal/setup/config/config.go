package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrConfigInvalid         = errors.New("config file failed validation")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.1.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	Bot    BotConfig
}

// CommonConfig contains configuration shared between the bot and the renderer.
type CommonConfig struct {
	// Version of the common config.
	Version int     `koanf:"version"`
	Debug   Debug   `koanf:"debug"`
	Redis   Redis   `koanf:"redis"`
	Retry   Retry   `koanf:"retry"`
	Fetch   Fetch   `koanf:"fetch"`
	Tracing Tracing `koanf:"tracing"`
	Assets  Assets  `koanf:"assets"`
	Card    Card    `koanf:"card"`
}

// BotConfig contains chat bot and tracker configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int     `koanf:"version"`
	Discord Discord `koanf:"discord"`
	Tracker Tracker `koanf:"tracker"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep" validate:"gte=1"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines" validate:"gte=100"`
}

// Redis contains Redis connection configuration for the asset cache.
type Redis struct {
	// Whether downloaded assets are cached in Redis.
	Enabled bool `koanf:"enabled"`
	// Redis hostname.
	Host string `koanf:"host" validate:"required_if=Enabled true"`
	// Redis port.
	Port int `koanf:"port" validate:"required_if=Enabled true,gte=0,lte=65535"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
	// How long cached assets live, in seconds.
	AssetTTL int `koanf:"asset_ttl" validate:"gte=0"`
}

// Retry contains retry configuration for remote fetches.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay" validate:"gte=0"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay" validate:"gtefield=Delay"`
	// Give up after this many milliseconds.
	MaxElapsed int `koanf:"max_elapsed" validate:"gte=0"`
}

// Fetch contains remote asset download configuration.
type Fetch struct {
	// Per-request timeout in milliseconds.
	Timeout int `koanf:"timeout" validate:"gt=0"`
	// Largest accepted payload in bytes.
	MaxBytes int64 `koanf:"max_bytes" validate:"gt=0"`
	// Outbound request rate; zero disables limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`
	// Burst size for the rate limiter.
	Burst int `koanf:"burst" validate:"gte=1"`
	// Concurrent downloads per render.
	Concurrency int `koanf:"concurrency" validate:"gte=1"`
}

// Tracing contains OpenTelemetry exporter configuration.
type Tracing struct {
	// Uptrace DSN; empty disables exporting.
	DSN string `koanf:"dsn"`
	// Service name reported with spans.
	ServiceName string `koanf:"service_name"`
}

// Assets locates templates and fonts.
type Assets struct {
	// Directory with template, mask and light images.
	Dir string `koanf:"dir" validate:"required"`
	// Directory with font files.
	FontDir string `koanf:"font_dir" validate:"required"`
	// Font file names.
	RegularFont  string `koanf:"regular_font" validate:"required"`
	BoldFont     string `koanf:"bold_font" validate:"required"`
	HeavyFont    string `koanf:"heavy_font" validate:"required"`
	FallbackFont string `koanf:"fallback_font" validate:"required"`
}

// Card contains status card rendering options.
type Card struct {
	// Longest display line in characters before truncation.
	LineMaxLength int `koanf:"line_max_length" validate:"gte=1"`
	// Marker appended to truncated lines.
	Ellipsis string `koanf:"ellipsis"`
}

// Discord contains chat platform configuration.
type Discord struct {
	// Bot token.
	Token string `koanf:"token" validate:"required"`
	// Guild whose members can be tracked.
	GuildID uint64 `koanf:"guild_id" validate:"required"`
}

// Tracker contains timeline tracking configuration.
type Tracker struct {
	// Directory holding one sub-directory per tracked user.
	DataDir string `koanf:"data_dir" validate:"required"`
	// Cron spec for the tick, evaluated in UTC.
	CronSpec string `koanf:"cron_spec" validate:"required"`
	// Random colour attempts before the hash-derived fallback.
	RandomAttempts int `koanf:"random_attempts" validate:"gte=0"`
}

// TimeoutDuration returns the fetch timeout as a duration.
func (f Fetch) TimeoutDuration() time.Duration {
	return time.Duration(f.Timeout) * time.Millisecond
}

// TTL returns the asset cache lifetime as a duration.
func (r Redis) TTL() time.Duration {
	return time.Duration(r.AssetTTL) * time.Second
}

// LoadConfig loads the configuration from the default search paths.
// Returns the config and the directory the first file was found in.
func LoadConfig() (*Config, string, error) {
	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".redqct",
		filepath.Join(homeDir, ".redqct", "config"),
		"/etc/redqct/config",
		"/app/config",
		"config",
		".",
	}

	return LoadConfigFrom(configPaths...)
}

// LoadConfigFrom loads common.toml and bot.toml from the first path holding each.
func LoadConfigFrom(configPaths ...string) (*Config, string, error) {
	k := koanf.New(".")

	// Load all config files
	var usedConfigPath string

	configFiles := []string{"common", "bot"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := filepath.Join(path, configName+".toml")
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	// Discord credentials are only needed by the bot
	if err := validator.New().StructExcept(&config, "Bot.Discord"); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	return &config, usedConfigPath, nil
}

// ValidateDiscord checks the chat platform credentials.
func (c *Config) ValidateDiscord() error {
	if err := validator.New().Struct(&c.Bot.Discord); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	return nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/redqct/redqct/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
