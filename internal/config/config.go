package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	internalsettings "github.com/folio-studio/contactgate/internal/settings"
	"gopkg.in/yaml.v3"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(internalsettings.EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingEmailSettings indicates email dispatch is enabled without sender or recipients.
var ErrMissingEmailSettings = errors.New("missing email settings (set `email.from` and `email.to` or disable email)")

// Config is the YAML file layout.
type Config struct {
	Host        string          `yaml:"host"`
	Port        int             `yaml:"port"`
	SiteName    string          `yaml:"site-name"`
	TimeZone    string          `yaml:"time-zone"`
	CORSOrigins []string        `yaml:"cors-origins"`
	RateLimit   RateLimitConfig `yaml:"rate-limit"`
	Email       EmailConfig     `yaml:"email"`
	Stats       StatsConfig     `yaml:"stats"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// RateLimitConfig holds the fixed-window admission settings.
type RateLimitConfig struct {
	Window             time.Duration `yaml:"window"`
	MaxRequests        int           `yaml:"max-requests"`
	CleanupProbability float64       `yaml:"cleanup-probability"`
}

// EmailConfig holds transactional email settings. With Enabled false leads are logged instead of mailed.
type EmailConfig struct {
	Enabled       bool          `yaml:"enabled"`
	APIURL        string        `yaml:"api-url"`
	APIKey        string        `yaml:"api-key"`
	From          string        `yaml:"from"`
	To            []string      `yaml:"to"`
	RatePerSecond float64       `yaml:"rate-per-second"`
	Timeout       time.Duration `yaml:"timeout"`
}

// StatsConfig selects the outcome counter backend.
type StatsConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds the optional Redis stats backend settings.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// LoggingConfig controls the logrus output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File enables rotating file output when non-empty.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Port:     internalsettings.DefaultPort,
		SiteName: internalsettings.DefaultSiteName,
		TimeZone: internalsettings.DefaultDisplayTimeZone,
		RateLimit: RateLimitConfig{
			Window:             internalsettings.DefaultRateLimitWindow,
			MaxRequests:        internalsettings.DefaultRateLimitMaxRequests,
			CleanupProbability: internalsettings.DefaultRateLimitCleanupProbability,
		},
		Email: EmailConfig{
			APIURL:        internalsettings.DefaultEmailAPIURL,
			RatePerSecond: internalsettings.DefaultEmailRatePerSecond,
		},
		Stats: StatsConfig{
			Redis: RedisConfig{
				Prefix: internalsettings.DefaultStatsRedisPrefix,
				TTL:    internalsettings.DefaultStatsRedisTTL,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the YAML config file, applies environment overrides and fills defaults.
// A missing file is not an error; the defaults plus environment are used.
func Load(configPath string) (Config, error) {
	cfg := Default()

	data, errRead := os.ReadFile(configPath)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config file: %w", errRead)
	}

	if key := strings.TrimSpace(os.Getenv(internalsettings.EnvEmailAPIKey)); key != "" {
		cfg.Email.APIKey = key
	}
	if password := os.Getenv(internalsettings.EnvRedisPassword); password != "" {
		cfg.Stats.Redis.Password = password
	}
	if portRaw := strings.TrimSpace(os.Getenv(internalsettings.EnvPort)); portRaw != "" {
		port, errParse := strconv.Atoi(portRaw)
		if errParse != nil {
			return Config{}, fmt.Errorf("parse %s: %w", internalsettings.EnvPort, errParse)
		}
		cfg.Port = port
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults replaces zero or out-of-range values with defaults.
func (c *Config) applyDefaults() {
	def := Default()
	c.SiteName = strings.TrimSpace(c.SiteName)
	if c.SiteName == "" {
		c.SiteName = def.SiteName
	}
	if strings.TrimSpace(c.TimeZone) == "" {
		c.TimeZone = def.TimeZone
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = def.RateLimit.Window
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = def.RateLimit.MaxRequests
	}
	if c.RateLimit.CleanupProbability < 0 || c.RateLimit.CleanupProbability > 1 {
		c.RateLimit.CleanupProbability = def.RateLimit.CleanupProbability
	}
	if strings.TrimSpace(c.Email.APIURL) == "" {
		c.Email.APIURL = def.Email.APIURL
	}
	if c.Email.RatePerSecond <= 0 {
		c.Email.RatePerSecond = def.Email.RatePerSecond
	}
	if strings.TrimSpace(c.Stats.Redis.Prefix) == "" {
		c.Stats.Redis.Prefix = def.Stats.Redis.Prefix
	}
	if c.Stats.Redis.TTL <= 0 {
		c.Stats.Redis.TTL = def.Stats.Redis.TTL
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = def.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = def.Logging.Format
	}
}

// Validate reports settings that cannot be defaulted.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if _, errZone := time.LoadLocation(c.TimeZone); errZone != nil {
		return fmt.Errorf("invalid time-zone %q: %w", c.TimeZone, errZone)
	}
	if c.Email.Enabled {
		if strings.TrimSpace(c.Email.From) == "" || len(c.Email.To) == 0 {
			return ErrMissingEmailSettings
		}
		if strings.TrimSpace(c.Email.APIKey) == "" {
			return fmt.Errorf("missing email api key (set `email.api-key` or %s)", internalsettings.EnvEmailAPIKey)
		}
	}
	if c.Stats.Redis.Enabled && strings.TrimSpace(c.Stats.Redis.Addr) == "" {
		return fmt.Errorf("missing redis address (set `stats.redis.addr` or disable redis stats)")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	return nil
}
