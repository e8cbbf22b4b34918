package settings

import "time"

// Environment keys and defaults for settings.
const (
	// EnvConfigPath points at the YAML config file.
	EnvConfigPath = "CONFIG_PATH"
	// EnvEmailAPIKey overrides the email provider API key from the config file.
	EnvEmailAPIKey = "EMAIL_API_KEY"
	// EnvRedisPassword overrides the stats Redis password from the config file.
	EnvRedisPassword = "REDIS_PASSWORD"
	// EnvPort overrides the listen port from the config file.
	EnvPort = "PORT"

	// DefaultSiteName is used in email subjects and logs.
	DefaultSiteName = "Portfolio"
	// DefaultPort is the fallback listen port.
	DefaultPort = 8080

	// DefaultRateLimitWindow is the fixed window length (WINDOW_MS).
	DefaultRateLimitWindow = 60 * time.Second
	// DefaultRateLimitMaxRequests is the number of admissions per window (MAX_REQUESTS).
	DefaultRateLimitMaxRequests = 5
	// DefaultRateLimitCleanupProbability is the chance that a check sweeps expired entries.
	DefaultRateLimitCleanupProbability = 0.01

	// DefaultEmailAPIURL is the Resend-compatible endpoint used for transactional email.
	DefaultEmailAPIURL = "https://api.resend.com/emails"
	// DefaultEmailRatePerSecond matches the provider's default per-key send rate.
	DefaultEmailRatePerSecond = 2.0
	// DefaultDisplayTimeZone is the zone used for timestamps shown in notifications.
	DefaultDisplayTimeZone = "America/Puerto_Rico"

	// DefaultStatsRedisPrefix is the fallback Redis key prefix for outcome stats.
	DefaultStatsRedisPrefix = "contactgate:stats"
	// DefaultStatsRedisTTL bounds per-minute stats buckets.
	DefaultStatsRedisTTL = 24 * time.Hour

	// UnknownIdentity is the caller identity used when no address header is present.
	UnknownIdentity = "unknown"
)
