package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	// env-required accepts a variable that is set but empty.
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	if err := c.Consent.validate(); err != nil {
		return fmt.Errorf("consent: %w", err)
	}

	if c.RateLimit.PublicPerMinute <= 0 {
		return fmt.Errorf("rate_limit.public_per_minute must be > 0 (got %d)", c.RateLimit.PublicPerMinute)
	}

	if c.Redis.Enabled() && c.Redis.LockTTL <= 0 {
		return fmt.Errorf("redis.lock_ttl must be > 0 (got %v)", c.Redis.LockTTL)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with / (got %q)", c.Metrics.Path)
	}

	return nil
}

func (c *ConsentConfig) validate() error {
	if c.TokenBytes < 32 {
		return fmt.Errorf("token_bytes must be >= 32 (got %d)", c.TokenBytes)
	}
	if c.RegeneratedTokenTTL <= 0 {
		return fmt.Errorf("regenerated_token_ttl must be > 0 (got %v)", c.RegeneratedTokenTTL)
	}
	if c.DefaultExpirationDays < 1 {
		return fmt.Errorf("default_expiration_days must be >= 1 (got %d)", c.DefaultExpirationDays)
	}
	if c.MaxTokenAttempts < 0 {
		return fmt.Errorf("max_token_attempts must be >= 0 (got %d)", c.MaxTokenAttempts)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be > 0 (got %v)", c.SweepInterval)
	}
	if c.LegalCodeAttempts < 1 {
		return fmt.Errorf("legal_code_attempts must be >= 1 (got %d)", c.LegalCodeAttempts)
	}
	return nil
}
