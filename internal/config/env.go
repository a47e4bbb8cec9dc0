package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overlays SOURPLANET_* environment variables. Unset or malformed values keep the current
// setting. Setting SOURPLANET_DB_DSN switches the store to postgres.
func (c *Config) ApplyEnv() {
	c.Server.Addr = stringEnv("SOURPLANET_ADDR", c.Server.Addr)
	c.Server.RatePerSecond = floatEnv("SOURPLANET_RATE_PER_SECOND", c.Server.RatePerSecond)
	c.Server.RateBurst = intEnv("SOURPLANET_RATE_BURST", c.Server.RateBurst)
	if v := strings.TrimSpace(os.Getenv("SOURPLANET_CORS_ORIGINS")); v != "" {
		c.Server.CORSOrigins = strings.Split(v, ",")
	}

	if dsn := strings.TrimSpace(os.Getenv("SOURPLANET_DB_DSN")); dsn != "" {
		c.Storage.DSN = dsn
		c.Storage.Driver = DriverPostgres
	}
	c.Storage.Migrate = boolEnv("SOURPLANET_DB_MIGRATE", c.Storage.Migrate)

	c.Session.MaxCatchUpSeconds = intEnv("SOURPLANET_MAX_CATCH_UP_SECONDS", c.Session.MaxCatchUpSeconds)
	c.Session.ClicksDisabled = boolEnv("SOURPLANET_CLICKS_DISABLED", c.Session.ClicksDisabled)
	c.Session.RearmMode = stringEnv("SOURPLANET_REARM_MODE", c.Session.RearmMode)
	c.Session.RearmDelaySeconds = intEnv("SOURPLANET_REARM_DELAY_SECONDS", c.Session.RearmDelaySeconds)

	c.Planet.BaseRate = floatEnv("SOURPLANET_BASE_RATE", c.Planet.BaseRate)
	c.Planet.ClickPower = floatEnv("SOURPLANET_CLICK_POWER", c.Planet.ClickPower)
	c.Planet.Environment.DriftRate = floatEnv("SOURPLANET_DRIFT_RATE", c.Planet.Environment.DriftRate)
	c.Planet.Bonus.DurationSeconds = floatEnv("SOURPLANET_BONUS_DURATION_SECONDS", c.Planet.Bonus.DurationSeconds)
}

func stringEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func floatEnv(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func boolEnv(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
