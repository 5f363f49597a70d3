// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	LogLevel        string
	Port            int
	DevMode         bool
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	History     HistoryConfig
	Thresholds  ThresholdConfig
	MonteCarlo  MonteCarloConfig
	Schedule    ScheduleConfig
	RateLimit   RateLimitConfig
	DataFiles   DataFilesConfig
	Correlation float64 // high-correlation threshold
}

// HistoryConfig holds retention limits for the bounded history buffers
type HistoryConfig struct {
	Position int
	Factor   int
	Report   int
}

// ThresholdConfig holds the maximum recommended weights used by concentration detection
type ThresholdConfig struct {
	Position   float64
	Sector     float64
	AssetClass float64
	Broker     float64
	Currency   float64
	Country    float64
}

// MonteCarloConfig holds simulation defaults
type MonteCarloConfig struct {
	Paths       int
	HorizonDays int
	Confidence  float64
	Workers     int   // 0 = logical cores
	BatchSize   int   // paths per cancellation check
	Seed        int64 // 0 = time based
}

// ScheduleConfig holds cron expressions for the periodic jobs
type ScheduleConfig struct {
	Report string
	Regime string
}

// RateLimitConfig limits the ad hoc simulation endpoints
type RateLimitConfig struct {
	SimulateRPS   float64
	SimulateBurst int
}

// DataFilesConfig points at optional YAML seed files
type DataFilesConfig struct {
	Scenarios string
	Portfolio string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("GO_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		RequestTimeout:  getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		History: HistoryConfig{
			Position: getEnvAsInt("RISK_POSITION_HISTORY", 252),
			Factor:   getEnvAsInt("RISK_FACTOR_HISTORY", 252),
			Report:   getEnvAsInt("RISK_REPORT_HISTORY", 100),
		},
		Thresholds: ThresholdConfig{
			Position:   getEnvAsFloat("RISK_MAX_POSITION_WEIGHT", 0.10),
			Sector:     getEnvAsFloat("RISK_MAX_SECTOR_WEIGHT", 0.25),
			AssetClass: getEnvAsFloat("RISK_MAX_ASSET_CLASS_WEIGHT", 0.40),
			Broker:     getEnvAsFloat("RISK_MAX_BROKER_WEIGHT", 0.50),
			Currency:   getEnvAsFloat("RISK_MAX_CURRENCY_WEIGHT", 0.60),
			Country:    getEnvAsFloat("RISK_MAX_COUNTRY_WEIGHT", 0.60),
		},
		Correlation: getEnvAsFloat("RISK_CORRELATION_THRESHOLD", 0.70),
		MonteCarlo: MonteCarloConfig{
			Paths:       getEnvAsInt("RISK_MC_PATHS", 1000),
			HorizonDays: getEnvAsInt("RISK_MC_HORIZON_DAYS", 21),
			Confidence:  getEnvAsFloat("RISK_MC_CONFIDENCE", 0.95),
			Workers:     getEnvAsInt("RISK_MC_WORKERS", 0),
			BatchSize:   getEnvAsInt("RISK_MC_BATCH_SIZE", 100),
			Seed:        int64(getEnvAsInt("RISK_MC_SEED", 0)),
		},
		Schedule: ScheduleConfig{
			Report: getEnv("RISK_REPORT_SCHEDULE", "@every 5m"),
			Regime: getEnv("RISK_REGIME_SCHEDULE", "@hourly"),
		},
		RateLimit: RateLimitConfig{
			SimulateRPS:   getEnvAsFloat("RISK_SIMULATE_RPS", 1.0),
			SimulateBurst: getEnvAsInt("RISK_SIMULATE_BURST", 3),
		},
		DataFiles: DataFilesConfig{
			Scenarios: getEnv("RISK_SCENARIOS_FILE", ""),
			Portfolio: getEnv("RISK_PORTFOLIO_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT %d: must be between 1 and 65535", c.Port)
	}

	if c.RequestTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}

	if c.History.Position < 1 || c.History.Factor < 1 || c.History.Report < 1 {
		return fmt.Errorf("history lengths must be positive (position=%d factor=%d report=%d)",
			c.History.Position, c.History.Factor, c.History.Report)
	}

	weights := map[string]float64{
		"RISK_MAX_POSITION_WEIGHT":    c.Thresholds.Position,
		"RISK_MAX_SECTOR_WEIGHT":      c.Thresholds.Sector,
		"RISK_MAX_ASSET_CLASS_WEIGHT": c.Thresholds.AssetClass,
		"RISK_MAX_BROKER_WEIGHT":      c.Thresholds.Broker,
		"RISK_MAX_CURRENCY_WEIGHT":    c.Thresholds.Currency,
		"RISK_MAX_COUNTRY_WEIGHT":     c.Thresholds.Country,
		"RISK_CORRELATION_THRESHOLD":  c.Correlation,
	}
	for key, v := range weights {
		if v <= 0 || v > 1 {
			return fmt.Errorf("invalid %s %v: must be in (0, 1]", key, v)
		}
	}

	mc := c.MonteCarlo
	if mc.Paths < 1 {
		return fmt.Errorf("invalid RISK_MC_PATHS %d: must be positive", mc.Paths)
	}
	if mc.HorizonDays < 1 {
		return fmt.Errorf("invalid RISK_MC_HORIZON_DAYS %d: must be positive", mc.HorizonDays)
	}
	if mc.Confidence <= 0 || mc.Confidence >= 1 {
		return fmt.Errorf("invalid RISK_MC_CONFIDENCE %v: must be in (0, 1)", mc.Confidence)
	}
	if mc.Workers < 0 || mc.BatchSize < 1 {
		return fmt.Errorf("invalid Monte Carlo pool (workers=%d batch=%d)", mc.Workers, mc.BatchSize)
	}

	if c.RateLimit.SimulateRPS <= 0 || c.RateLimit.SimulateBurst < 1 {
		return fmt.Errorf("invalid simulate rate limit (rps=%v burst=%d)",
			c.RateLimit.SimulateRPS, c.RateLimit.SimulateBurst)
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
