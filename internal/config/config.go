// Package config provides configuration loading from environment
// variables, with optional .env file support for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/docprobe/docprobe/pkg/profile"
)

// Defaults for aggregation and filtering.
const (
	DefaultValueLimitValue = profile.DefaultValueLimit
	DefaultFilterCacheSize = 16
	DefaultMongoURI        = "mongodb://localhost:27017"
)

// Config holds all configuration for the docprobe CLI and MCP server.
type Config struct {
	// Aggregation
	MaxDepth          int  // DOCPROBE_MAX_DEPTH, default 0 (hard internal cap)
	SampleLimit       int  // DOCPROBE_SAMPLE_LIMIT, default 0 (unlimited)
	FailFast          bool // DOCPROBE_FAIL_FAST, default false
	TreatNullAsAbsent bool // DOCPROBE_NULL_AS_ABSENT, default false
	ValueLimit        int  // DOCPROBE_VALUE_LIMIT, default 32; -1 disables
	TrackCoverage     bool // DOCPROBE_TRACK_COVERAGE, default false
	Workers           int  // DOCPROBE_WORKERS, default 0 (sequential)

	// Filtering
	Filter          string // DOCPROBE_FILTER, jq expression, default ""
	FilterCacheSize int    // DOCPROBE_FILTER_CACHE_SIZE, default 16

	// Sources
	MongoURI      string // DOCPROBE_MONGO_URI, default mongodb://localhost:27017
	MongoDatabase string // DOCPROBE_MONGO_DB, default ""

	// Logging
	LogLevel      string // DOCPROBE_LOG_LEVEL, default "info"
	LogFormat     string // DOCPROBE_LOG_FORMAT, "text" or "json", default "text"
	LogFile       string // DOCPROBE_LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // DOCPROBE_LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // DOCPROBE_LOG_MAX_BACKUPS, default 3
	LogMaxAgeDays int    // DOCPROBE_LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // DOCPROBE_LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is honored if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		MaxDepth:          getEnvInt("DOCPROBE_MAX_DEPTH", 0),
		SampleLimit:       getEnvInt("DOCPROBE_SAMPLE_LIMIT", 0),
		FailFast:          getEnvBool("DOCPROBE_FAIL_FAST", false),
		TreatNullAsAbsent: getEnvBool("DOCPROBE_NULL_AS_ABSENT", false),
		ValueLimit:        getEnvInt("DOCPROBE_VALUE_LIMIT", DefaultValueLimitValue),
		TrackCoverage:     getEnvBool("DOCPROBE_TRACK_COVERAGE", false),
		Workers:           getEnvInt("DOCPROBE_WORKERS", 0),

		Filter:          getEnvString("DOCPROBE_FILTER", ""),
		FilterCacheSize: getEnvInt("DOCPROBE_FILTER_CACHE_SIZE", DefaultFilterCacheSize),

		MongoURI:      getEnvString("DOCPROBE_MONGO_URI", DefaultMongoURI),
		MongoDatabase: getEnvString("DOCPROBE_MONGO_DB", ""),

		LogLevel:      getEnvString("DOCPROBE_LOG_LEVEL", "info"),
		LogFormat:     getEnvString("DOCPROBE_LOG_FORMAT", "text"),
		LogFile:       getEnvString("DOCPROBE_LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("DOCPROBE_LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("DOCPROBE_LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("DOCPROBE_LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("DOCPROBE_LOG_COMPRESS", true),
	}
}

// ProfileOptions maps the configuration onto one aggregation pass.
func (c *Config) ProfileOptions() profile.Options {
	return profile.Options{
		MaxDepth:          c.MaxDepth,
		SampleLimit:       c.SampleLimit,
		FailFast:          c.FailFast,
		TreatNullAsAbsent: c.TreatNullAsAbsent,
		ValueLimit:        c.ValueLimit,
		TrackCoverage:     c.TrackCoverage,
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
