package config

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
)

// Environment name constants used in ENVIRONMENT config field.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

// Price drop policies used in PRICE_DROP_POLICY config field.
const (
	PriceDropPrompt = "prompt"
	PriceDropAccept = "accept"
	PriceDropReject = "reject"
)

// Config holds all configuration for the application
type Config struct {
	// Application
	LogLevel    string `conf:"default:info,env:LOG_LEVEL"`
	Environment string `conf:"default:development,enum:development|testing|production,env:ENVIRONMENT"`

	// Catalog
	PriceDropPolicy string `conf:"default:prompt,enum:prompt|accept|reject,env:PRICE_DROP_POLICY"`
	FixturesPath    string `conf:"env:FIXTURES_PATH"`

	// Events: buffer of each in-process subscriber channel
	EventBufferSize int64 `conf:"default:64,env:EVENT_BUFFER_SIZE"`

	// Observability
	ServiceName    string `conf:"default:storefront,env:SERVICE_NAME"`
	ServiceVersion string `conf:"default:dev,env:SERVICE_VERSION"`
	TraceStdout    bool   `conf:"default:false,env:TRACE_STDOUT"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	var cfg Config
	_ = godotenv.Load()
	if _, err := conf.Parse("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// ValidateForProduction enforces safety requirements when ENVIRONMENT=production.
// No-ops for non-production environments.
func ValidateForProduction(cfg *Config) error {
	if cfg.Environment != EnvProduction {
		return nil
	}

	var errs []string

	if cfg.LogLevel == "debug" {
		errs = append(errs, "LOG_LEVEL must not be 'debug' in production (may leak sensitive data)")
	}

	if cfg.PriceDropPolicy == PriceDropAccept {
		errs = append(errs, "PRICE_DROP_POLICY must not be 'accept' in production; price drops need confirmation")
	}

	if cfg.EventBufferSize < 0 {
		errs = append(errs, fmt.Sprintf("EVENT_BUFFER_SIZE must not be negative (got %d)", cfg.EventBufferSize))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("production config validation failed: %s", strings.Join(errs, "; "))
}
