// Package config provides environment-based configuration for the collector.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the collector's own configuration. Carrier portal credentials
// are per-request and never appear here.
type Config struct {
	// Port is the HTTP listen port.
	Port int
	// APIKey authenticates inbound job submissions.
	APIKey string

	// AdminAPIURL and AdminAPIKey reach the upstream administrative system.
	AdminAPIURL string
	AdminAPIKey string

	// GeminiAPIKey powers the browser session's natural-language primitives.
	GeminiAPIKey string
	// GeminiModel overrides the default model when set.
	GeminiModel string

	// CloudinaryURL is the cloudinary:// connection URL for durable storage.
	CloudinaryURL string

	// DatabaseURL enables optional job-history persistence when set.
	DatabaseURL string

	// JobTimeout bounds one collection job end to end.
	JobTimeout time.Duration

	// Headless controls whether the browser runs headless; disable for local
	// debugging of carrier routines.
	Headless bool
	// Verbose enables detailed browser/pipeline logging.
	Verbose bool
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          8080,
		APIKey:        os.Getenv("API_KEY"),
		AdminAPIURL:   os.Getenv("ADMIN_API_URL"),
		AdminAPIKey:   os.Getenv("ADMIN_API_KEY"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   os.Getenv("GEMINI_MODEL"),
		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JobTimeout:    10 * time.Minute,
		Headless:      true,
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	if timeout := os.Getenv("JOB_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid JOB_TIMEOUT %q: %w", timeout, err)
		}
		cfg.JobTimeout = d
	}

	if headless := os.Getenv("BROWSER_HEADLESS"); headless != "" {
		b, err := strconv.ParseBool(headless)
		if err != nil {
			return nil, fmt.Errorf("invalid BROWSER_HEADLESS %q: %w", headless, err)
		}
		cfg.Headless = b
	}

	if verbose := os.Getenv("VERBOSE"); verbose != "" {
		b, err := strconv.ParseBool(verbose)
		if err != nil {
			return nil, fmt.Errorf("invalid VERBOSE %q: %w", verbose, err)
		}
		cfg.Verbose = b
	}

	return cfg, nil
}

// Validate checks that everything the serve path needs is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("config error: API_KEY is required")
	}
	if c.AdminAPIURL == "" {
		return fmt.Errorf("config error: ADMIN_API_URL is required")
	}
	if c.AdminAPIKey == "" {
		return fmt.Errorf("config error: ADMIN_API_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("config error: GEMINI_API_KEY is required")
	}
	if c.CloudinaryURL == "" {
		return fmt.Errorf("config error: CLOUDINARY_URL is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: port %d out of range", c.Port)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("config error: job timeout must be positive")
	}
	return nil
}
