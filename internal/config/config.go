package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Secrets (from .env)
	FinnhubAPIKey string
	TiingoAPIKey  string

	// Upstreams
	FinnhubBaseURL         string
	TiingoBaseURL          string
	UpstreamTimeoutSeconds int
	UpstreamMaxAttempts    int

	// Server
	Port            int
	CORSAllowOrigin string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		FinnhubAPIKey: envStr("FINNHUB_API_KEY", ""),
		TiingoAPIKey:  envStr("TIINGO_API_KEY", ""),

		// Upstreams
		FinnhubBaseURL:         envStr("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
		TiingoBaseURL:          envStr("TIINGO_BASE_URL", "https://api.tiingo.com/tiingo"),
		UpstreamTimeoutSeconds: envInt("UPSTREAM_TIMEOUT_SECONDS", 0),
		UpstreamMaxAttempts:    envInt("UPSTREAM_MAX_ATTEMPTS", 1),

		// Server
		Port:            envInt("PORT", 3000),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),
	}

	return cfg, nil
}

// Validate rejects settings the server cannot start with. A missing API key
// only disables the routes that need it, so it is a warning.
func (c *Config) Validate(w io.Writer) error {
	var errs []string

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.UpstreamTimeoutSeconds < 0 {
		errs = append(errs, "UPSTREAM_TIMEOUT_SECONDS must not be negative")
	}
	if c.UpstreamMaxAttempts < 1 {
		errs = append(errs, "UPSTREAM_MAX_ATTEMPTS must be at least 1")
	}
	if c.FinnhubAPIKey == "" {
		fmt.Fprintln(w, "[WARN] FINNHUB_API_KEY not set - quote and profile requests will return 500")
	}
	if c.TiingoAPIKey == "" {
		fmt.Fprintln(w, "[WARN] TIINGO_API_KEY not set - history requests will return 500")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Stock Data Proxy Configuration ===")
	fmt.Fprintf(w, "Port: %d\n", c.Port)
	fmt.Fprintf(w, "CORS Origin: %s\n", c.CORSAllowOrigin)
	fmt.Fprintln(w, "--------------------------------------")
	fmt.Fprintf(w, "Finnhub: %s (%s)\n", c.FinnhubBaseURL, keyStatus(c.FinnhubAPIKey))
	fmt.Fprintf(w, "Tiingo: %s (%s)\n", c.TiingoBaseURL, keyStatus(c.TiingoAPIKey))
	fmt.Fprintf(w, "Upstream Timeout: %s\n", boolLabel(c.UpstreamTimeoutSeconds > 0, c.UpstreamTimeout().String(), "default"))
	fmt.Fprintf(w, "Upstream Attempts: %d\n", c.UpstreamMaxAttempts)
	fmt.Fprintln(w, "======================================")
}

// UpstreamTimeout is zero when no override is configured.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func keyStatus(key string) string {
	return boolLabel(key != "", "key configured", "key not set")
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
