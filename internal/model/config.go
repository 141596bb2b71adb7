package model

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all askcup settings. Tags serve both viper (mapstructure)
// and the YAML written by `askcup config init`.
type Config struct {
	AnswerService AnswerServiceConfig `mapstructure:"answer_service" yaml:"answer_service"`
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Batch         BatchConfig         `mapstructure:"batch" yaml:"batch"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
}

// AnswerServiceConfig describes how to reach the answer service
type AnswerServiceConfig struct {
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	NResults     int           `mapstructure:"n_results" yaml:"n_results"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`               // 0 means no timeout
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"` // 0 means unlimited
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	HTTPProxy    string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy   string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy      string        `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
}

// ServerConfig configures the web UI
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	SessionTTL     time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	RefreshSeconds int           `mapstructure:"refresh_seconds" yaml:"refresh_seconds"` // page reload interval while loading

	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// honoured for rate limiting. Empty means the peer address is used.
	TrustedProxies []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies,omitempty"`
}

// BatchConfig configures `askcup batch`
type BatchConfig struct {
	Concurrency       int     `mapstructure:"concurrency" yaml:"concurrency"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		AnswerService: AnswerServiceConfig{
			BaseURL:      "http://localhost:8000",
			NResults:     5,
			Timeout:      0,
			MaxBodyBytes: 1 << 20,
			UserAgent:    "askcup/0.1",
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:3000",
			SessionTTL:     30 * time.Minute,
			RateLimitRPS:   5,
			RateLimitBurst: 10,
			RefreshSeconds: 1,
		},
		Batch: BatchConfig{
			Concurrency:       4,
			RequestsPerSecond: 2,
			Burst:             2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks settings that would otherwise fail late
func (c AnswerServiceConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base_url %q: missing host", c.BaseURL)
	}
	if c.NResults <= 0 {
		return fmt.Errorf("n_results must be positive, got %d", c.NResults)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must not be negative, got %d", c.MaxBodyBytes)
	}
	return nil
}

// Port returns the port the answer service listens on, falling back to the
// scheme default when the URL carries none
func (c AnswerServiceConfig) Port() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	if p := u.Port(); p != "" {
		return p
	}
	switch u.Scheme {
	case "https":
		return "443"
	case "http":
		return "80"
	}
	return ""
}
