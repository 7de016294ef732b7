package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	LLM    LLMConfig    `mapstructure:"llm"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                  int      `mapstructure:"port"                    validate:"required,gt=0,lt=65536"`
	LogLevel              string   `mapstructure:"log_level"               validate:"required,oneof=debug info warn error"`
	LogFormat             string   `mapstructure:"log_format"              validate:"required,oneof=json text"`
	CORSAllowedOrigins    []string `mapstructure:"cors_allowed_origins"`
	MetricsEnabled        bool     `mapstructure:"metrics_enabled"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds" validate:"gte=0"`
}

// requestGrace is added to the LLM call budget when the request timeout is
// derived, leaving room to parse and write the response.
const requestGrace = 15 * time.Second

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	// GeminiAPIKey may be empty; generation then degrades to an empty result
	// with a user-visible notice instead of failing at startup.
	GeminiAPIKey string `mapstructure:"gemini_api_key"`

	ModelName  string `mapstructure:"model_name"  validate:"required"`
	Transport  string `mapstructure:"transport"   validate:"required,oneof=rest sdk"`
	BaseURL    string `mapstructure:"base_url"    validate:"required,url"`
	APIVersion string `mapstructure:"api_version" validate:"required"`

	// MaxRetries is the total number of attempts made for one request.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=1,lte=10"`

	// RetryDelayMS is the backoff unit: failed attempt n (from 1) waits RetryDelayMS * 2^(n-1).
	RetryDelayMS int `mapstructure:"retry_delay_ms" validate:"gte=0"`

	// AttemptTimeoutSeconds bounds a single attempt; 0 disables the bound.
	AttemptTimeoutSeconds int `mapstructure:"attempt_timeout_seconds" validate:"gte=0"`

	RetryOnTimeout bool `mapstructure:"retry_on_timeout"`
	StrictParsing  bool `mapstructure:"strict_parsing"`
}

// HasCredential reports whether an API key is configured.
func (c LLMConfig) HasCredential() bool {
	return c.GeminiAPIKey != ""
}

// RetryDelay returns the backoff unit as a duration.
func (c LLMConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// AttemptTimeout returns the per-attempt timeout as a duration.
func (c LLMConfig) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutSeconds) * time.Second
}

// CallBudget is the longest one generation call can take: every attempt
// running to its timeout plus the backoff between attempts. It is zero when
// attempts are unbounded.
func (c LLMConfig) CallBudget() time.Duration {
	if c.AttemptTimeoutSeconds <= 0 || c.MaxRetries <= 0 {
		return 0
	}
	budget := time.Duration(c.MaxRetries) * c.AttemptTimeout()
	for n := 1; n < c.MaxRetries; n++ {
		budget += c.RetryDelay() << (n - 1)
	}
	return budget
}

// RequestTimeout returns the HTTP request timeout. An explicit
// server.request_timeout_seconds wins; otherwise it is derived from the LLM
// call budget. Zero means no timeout.
func (c Config) RequestTimeout() time.Duration {
	if c.Server.RequestTimeoutSeconds > 0 {
		return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
	}
	if budget := c.LLM.CallBudget(); budget > 0 {
		return budget + requestGrace
	}
	return 0
}
