package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "FLASHFORGE"

// LegacyAPIKeyEnv is also accepted for the Gemini API key.
const LegacyAPIKeyEnv = "GEMINI_API_KEY"

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// EnvFile is a .env file loaded before reading the environment.
	// Empty means ".env"; a missing file is not an error.
	EnvFile string

	// ConfigFile is an explicit config file. Empty means look for
	// flashforge.yaml in the working directory; a missing file is not an error.
	ConfigFile string
}

// Load configuration from a .env file, an optional config file and
// environment variables. Environment variables take precedence over values
// from config files. Returns a populated Config or an error if
// loading/validation fails.
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions is Load with explicit file locations.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	if err := LoadDotEnv(opts.EnvFile); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("flashforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("llm.gemini_api_key", EnvPrefix+"_LLM_GEMINI_API_KEY", LegacyAPIKeyEnv); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags and requires an explicit
// request timeout to outlast the LLM call budget.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	timeout := cfg.RequestTimeout()
	if budget := cfg.LLM.CallBudget(); cfg.Server.RequestTimeoutSeconds > 0 && timeout < budget {
		return fmt.Errorf("config validation failed: server.request_timeout_seconds (%s) is shorter than the LLM call budget (%s)",
			timeout, budget)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("server.request_timeout_seconds", 0)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.5-flash")
	v.SetDefault("llm.transport", "rest")
	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("llm.api_version", "v1beta")
	v.SetDefault("llm.max_retries", 5)
	v.SetDefault("llm.retry_delay_ms", 1000)
	v.SetDefault("llm.attempt_timeout_seconds", 60)
	v.SetDefault("llm.retry_on_timeout", true)
	v.SetDefault("llm.strict_parsing", false)
}
