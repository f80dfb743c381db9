// Package config loads process-wide configuration: the central store
// location and credentials, the process-wide encryption key,
// platform-wide fallback LLM keys, search credentials, and server
// knobs. It follows the same viper+pflag loading shape used across the
// pack: defaults, flag binding, environment overrides, optional config
// file, final unmarshal and validation.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/toinevv/seo-system-blank/internal/errs"
)

// Config is the process-wide configuration.
type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	StoreBaseURL  string `mapstructure:"store_base_url"`
	StoreAPIKey   string `mapstructure:"store_api_key"`
	EncryptionKey string `mapstructure:"encryption_key"` // base64, 32 bytes decoded

	PlatformOpenAIKey    string `mapstructure:"platform_openai_key"`
	PlatformAnthropicKey string `mapstructure:"platform_anthropic_key"`
	GoogleSearchAPIKey   string `mapstructure:"google_search_api_key"`
	GoogleSearchCX       string `mapstructure:"google_search_cx"`

	TickInterval string `mapstructure:"tick_interval"` // duration string, e.g. "1h"

	MetricsPath string `mapstructure:"metrics_path"`
	ConfigFile  string `mapstructure:"config_file"`
}

// DefaultConfig returns the configuration used when no flags,
// environment variables, or config file override it.
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		LogLevel:     "info",
		TickInterval: "1h",
		MetricsPath:  "/metrics",
	}
}

// New loads configuration from flags, environment, and an optional
// config file, in that precedence order (flags win).
func New(args []string) (*Config, error) {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault("port", def.Port)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("tick_interval", def.TickInterval)
	v.SetDefault("metrics_path", def.MetricsPath)
	v.SetDefault("store_base_url", "")
	v.SetDefault("store_api_key", "")
	v.SetDefault("encryption_key", "")
	v.SetDefault("platform_openai_key", "")
	v.SetDefault("platform_anthropic_key", "")
	v.SetDefault("google_search_api_key", "")
	v.SetDefault("google_search_cx", "")
	v.SetDefault("config_file", "")

	fs := pflag.NewFlagSet("seo-system", pflag.ContinueOnError)
	fs.Int("port", def.Port, "HTTP listen port")
	fs.String("log-level", def.LogLevel, "log level (debug|info|warn|error)")
	fs.String("tick-interval", def.TickInterval, "interval between scheduler ticks")
	fs.String("store-base-url", "", "central store base URL. Can also be set with SEOPIPE_STORE_BASE_URL env var.")
	fs.String("store-api-key", "", "central store API key. Can also be set with SEOPIPE_STORE_API_KEY env var.")
	fs.String("encryption-key", "", "base64-encoded 32-byte key for decrypting tenant credentials. Can also be set with SEOPIPE_ENCRYPTION_KEY env var.")
	fs.String("platform-openai-key", "", "fallback OpenAI key used when a website carries none")
	fs.String("platform-anthropic-key", "", "fallback Anthropic key used when a website carries none")
	fs.String("google-search-api-key", "", "Google Custom Search API key for topic discovery")
	fs.String("google-search-cx", "", "Google Custom Search engine id")
	fs.String("config-file", "", "optional JSON/YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, &errs.ConfigError{Field: "flags", Reason: err.Error()}
	}
	if err := v.BindPFlag("port", fs.Lookup("port")); err != nil {
		return nil, &errs.ConfigError{Field: "port", Reason: err.Error()}
	}
	if err := v.BindPFlag("log_level", fs.Lookup("log-level")); err != nil {
		return nil, &errs.ConfigError{Field: "log_level", Reason: err.Error()}
	}
	if err := v.BindPFlag("tick_interval", fs.Lookup("tick-interval")); err != nil {
		return nil, &errs.ConfigError{Field: "tick_interval", Reason: err.Error()}
	}
	if err := v.BindPFlag("store_base_url", fs.Lookup("store-base-url")); err != nil {
		return nil, &errs.ConfigError{Field: "store_base_url", Reason: err.Error()}
	}
	if err := v.BindPFlag("store_api_key", fs.Lookup("store-api-key")); err != nil {
		return nil, &errs.ConfigError{Field: "store_api_key", Reason: err.Error()}
	}
	if err := v.BindPFlag("encryption_key", fs.Lookup("encryption-key")); err != nil {
		return nil, &errs.ConfigError{Field: "encryption_key", Reason: err.Error()}
	}
	if err := v.BindPFlag("platform_openai_key", fs.Lookup("platform-openai-key")); err != nil {
		return nil, &errs.ConfigError{Field: "platform_openai_key", Reason: err.Error()}
	}
	if err := v.BindPFlag("platform_anthropic_key", fs.Lookup("platform-anthropic-key")); err != nil {
		return nil, &errs.ConfigError{Field: "platform_anthropic_key", Reason: err.Error()}
	}
	if err := v.BindPFlag("google_search_api_key", fs.Lookup("google-search-api-key")); err != nil {
		return nil, &errs.ConfigError{Field: "google_search_api_key", Reason: err.Error()}
	}
	if err := v.BindPFlag("google_search_cx", fs.Lookup("google-search-cx")); err != nil {
		return nil, &errs.ConfigError{Field: "google_search_cx", Reason: err.Error()}
	}

	v.SetEnvPrefix("SEOPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile, _ := fs.GetString("config-file"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &errs.ConfigError{Field: "config_file", Reason: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &errs.ConfigError{Field: "unmarshal", Reason: err.Error()}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the fields required for the core pipeline to
// run are present.
func (c *Config) Validate() error {
	if c.StoreBaseURL == "" {
		return &errs.ConfigError{Field: "store_base_url", Reason: "required"}
	}
	if c.EncryptionKey == "" {
		return &errs.ConfigError{Field: "encryption_key", Reason: "required"}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &errs.ConfigError{Field: "log_level", Reason: "must be one of debug|info|warn|error"}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &errs.ConfigError{Field: "port", Reason: "must be 1-65535"}
	}
	return nil
}
