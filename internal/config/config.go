package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	Environment string `json:"environment" yaml:"environment"`
	APIPrefix   string `json:"api_prefix" yaml:"api_prefix"`
	LogLevel    string `json:"log_level" yaml:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
	CORSMaxAge  int      `json:"cors_max_age" yaml:"cors_max_age"` // seconds

	// Caller credential header, hashed into audit records
	APIKeyHeader string `json:"api_key_header" yaml:"api_key_header"`

	// Rate Limiting
	RateLimitPerMinute int    `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	RedisAddr          string `json:"redis_addr" yaml:"redis_addr"` // empty = in-process limiter
	RedisPassword      string `json:"redis_password" yaml:"redis_password"`
	RedisKeyPrefix     string `json:"redis_key_prefix" yaml:"redis_key_prefix"`

	// Model
	ModelProvider string `json:"model_provider" yaml:"model_provider"` // openai | anthropic
	ModelName     string `json:"model_name" yaml:"model_name"`
	ModelAPIKey   string `json:"model_api_key" yaml:"model_api_key"`
	ModelBaseURL  string `json:"model_base_url" yaml:"model_base_url"` // OpenAI-compatible gateway or proxy
	RoundTimeout  int    `json:"round_timeout" yaml:"round_timeout"`   // seconds per model round
	SystemPrompt  string `json:"system_prompt" yaml:"system_prompt"`

	// Security
	MaxMessageLength   int  `json:"max_message_length" yaml:"max_message_length"`
	EnablePromptGuard  bool `json:"enable_prompt_guard" yaml:"enable_prompt_guard"`
	EnableAuditLogging bool `json:"enable_audit_logging" yaml:"enable_audit_logging"`

	// set when the file or environment named the model or key explicitly
	explicitModelName bool
	explicitAPIKey    bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:               DefaultHost,
		Port:               DefaultPort,
		Environment:        DefaultEnvironment,
		APIPrefix:          DefaultAPIPrefix,
		LogLevel:           DefaultLogLevel,
		CORSOrigins:        DefaultCORSOrigins,
		CORSMaxAge:         DefaultCORSMaxAge,
		APIKeyHeader:       DefaultAPIKeyHeader,
		RateLimitPerMinute: DefaultRateLimitPerMinute,
		RedisKeyPrefix:     DefaultRedisKeyPrefix,
		ModelProvider:      DefaultModelProvider,
		RoundTimeout:       DefaultRoundTimeout,
		MaxMessageLength:   DefaultMaxMessageLength,
		EnablePromptGuard:  true,
		EnableAuditLogging: true,
	}

	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path := getEnv("CALCAGENT_CONFIG", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.explicitModelName = cfg.ModelName != ""
	cfg.explicitAPIKey = cfg.ModelAPIKey != ""
	applyModelDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	switch c.ModelProvider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported model provider %q", c.ModelProvider)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RoundTimeout <= 0 {
		return fmt.Errorf("round timeout must be positive, got %d", c.RoundTimeout)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.RateLimitPerMinute)
	}
	return nil
}

// SetProvider switches the model provider. A model name or key that came
// from the config file or environment is kept; only the provider-specific
// fallbacks are derived again.
func (c *Config) SetProvider(provider string) error {
	c.ModelProvider = strings.ToLower(provider)
	if !c.explicitModelName {
		c.ModelName = ""
	}
	if !c.explicitAPIKey {
		c.ModelAPIKey = ""
	}
	applyModelDefaults(c)
	return c.Validate()
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("CALCAGENT_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("CALCAGENT_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("CALCAGENT_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("CALCAGENT_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("CALCAGENT_API_KEY_HEADER", ""); v != "" {
		cfg.APIKeyHeader = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("REDIS_ADDR", ""); v != "" {
		cfg.RedisAddr = v
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		cfg.RedisPassword = v
	}
	if v := getEnv("CORS_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := getEnv("CORS_MAX_AGE", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CORSMaxAge = n
		}
	}
	if v := getEnv("MODEL_PROVIDER", ""); v != "" {
		cfg.ModelProvider = strings.ToLower(v)
	}
	if v := getEnv("MODEL_NAME", ""); v != "" {
		cfg.ModelName = v
	}
	if v := getEnv("MODEL_API_KEY", ""); v != "" {
		cfg.ModelAPIKey = v
	}
	if v := getEnv("MODEL_BASE_URL", ""); v != "" {
		cfg.ModelBaseURL = v
	}
	if v := getEnv("MODEL_ROUND_TIMEOUT", ""); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.RoundTimeout = t
		}
	}
	if v := getEnv("SYSTEM_PROMPT", ""); v != "" {
		cfg.SystemPrompt = v
	}
	if v := getEnv("MAX_MESSAGE_LENGTH", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxMessageLength = n
		}
	}
	if v := getEnv("ENABLE_PROMPT_GUARD", ""); v != "" {
		cfg.EnablePromptGuard = parseBool(v)
	}
	if v := getEnv("ENABLE_AUDIT_LOGGING", ""); v != "" {
		cfg.EnableAuditLogging = parseBool(v)
	}
}

// applyModelDefaults fills the model name and key from provider-specific
// fallbacks.
func applyModelDefaults(cfg *Config) {
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModels[cfg.ModelProvider]
	}
	if cfg.ModelAPIKey != "" {
		return
	}
	switch cfg.ModelProvider {
	case "openai":
		cfg.ModelAPIKey = getEnv("OPENAI_API_KEY", "")
	case "anthropic":
		cfg.ModelAPIKey = getEnv("ANTHROPIC_API_KEY", "")
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
