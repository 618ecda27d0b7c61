package config

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultAPIKeyHeader = "X-API-Key"

	DefaultRateLimitPerMinute = 60
	DefaultRedisKeyPrefix     = "calcagent:ratelimit:"

	DefaultModelProvider = "openai"
	DefaultRoundTimeout  = 30 // seconds

	DefaultMaxMessageLength = 2000

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{"*"}

// DefaultModels maps a provider to the model used when MODEL_NAME is unset
var DefaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-6",
}
