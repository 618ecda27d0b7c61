package server

import (
	"context"
	"net/http"
	"time"

	"github.com/calcagent/calcagent/internal/agent"
	"github.com/calcagent/calcagent/internal/config"
	"github.com/calcagent/calcagent/internal/handler"
	"github.com/calcagent/calcagent/internal/llm"
	"github.com/calcagent/calcagent/internal/llm/anthropic"
	"github.com/calcagent/calcagent/internal/llm/openai"
	"github.com/calcagent/calcagent/internal/middleware"
	"github.com/calcagent/calcagent/internal/models"
	"github.com/calcagent/calcagent/internal/security"
	"github.com/calcagent/calcagent/internal/tools"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewModelClient builds the configured provider's client. It returns nil when
// no API key is available; the service then answers every calculation with a
// misconfiguration error.
func NewModelClient(cfg *config.Config) llm.Client {
	if cfg.ModelAPIKey == "" {
		log.Warn().Str("provider", cfg.ModelProvider).Msg("MODEL_API_KEY not set - calculations disabled")
		return nil
	}
	switch cfg.ModelProvider {
	case "anthropic":
		return anthropic.NewClient(cfg.ModelAPIKey, cfg.ModelName, cfg.ModelBaseURL)
	default:
		return openai.NewClient(cfg.ModelAPIKey, cfg.ModelName, cfg.ModelBaseURL)
	}
}

// NewOrchestrator wires a model client, the default catalog and the prompt
// guard from cfg.
func NewOrchestrator(cfg *config.Config, client llm.Client) *agent.Orchestrator {
	return agent.NewOrchestrator(client, tools.Default(), agent.Options{
		SystemPrompt: cfg.SystemPrompt,
		RoundTimeout: time.Duration(cfg.RoundTimeout) * time.Second,
		Validator:    security.NewPromptValidator(cfg.MaxMessageLength, cfg.EnablePromptGuard),
	})
}

func (s *Server) setupRoutes() (http.Handler, error) {
	cfg := s.cfg

	// ─── Model ──────────────────────────────────────────────────────────────────
	modelClient := NewModelClient(cfg)
	orchestrator := NewOrchestrator(cfg, modelClient)

	// ─── Rate limiting ──────────────────────────────────────────────────────────
	var limiter middleware.Limiter
	var redisCheck handler.HealthChecker
	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		redisLimiter := middleware.NewRedisLimiter(s.redis, cfg.RedisKeyPrefix, cfg.RateLimitPerMinute)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisLimiter.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable - rate limiting fails open until it recovers")
		}
		cancel()
		limiter = redisLimiter
		redisCheck = redisLimiter
	} else {
		limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	}

	log.Info().
		Str("provider", cfg.ModelProvider).
		Str("model", cfg.ModelName).
		Bool("model_configured", modelClient != nil).
		Bool("redis_rate_limit", cfg.RedisAddr != "").
		Bool("prompt_guard", cfg.EnablePromptGuard).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Msg("service configuration")

	// ─── Handlers ────────────────────────────────────────────────────────────────
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)
	healthH := handler.NewHealthHandler(modelClient, redisCheck)
	calcH := handler.NewCalculateHandler(orchestrator, auditLogger, cfg.APIKeyHeader, handler.MaxBodyBytes(cfg.MaxMessageLength))

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	corsCfg := middleware.DefaultCORSConfig(cfg.CORSOrigins)
	if cfg.CORSMaxAge > 0 {
		corsCfg.MaxAge = cfg.CORSMaxAge
	}
	r.Use(middleware.CORS(corsCfg))
	r.Use(chiMiddleware.RealIP)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		models.WriteError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		models.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	// Rate limiting for API routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter, cfg.APIKeyHeader))

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/calculate", calcH.Calculate)
		})
	})

	return r, nil
}
