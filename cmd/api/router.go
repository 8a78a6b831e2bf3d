package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/outreach-mail/internal/common"
	"github.com/noah-isme/outreach-mail/internal/config"
	"github.com/noah-isme/outreach-mail/internal/health"
	"github.com/noah-isme/outreach-mail/internal/nonprofit"
	"github.com/noah-isme/outreach-mail/internal/obs"
	"github.com/noah-isme/outreach-mail/internal/outreach"
	"github.com/noah-isme/outreach-mail/internal/ratelimit"
	"github.com/noah-isme/outreach-mail/internal/security"
)

type routerConfig struct {
	Config         *config.Config
	Logger         zerolog.Logger
	Directory      *nonprofit.Directory
	Engine         *outreach.Engine
	Health         health.Checker
	Redis          *redis.Client
	SendLimiter    ratelimit.Limiter
	HTTPMetrics    *obs.HTTPMetrics
	ServeMetrics   bool
	TracingEnabled bool
	Pprof          http.Handler
}

func newRouter(rc routerConfig) http.Handler {
	cfg := rc.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if rc.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: rc.HTTPMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: rc.Logger}.Middleware)
	r.Use(security.CORS(strings.Join(cfg.CORSAllowedOrigins, ",")))
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	if rc.ServeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if rc.Pprof != nil {
		r.Mount("/debug/pprof", rc.Pprof)
	}

	healthHandler := health.Handler{
		Checker:          rc.Health,
		TransportTimeout: envDurationMillis("HEALTH_READY_TRANSPORT_TIMEOUT_MS", 500),
		RedisTimeout:     envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	nonprofitHandler := nonprofit.Handler{Directory: rc.Directory, Logger: rc.Logger}
	outreachHandler := outreach.Handler{Engine: rc.Engine}
	r.Get("/debug/dispatch-status", outreachHandler.Statuses)

	idem := common.Idem{R: rc.Redis, TTL: cfg.IdempotencyTTL, Prefix: "outreach:idem:"}
	sendLimit := ratelimit.Handler{
		Limiter: rc.SendLimiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ClientKey("send:"),
			Window: cfg.RateLimitSendWindow,
			Max:    cfg.RateLimitSendMax,
		},
		OnError: func(err error) {
			rc.Logger.Warn().Err(err).Msg("send rate limiter unavailable")
		},
	}

	r.Route("/v1/api", func(v chi.Router) {
		v.Post("/nonprofits", nonprofitHandler.Create)
		v.Get("/nonprofits/{email}", nonprofitHandler.Get)

		v.With(sendLimit.Middleware, idem.Middleware).Post("/send-emails", outreachHandler.SendEmails)
		v.Get("/sent-emails", outreachHandler.ListSent)
		v.Get("/sent-emails/{senderId}", outreachHandler.ListSentBySender)
	})

	return r
}
