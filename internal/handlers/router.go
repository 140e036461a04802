package handlers

import (
	"net/http"
	"time"

	"clinic-feedback/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	CORSOrigins      []string
	RateLimitPerMin  int
	// TrustedProxyHops is the number of reverse proxies in front of the
	// server whose X-Forwarded-For entries the rate limiter may trust.
	TrustedProxyHops int
	Logger           zerolog.Logger
}

func NewRouter(cfg RouterConfig, feedback *FeedbackHandler, bonus *BonusHandler) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(cfg.Logger)...)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.Limit(
			cfg.RateLimitPerMin,
			time.Minute,
			httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
				return PeerKey(r, cfg.TrustedProxyHops), nil
			}),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeFailure(w, http.StatusTooManyRequests, msgRateLimited)
			}),
		))

		r.Post("/feedback", feedback.SubmitFeedback)
		r.Post("/request-call", feedback.RequestCall)
		r.Post("/bonus/claim", bonus.ClaimBonus)
	})

	return r
}
