package logging

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. format is "json" or "console".
func Setup(level, format string) zerolog.Logger {
	return SetupWriter(os.Stdout, level, format)
}

func SetupWriter(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	logger := zerolog.New(w).With().Timestamp().Str("service", "clinic-feedback").Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger
}

// RequestLogger attaches a request-scoped logger to every request and logs
// one line per completed request. It expects chi's RequestID middleware to
// run first.
func RequestLogger(logger zerolog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		hlog.NewHandler(logger),
		requestIDField,
		hlog.RemoteAddrHandler("ip"),
		hlog.UserAgentHandler("user_agent"),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			evt := hlog.FromRequest(r).Info()
			if status >= http.StatusInternalServerError {
				evt = hlog.FromRequest(r).Error()
			}
			evt.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
	}
}

func requestIDField(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			logger := zerolog.Ctx(r.Context())
			logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}
