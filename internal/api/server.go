// Package api exposes flag evaluation over HTTP.
package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/TimurManjosov/flagship-eval/internal/engine"
	"github.com/TimurManjosov/flagship-eval/internal/evaluation"
	"github.com/TimurManjosov/flagship-eval/internal/telemetry"
)

const (
	defaultRequestTimeout = 5 * time.Second
	readinessTimeout      = 2 * time.Second
	maxRequestBodySize    = 1 << 20 // 1 MB
)

// Evaluator evaluates a single flag. *evaluation.Service satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, req evaluation.Request) (engine.Result, error)
}

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Logger zerolog.Logger
	// RateLimitPerIP is the number of evaluate requests allowed per IP per
	// minute. Zero disables rate limiting.
	RateLimitPerIP int
	RequestTimeout time.Duration
	// Checks are pinged by /readyz, keyed by name.
	Checks map[string]Pinger
}

type Server struct {
	eval      Evaluator
	log       zerolog.Logger
	rateLimit int
	timeout   time.Duration
	checks    map[string]Pinger
}

func NewServer(eval Evaluator, opts Options) *Server {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Server{
		eval:      eval,
		log:       opts.Logger,
		rateLimit: opts.RateLimitPerIP,
		timeout:   timeout,
		checks:    opts.Checks,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(hlog.NewHandler(s.log))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)
	r.Use(telemetry.Middleware)
	r.Use(middleware.Timeout(s.timeout))

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.Limit(
				s.rateLimit,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(RateLimitedError),
			))
		}
		r.Post("/evaluate", s.handleEvaluate)
	})

	return r
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failures := make(map[string]string)
	for _, name := range names {
		if err := s.checks[name].Ping(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		hlog.FromRequest(r).Warn().Interface("failures", failures).Msg("readiness check failed")
		errResp := NewErrorResponse(http.StatusServiceUnavailable, ErrCodeNotReady, "Dependencies unavailable").
			WithFields(failures)
		writeErrorResponse(w, r, http.StatusServiceUnavailable, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// requestIDLogger tags the request logger with chi's request ID.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
