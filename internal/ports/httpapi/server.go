// Package httpapi serves the bot engine to the browser front end over HTTP
// and websockets.
package httpapi

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"game2048/internal/bot"
	"game2048/internal/config"
	"game2048/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Server holds the dependencies shared by all handlers. Per request state,
// random sources included, is created by the handlers themselves.
type Server struct {
	log zerolog.Logger
	// delay paces websocket autoplay frames; nil uses config.BotDelay.
	delay func(bot.Algorithm) time.Duration
	// budget bounds one bot decision; nil uses config.SearchBudget.
	budget func() time.Duration
	seed   func() int64
}

// Option customises a Server.
type Option func(*Server)

// WithDelay overrides the autoplay pacing.
func WithDelay(fn func(bot.Algorithm) time.Duration) Option {
	return func(s *Server) { s.delay = fn }
}

// WithBudget overrides the deadline of one bot decision.
func WithBudget(d time.Duration) Option {
	return func(s *Server) { s.budget = func() time.Duration { return d } }
}

// WithSeed overrides the seed used when a request does not carry one.
func WithSeed(fn func() int64) Option {
	return func(s *Server) { s.seed = fn }
}

// NewServer builds a Server logging to log.
func NewServer(log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		log:    log,
		delay:  config.BotDelay,
		budget: config.SearchBudget,
		seed:   func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the chi router with every endpoint mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/move", s.handleMove)
		r.Post("/choose", s.handleChoose)
		r.Get("/autoplay", s.handleAutoplay)
		r.Get("/profiles", s.handleProfiles)
	})
	return r
}

// searchContext derives the context of one bot decision from ctx.
func (s *Server) searchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.budget())
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// rngFor returns a random source seeded from the "seed" query parameter, or
// from the server seed when absent.
func (s *Server) rngFor(r *http.Request) (*rand.Rand, error) {
	seed := s.seed()
	if raw := r.URL.Query().Get("seed"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		seed = v
	}
	return rand.New(rand.NewSource(seed)), nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func directionNames(ds []domain.Direction) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.String())
	}
	return out
}
