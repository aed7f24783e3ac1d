// Package api serves the stateless blur and inpaint endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"region-obliterator/internal/codec"
	"region-obliterator/internal/config"
	"region-obliterator/internal/logger"
	"region-obliterator/internal/opencv/memory"
	"region-obliterator/internal/timing"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg     *config.Config
	codec   *codec.Codec
	memory  *memory.Manager
	timings *timing.Tracker
	logger  logger.Logger
	zlog    zerolog.Logger
	http    *http.Server
}

func NewServer(cfg *config.Config, mem *memory.Manager, log logger.Logger, zlog zerolog.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if mem == nil {
		mem = memory.NewManager(log)
	}

	s := &Server{
		cfg:     cfg,
		codec:   codec.New(mem),
		memory:  mem,
		timings: timing.NewTracker(),
		logger:  log,
		zlog:    zlog,
	}
	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler wires routes and middleware. Each request is processed in
// isolation; no state is shared between requests beyond allocation counters.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/blur", s.handleBlur)
	mux.HandleFunc("/api/inpaint", s.handleInpaint)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/", s.handleNotFound)

	c := cors.New(cors.Options{
		AllowedOrigins:       s.cfg.Server.CORSOrigins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"*"},
		OptionsSuccessStatus: http.StatusOK,
	})

	var h http.Handler = mux
	h = s.limitBody(h)
	h = s.recoverPanics(h)
	h = c.Handler(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.NewHandler(s.zlog)(h)
	return h
}

// SetBaseContext makes every request context a child of ctx, so cancelling it
// aborts in-flight processing.
func (s *Server) SetBaseContext(ctx context.Context) {
	s.http.BaseContext = func(net.Listener) context.Context { return ctx }
}

// ListenAndServe blocks until the server stops. A clean Shutdown is not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("API", "server listening", map[string]interface{}{
		"addr":           s.cfg.Server.Addr,
		"max_body_bytes": s.cfg.Server.MaxBodyBytes,
		"timeout":        s.cfg.Server.RequestTimeout.String(),
	})

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests. It satisfies shutdown.Shutdownable.
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("API", err, map[string]interface{}{"stage": "shutdown"})
	}
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	limit := s.cfg.Server.MaxBodyBytes
	if limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				hlog.FromRequest(r).Error().Interface("panic", rec).Msg("handler panicked")
				writeJSON(w, http.StatusInternalServerError, ProcessResponse{
					Success: false,
					Error:   "Internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
