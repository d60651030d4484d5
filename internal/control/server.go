// Package control exposes a running SignalChain over HTTP so parameters,
// presets and the transport can be driven while audio plays.
package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fx/dsp/effectchain"
)

// shutdownTimeout bounds how long Run waits for open requests on exit.
const shutdownTimeout = 5 * time.Second

// Server serves the control API for one chain.
type Server struct {
	chain  *effectchain.SignalChain
	reg    *effectchain.Registry
	log    logrus.FieldLogger
	router *chi.Mux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a server for chain. reg resolves effect types for POST
// /effects and PUT /chain.
func New(chain *effectchain.SignalChain, reg *effectchain.Registry, opts ...Option) *Server {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &Server{chain: chain, reg: reg, log: quiet, router: chi.NewRouter()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Get("/types", s.handleTypes)

	r.Get("/chain", s.handleGetChain)
	r.Put("/chain", s.handlePutChain)

	r.Route("/effects", func(r chi.Router) {
		r.Get("/", s.handleListEffects)
		r.Post("/", s.handleAddEffect)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetEffect)
			r.Delete("/", s.handleRemoveEffect)
			r.Put("/position", s.handleMoveEffect)
			r.Put("/enabled", s.handleSetEnabled)
			r.Put("/params/{name}", s.handleSetParam)
			r.Put("/automation/{name}", s.handleSetAutomation)
			r.Post("/presets/{name}", s.handleLoadPreset)
			r.Put("/presets/{name}", s.handleSavePreset)
			r.Post("/reset", s.handleResetEffect)
		})
	})

	r.Route("/transport", func(r chi.Router) {
		r.Get("/", s.handleTransport)
		r.Post("/start", s.handleStart)
		r.Post("/stop", s.handleStop)
		r.Put("/tempo", s.handleTempo)
	})
}

// requestLogger logs one line per request through the server's logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start),
			"request":  middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

// Handler returns the routed handler, for embedding or tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("control: listen %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()

		s.log.WithFields(logrus.Fields{"function": "Serve"}).Info("shutting down control server")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			s.log.WithFields(logrus.Fields{"function": "Serve"}).WithError(err).Error("shutdown error")
		}
	}()

	s.log.WithFields(logrus.Fields{"function": "Serve", "addr": ln.Addr().String()}).Info("control server listening")

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done

	return nil
}
