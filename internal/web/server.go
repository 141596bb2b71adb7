package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ppiankov/askcup/internal/cache"
	"github.com/ppiankov/askcup/internal/model"
	"github.com/ppiankov/askcup/internal/page"
	"github.com/ppiankov/askcup/internal/worker"
)

// NewServeMux wires up all routes and middleware.
func NewServeMux(h *Handler, limiter *worker.Limiter, proxies *TrustedProxies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /ask", h.Ask)
	mux.HandleFunc("POST /sample", h.Sample)
	mux.HandleFunc("POST /reset", h.Reset)
	mux.HandleFunc("GET /api/state", h.State)
	mux.HandleFunc("GET /healthz", h.Healthz)

	// Stack middleware: outermost last.
	var handler http.Handler = mux
	handler = RateLimit(limiter, proxies)(handler)
	handler = Logging(handler)
	handler = RequestID(handler)
	handler = Recovery(handler)

	return handler
}

// Server runs the web UI
type Server struct {
	cfg     model.ServerConfig
	handler http.Handler
	limiter *worker.Limiter
}

// NewServer builds the web UI around asker. Submissions are bound to ctx.
func NewServer(ctx context.Context, cfg model.ServerConfig, asker page.Asker, failureMessage string) (*Server, error) {
	proxies, err := ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	sessions := cache.NewSessionStore(cfg.SessionTTL, func() *page.QuestionPage {
		return page.New(asker, failureMessage)
	})
	limiter := worker.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	h := NewHandler(ctx, sessions, cfg.RefreshSeconds)

	return &Server{
		cfg:     cfg,
		handler: NewServeMux(h, limiter, proxies),
		limiter: limiter,
	}, nil
}

// Handler exposes the routed handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			slog.Info("server stopped gracefully")
			return nil
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ticker.C:
			if n := s.limiter.Forget(); n > 0 {
				slog.Debug("dropped idle rate limiters", "count", n)
			}
		}
	}
}
