package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sentinela/internal/bootstrap/config"
	"sentinela/internal/bootstrap/logging"
	"sentinela/internal/errs"
	"sentinela/internal/usecase/deviation"
)

// Server is the HTTP face of the operations board: a JSON API for the panel,
// a websocket channel pushing refresh signals, and the metrics endpoint.
type Server struct {
	cfg config.HTTPConfig
	svc *deviation.Service
	hub *hub
}

func NewServer(cfg config.HTTPConfig, svc *deviation.Service) *Server {
	s := &Server{
		cfg: cfg,
		svc: svc,
		hub: newHub(),
	}
	svc.OnRefresh(func() { s.hub.broadcast(refreshSignal) })
	return s
}

// Router assembles the route tree. Everything under /api except login
// requires a session token.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/logout", s.handleLogout)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/events", s.handleEvents)
			r.Get("/events/{title}", s.handleEventDetail)
			r.Get("/events/{title}/audit", s.handleAuditTrail)
			r.Post("/events/{title}/edits", s.handleStageEdit)
			r.Post("/events/{title}/release", s.handleStageRelease)
			r.Post("/events/{title}/submit", s.handleSubmit)
			r.Post("/events/{title}/approve", s.handleApprove)
			r.Post("/events/{title}/reject", s.handleReject)
			r.Get("/release-options", s.handleReleaseOptions)
		})
	})

	r.Get("/ws", s.handleWebsocket)
	return r
}

// Run serves until the context is cancelled, refreshing the snapshot on the
// configured interval in the background.
func (s *Server) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "httpapi"))

	if err := s.svc.Refresh(ctx); err != nil {
		logging.Warn(logCtx, "initial refresh failed", slog.Any("err", errs.Loggable(err)))
	} else if _, err := s.svc.Sweep(ctx); err != nil {
		logging.Warn(logCtx, "initial sweep failed", slog.Any("err", errs.Loggable(err)))
	}
	go s.refreshLoop(logCtx)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(logCtx, "http server listening", slog.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errs.Wrap(err, "serve http")
	}
}

func (s *Server) refreshLoop(ctx context.Context) {
	interval := s.cfg.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.svc.Refresh(ctx); err != nil {
				logging.Warn(ctx, "periodic refresh failed", slog.Any("err", errs.Loggable(err)))
				continue
			}
			if _, err := s.svc.Sweep(ctx); err != nil {
				logging.Warn(ctx, "unattended sweep failed", slog.Any("err", errs.Loggable(err)))
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
