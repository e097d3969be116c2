package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"reelview/internal/api"
	"reelview/internal/config"
	"reelview/internal/metrics"
)

type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	httpServer *http.Server
	router     *chi.Mux
	handler    *api.Handler
	metrics    *metrics.Metrics
}

func New(cfg *config.Config, logger zerolog.Logger, handler *api.Handler, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		handler: handler,
		metrics: m,
	}

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(CORSMiddleware)
	s.router.Use(MetricsMiddleware(s.metrics))
	s.router.Use(LoggingMiddleware(s.logger))
}

func (s *Server) setupRoutes() {
	h := s.handler

	s.router.Method(http.MethodGet, "/metrics", h.Metrics())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Get("/reels/{id}", h.GetReel)
		r.Get("/reels/{id}/stream", h.StreamReel)

		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)

			r.Post("/refresh", h.Refresh)
			r.Post("/load-more", h.LoadMore)
			r.Post("/viewport", h.Viewport)
			r.Post("/deeplink", h.DeepLink)
			r.Post("/app-state", h.AppState)
			r.Get("/commands", h.Commands)

			r.Route("/items/{id}", func(r chi.Router) {
				r.Post("/mount", h.Mount)
				r.Post("/unmount", h.Unmount)
				r.Post("/media", h.MediaEvent)
				r.Post("/toggle-play", h.TogglePlay)
				r.Post("/toggle-mute", h.ToggleMute)
				r.Post("/like", h.ToggleLike)
			})
		})
	})
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.httpServer.Addr).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
