package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mcbarin/personal-ai-assistant/internal/config"
	"github.com/mcbarin/personal-ai-assistant/internal/core"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

// Assistant handles one user utterance end to end.
type Assistant interface {
	HandleMessage(ctx context.Context, message string) (core.TurnResult, error)
}

// TurnsLister reads back recent turn records for the history endpoint.
type TurnsLister interface {
	List(ctx context.Context, limit int) ([]core.TurnRecord, error)
}

// Server exposes the assistant over a small JSON API.
type Server struct {
	cfg        *config.HTTPConfig
	assistant  Assistant
	todos      core.TodosRepository
	turns      TurnsLister
	httpServer *http.Server
}

func NewServer(cfg *config.HTTPConfig, assistant Assistant, todos core.TodosRepository, turns TurnsLister) *Server {
	s := &Server{
		cfg:       cfg,
		assistant: assistant,
		todos:     todos,
		turns:     turns,
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Get("/todos", s.handleTodos)
	r.Get("/turns", s.handleTurns)

	return r
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Int("port", s.cfg.Port).Msg("starting http server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
