package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/api/handlers"
	appMiddleware "github.com/Jaks-Tech/thexposiguide-app-sub000/internal/api/middlewares"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/config"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/answer"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/cache"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core/ingest"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds and wires all routes.
func NewServer(
	cfg *config.Config,
	dbClient core.DbClient,
	objClient core.ObjectClient,
	preparer *ingest.Preparer,
	tasks *ingest.TaskRunner,
	retriever *ingest.Retriever,
	synthesizer *answer.Synthesizer,
	answers cache.Cache,
	logger *slog.Logger,
) *Server {
	authHandler := handlers.NewAuthHandler(dbClient)
	docHandler := handlers.NewDocumentHandler(dbClient, objClient, preparer, tasks, cfg, logger)
	chatHandler := handlers.NewChatHandler(dbClient, retriever, synthesizer, answers, cfg.AnswerCacheTTL, cfg.RetrievalTopK, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.QueryTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware)
			protected.Post("/documents/upload", docHandler.UploadDocument)
			protected.Get("/documents", docHandler.GetDocuments)
			protected.Post("/documents/prepare", docHandler.PrepareDocument)
			protected.Post("/documents/prepare-async", docHandler.PrepareDocumentAsync)
			protected.Get("/documents/tasks", docHandler.TaskStatus)
			protected.Post("/chat/ask", chatHandler.Ask)
			protected.Post("/chat/full-answers", chatHandler.FullAnswers)
		})
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{httpServer: httpSrv, logger: logger.With("component", "http")}
}

// Start runs the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
