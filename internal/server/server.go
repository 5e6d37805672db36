package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rechargehub/apiserver/config"
	"github.com/rechargehub/apiserver/internal/auth"
	"github.com/rechargehub/apiserver/internal/db"
	"github.com/rechargehub/apiserver/internal/handlers"
	"github.com/rechargehub/apiserver/internal/mq"
	"github.com/rechargehub/apiserver/internal/services"
	"github.com/rechargehub/apiserver/internal/storage"
	"github.com/rechargehub/apiserver/internal/store"
)

// Server wraps the HTTP server and its shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
}

// New constructs a Server with all routes and middleware wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	receipts, err := storage.Connect(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if receipts == nil {
		log.Println("receipt archiving disabled: no storage backend configured")
	}

	queue, err := mq.Connect(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if queue == nil {
		log.Println("transaction events disabled: no mq backend configured")
	}

	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		log.Println("WARNING: JWT_SECRET not set, using the insecure development default")
	}

	userRepo := store.NewUserRepository(dbConn)
	planRepo := store.NewPlanRepository(dbConn)
	txRepo := store.NewTransactionRepository(dbConn)

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	authService := services.NewAuthService(userRepo, hasher, tokens, cfg.Auth.DefaultRole)
	planService := services.NewPlanService(planRepo)
	txService := services.NewTransactionService(txRepo, planRepo, receipts, queue)

	authMiddleware := handlers.RequireAuth(tokens)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, tokens)
	})
	router.Route("/plans", func(r chi.Router) {
		handlers.PlanRouter(r, planService, authService, authMiddleware)
	})
	router.Route("/transactions", func(r chi.Router) {
		handlers.TransactionRouter(r, txService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, then closes the database and queue.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	return err
}
