package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/capoo-pm/apiserver/config"
	"github.com/capoo-pm/apiserver/internal/auth"
	"github.com/capoo-pm/apiserver/internal/db"
	"github.com/capoo-pm/apiserver/internal/events"
	"github.com/capoo-pm/apiserver/internal/handlers"
	"github.com/capoo-pm/apiserver/internal/logging"
	"github.com/capoo-pm/apiserver/internal/mq"
	"github.com/capoo-pm/apiserver/internal/services"
	"github.com/capoo-pm/apiserver/internal/storage"
	"github.com/capoo-pm/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 60 * time.Second

// Dependencies are the stateful collaborators behind the HTTP handler.
// Avatars and Events may be nil.
type Dependencies struct {
	Users   services.UserRepository
	Avatars services.AvatarStore
	Events  events.Publisher
}

// Server wraps the HTTP server and the backends it owns.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	queue      *mq.MQ
	logger     *slog.Logger
}

// New opens the configured backends and constructs a Server.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{logger: logger}
	deps := Dependencies{}

	if cfg.Database.InMemory() {
		logger.WarnContext(ctx, "using in-memory user store; data is lost on exit")
		deps.Users = store.NewMemoryUserRepository()
	} else {
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		srv.db = dbConn
		deps.Users = store.NewUserRepository(dbConn)
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		srv.closeBackends()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if objects != nil {
		deps.Avatars = objects
		logger.InfoContext(ctx, "avatar uploads enabled",
			slog.String("backend", cfg.Storage.Backend),
			slog.String("bucket", objects.Bucket()),
		)
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		srv.closeBackends()
		return nil, fmt.Errorf("open message queue: %w", err)
	}
	if queue != nil {
		srv.queue = queue
		deps.Events = events.NewMQPublisher(queue)
		logger.InfoContext(ctx, "domain events enabled", slog.String("backend", cfg.MQ.Backend))
	}

	router, err := NewRouter(cfg, logger, deps)
	if err != nil {
		srv.closeBackends()
		return nil, err
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

// NewRouter builds the service graph over deps and mounts every route.
func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) (*chi.Mux, error) {
	if deps.Users == nil {
		return nil, errors.New("user repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	codec, err := auth.NewTokenCodec(cfg.Auth.Secret, cfg.Auth.Algorithm)
	if err != nil {
		return nil, err
	}
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	authService := services.NewAuthService(deps.Users, hasher, codec, services.TokenLifetimes{
		Access:  cfg.Auth.AccessTokenTTL,
		Refresh: cfg.Auth.RefreshTokenTTL,
	}, deps.Events, logger)
	profileService := services.NewProfileService(deps.Users, deps.Avatars, deps.Events, logger)

	authMiddleware := handlers.RequireAuth(authService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.Middleware(logger),
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)
	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)
	router.Get("/healthz", handlers.Healthz)

	api := chi.NewRouter()
	api.NotFound(handlers.NotFound)
	api.MethodNotAllowed(handlers.MethodNotAllowed)
	api.Route("/auth", func(r chi.Router) {
		r.Use(handlers.RateLimitByIP(cfg.RateLimit))
		handlers.AuthRouter(r, authService)
	})
	api.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, profileService, authMiddleware)
	})

	if cfg.APIPrefix == "" || cfg.APIPrefix == "/" {
		router.Mount("/", api)
	} else {
		router.Mount(cfg.APIPrefix, api)
	}
	return router, nil
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	return errors.Join(err, s.closeBackends())
}

func (s *Server) closeBackends() error {
	var errs []error
	if s.queue != nil {
		errs = append(errs, s.queue.Close())
		s.queue = nil
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
		s.db = nil
	}
	return errors.Join(errs...)
}
