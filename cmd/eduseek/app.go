package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/amezhin/eduseek/internal/db"
	"github.com/amezhin/eduseek/internal/handlers"
	"github.com/amezhin/eduseek/internal/logger"
	"github.com/amezhin/eduseek/internal/repository/postgres"
	"github.com/amezhin/eduseek/internal/service/auth"
	"github.com/amezhin/eduseek/internal/service/course"
	"github.com/amezhin/eduseek/internal/service/image"
	"github.com/amezhin/eduseek/internal/service/lyceum"
	"github.com/amezhin/eduseek/internal/service/tokensweeper"
	"github.com/amezhin/eduseek/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	sweeper *tokensweeper.Sweeper
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if c.SecretKey == "" {
		return nil, errors.New("secret key must be set")
	}

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	authService, err := auth.NewService(auth.Config{
		SecretKey:       c.SecretKey,
		AccessTokenTTL:  c.AccessTokenTTL,
		RefreshTokenTTL: c.RefreshTokenTTL,
		RotateRefresh:   c.RotateRefresh,
	}, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	lyceumService := lyceum.NewService(storage)
	courseService := course.NewService(storage)
	imageService := image.NewService(storage)
	profileService := user.NewService(auth.DefaultHasher, storage)

	sweeper := tokensweeper.New(c.SweepInterval, c.AccessTokenTTL, storage.Token(), logger)

	mux := handlers.NewRouter(
		authService,
		lyceumService,
		courseService,
		imageService,
		profileService,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     logger,
		sweeper:    sweeper,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	sweeperStopped := s.sweeper.Run(srvCtx)

	idleConnsClosed := make(chan struct{})
	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	return err
}
