package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"libraryapi/internal/auth"
	"libraryapi/internal/book"
	"libraryapi/internal/borrowing"
	"libraryapi/internal/config"
	"libraryapi/internal/httpx"
	"libraryapi/internal/platform/logging"
	"libraryapi/internal/platform/openlibrary"
	"libraryapi/internal/platform/postgres"
	"libraryapi/internal/session"
	"libraryapi/internal/user"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.Open(ctx, cfg.DatabaseDSN, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer dbPool.Close()
	logger.Info("database connection OK", "dsn", postgres.RedactDSN(cfg.DatabaseDSN))

	userService := user.NewService(user.NewPostgresRepo(dbPool, cfg.DBTimeout))
	sessionService := session.NewService(
		session.NewPostgresRepo(dbPool, cfg.DBTimeout),
		session.NewBlacklistPostgresRepo(dbPool, cfg.DBTimeout),
	)
	authService := auth.NewService(auth.TokenConfig{
		Secret:        cfg.JWTSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		RememberMeTTL: cfg.RememberMeTTL,
	}, userService, sessionService)

	catalog := openlibrary.NewClient(cfg.OpenLibraryUserAgent, cfg.OpenLibraryRPS, cfg.OpenLibraryMaxRetries)
	bookService := book.NewService(book.NewPostgresRepo(dbPool, cfg.DBTimeout), catalog)
	borrowingService := borrowing.NewService(borrowing.NewPostgresRepo(dbPool, cfg.DBTimeout))

	limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	router := newRouter(routerDeps{
		cfg:    cfg,
		logger: logger,
		handlers: handlers{
			books:      book.NewHTTPHandler(bookService),
			borrowings: borrowing.NewHTTPHandler(borrowingService),
			users:      user.NewHTTPHandler(userService),
			auth:       auth.NewHTTPHandler(authService),
			sessions:   session.NewHTTPHandler(sessionService),
		},
		blacklist: sessionService,
		db:        dbPool,
		limiter:   limiter,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down server")
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return session.NewJanitor(sessionService, cfg.JanitorInterval, logger).Run(gctx)
	})
	g.Go(func() error {
		limiter.RunCleanup(gctx)
		return nil
	})

	return g.Wait()
}
