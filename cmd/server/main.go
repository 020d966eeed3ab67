package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/budget_api/internal/config"
	"github.com/Skotchmaster/budget_api/internal/db"
	"github.com/Skotchmaster/budget_api/internal/events"
	"github.com/Skotchmaster/budget_api/internal/httpserver"
	"github.com/Skotchmaster/budget_api/internal/logging"
	"github.com/Skotchmaster/budget_api/internal/middleware"
	"github.com/Skotchmaster/budget_api/internal/repo"
	"github.com/Skotchmaster/budget_api/internal/search"
	"github.com/Skotchmaster/budget_api/internal/service"
	"github.com/Skotchmaster/budget_api/internal/tokens"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err == nil && cfg.AutoMigrate {
		err = db.Migrate(ctx, gdb, cfg.DBDriver, cfg.DatabaseURL)
	}
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	publisher := events.New(cfg.KafkaBrokers)

	gormRepo := repo.New(gdb)
	tok := tokens.NewService(cfg.AccessSecret(), cfg.RefreshSecret(), cfg.TokenTTL)

	catalog := &service.CatalogService{Repo: gormRepo, Events: publisher, MinPrice: cfg.MinProductPrice}
	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		idx, err := search.Connect(ctx, search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		cancel()
		if err != nil {
			logger.Warn("elasticsearch unavailable, searching the database", "error", err)
		} else {
			catalog.Index = idx
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Common(logger, cfg.CORSOrigins)...)

	httpserver.Register(e, &httpserver.Deps{
		Prefix: cfg.APIPrefix,
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Repo:       gormRepo,
			Tokens:     tok,
			Events:     publisher,
			BcryptCost: cfg.BcryptCost,
		}},
		CatalogHandler:     &httpserver.CatalogHTTP{Svc: catalog},
		TransactionHandler: &httpserver.TransactionHTTP{Svc: &service.TransactionService{Repo: gormRepo, Events: publisher}},
		Auth:               middleware.NewBearerAuth(tok),
		Ready:              func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("close publisher", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("close db", "error", err)
	}

	logger.Info("stopped")
}
