package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/mvaleed/warden/internal/auth"
	"github.com/mvaleed/warden/internal/config"
	"github.com/mvaleed/warden/internal/mail"
	"github.com/mvaleed/warden/internal/service"
	"github.com/mvaleed/warden/internal/storage/postgres"
	grpcTransport "github.com/mvaleed/warden/internal/transport/grpc"
	httpTransport "github.com/mvaleed/warden/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("connecting to database")
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("database connected")

	userRepo := postgres.NewUserRepository(db.Pool())
	auditRepo := postgres.NewAuditRepository(db.Pool())

	tokens := auth.NewTokenManager(auth.TokenConfig{
		SecretKey: cfg.JWTSecretKey,
		TokenTTL:  cfg.TokenTTL,
		Issuer:    "warden",
	})

	notifier := mail.NewLogNotifier(logger)

	accountService := service.NewAccountService(userRepo, auditRepo, notifier, logger)
	userService := service.NewUserService(userRepo, auditRepo, notifier, logger)
	auditService := service.NewAuditService(auditRepo, logger)

	errChan := make(chan error, 2)

	httpServer := httpTransport.NewServer(cfg, db, logger)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		logger.Info("starting HTTP server", "addr", addr)
		if err := httpServer.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	grpcServer := grpcTransport.NewServer(grpcTransport.Options{
		Addr:     fmt.Sprintf(":%d", cfg.GRPCPort),
		Tokens:   tokens,
		Accounts: accountService,
		Users:    userService,
		Audits:   auditService,
		DB:       db,
		Profile:  cfg.Environment,
		Ribbon:   cfg.RibbonEnv,
		Logger:   logger,
	})
	go func() {
		if err := grpcServer.Serve(); err != nil && err != grpc.ErrServerStopped {
			errChan <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	grpcServer.Shutdown(shutdownCtx)

	cancel()

	logger.Info("shutdown complete")
	return nil
}
