package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/choss/internal/chessbuilder"
	appcfg "github.com/park285/choss/internal/config"
	"github.com/park285/choss/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := chessbuilder.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("shutdown_close_error", zap.Error(err))
		}
	}()

	if deps.Relay != nil {
		go func() {
			if err := deps.Relay.Run(ctx); err != nil {
				logger.Error("relay_stopped", zap.Error(err))
			}
		}()
	}

	if deps.Admin != nil {
		go func() {
			logger.Info("admin_listen", zap.String("addr", cfg.AdminAddr))
			if err := deps.Admin.ListenAndServe(cfg.AdminAddr); err != nil {
				logger.Error("admin_stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           deps.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("ws_listen", zap.String("addr", cfg.ListenAddr), zap.String("path", cfg.WSPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ws_listen_error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ws_shutdown_error", zap.Error(err))
	}
	if deps.Admin != nil {
		if err := deps.Admin.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin_shutdown_error", zap.Error(err))
		}
	}
}
