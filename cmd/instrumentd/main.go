// instrumentd serves the instrument control panel: a session registry over
// SCPI connection handles with HTTP endpoints for power supply, multimeter
// and oscilloscope operations.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/config"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/health"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/instrument"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/logger"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/server"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration invalid", "error", err)
	}

	log := setupLogger(cfg)
	logger.SetLogger(log)

	if err := cfg.EnsureDirs(); err != nil {
		log.Fatal("could not create export directories", "error", err)
	}

	checker := health.NewChecker(cfg, log)
	report := checker.Run()
	log.Info("startup health check", "status", report.Status)
	if report.Status == health.StatusUnhealthy {
		log.Fatal("startup health check failed")
	}

	registry := instrument.NewRegistry(log)
	srv := server.New(cfg, registry, checker, log)

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("control panel listening", "addr", cfg.Addr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error("http shutdown", "error", err)
	}

	// Instruments keep their last state; only the handles are released.
	if err := registry.CloseAll(); err != nil {
		log.Error("closing instrument sessions", "error", err)
	}

	log.Info("shutdown complete")
}

// setupLogger builds the process logger from configuration: console output
// always, plus a JSON file sink when LOG_FILE is set.
func setupLogger(cfg config.Config) logger.Logger {
	level := logger.ParseLevel(cfg.LogLevel)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Warn("could not open log file, using stdout", "path", cfg.LogFile, "error", err)
			return logger.NewSlog(level, false)
		}

		return logger.NewSlogWriter(f, level, false)
	}

	return logger.NewSlog(level, false)
}
