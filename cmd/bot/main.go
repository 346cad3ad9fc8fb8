package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wolfman30/nutribot/cmd/mainconfig"
	"github.com/wolfman30/nutribot/internal/app/bootstrap"
	appconfig "github.com/wolfman30/nutribot/internal/config"
	"github.com/wolfman30/nutribot/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting nutribot webhook server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{
		Logger:   logger,
		Registry: newRegistry(),
		LoadAWS:  mainconfig.Loader(cfg),
	})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	sweepStop := make(chan struct{})
	go app.Limiter.Run(sweepStop)
	defer close(sweepStop)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.DispatchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
