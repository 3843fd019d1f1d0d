package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tyrowin/chatrelay/internal/server"
	"github.com/hashicorp/go-metrics"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/sync/errgroup"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	cfg, err := server.LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(cfg.LogLevel)

	inmem := metrics.NewInmemSink(10*time.Second, time.Minute)
	dumper := metrics.DefaultInmemSignal(inmem)
	defer dumper.Stop()

	msink, err := metrics.NewGlobal(metrics.DefaultConfig("chatrelay"), inmem)
	if err != nil {
		return exitConfig, fmt.Errorf("metrics setup failed: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	hub := server.NewHub(cfg, server.NewMemoryCredentialStore(), logger, msink)

	router := server.SetupRoutes(hub)
	router.HandleFunc("/debug/metrics", server.MetricsHandler(inmem)).Methods(http.MethodGet)
	httpServer := server.CreateServer(cfg.Port, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.StartServer(httpServer, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		httpErr := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, logger)
		if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
			return fmt.Errorf("hub shutdown: %w", err)
		}
		return httpErr
	})

	if err := g.Wait(); err != nil {
		return exitRuntime, err
	}

	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
