package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-audio-extract/api"
	"github.com/yourusername/yt-audio-extract/internal/app"
)

var (
	configPath   = flag.String("config", "", "Config file (default: ./configs, $HOME/.yt-audio, /etc/yt-audio)")
	installTools = flag.Bool("install-tools", false, "Download yt-dlp and ffmpeg before serving")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.NewRuntime(ctx, config, *installTools)
	if err != nil {
		return err
	}
	defer rt.Close()

	log := rt.Logger
	log.Info("Starting yt-audio server",
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("output_dir", config.Extraction.OutputDir),
		zap.Int("concurrency", config.Extraction.Concurrency),
		zap.Bool("history", config.History.Enabled))

	router := api.SetupRouter(api.RouterDeps{
		Service: rt.Service,
		Repo:    rt.History(),
		Events:  rt.Events,
		LogsDir: config.Logging.LogsDir,
		Logger:  log,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	}

	log.Info("Shutting down server...")

	// In-flight batches keep running until their requests finish or the timeout hits
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}
