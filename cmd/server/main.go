package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Olprog59/go-deliverables/internal/app"
	"github.com/Olprog59/go-deliverables/internal/config"
	"github.com/Olprog59/go-deliverables/internal/logging"
	"github.com/Olprog59/go-deliverables/internal/transport/web"
	"golang.org/x/sync/errgroup"
)

// init configures standard logger flags / Configure les flags du logger standard
func init() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.LstdFlags)
}

// main is the application entry point / Point d'entrée de l'application
func main() {
	if err := run(); err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "Cannot start: %s %s.\nSet it in config.yaml or the environment and restart.\n", cfgErr.Field, cfgErr.Message)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

// run initializes and starts the HTTP server / Initialise et démarre le serveur HTTP
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	closeLogger := setupLogger(cfg)
	defer closeLogger()

	logStartupInfo(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	handler, mw := web.NewMux(web.NewHandler(container), cfg, container)
	defer mw.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return serve(ctx, srv, 10*time.Second)
}

// serve runs srv until ctx is cancelled or the listener fails, then shuts
// it down within grace.
func serve(ctx context.Context, srv *http.Server, grace time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		slog.Info("server stopped")
		return nil
	})

	return g.Wait()
}

// logStartupInfo displays startup information / Affiche les informations de démarrage
func logStartupInfo(conf *config.Config) {
	slog.Info("🚀 Starting application",
		"environment", conf.Environment,
		"port", conf.Server.Port,
		"backend", conf.BackendName(),
		"cache_ttl", conf.Cache.TTL,
	)

	if conf.RateLimiter.Enabled {
		slog.Info("🛡️  Rate limiter enabled",
			"global_rps", conf.RateLimiter.RPS,
			"global_burst", conf.RateLimiter.Burst,
			"write_rps", conf.RateLimiter.RPS/2,
		)
	} else {
		slog.Warn("⚠️  Rate limiter is DISABLED")
	}
}

// setupLogger configures structured logger / Configure le logger structuré
// The returned func flushes the Loki handler, if any.
func setupLogger(conf *config.Config) func() {
	level := logging.ParseLevel(conf.Logging.Level)

	var consoleHandler slog.Handler
	if strings.ToLower(conf.Logging.Format) == "json" {
		consoleHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     level,
			AddSource: conf.IsProduction(),
		})
	} else {
		consoleHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	if !conf.Logging.LokiEnabled {
		slog.SetDefault(slog.New(consoleHandler))
		slog.Info("📊 Logging configured", "level", level.String(), "format", conf.Logging.Format, "loki_enabled", false)
		return func() {}
	}

	lokiHandler := logging.NewLokiHandler(
		conf.Logging.LokiURL,
		conf.Logging.LokiLabels,
		conf.Logging.LokiBatchSize,
		true,
		level,
	)
	slog.SetDefault(slog.New(logging.NewFanout(consoleHandler, lokiHandler)))

	slog.Info("📊 Logging configured",
		"level", level.String(),
		"format", conf.Logging.Format,
		"loki_enabled", true,
		"loki_url", conf.Logging.LokiURL,
	)
	return func() { _ = lokiHandler.Close() }
}
