package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"taxharvest/internal/api"
	"taxharvest/internal/config"
	"taxharvest/internal/logging"
	"taxharvest/internal/report"
	"taxharvest/internal/scheduler"
	"taxharvest/pkg/harvest"
	"taxharvest/pkg/provider"
)

var getppid = os.Getppid
var sleep = time.Sleep
var exit = os.Exit

// listening, when set, receives the bound address once the server accepts
// connections.
var listening func(addr string)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("server failed", "err", err)
		exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	if err := parseFlags(cfg, args); err != nil {
		return err
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return fmt.Errorf("resolve data directory: %w", err)
	}
	logger, writer, err := logging.NewLogger(logging.Options{
		Dir:    filepath.Join(dataDir, "logs"),
		Level:  cfg.LogLevel(),
		Format: cfg.Log.Format,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("failed to close log writer", "err", err)
		}
	}()

	source, closeSource, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSource.Close(); err != nil {
			logger.Error("failed to close provider", "err", err)
		}
	}()

	store := harvest.NewStore(harvest.StoreOptions{Logger: logger})
	loader := harvest.NewLoader(source, store, logger)

	// The first load runs in the background so clients see the pending state.
	go func() {
		if err := loader.Load(ctx); err != nil {
			logger.Warn("initial harvest load failed", "err", err)
		}
	}()

	if interval := cfg.Provider.RefreshInterval; interval > 0 {
		sched, err := scheduler.New(logger)
		if err != nil {
			return err
		}
		if err := sched.NewIntervalJob("refresh-harvest", loader.Load, interval, false); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		logger.Info("periodic refresh enabled", "interval", interval.String())
	}

	if os.Getenv(config.EnvPrefix+"PARENT_WATCH") == "1" {
		go watchParent(logger)
	}

	handler := api.NewRouter(api.Deps{
		Dashboard: store,
		Provider:  source,
		Loader:    loader,
		Report:    report.New(logger),
		Logger:    logger,
	})
	if resolvedWebDir := resolveWebDir(cfg.WebDir); resolvedWebDir != "" {
		logger.Info("serving SPA", "web_dir", resolvedWebDir)
		handler = api.WithSPA(handler, resolvedWebDir)
	}
	handler = middleware.Compress(5)(handler)

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	logger.Info("server starting", "addr", ln.Addr().String(), "remote_provider", cfg.UsesRemoteProvider())
	if listening != nil {
		listening(ln.Addr().String())
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
	return nil
}

// parseFlags lets command-line flags override environment settings.
func parseFlags(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for storing database, logs and application data")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port to run the server on")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Host to bind the server to")
	fs.StringVar(&cfg.WebDir, "web-dir", cfg.WebDir, "Directory for SPA static files (optional)")
	fs.StringVar(&cfg.Provider.BaseURL, "provider-url", cfg.Provider.BaseURL, "Base URL of a remote holdings provider; empty uses the local database")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return cfg.Validate()
}

// openSource picks the data provider: a remote HTTP provider when configured,
// otherwise the local sqlite repository seeded with the bundled snapshot.
func openSource(cfg *config.Config, logger *slog.Logger) (harvest.Source, io.Closer, error) {
	if cfg.UsesRemoteProvider() {
		client := provider.NewClient(provider.ClientOptions{
			BaseURL: cfg.Provider.BaseURL,
			Timeout: cfg.Provider.Timeout,
			Debug:   cfg.Provider.Debug,
			Logger:  logger,
		})
		return client, closerFunc(func() error { return nil }), nil
	}

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve db path: %w", err)
	}
	repo, err := provider.OpenWithOptions(provider.Options{DBPath: dbPath, Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("open provider database: %w", err)
	}
	return repo, repo, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func watchParent(logger *slog.Logger) {
	for {
		sleep(1 * time.Second)
		if getppid() == 1 {
			logger.Info("parent process exited; shutting down")
			exit(0)
		}
	}
}

func resolveWebDir(input string) string {
	if input != "" {
		if dirExists(input) {
			return input
		}
		return ""
	}

	candidates := []string{"web/dist", "static"}
	for _, candidate := range candidates {
		if dirExists(candidate) {
			return candidate
		}
	}
	if exe, err := os.Executable(); err == nil {
		base := filepath.Dir(exe)
		for _, candidate := range candidates {
			path := filepath.Join(base, candidate)
			if dirExists(path) {
				return path
			}
		}
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
