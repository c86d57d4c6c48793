package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rickgao/forkstream/internal/classify"
	"github.com/rickgao/forkstream/internal/config"
	"github.com/rickgao/forkstream/internal/connection"
	"github.com/rickgao/forkstream/internal/database"
	"github.com/rickgao/forkstream/internal/destination"
	"github.com/rickgao/forkstream/internal/fork"
	"github.com/rickgao/forkstream/internal/metrics"
	"github.com/rickgao/forkstream/internal/source"
	"github.com/rickgao/forkstream/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/forkd.yaml", "path to config file")
	flag.Parse()

	// Records may go to stdout, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting forkd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"input", cfg.Input.Type,
		"classifier", cfg.Classifier.Type,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("forkd failed", "error", err)
		os.Exit(1)
	}
	logger.Info("forkd stopped")
}

func run(cfg *config.ForkdConfig, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	var pool *pgxpool.Pool
	deps := destination.Deps{Stdout: os.Stdout, Logger: logger}
	if cfg.UsesPostgres() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		p, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer p.Close()
		pool = p

		for _, table := range destination.Tables(cfg.Destinations) {
			if err := database.EnsureTable(ctx, pool, table); err != nil {
				return err
			}
		}
		deps.DB = pool
		logger.Info("database connected")
	}

	classifyFn, err := buildClassifier(cfg.Classifier)
	if err != nil {
		return err
	}

	input, closeInput, err := openInput(ctx, cfg.Input, logger)
	if err != nil {
		return err
	}
	defer closeInput()

	f, err := fork.New(fork.Config{
		Name:      cfg.Fork.Name,
		QueueSize: cfg.Fork.QueueSize,
	}, input, classifyFn, logger)
	if err != nil {
		return fmt.Errorf("create fork: %w", err)
	}
	if err := f.Pipe(destination.Resolver(ctx, cfg.Destinations, deps)); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewCollector(f.Stats),
	)

	mux := http.NewServeMux()
	var ping func(context.Context) error
	if pool != nil {
		ping = pool.Ping
	}
	mux.Handle("/health", healthHandler(f.Stats, ping))
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", "error", err)
		}
	}()

	if err := f.Start(ctx); err != nil {
		return fmt.Errorf("start fork: %w", err)
	}

	errsLogged := make(chan struct{})
	go func() {
		defer close(errsLogged)
		for err := range f.Errors() {
			logger.Error("fork error", "error", err)
		}
	}()

	logger.Info("forkd running",
		"instance_id", cfg.Instance.ID,
		"fork_id", f.ID(),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Input exhaustion finishes the fork; a signal cancels it.
	select {
	case <-f.Done():
		logger.Info("input exhausted")
	case <-ctx.Done():
		logger.Info("shutting down...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Fork.StopTimeout)
	defer stopCancel()
	if err := f.Stop(stopCtx); err != nil {
		logger.Warn("fork did not stop cleanly", "error", err)
	}

	// Sink close and final flush errors arrive after Done.
	select {
	case <-errsLogged:
	case <-stopCtx.Done():
		logger.Warn("fork errors not fully logged before stop timeout")
	}

	stats := f.Stats()
	logger.Info("fork finished",
		"received", stats.RecordsReceived,
		"unrouted", stats.RecordsUnrouted,
		"destinations", len(stats.Destinations),
	)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func buildClassifier(cfg config.ClassifierConfig) (fork.ClassifyFunc[string, string, string], error) {
	rules := make([]classify.Rule, len(cfg.Rules))
	for i, r := range cfg.Rules {
		rules[i] = classify.Rule{Prefix: r.Prefix, Destination: r.Destination}
	}

	switch cfg.Type {
	case config.ClassifierPrefix:
		return classify.Prefix(rules, cfg.Default), nil
	case config.ClassifierChunk:
		return classify.Chunk(rules, cfg.Default), nil
	case config.ClassifierJSONPath:
		return classify.JSONPath(cfg.Expression, cfg.Default)
	default:
		return nil, fmt.Errorf("unsupported classifier %q", cfg.Type)
	}
}

// openInput returns the record stream and a function releasing its source.
func openInput(ctx context.Context, cfg config.InputConfig, logger *slog.Logger) (<-chan string, func(), error) {
	switch cfg.Type {
	case config.InputStdin:
		return readLines(ctx, os.Stdin, cfg.BufferSize, logger), func() {}, nil

	case config.InputFile:
		file, err := os.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open input: %w", err)
		}
		return readLines(ctx, file, cfg.BufferSize, logger), func() { file.Close() }, nil

	case config.InputWebSocket:
		cc := connection.DefaultClientConfig()
		cc.URL = cfg.URL
		cc.BearerToken = cfg.BearerToken
		cc.BufferSize = cfg.BufferSize

		client := connection.NewClient(cc, logger.With("input", "websocket"))
		if err := client.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect input: %w", err)
		}
		go func() {
			for err := range client.Errors() {
				logger.Error("input connection error", "error", err)
			}
		}()
		return source.WebSocket(ctx, client, cfg.BufferSize), func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported input %q", cfg.Type)
	}
}

func readLines(ctx context.Context, r io.Reader, size int, logger *slog.Logger) <-chan string {
	lines, errs := source.Lines(ctx, r, size)
	go func() {
		for err := range errs {
			logger.Error("input read error", "error", err)
		}
	}()
	return lines
}
