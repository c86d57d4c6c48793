package destination

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rickgao/forkstream/internal/config"
	"github.com/rickgao/forkstream/internal/connection"
	"github.com/rickgao/forkstream/internal/fork"
	"github.com/rickgao/forkstream/internal/sink"
)

// URLPlaceholder in a websocket sink URL is replaced by the destination name.
const URLPlaceholder = "{destination}"

// ErrNoDatabase is returned when a postgres destination has no pool.
var ErrNoDatabase = errors.New("postgres destination requires a database")

// Deps are the shared resources sinks are built from.
type Deps struct {
	DB     sink.BatchSender // Required for postgres sinks
	Stdout io.Writer        // Default: os.Stdout
	Logger *slog.Logger
}

// Resolver returns a fork resolver building one sink per destination name.
// ctx bounds websocket dials.
func Resolver(ctx context.Context, cfg config.DestinationsConfig, deps Deps) fork.Resolver[string, string] {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return func(name string) (fork.Sink[string], error) {
		sc := SinkFor(cfg, name)
		logger := deps.Logger.With("destination", name, "sink", sc.Type)

		s, err := build(ctx, name, sc, deps, logger)
		if err != nil {
			return nil, fmt.Errorf("destination %s: %w", name, err)
		}
		logger.Debug("sink opened")
		return s, nil
	}
}

// SinkFor returns the sink configuration for name.
func SinkFor(cfg config.DestinationsConfig, name string) config.SinkConfig {
	if sc, ok := cfg.Routes[name]; ok {
		return sc
	}
	return cfg.Default
}

// Tables returns the distinct postgres tables named in cfg, sorted.
func Tables(cfg config.DestinationsConfig) []string {
	seen := make(map[string]bool)
	add := func(sc config.SinkConfig) {
		if sc.Type == config.SinkPostgres && sc.Table != "" {
			seen[sc.Table] = true
		}
	}
	add(cfg.Default)
	for _, sc := range cfg.Routes {
		add(sc)
	}

	tables := make([]string, 0, len(seen))
	for t := range seen {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

func build(ctx context.Context, name string, sc config.SinkConfig, deps Deps, logger *slog.Logger) (fork.Sink[string], error) {
	switch sc.Type {
	case config.SinkStdout:
		return sink.NewPrefixedText(sink.NopCloser(deps.Stdout), "["+name+"] "), nil

	case config.SinkFile:
		path := sc.Path
		if path == "" {
			path = filepath.Join(sc.Dir, FileName(name))
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return sink.NewText(f), nil

	case config.SinkPostgres:
		if deps.DB == nil {
			return nil, ErrNoDatabase
		}
		return sink.NewPostgres(sink.PostgresConfig{
			Table:         sc.Table,
			BatchSize:     sc.BatchSize,
			FlushInterval: sc.FlushInterval,
		}, name, deps.DB, logger)

	case config.SinkWebSocket:
		cc := connection.DefaultClientConfig()
		cc.URL = strings.ReplaceAll(sc.URL, URLPlaceholder, name)
		cc.BearerToken = sc.BearerToken
		return sink.DialWebSocket(ctx, cc, logger)

	default:
		return nil, fmt.Errorf("unsupported sink type %q", sc.Type)
	}
}

// FileName maps a destination name to a safe file name.
func FileName(name string) string {
	if name == "" {
		return "_.log"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String() + ".log"
}
