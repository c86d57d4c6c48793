package config

import "time"

// ForkdConfig is the root configuration for a forkd instance.
type ForkdConfig struct {
	Instance     InstanceConfig     `yaml:"instance"`
	Input        InputConfig        `yaml:"input"`
	Fork         ForkConfig         `yaml:"fork"`
	Classifier   ClassifierConfig   `yaml:"classifier"`
	Destinations DestinationsConfig `yaml:"destinations"`
	Database     DBConfig           `yaml:"database"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// InstanceConfig identifies this instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// Input types
const (
	InputStdin     = "stdin"
	InputFile      = "file"
	InputWebSocket = "websocket"
)

// InputConfig selects where records are read from.
type InputConfig struct {
	Type        string `yaml:"type"`         // "stdin", "file" or "websocket"
	Path        string `yaml:"path"`         // For "file"
	URL         string `yaml:"url"`          // For "websocket"
	BearerToken string `yaml:"bearer_token"` // For "websocket"
	BufferSize  int    `yaml:"buffer_size"`  // Records buffered ahead of the fork
}

// ForkConfig holds fork settings.
type ForkConfig struct {
	Name        string        `yaml:"name"`
	QueueSize   int           `yaml:"queue_size"`
	StopTimeout time.Duration `yaml:"stop_timeout"`
}

// Classifier types
const (
	ClassifierPrefix   = "prefix"
	ClassifierChunk    = "chunk"
	ClassifierJSONPath = "jsonpath"
)

// ClassifierConfig selects how records are mapped to destinations.
type ClassifierConfig struct {
	Type       string       `yaml:"type"`       // "prefix", "chunk" or "jsonpath"
	Rules      []RuleConfig `yaml:"rules"`      // For "prefix" and "chunk"
	Expression string       `yaml:"expression"` // For "jsonpath", e.g. "$.level"
	Default    string       `yaml:"default"`    // Destination when nothing matches
}

// RuleConfig routes records starting with Prefix to Destination.
type RuleConfig struct {
	Prefix      string `yaml:"prefix"`
	Destination string `yaml:"destination"`
}

// DestinationsConfig maps destinations to sinks. Destinations without an
// entry in Routes use Default.
type DestinationsConfig struct {
	Default SinkConfig            `yaml:"default"`
	Routes  map[string]SinkConfig `yaml:"routes"`
}

// Sink types
const (
	SinkStdout    = "stdout"
	SinkFile      = "file"
	SinkPostgres  = "postgres"
	SinkWebSocket = "websocket"
)

// SinkConfig describes one sink.
type SinkConfig struct {
	Type string `yaml:"type"` // "stdout", "file", "postgres" or "websocket"

	// File: either Path, or Dir holding one "<destination>.log" per destination.
	Path string `yaml:"path"`
	Dir  string `yaml:"dir"`

	// Postgres
	Table         string        `yaml:"table"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`

	// WebSocket. "{destination}" in URL is replaced by the destination name.
	URL         string `yaml:"url"`
	BearerToken string `yaml:"bearer_token"`
}

// DBConfig holds a single database connection, used by postgres sinks.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`

	// ApplicationName is reported in pg_stat_activity.
	ApplicationName string        `yaml:"application_name"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

// MetricsConfig holds Prometheus metrics and health endpoint settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// UsesPostgres reports whether any sink writes to the database.
func (c *ForkdConfig) UsesPostgres() bool {
	if c.Destinations.Default.Type == SinkPostgres {
		return true
	}
	for _, s := range c.Destinations.Routes {
		if s.Type == SinkPostgres {
			return true
		}
	}
	return false
}
