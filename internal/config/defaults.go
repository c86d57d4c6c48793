package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInputType      = InputStdin
	DefaultInputBuffer    = 1
	DefaultForkName       = "forkd"
	DefaultQueueSize      = 1
	DefaultStopTimeout    = 30 * time.Second
	DefaultClassifierType = ClassifierPrefix
	DefaultSinkType       = SinkStdout
	DefaultTable          = "fork_records"
	DefaultBatchSize      = 500
	DefaultFlushInterval  = 1 * time.Second
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultDBAppName      = "forkd"
	DefaultMaxConns       = 10
	DefaultMinConns       = 2
	DefaultMetricsPort    = 9090
	DefaultMetricsPath    = "/metrics"
)

func (c *ForkdConfig) applyDefaults() {
	// Input defaults
	if c.Input.Type == "" {
		c.Input.Type = DefaultInputType
	}
	if c.Input.BufferSize == 0 {
		c.Input.BufferSize = DefaultInputBuffer
	}

	// Fork defaults
	if c.Fork.Name == "" {
		c.Fork.Name = DefaultForkName
	}
	if c.Fork.QueueSize == 0 {
		c.Fork.QueueSize = DefaultQueueSize
	}
	if c.Fork.StopTimeout == 0 {
		c.Fork.StopTimeout = DefaultStopTimeout
	}

	// Classifier defaults
	if c.Classifier.Type == "" {
		c.Classifier.Type = DefaultClassifierType
	}

	// Destination defaults
	applySinkDefaults(&c.Destinations.Default)
	for name, s := range c.Destinations.Routes {
		applySinkDefaults(&s)
		c.Destinations.Routes[name] = s
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.ApplicationName == "" {
		c.Database.ApplicationName = DefaultDBAppName
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applySinkDefaults(s *SinkConfig) {
	if s.Type == "" {
		s.Type = DefaultSinkType
	}
	if s.Type != SinkPostgres {
		return
	}
	if s.Table == "" {
		s.Table = DefaultTable
	}
	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}
	if s.FlushInterval == 0 {
		s.FlushInterval = DefaultFlushInterval
	}
}
