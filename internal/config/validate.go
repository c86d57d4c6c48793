package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate checks that all required fields are set and values are valid.
func (c *ForkdConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Input.Type {
	case InputStdin:
	case InputFile:
		if c.Input.Path == "" {
			return errors.New("input.path is required for file input")
		}
	case InputWebSocket:
		if c.Input.URL == "" {
			return errors.New("input.url is required for websocket input")
		}
	default:
		return fmt.Errorf("input.type %q is not supported", c.Input.Type)
	}
	if c.Input.BufferSize < 1 {
		return errors.New("input.buffer_size must be >= 1")
	}

	if c.Fork.QueueSize < 1 {
		return errors.New("fork.queue_size must be >= 1")
	}

	if err := c.Classifier.validate(); err != nil {
		return err
	}

	if err := c.Destinations.Default.validate("destinations.default"); err != nil {
		return err
	}
	names := make([]string, 0, len(c.Destinations.Routes))
	for name := range c.Destinations.Routes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := c.Destinations.Routes[name]
		if err := s.validate("destinations.routes." + name); err != nil {
			return err
		}
	}

	if c.UsesPostgres() {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (c *ClassifierConfig) validate() error {
	switch c.Type {
	case ClassifierPrefix, ClassifierChunk:
		if len(c.Rules) == 0 && c.Default == "" {
			return fmt.Errorf("classifier.rules or classifier.default is required for %s classifier", c.Type)
		}
		for i, r := range c.Rules {
			if r.Destination == "" {
				return fmt.Errorf("classifier.rules[%d].destination is required", i)
			}
		}
	case ClassifierJSONPath:
		if c.Expression == "" {
			return errors.New("classifier.expression is required for jsonpath classifier")
		}
	default:
		return fmt.Errorf("classifier.type %q is not supported", c.Type)
	}
	return nil
}

func (s *SinkConfig) validate(prefix string) error {
	switch s.Type {
	case SinkStdout:
	case SinkFile:
		if s.Path == "" && s.Dir == "" {
			return fmt.Errorf("%s.path or %s.dir is required for file sink", prefix, prefix)
		}
	case SinkPostgres:
		if s.Table == "" {
			return fmt.Errorf("%s.table is required", prefix)
		}
		if s.BatchSize < 1 {
			return fmt.Errorf("%s.batch_size must be >= 1", prefix)
		}
	case SinkWebSocket:
		if s.URL == "" {
			return fmt.Errorf("%s.url is required for websocket sink", prefix)
		}
	default:
		return fmt.Errorf("%s.type %q is not supported", prefix, s.Type)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	switch db.SSLMode {
	case "", "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("%s.ssl_mode %q is not supported", prefix, db.SSLMode)
	}
	if db.ConnectTimeout < 0 {
		return fmt.Errorf("%s.connect_timeout must be >= 0", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
