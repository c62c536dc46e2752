package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-comms/frame"
	"github.com/arloliu/go-comms/logger"
)

// Config is the commsctl configuration file, in YAML or TOML.
type Config struct {
	LogLevel   string `yaml:"log_level" toml:"log_level"`
	LogBackend string `yaml:"log_backend" toml:"log_backend"`

	Serve ServeConfig `yaml:"serve" toml:"serve"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	TCPAddr        string `yaml:"tcp_addr" toml:"tcp_addr"`
	WSAddr         string `yaml:"ws_addr" toml:"ws_addr"`
	WSPath         string `yaml:"ws_path" toml:"ws_path"`
	MaxBuffered    int    `yaml:"max_buffered" toml:"max_buffered"`
	ReadBufferSize int    `yaml:"read_buffer_size" toml:"read_buffer_size"`
	IdleTimeout    string `yaml:"idle_timeout" toml:"idle_timeout"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		LogLevel:   "info",
		LogBackend: "slog",
		Serve: ServeConfig{
			TCPAddr:        "127.0.0.1:5000",
			WSPath:         "/ws",
			MaxBuffered:    frame.DefaultMaxBuffered,
			ReadBufferSize: 4096,
		},
	}
}

// LoadConfig reads path over the defaults. The format follows the extension:
// .yaml, .yml or .toml.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse toml config %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the values that commands cannot check lazily.
func (c Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.LogBackend {
	case "slog", "zap":
	default:
		return fmt.Errorf("unknown log backend %q, want slog or zap", c.LogBackend)
	}

	if _, err := c.Serve.idleTimeout(); err != nil {
		return err
	}
	if c.Serve.MaxBuffered <= 0 {
		return errors.New("serve.max_buffered must be positive")
	}

	return nil
}

func (c ServeConfig) idleTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.IdleTimeout) == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(strings.TrimSpace(c.IdleTimeout))
	if err != nil {
		return 0, fmt.Errorf("parse serve.idle_timeout: %w", err)
	}

	return d, nil
}

// newLogger builds the logger selected by the configuration.
func (c Config) newLogger() (logger.Logger, error) {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	switch c.LogBackend {
	case "zap":
		return logger.NewZap(level)
	default:
		return logger.NewSlog(level, false), nil
	}
}
