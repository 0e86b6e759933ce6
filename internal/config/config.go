package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Listen          string          `toml:"listen"`
	Theme           string          `toml:"theme"`
	LogLevel        string          `toml:"log_level"`
	LogFormat       string          `toml:"log_format"`
	PollInterval    time.Duration   `toml:"-"`
	PollIntervalStr string          `toml:"poll_interval"`
	StreamInterval  time.Duration   `toml:"-"`
	StreamStr       string          `toml:"stream_interval"`
	MinPollInterval time.Duration   `toml:"-"`
	MinPollStr      string          `toml:"min_poll_interval"`
	Estimator       EstimatorConfig `toml:"estimator"`
	Router          RouterConfig    `toml:"router"`
}

// EstimatorConfig bounds the in-memory rate history.
type EstimatorConfig struct {
	MaxHistory    int           `toml:"max_history"`
	Retention     time.Duration `toml:"-"`
	RetentionStr  string        `toml:"retention"`
	MaxInterfaces int           `toml:"max_interfaces"`
}

// RouterConfig describes the monitored device.
type RouterConfig struct {
	Host       string        `toml:"host"`
	Port       int           `toml:"port"`
	Identity   string        `toml:"identity"`
	Timeout    time.Duration `toml:"-"`
	TimeoutStr string        `toml:"timeout"`
	Interfaces []string      `toml:"interfaces"`
}

func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:8080",
		Theme:           "solarized-dark",
		LogLevel:        "info",
		LogFormat:       "text",
		PollInterval:    2 * time.Second,
		PollIntervalStr: "2s",
		StreamInterval:  2 * time.Second,
		StreamStr:       "2s",
		MinPollInterval: time.Second,
		MinPollStr:      "1s",
		Estimator: EstimatorConfig{
			MaxHistory:    1000,
			Retention:     60 * time.Minute,
			RetentionStr:  "1h0m0s",
			MaxInterfaces: 4096,
		},
		Router: RouterConfig{
			Host:       "192.168.1.1",
			Port:       161,
			Timeout:    3 * time.Second,
			TimeoutStr: "3s",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	durations := []struct {
		key string
		str string
		dst *time.Duration
	}{
		{"poll_interval", cfg.PollIntervalStr, &cfg.PollInterval},
		{"stream_interval", cfg.StreamStr, &cfg.StreamInterval},
		{"min_poll_interval", cfg.MinPollStr, &cfg.MinPollInterval},
		{"estimator.retention", cfg.Estimator.RetentionStr, &cfg.Estimator.Retention},
		{"router.timeout", cfg.Router.TimeoutStr, &cfg.Router.Timeout},
	}
	for _, d := range durations {
		if d.str == "" {
			continue
		}
		v, err := time.ParseDuration(d.str)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, d.key, err)
		}
		*d.dst = v
	}
	return cfg, cfg.Validate()
}

// Validate rejects sizes and intervals the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalid)
	case c.StreamInterval <= 0:
		return fmt.Errorf("%w: stream_interval must be positive", ErrInvalid)
	case c.MinPollInterval < 0:
		return fmt.Errorf("%w: min_poll_interval must not be negative", ErrInvalid)
	case c.Estimator.MaxHistory <= 0:
		return fmt.Errorf("%w: estimator.max_history must be positive", ErrInvalid)
	case c.Estimator.Retention <= 0:
		return fmt.Errorf("%w: estimator.retention must be positive", ErrInvalid)
	case c.Estimator.MaxInterfaces <= 0:
		return fmt.Errorf("%w: estimator.max_interfaces must be positive", ErrInvalid)
	case c.Router.Port <= 0 || c.Router.Port > 65535:
		return fmt.Errorf("%w: router.port %d out of range", ErrInvalid, c.Router.Port)
	case c.Router.Timeout <= 0:
		return fmt.Errorf("%w: router.timeout must be positive", ErrInvalid)
	}
	return nil
}

func SaveConfig(cfg *Config, path string) error {
	cfg.PollIntervalStr = cfg.PollInterval.String()
	cfg.StreamStr = cfg.StreamInterval.String()
	cfg.MinPollStr = cfg.MinPollInterval.String()
	cfg.Estimator.RetentionStr = cfg.Estimator.Retention.String()
	cfg.Router.TimeoutStr = cfg.Router.Timeout.String()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
