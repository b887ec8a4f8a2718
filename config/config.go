// Package config loads the training and storage configuration from YAML.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/loangate/approval"
	"github.com/YuminosukeSato/loangate/pkg/errors"
	"github.com/YuminosukeSato/loangate/pkg/log"
	"github.com/YuminosukeSato/loangate/preprocessing"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Environment variables that override the file.
const (
	EnvPostgresDSN = "LOANGATE_PG_DSN"
	EnvRedisAddr   = "LOANGATE_REDIS_ADDR"
	EnvLogLevel    = "LOANGATE_LOG_LEVEL"
)

// Duration accepts Go duration strings ("90s", "5m") in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.NewValidationError("max_duration", "must be a Go duration such as 90s or 5m", s)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// StoreConfig selects where snapshots are persisted.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// Path is the snapshot file for the file driver.
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn"`
	// Addr and Key locate the snapshot in Redis.
	Addr string `yaml:"addr"`
	Key  string `yaml:"key"`
	// Timeout bounds each store operation.
	Timeout Duration `yaml:"timeout"`
}

// Config is the root of the YAML file.
type Config struct {
	TrainFraction float64     `yaml:"train_fraction"`
	LearningRate  float64     `yaml:"learning_rate"`
	Epochs        int         `yaml:"epochs"`
	Seed          int64       `yaml:"seed"`
	ScalerFit     string      `yaml:"scaler_fit"`
	ZeroVariance  string      `yaml:"zero_variance"`
	MaxDuration   Duration    `yaml:"max_duration"`
	LogLevel      string      `yaml:"log_level"`
	Store         StoreConfig `yaml:"store"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TrainFraction: 0.8,
		LearningRate:  0.01,
		Epochs:        1000,
		Seed:          -1,
		ScalerFit:     string(approval.ScalerFitFull),
		ZeroVariance:  string(preprocessing.ZeroVarianceUnit),
		LogLevel:      "info",
		Store: StoreConfig{
			Driver:  DriverFile,
			Path:    "model.json",
			Key:     "loangate:snapshot",
			Timeout: Duration(5 * time.Second),
		},
	}
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if dsn := os.Getenv(EnvPostgresDSN); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		cfg.Store.Addr = addr
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := c.Pipeline().Validate(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.Store.Driver {
	case DriverFile:
		if c.Store.Path == "" {
			return errors.NewValidationError("store.path", "required for the file driver", c.Store.Path)
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return errors.NewValidationError("store.dsn", "required for the postgres driver", c.Store.DSN)
		}
	case DriverRedis:
		if c.Store.Addr == "" {
			return errors.NewValidationError("store.addr", "required for the redis driver", c.Store.Addr)
		}
		if c.Store.Key == "" {
			return errors.NewValidationError("store.key", "required for the redis driver", c.Store.Key)
		}
	default:
		return errors.NewValidationError("store.driver", "must be one of file, postgres, redis", c.Store.Driver)
	}
	if c.Store.Timeout < 0 {
		return errors.NewValidationError("store.timeout", "must be non-negative", time.Duration(c.Store.Timeout))
	}
	return nil
}

// Pipeline converts the training settings.
func (c *Config) Pipeline() approval.Config {
	return approval.Config{
		TrainFraction: c.TrainFraction,
		LearningRate:  c.LearningRate,
		Epochs:        c.Epochs,
		Seed:          c.Seed,
		ScalerFit:     approval.ScalerFit(c.ScalerFit),
		ZeroVariance:  preprocessing.ZeroVariancePolicy(c.ZeroVariance),
		MaxDuration:   time.Duration(c.MaxDuration),
	}
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}
