// Package config loads exifscope settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfig     = "EXIFSCOPE_CONFIG"
	EnvLogLevel   = "EXIFSCOPE_LOG_LEVEL"
	EnvLogFormat  = "EXIFSCOPE_LOG_FORMAT"
	EnvMakerNotes = "EXIFSCOPE_MAKER_NOTES"
	EnvMaxInput   = "EXIFSCOPE_MAX_INPUT"
)

// Config mirrors ~/.config/exifscope/config.yaml. Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// MakerNotes enables Canon/Nikon maker note decoding.
	MakerNotes *bool `yaml:"maker_notes"`
	// MaxInputBytes rejects larger inputs with a parse error. Zero means unlimited.
	MaxInputBytes *int64 `yaml:"max_input_bytes"`

	ServerAddress string         `yaml:"server_address"`
	ReadTimeout   *time.Duration `yaml:"read_timeout"`
	RateLimit     *float64       `yaml:"rate_limit"`
	RateBurst     *int           `yaml:"rate_burst"`
}

// Path returns the config file location: $EXIFSCOPE_CONFIG, else
// <user config dir>/exifscope/config.yaml. It is empty when neither can be resolved.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "exifscope", "config.yaml")
}

// Load reads path. A missing file yields a zero Config and no error.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv loads the default config file, then applies environment overrides. Invalid
// environment values are reported but do not discard the rest of the config.
func FromEnv() (Config, error) {
	cfg, err := Load(Path())
	if envErr := cfg.ApplyEnv(os.LookupEnv); envErr != nil {
		err = errors.Join(err, envErr)
	}
	return cfg, err
}

// ApplyEnv overrides fields from lookup, which has the signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.LogFormat = v
	}
	if v, ok := lookup(EnvMakerNotes); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMakerNotes, err))
		} else {
			c.MakerNotes = &b
		}
	}
	if v, ok := lookup(EnvMaxInput); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid byte count %q", EnvMaxInput, v))
		} else {
			c.MaxInputBytes = &n
		}
	}
	return errors.Join(errs...)
}

func (c Config) MakerNotesEnabled() bool {
	return c.MakerNotes != nil && *c.MakerNotes
}

func (c Config) MaxInput() int64 {
	if c.MaxInputBytes == nil {
		return 0
	}
	return *c.MaxInputBytes
}

// LogLevelOr returns LogLevel or def when unset.
func (c Config) LogLevelOr(def string) string {
	if c.LogLevel == "" {
		return def
	}
	return c.LogLevel
}

// LogFormatOr returns LogFormat or def when unset.
func (c Config) LogFormatOr(def string) string {
	if c.LogFormat == "" {
		return def
	}
	return c.LogFormat
}
