// Package config loads the Cadence configuration file.
package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is where the configuration file is looked up when no path is given.
const DefaultPath = "~/.config/cadence/config.toml"

// Config represents the application configuration.
type Config struct {
	// Profile is the listener profile loaded on startup
	Profile  string         `toml:"profile" default:"default" validate:"required,max=64"`
	Database DatabaseConfig `toml:"database"`
	Audio    AudioConfig    `toml:"audio"`
	Library  LibraryConfig  `toml:"library"`
	Queue    QueueConfig    `toml:"queue"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DatabaseConfig locates the catalog database.
type DatabaseConfig struct {
	Path string `toml:"path" default:"~/.local/share/cadence/cadence.db" validate:"required"`
}

// AudioConfig configures the output device.
type AudioConfig struct {
	SampleRate int     `toml:"sample_rate" default:"44100" validate:"oneof=22050 44100 48000 96000"`
	BufferMs   int     `toml:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
	Volume     float64 `toml:"volume" default:"0.8" validate:"gte=0,lte=1"`

	// Mock swaps the speaker for a silent engine
	Mock bool `toml:"mock"`
}

// Buffer returns the output buffer length.
func (a AudioConfig) Buffer() time.Duration {
	return time.Duration(a.BufferMs) * time.Millisecond
}

// LibraryConfig configures library scanning.
type LibraryConfig struct {
	Folders    []string `toml:"folders"`
	Extensions []string `toml:"extensions" default:"[\"mp3\",\"flac\",\"wav\"]" validate:"min=1,dive,required"`
}

// QueueConfig tunes queue behaviour.
type QueueConfig struct {
	// RestartThresholdSec is how far into a track "previous" restarts it instead
	RestartThresholdSec int `toml:"restart_threshold_sec" default:"3" validate:"gte=0,lte=60"`

	// SaveIntervalSec persists the queue periodically; 0 saves only on exit
	SaveIntervalSec int `toml:"save_interval_sec" default:"30" validate:"gte=0"`
}

// RestartThreshold returns RestartThresholdSec as a duration.
func (q QueueConfig) RestartThreshold() time.Duration {
	return time.Duration(q.RestartThresholdSec) * time.Second
}

// SaveInterval returns SaveIntervalSec as a duration.
func (q QueueConfig) SaveInterval() time.Duration {
	return time.Duration(q.SaveIntervalSec) * time.Second
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `toml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `toml:"format" default:"text" validate:"oneof=text json"`
}

// Default returns a Config populated with defaults.
func Default() (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	return &cfg, nil
}

// Load reads the configuration file at path, or DefaultPath when path is empty.
// A missing file yields the defaults. Values from a .env file in the working
// directory and CADENCE_* environment variables take precedence over the file.
// Paths are expanded and the result is validated.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultPath
	}
	resolved, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, errors.Wrap(err, "failed to read config file")
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s", resolved)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to load .env")
	}
	cfg.overrideFromEnv()

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return cfg, nil
}

// Validate checks struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Save writes the configuration as TOML, creating parent directories.
func (c *Config) Save(path string) error {
	resolved, err := ExpandPath(path)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	return errors.Wrap(os.WriteFile(resolved, data, 0o644), "failed to write config file")
}

func (c *Config) overrideFromEnv() {
	if v := os.Getenv("CADENCE_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("CADENCE_PROFILE"); v != "" {
		c.Profile = v
	}
	if v := os.Getenv("CADENCE_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("CADENCE_MOCK_AUDIO"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Audio.Mock = b
		}
	}
}

func (c *Config) normalize() error {
	c.Profile = strings.TrimSpace(c.Profile)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Database.Path != ":memory:" {
		p, err := ExpandPath(c.Database.Path)
		if err != nil {
			return err
		}
		c.Database.Path = p
	}

	for i, folder := range c.Library.Folders {
		p, err := ExpandPath(folder)
		if err != nil {
			return err
		}
		c.Library.Folders[i] = p
	}
	for i, ext := range c.Library.Extensions {
		c.Library.Extensions[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}
	return nil
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "resolve home directory")
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", errors.Wrapf(err, "resolve absolute path for %q", p)
	}
	return abs, nil
}
