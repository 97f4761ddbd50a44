// Package config loads the visualizer configuration. Values are layered:
// built-in defaults, then an optional YAML file, then MERGEVIZ_* environment
// variables, then command-line flags that were set explicitly.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/kway-mergeviz/pkg/logging"
	"github.com/dd0wney/kway-mergeviz/pkg/merge"
	"github.com/dd0wney/kway-mergeviz/pkg/playback"
	"github.com/dd0wney/kway-mergeviz/pkg/streams"
	"github.com/dd0wney/kway-mergeviz/pkg/validation"
)

const (
	DefaultStreams      = 8
	DefaultStreamLength = 5

	// MaxStreams and MaxStreamLength keep the board readable in a terminal.
	// They match the validate tags on Config.
	MaxStreams      = 16
	MaxStreamLength = 32
)

// Config is the full visualizer configuration.
type Config struct {
	// Seed is kept as typed by the user; SeedValue normalises it.
	Seed         string        `yaml:"seed"`
	Streams      int           `yaml:"streams" validate:"min=1,max=16"`
	StreamLength int           `yaml:"stream_length" validate:"min=1,max=32"`
	Speed        time.Duration `yaml:"speed"`
	LogLevel     string        `yaml:"log_level"`
	LogFile      string        `yaml:"log_file"`
	MetricsAddr  string        `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
	JournalPath  string        `yaml:"journal_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Seed:         strconv.FormatInt(streams.DefaultSeed, 10),
		Streams:      DefaultStreams,
		StreamLength: DefaultStreamLength,
		Speed:        playback.DefaultSpeed,
		LogLevel:     "info",
	}
}

// Load returns the defaults overlaid with the YAML file at path (if any)
// and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse overlays YAML data onto the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays MERGEVIZ_* variables and LOG_LEVEL. A malformed seed
// is kept as-is and later normalised; other malformed numbers are errors.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MERGEVIZ_SEED"); ok {
		c.Seed = v
	}
	if v, ok := lookup("MERGEVIZ_STREAMS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MERGEVIZ_STREAMS: %w", err)
		}
		c.Streams = n
	}
	if v, ok := lookup("MERGEVIZ_STREAM_LENGTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MERGEVIZ_STREAM_LENGTH: %w", err)
		}
		c.StreamLength = n
	}
	if v, ok := lookup("MERGEVIZ_SPEED"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MERGEVIZ_SPEED: %w", err)
		}
		c.Speed = d
	}
	if v, ok := lookup("MERGEVIZ_METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return nil
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	return validation.NewConfigValidator("config").
		RangeDuration("speed", c.Speed, playback.MinSpeed, playback.MaxSpeed).
		OneOf("log_level", c.LogLevel, "debug", "info", "warn", "warning", "error").
		When(c.JournalPath != "" && c.JournalPath == c.LogFile, func(cv *validation.ConfigValidator) {
			cv.Custom("journal_path", func() error {
				return errors.New("must not be the log file")
			})
		}).
		Validate()
}

// SeedValue returns the normalised seed.
func (c *Config) SeedValue() int64 {
	return streams.ParseSeed(c.Seed)
}

// EngineConfig returns the merge engine configuration.
func (c *Config) EngineConfig() merge.Config {
	return merge.Config{
		Seed:         c.SeedValue(),
		Streams:      c.Streams,
		StreamLength: c.StreamLength,
	}
}

// Level returns the configured log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// Flags holds command-line overrides registered by RegisterFlags.
type Flags struct {
	fs           *flag.FlagSet
	seed         *string
	streams      *int
	streamLength *int
	speed        *time.Duration
	logLevel     *string
	logFile      *string
	metricsAddr  *string
	journalPath  *string
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	d := Default()
	return &Flags{
		fs:           fs,
		seed:         fs.String("seed", d.Seed, "Seed for stream generation (non-numeric input falls back to 123)"),
		streams:      fs.Int("k", d.Streams, "Number of streams"),
		streamLength: fs.Int("length", d.StreamLength, "Elements per stream"),
		speed:        fs.Duration("speed", d.Speed, "Delay between automatic steps"),
		logLevel:     fs.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)"),
		logFile:      fs.String("log-file", d.LogFile, "Write logs to this file"),
		metricsAddr:  fs.String("metrics-addr", d.MetricsAddr, "Serve Prometheus metrics on this address"),
		journalPath:  fs.String("record", d.JournalPath, "Record a step journal to this file"),
	}
}

// Apply copies every flag that was set explicitly onto cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "seed":
			cfg.Seed = *f.seed
		case "k":
			cfg.Streams = *f.streams
		case "length":
			cfg.StreamLength = *f.streamLength
		case "speed":
			cfg.Speed = *f.speed
		case "log-level":
			cfg.LogLevel = *f.logLevel
		case "log-file":
			cfg.LogFile = *f.logFile
		case "metrics-addr":
			cfg.MetricsAddr = *f.metricsAddr
		case "record":
			cfg.JournalPath = *f.journalPath
		}
	})
}
