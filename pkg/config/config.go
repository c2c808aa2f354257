// Package config loads the rvkern harness configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

// Config is the full harness configuration. Every field is optional in the
// file; missing fields keep the values from Default.
type Config struct {
	LogLevel  string    `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string    `yaml:"log_format" validate:"oneof=text json"`
	Suites    []string  `yaml:"suites" validate:"dive,oneof=hanoi rsqrt distance"`
	Sweep     Sweep     `yaml:"sweep"`
	Probe     Probe     `yaml:"probe"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Sweep configures exhaustive RSqrt verification over [Lo, Hi]. An input
// fails the error check only when it is outside both MaxAbsError and
// MaxRelError.
type Sweep struct {
	Lo            uint32  `yaml:"lo" validate:"gte=1"`
	Hi            uint32  `yaml:"hi" validate:"gte=1"`
	Chunk         uint32  `yaml:"chunk" validate:"gte=1"`
	Workers       int     `yaml:"workers" validate:"gte=0"`
	MonotoneSlack uint32  `yaml:"monotone_slack"`
	MaxAbsError   float64 `yaml:"max_abs_error" validate:"gt=0"`
	MaxRelError   float64 `yaml:"max_rel_error" validate:"gt=0"`
	ScaleSlack    float64 `yaml:"scale_slack" validate:"gte=0"`
	MaxFindings   int     `yaml:"max_findings" validate:"gte=0"`
	Checkpoint    string  `yaml:"checkpoint"`
}

// Probe configures randomized Distance3D checks. Components are drawn
// from [-Limit, Limit].
type Probe struct {
	Samples int    `yaml:"samples" validate:"gte=1"`
	Seed    uint64 `yaml:"seed"`
	Limit   int32  `yaml:"limit" validate:"gte=1"`
}

// Telemetry selects tracing and metrics outputs.
type Telemetry struct {
	Trace       string `yaml:"trace" validate:"oneof=none stdout"`
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Suites:    []string{"hanoi", "rsqrt", "distance"},
		Sweep: Sweep{
			// RSqrt(1) is 1.5 in fixed point because y*y wraps; start above it
			Lo:            2,
			Hi:            1 << 24,
			Chunk:         1 << 16,
			MonotoneSlack: 1,
			MaxAbsError:   2,
			MaxRelError:   0.0075,
			ScaleSlack:    2,
			MaxFindings:   1000,
		},
		Probe: Probe{
			Samples: 100000,
			Seed:    1,
			Limit:   4000,
		},
		Telemetry: Telemetry{Trace: "none"},
	}
}

// Load reads path over Default. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg and validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return cfg.Validate()
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Sweep.Lo > c.Sweep.Hi {
		return fmt.Errorf("%w: sweep.lo %d above sweep.hi %d", ErrInvalidConfig, c.Sweep.Lo, c.Sweep.Hi)
	}
	return nil
}

// Level maps LogLevel to a slog level.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
