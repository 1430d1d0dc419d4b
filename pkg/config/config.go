// Package config loads board descriptions for the fault simulator.
//
// A description names the transport backend, the interrupt line it
// completes on, the board's indicators, and the simulated hardware
// behavior. Values come from built-in defaults, then a YAML file, then
// PANICUSB_* environment variables. Files ending in .toml are read as TOML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"

	"github.com/ardnew/panicusb/device/hal/sim"
	"github.com/ardnew/panicusb/fault"
	"github.com/ardnew/panicusb/pkg"
)

// Config is a complete board description.
type Config struct {
	Board      string        `yaml:"board" toml:"board"`
	Transport  string        `yaml:"transport" toml:"transport"` // serial or ring
	Target     uint8         `yaml:"target" toml:"target"`       // transport interrupt line
	Indicators []string      `yaml:"indicators" toml:"indicators"`
	Sim        SimConfig     `yaml:"sim" toml:"sim"`
	Capture    CaptureConfig `yaml:"capture" toml:"capture"`
	Log        LogConfig     `yaml:"log" toml:"log"`
}

// SimConfig controls simulated hardware.
type SimConfig struct {
	Latency   int     `yaml:"latency" toml:"latency"`     // ticks per IN packet
	IdleLimit int     `yaml:"idleLimit" toml:"idleLimit"` // ticks before a stalled wait panics
	Noise     []uint8 `yaml:"noise" toml:"noise"`         // lines raised while the fault path runs
	Busy      int     `yaml:"busy" toml:"busy"`           // submissions rejected as busy
}

// CaptureConfig selects where host-side output goes. An empty File means
// standard output.
type CaptureConfig struct {
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB" toml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups" toml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays" toml:"maxAgeDays"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// LogConfig controls diagnostic logging of the simulator itself.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn or error
	Format string `yaml:"format" toml:"format"` // text or json
}

// Default returns the nRF52840 development kit description.
func Default() *Config {
	return &Config{
		Board:      "nrf52840dk",
		Transport:  fault.KindSerial.String(),
		Target:     uint8(sim.USBDLine),
		Indicators: []string{"led1", "led2"},
		Sim: SimConfig{
			Latency:   sim.DefaultLatency,
			IdleLimit: sim.DefaultIdleLimit,
		},
		Capture: CaptureConfig{
			MaxSizeMB:  1,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overlaid with the file at path, if any, and
// the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pkg.LogDebug(pkg.ComponentConfig, "configuration loaded",
		"path", path,
		"board", cfg.Board,
		"transport", cfg.Transport,
		"target", cfg.Target)
	return cfg, nil
}

// Parse decodes a YAML description over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %v: %w", err, pkg.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("config: %s: %v: %w", path, err, pkg.ErrInvalidConfig)
		}
		if keys := md.Undecoded(); len(keys) > 0 {
			return fmt.Errorf("config: %s: unknown key %q: %w", path, keys[0].String(), pkg.ErrInvalidConfig)
		}
		return nil
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("config: %s: %v: %w", path, err, pkg.ErrInvalidConfig)
	}
	return nil
}

// applyEnvOverrides applies PANICUSB_TRANSPORT, PANICUSB_TARGET,
// PANICUSB_CAPTURE and PANICUSB_LOG_LEVEL.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PANICUSB_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("PANICUSB_TARGET"); v != "" {
		line, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return fmt.Errorf("config: PANICUSB_TARGET=%q: %w", v, pkg.ErrInvalidConfig)
		}
		cfg.Target = uint8(line)
	}
	if v := os.Getenv("PANICUSB_CAPTURE"); v != "" {
		cfg.Capture.File = v
	}
	if v := os.Getenv("PANICUSB_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate checks every field against the simulated hardware limits.
func (c *Config) Validate() error {
	if _, err := fault.ParseKind(c.Transport); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Target >= sim.MaxLines {
		return invalid("target line %d outside [0, %d)", c.Target, sim.MaxLines)
	}
	if len(c.Indicators) > fault.MaxIndicators {
		return invalid("%d indicators, at most %d", len(c.Indicators), fault.MaxIndicators)
	}
	if c.Sim.Latency < 1 {
		return invalid("sim latency %d must be positive", c.Sim.Latency)
	}
	if c.Sim.IdleLimit < c.Sim.Latency {
		return invalid("sim idle limit %d below latency %d", c.Sim.IdleLimit, c.Sim.Latency)
	}
	for _, line := range c.Sim.Noise {
		if line >= sim.MaxLines {
			return invalid("noise line %d outside [0, %d)", line, sim.MaxLines)
		}
		if line == c.Target {
			return invalid("noise line %d is the target line", line)
		}
	}
	if c.Sim.Busy < 0 {
		return invalid("sim busy count %d is negative", c.Sim.Busy)
	}
	if c.Capture.MaxSizeMB < 0 || c.Capture.MaxBackups < 0 || c.Capture.MaxAgeDays < 0 {
		return invalid("capture rotation limits must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if _, err := c.LogFormat(); err != nil {
		return err
	}
	return nil
}

// Kind returns the transport backend.
func (c *Config) Kind() fault.Kind {
	k, _ := fault.ParseKind(c.Transport)
	return k
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, invalid("log level %q", c.Log.Level)
	}
	return level, nil
}

// LogFormat parses Log.Format.
func (c *Config) LogFormat() (pkg.LogFormat, error) {
	switch strings.ToLower(c.Log.Format) {
	case "", "text":
		return pkg.LogFormatText, nil
	case "json":
		return pkg.LogFormatJSON, nil
	default:
		return 0, invalid("log format %q", c.Log.Format)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("config: "+format+": %w", append(args, pkg.ErrInvalidConfig)...)
}
