// Package config provides configuration loading for ss-sim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/ss-sim/internal/health"
)

// Config contains all ss-sim configuration settings.
type Config struct {
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Exposure   ExposureConfig   `json:"exposure" yaml:"exposure"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	API        APIConfig        `json:"api" yaml:"api"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// SimulationConfig sizes the world and paces the engine.
type SimulationConfig struct {
	Seed          int64         `json:"seed" yaml:"seed"`
	Radius        int           `json:"radius" yaml:"radius"`
	Towns         int           `json:"towns" yaml:"towns"`
	Population    int           `json:"population" yaml:"population"`
	Ticks         uint64        `json:"ticks" yaml:"ticks"`               // Headless run length
	ReportEvery   uint64        `json:"report_every" yaml:"report_every"` // Ticks between reports and autosaves
	Interval      time.Duration `json:"interval" yaml:"interval"`         // Real-time tick length
	QueueCapacity int           `json:"queue_capacity" yaml:"queue_capacity"`

	// TreatBands names the bands treated automatically every tick,
	// e.g. ["InfectedSym", "InfectedSymLate"]. Empty disables auto-treatment.
	TreatBands []string `json:"treat_bands" yaml:"treat_bands"`
}

// ExposureConfig selects where exposures come from.
type ExposureConfig struct {
	// Source is "field" (noise over the map), "script" (YAML replay) or "none".
	Source    string  `json:"source" yaml:"source"`
	Intensity float64 `json:"intensity" yaml:"intensity"`
	TimeScale float64 `json:"time_scale" yaml:"time_scale"`
	Script    string  `json:"script,omitempty" yaml:"script,omitempty"`
}

// StorageConfig locates the SQLite snapshot.
type StorageConfig struct {
	// Path is the database file. Empty disables persistence.
	Path string `json:"path" yaml:"path"`
}

// APIConfig configures the HTTP API served by "serve".
type APIConfig struct {
	Port int `json:"port" yaml:"port"`

	// AdminKey is the bearer token for POST endpoints. Supports ${VAR} syntax.
	// Empty disables them.
	AdminKey string `json:"admin_key,omitempty" yaml:"admin_key,omitempty"`

	// CORSOrigins are allowed on top of the local dev servers.
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

// LoggingConfig configures log verbosity.
type LoggingConfig struct {
	// Level: "info" (default), "debug" or "trace".
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Seed:          42,
			Radius:        12,
			Towns:         4,
			Population:    200,
			Ticks:         1440,
			ReportEvery:   60,
			Interval:      time.Second,
			QueueCapacity: 8,
		},
		Exposure: ExposureConfig{
			Source:    "field",
			Intensity: 3,
			TimeScale: 0.05,
		},
		Storage: StorageConfig{
			Path: "data/sssim.db",
		},
		API: APIConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load returns defaults, overlaid with the file at path when path is not
// empty, then with environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.API.AdminKey = expandEnvVars(cfg.API.AdminKey)

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Simulation.Radius < 1 {
		return fmt.Errorf("radius must be at least 1, got %d", c.Simulation.Radius)
	}
	if c.Simulation.Population < 0 {
		return fmt.Errorf("population must be non-negative, got %d", c.Simulation.Population)
	}
	if c.Simulation.Interval < 0 {
		return fmt.Errorf("interval must be non-negative, got %v", c.Simulation.Interval)
	}
	if _, err := c.TreatStates(); err != nil {
		return err
	}

	validSources := map[string]bool{"field": true, "script": true, "none": true}
	if !validSources[c.Exposure.Source] {
		return fmt.Errorf("invalid exposure source: %s (valid: field, script, none)", c.Exposure.Source)
	}
	if c.Exposure.Source == "script" && c.Exposure.Script == "" {
		return fmt.Errorf("exposure source script needs a script path")
	}
	if c.Exposure.Intensity < 0 {
		return fmt.Errorf("intensity must be non-negative, got %f", c.Exposure.Intensity)
	}

	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.API.Port)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// TreatStates resolves TreatBands into health bands.
func (c *Config) TreatStates() ([]health.HealthState, error) {
	out := make([]health.HealthState, 0, len(c.Simulation.TreatBands))
	for _, name := range c.Simulation.TreatBands {
		s, ok := health.ParseState(name)
		if !ok {
			return nil, fmt.Errorf("invalid treat band: %s", name)
		}
		out = append(out, s)
	}
	return out, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SSSIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.Seed = n
		}
	}
	if v := os.Getenv("SSSIM_POPULATION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.Population = n
		}
	}
	if v := os.Getenv("SSSIM_TICKS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Simulation.Ticks = n
		}
	}
	if v := os.Getenv("SSSIM_TREAT_BANDS"); v != "" {
		var bands []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				bands = append(bands, b)
			}
		}
		cfg.Simulation.TreatBands = bands
	}
	if v := os.Getenv("SSSIM_EXPOSURE_SOURCE"); v != "" {
		cfg.Exposure.Source = v
	}
	if v := os.Getenv("SSSIM_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("SSSIM_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = n
		}
	}
	if v := os.Getenv("SSSIM_ADMIN_KEY"); v != "" {
		cfg.API.AdminKey = v
	}
	if v := os.Getenv("SSSIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
