package config

import (
	"fmt"
	"os"

	"github.com/vkmindia80/critpath/internal/stats"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a critpath project workspace.
// Everything here is policy, not law: the engine runs fine on the
// defaults, and the health weights exist precisely so deployments can
// tune them.
type Config struct {
	Version int `yaml:"version"`

	// Unit is the project time unit for durations and lags: hours or days.
	Unit string `yaml:"unit"`

	// DailyCapacityHours is the capacity assumed for any resource
	// without an explicit entry.
	DailyCapacityHours float64 `yaml:"daily_capacity_hours"`

	// Resources overrides capacity per resource id (hours per day).
	Resources map[string]float64 `yaml:"resources,omitempty"`

	// HealthWeights blends the timeline health score.
	HealthWeights stats.Weights `yaml:"health_weights"`
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to the given path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the starter policy: hours, 8h days, 40/30/30
// health weighting.
func DefaultConfig() *Config {
	return &Config{
		Version:            1,
		Unit:               "hours",
		DailyCapacityHours: 8,
		HealthWeights:      stats.DefaultWeights(),
	}
}

// Capacity materializes the per-resource capacity map. Resources named
// with a zero capacity fall back to the default.
func (c *Config) Capacity() map[string]float64 {
	out := make(map[string]float64, len(c.Resources))
	for id, h := range c.Resources {
		if h <= 0 {
			h = c.DailyCapacityHours
		}
		out[id] = h
	}
	return out
}

func (c *Config) validate() error {
	if c.Unit != "" && c.Unit != "hours" && c.Unit != "days" {
		return fmt.Errorf("unit must be 'hours' or 'days', got %q", c.Unit)
	}
	if c.DailyCapacityHours < 0 {
		return fmt.Errorf("daily_capacity_hours must be positive, got %v", c.DailyCapacityHours)
	}
	if c.DailyCapacityHours == 0 {
		c.DailyCapacityHours = 8
	}
	for id, h := range c.Resources {
		if h < 0 {
			return fmt.Errorf("resource %q: capacity must be positive, got %v", id, h)
		}
	}
	w := c.HealthWeights
	if w.Overdue == 0 && w.Conflicts == 0 && w.OnTime == 0 {
		c.HealthWeights = stats.DefaultWeights()
		return nil
	}
	sum := w.Overdue + w.Conflicts + w.OnTime
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("health_weights must sum to 1, got %v", sum)
	}
	return nil
}
