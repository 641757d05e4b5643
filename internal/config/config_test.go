package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vkmindia80/critpath/internal/stats"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Unit != "hours" {
		t.Errorf("unit = %q, want hours", cfg.Unit)
	}
	if cfg.DailyCapacityHours != 8 {
		t.Errorf("capacity = %v, want 8", cfg.DailyCapacityHours)
	}
	w := cfg.HealthWeights
	if w.Overdue != 0.40 || w.Conflicts != 0.30 || w.OnTime != 0.30 {
		t.Errorf("weights = %+v, want 40/30/30", w)
	}
}

func TestLoadSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Unit = "days"
	cfg.Resources = map[string]float64{"alice": 6}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Unit != "days" {
		t.Errorf("unit = %q, want days", loaded.Unit)
	}
	if loaded.Resources["alice"] != 6 {
		t.Errorf("alice capacity = %v, want 6", loaded.Resources["alice"])
	}
}

func TestLoad_InvalidUnit(t *testing.T) {
	path := writeConfig(t, "unit: fortnights\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid unit")
	}
}

func TestLoad_NegativeCapacity(t *testing.T) {
	path := writeConfig(t, "daily_capacity_hours: -2\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for negative capacity")
	}
}

func TestLoad_ZeroWeightsFallBackToDefault(t *testing.T) {
	path := writeConfig(t, "unit: hours\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HealthWeights != stats.DefaultWeights() {
		t.Errorf("weights = %+v, want defaults", cfg.HealthWeights)
	}
}

func TestLoad_WeightsMustSumToOne(t *testing.T) {
	path := writeConfig(t, "health_weights:\n  overdue: 0.5\n  conflicts: 0.5\n  on_time: 0.5\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for weights summing past 1")
	}
}

func TestCapacity_FillsZeroEntries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DailyCapacityHours = 7
	cfg.Resources = map[string]float64{"alice": 6, "bob": 0}

	caps := cfg.Capacity()
	if caps["alice"] != 6 {
		t.Errorf("alice = %v, want 6", caps["alice"])
	}
	if caps["bob"] != 7 {
		t.Errorf("bob = %v, want the default 7", caps["bob"])
	}
}
