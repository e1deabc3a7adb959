package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	path := writeTempYAML(t, `
input:
  file: /data/waterlevels.csv
  time_column: datetime
  level_column: h
  location_column: naam
  time_layout: "2006-01-02 15:04"
  timezone: Europe/Amsterdam
analysis:
  bucket: year
  latitude: 53.2
  detrend: true
  conf_int: linear
  selection_threshold: 99
  include_phase: true
  include_char_levels: true
  create_time_series: true
  workers: 4
storage:
  sqlite:
    path: /data/results.db
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Input.File != "/data/waterlevels.csv" || cfg.Input.LocationColumn != "naam" {
		t.Errorf("input section = %+v", cfg.Input)
	}
	if cfg.Analysis.Latitude != 53.2 || !cfg.Analysis.Detrend || cfg.Analysis.Workers != 4 {
		t.Errorf("analysis section = %+v", cfg.Analysis)
	}
	if cfg.Analysis.ConfInt != "linear" {
		t.Errorf("conf_int = %q", cfg.Analysis.ConfInt)
	}
	if cfg.Storage.SQLite == nil || cfg.Storage.SQLite.Path != "/data/results.db" {
		t.Errorf("storage section = %+v", cfg.Storage)
	}
	if cfg.Storage.TimescaleDB != nil {
		t.Error("timescaledb should stay nil when not configured")
	}
}

func TestYAMLProviderDefaults(t *testing.T) {
	path := writeTempYAML(t, `
input:
  file: levels.csv
  time_column: t
  level_column: h
analysis:
  latitude: 0
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analysis.Bucket != "year" {
		t.Errorf("bucket default = %q, expected year", cfg.Analysis.Bucket)
	}
	if cfg.Analysis.ConfInt != "none" {
		t.Errorf("conf_int default = %q, expected none", cfg.Analysis.ConfInt)
	}
	if cfg.Analysis.Method != "default" {
		t.Errorf("method default = %q, expected default", cfg.Analysis.Method)
	}
}

func TestYAMLProviderValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing input file", "input:\n  time_column: t\n  level_column: h\nanalysis:\n  latitude: 1\n"},
		{"missing columns", "input:\n  file: x.csv\nanalysis:\n  latitude: 1\n"},
		{"latitude out of range", "input:\n  file: x.csv\n  time_column: t\n  level_column: h\nanalysis:\n  latitude: 333\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempYAML(t, tt.content)
			if _, err := NewYAMLProvider(path).LoadConfig(); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestYAMLProviderMissingFile(t *testing.T) {
	if _, err := NewYAMLProvider("/does/not/exist.yaml").LoadConfig(); err == nil {
		t.Fatal("expected an error")
	}
}

func TestYAMLProviderSections(t *testing.T) {
	path := writeTempYAML(t, `
input:
  file: levels.csv
  time_column: t
  level_column: h
analysis:
  latitude: 53.2
`)

	p := NewYAMLProvider(path)
	input, err := p.GetInput()
	if err != nil {
		t.Fatal(err)
	}
	if input.File != "levels.csv" {
		t.Errorf("GetInput file = %q", input.File)
	}
	analysis, err := p.GetAnalysis()
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Latitude != 53.2 {
		t.Errorf("GetAnalysis latitude = %v", analysis.Latitude)
	}
	if !p.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
