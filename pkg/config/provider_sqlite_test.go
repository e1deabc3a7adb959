package config

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func seedConfigDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE input_config (
			file TEXT NOT NULL, time_column TEXT NOT NULL,
			level_column TEXT NOT NULL, location_column TEXT,
			time_layout TEXT, timezone TEXT)`,
		`CREATE TABLE analysis_config (
			bucket TEXT, latitude REAL NOT NULL,
			detrend INTEGER NOT NULL DEFAULT 0,
			nodal_correction INTEGER NOT NULL DEFAULT 0,
			conf_int TEXT, method TEXT, correction TEXT,
			selection_threshold REAL,
			include_phase INTEGER NOT NULL DEFAULT 0,
			include_frequency INTEGER NOT NULL DEFAULT 0,
			include_char_levels INTEGER NOT NULL DEFAULT 0,
			create_time_series INTEGER NOT NULL DEFAULT 0,
			workers INTEGER)`,
		`CREATE TABLE storage_config (
			backend_type TEXT NOT NULL, path TEXT, connection_string TEXT)`,
		`INSERT INTO input_config (file, time_column, level_column, location_column)
			VALUES ('levels.csv', 'datetime', 'h', 'naam')`,
		`INSERT INTO analysis_config (bucket, latitude, detrend, include_phase, workers)
			VALUES ('month', 53.2, 1, 1, 2)`,
		`INSERT INTO storage_config (backend_type, path) VALUES ('sqlite', 'results.db')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seeding config db: %v", err)
		}
	}
	return path
}

func TestSQLiteProviderLoadConfig(t *testing.T) {
	path := seedConfigDB(t)

	p, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	cfg, err := p.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Input.File != "levels.csv" || cfg.Input.LocationColumn != "naam" {
		t.Errorf("input section = %+v", cfg.Input)
	}
	if cfg.Analysis.Bucket != "month" || cfg.Analysis.Latitude != 53.2 {
		t.Errorf("analysis section = %+v", cfg.Analysis)
	}
	if !cfg.Analysis.Detrend || !cfg.Analysis.IncludePhase || cfg.Analysis.Workers != 2 {
		t.Errorf("analysis flags = %+v", cfg.Analysis)
	}
	if cfg.Storage.SQLite == nil || cfg.Storage.SQLite.Path != "results.db" {
		t.Errorf("storage section = %+v", cfg.Storage)
	}
	if p.IsReadOnly() {
		t.Error("SQLite provider should not be read-only")
	}
}

func TestSQLiteProviderMissingTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	p, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if _, err := p.LoadConfig(); err == nil {
		t.Fatal("expected an error for a database without config tables")
	}
}
