package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database
// configuration. The database carries single-row input_config and
// analysis_config tables plus one storage_config row per enabled
// backend.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	input, err := s.GetInput()
	if err != nil {
		return nil, fmt.Errorf("failed to load input config: %w", err)
	}
	config.Input = *input

	analysis, err := s.GetAnalysis()
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis config: %w", err)
	}
	config.Analysis = *analysis

	storage, err := s.GetStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// GetInput loads the input section from the input_config table
func (s *SQLiteProvider) GetInput() (*InputData, error) {
	row := s.db.QueryRow(`
		SELECT file, time_column, level_column,
		       COALESCE(location_column, ''),
		       COALESCE(time_layout, ''),
		       COALESCE(timezone, '')
		FROM input_config LIMIT 1`)

	var in InputData
	err := row.Scan(&in.File, &in.TimeColumn, &in.LevelColumn,
		&in.LocationColumn, &in.TimeLayout, &in.Timezone)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// GetAnalysis loads the analysis section from the analysis_config table
func (s *SQLiteProvider) GetAnalysis() (*AnalysisData, error) {
	row := s.db.QueryRow(`
		SELECT COALESCE(bucket, ''), latitude, detrend, nodal_correction,
		       COALESCE(conf_int, ''), COALESCE(method, ''),
		       COALESCE(correction, ''), COALESCE(selection_threshold, 0),
		       include_phase, include_frequency, include_char_levels,
		       create_time_series, COALESCE(workers, 0)
		FROM analysis_config LIMIT 1`)

	var a AnalysisData
	err := row.Scan(&a.Bucket, &a.Latitude, &a.Detrend, &a.NodalCorrection,
		&a.ConfInt, &a.Method, &a.CorrectionMethod, &a.SelectionThreshold,
		&a.IncludePhase, &a.IncludeFrequency, &a.IncludeCharLevels,
		&a.CreateTimeSeries, &a.Workers)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetStorage loads the storage backends from the storage_config table
func (s *SQLiteProvider) GetStorage() (*StorageData, error) {
	rows, err := s.db.Query(`
		SELECT backend_type, COALESCE(path, ''), COALESCE(connection_string, '')
		FROM storage_config`)
	if err != nil {
		if err == sql.ErrNoRows {
			return &StorageData{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	storage := &StorageData{}
	for rows.Next() {
		var backendType, path, connString string
		if err := rows.Scan(&backendType, &path, &connString); err != nil {
			return nil, err
		}
		switch backendType {
		case "sqlite":
			storage.SQLite = &SQLiteData{Path: path}
		case "timescaledb":
			storage.TimescaleDB = &TimescaleDBData{ConnectionString: connString}
		default:
			return nil, fmt.Errorf("unsupported storage backend %q", backendType)
		}
	}
	return storage, rows.Err()
}

// IsReadOnly returns false: SQLite configuration can be managed in place
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the underlying database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
