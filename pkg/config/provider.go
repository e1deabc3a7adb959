// Package config loads tidego configuration from YAML files or SQLite
// databases through a common provider interface.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetInput() (*InputData, error)
	GetAnalysis() (*AnalysisData, error)
	GetStorage() (*StorageData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Input    InputData    `json:"input"`
	Analysis AnalysisData `json:"analysis"`
	Storage  StorageData  `json:"storage,omitempty"`
}

// InputData describes the observation table to load and its column
// bindings.
type InputData struct {
	File           string `json:"file"`
	TimeColumn     string `json:"time_column"`
	LevelColumn    string `json:"level_column"`
	LocationColumn string `json:"location_column,omitempty"`
	TimeLayout     string `json:"time_layout,omitempty"` // Go reference layout, default RFC 3339
	Timezone       string `json:"timezone,omitempty"`    // IANA name, default UTC
}

// AnalysisData holds the analysis settings: segmentation, solver
// options, selector threshold and flattener flags.
type AnalysisData struct {
	Bucket             string  `json:"bucket,omitempty"` // year, quarter, month, day
	Latitude           float64 `json:"latitude"`
	Detrend            bool    `json:"detrend,omitempty"`
	NodalCorrection    bool    `json:"nodal_correction,omitempty"`
	ConfInt            string  `json:"conf_int,omitempty"`   // none, linear, monte_carlo
	Method             string  `json:"method,omitempty"`     // default, robust
	CorrectionMethod   string  `json:"correction,omitempty"` // adjusted-R² correction
	SelectionThreshold float64 `json:"selection_threshold,omitempty"`
	IncludePhase       bool    `json:"include_phase,omitempty"`
	IncludeFrequency   bool    `json:"include_frequency,omitempty"`
	IncludeCharLevels  bool    `json:"include_char_levels,omitempty"`
	CreateTimeSeries   bool    `json:"create_time_series,omitempty"`
	Workers            int     `json:"workers,omitempty"`
}

// StorageData holds the configured result stores. A nil section means
// that backend is disabled.
type StorageData struct {
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

// SQLiteData holds SQLite-specific storage configuration
type SQLiteData struct {
	Path string `json:"path"`
}

// TimescaleDBData holds TimescaleDB-specific storage configuration
type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}
