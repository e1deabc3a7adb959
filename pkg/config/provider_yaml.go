package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Input struct {
			File           string `yaml:"file"`
			TimeColumn     string `yaml:"time_column"`
			LevelColumn    string `yaml:"level_column"`
			LocationColumn string `yaml:"location_column"`
			TimeLayout     string `yaml:"time_layout"`
			Timezone       string `yaml:"timezone"`
		} `yaml:"input"`
		Analysis struct {
			Bucket             string  `yaml:"bucket"`
			Latitude           float64 `yaml:"latitude"`
			Detrend            bool    `yaml:"detrend"`
			NodalCorrection    bool    `yaml:"nodal_correction"`
			ConfInt            string  `yaml:"conf_int"`
			Method             string  `yaml:"method"`
			CorrectionMethod   string  `yaml:"correction"`
			SelectionThreshold float64 `yaml:"selection_threshold"`
			IncludePhase       bool    `yaml:"include_phase"`
			IncludeFrequency   bool    `yaml:"include_frequency"`
			IncludeCharLevels  bool    `yaml:"include_char_levels"`
			CreateTimeSeries   bool    `yaml:"create_time_series"`
			Workers            int     `yaml:"workers"`
		} `yaml:"analysis"`
		Storage struct {
			SQLite *struct {
				Path string `yaml:"path"`
			} `yaml:"sqlite,omitempty"`
			TimescaleDB *struct {
				ConnectionString string `yaml:"connection_string"`
			} `yaml:"timescaledb,omitempty"`
		} `yaml:"storage,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Input: InputData{
			File:           yamlConfig.Input.File,
			TimeColumn:     yamlConfig.Input.TimeColumn,
			LevelColumn:    yamlConfig.Input.LevelColumn,
			LocationColumn: yamlConfig.Input.LocationColumn,
			TimeLayout:     yamlConfig.Input.TimeLayout,
			Timezone:       yamlConfig.Input.Timezone,
		},
		Analysis: AnalysisData{
			Bucket:             yamlConfig.Analysis.Bucket,
			Latitude:           yamlConfig.Analysis.Latitude,
			Detrend:            yamlConfig.Analysis.Detrend,
			NodalCorrection:    yamlConfig.Analysis.NodalCorrection,
			ConfInt:            yamlConfig.Analysis.ConfInt,
			Method:             yamlConfig.Analysis.Method,
			CorrectionMethod:   yamlConfig.Analysis.CorrectionMethod,
			SelectionThreshold: yamlConfig.Analysis.SelectionThreshold,
			IncludePhase:       yamlConfig.Analysis.IncludePhase,
			IncludeFrequency:   yamlConfig.Analysis.IncludeFrequency,
			IncludeCharLevels:  yamlConfig.Analysis.IncludeCharLevels,
			CreateTimeSeries:   yamlConfig.Analysis.CreateTimeSeries,
			Workers:            yamlConfig.Analysis.Workers,
		},
	}

	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{
			Path: yamlConfig.Storage.SQLite.Path,
		}
	}
	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// GetInput returns the input section
func (y *YAMLProvider) GetInput() (*InputData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return &y.config.Input, nil
}

// GetAnalysis returns the analysis section
func (y *YAMLProvider) GetAnalysis() (*AnalysisData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return &y.config.Analysis, nil
}

// GetStorage returns the storage section
func (y *YAMLProvider) GetStorage() (*StorageData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return &y.config.Storage, nil
}

// IsReadOnly returns true: YAML files are not modified by tidego
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}

func (y *YAMLProvider) ensureLoaded() error {
	if y.config != nil {
		return nil
	}
	_, err := y.LoadConfig()
	return err
}

// validate fills defaults and rejects configurations the analysis
// cannot run with.
func validate(c *ConfigData) error {
	if c.Input.File == "" {
		return fmt.Errorf("input.file is required")
	}
	if c.Input.TimeColumn == "" || c.Input.LevelColumn == "" {
		return fmt.Errorf("input.time_column and input.level_column are required")
	}
	if c.Analysis.Latitude < -90 || c.Analysis.Latitude > 90 {
		return fmt.Errorf("analysis.latitude %v out of range", c.Analysis.Latitude)
	}
	if c.Analysis.Bucket == "" {
		c.Analysis.Bucket = "year"
	}
	if c.Analysis.ConfInt == "" {
		c.Analysis.ConfInt = "none"
	}
	if c.Analysis.Method == "" {
		c.Analysis.Method = "default"
	}
	return nil
}
