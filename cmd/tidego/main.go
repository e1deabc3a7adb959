package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hveclab/tidego/internal/database"
	"github.com/hveclab/tidego/internal/log"
	"github.com/hveclab/tidego/internal/tide"
	"github.com/hveclab/tidego/pkg/config"
	"github.com/hveclab/tidego/pkg/harmonic"
	"github.com/hveclab/tidego/pkg/obs"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source (YAML file or SQLite database)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tidego %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	cfg, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Errorf("Analysis error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	return provider.LoadConfig()
}

func run(cfg *config.ConfigData) error {
	logger := log.GetSugaredLogger()

	observations, err := obs.ReadCSV(cfg.Input.File, obs.Bindings{
		Time:       cfg.Input.TimeColumn,
		Level:      cfg.Input.LevelColumn,
		Location:   cfg.Input.LocationColumn,
		TimeLayout: cfg.Input.TimeLayout,
		Timezone:   cfg.Input.Timezone,
	})
	if err != nil {
		return fmt.Errorf("loading observations: %w", err)
	}
	logger.Infof("loaded %d observations from %s", len(observations), cfg.Input.File)

	solver := harmonic.NewSolver(logger)
	analyzer := tide.NewAnalyzer(solver, logger, tide.AnalyzerOptions{
		Width: tide.BucketWidth(cfg.Analysis.Bucket),
		Solve: tide.SolveOptions{
			Latitude:        cfg.Analysis.Latitude,
			Detrend:         cfg.Analysis.Detrend,
			NodalCorrection: cfg.Analysis.NodalCorrection,
			ConfInt:         tide.ConfidenceMethod(cfg.Analysis.ConfInt),
			Method:          tide.FitMethod(cfg.Analysis.Method),
		},
		Flatten: tide.FlattenOptions{
			IncludePhase:      cfg.Analysis.IncludePhase,
			IncludeFrequency:  cfg.Analysis.IncludeFrequency,
			IncludeCharLevels: cfg.Analysis.IncludeCharLevels,
		},
		CorrectionMethod: cfg.Analysis.CorrectionMethod,
		CreateTimeSeries: cfg.Analysis.CreateTimeSeries,
		Workers:          cfg.Analysis.Workers,
	})

	if thr := cfg.Analysis.SelectionThreshold; thr > 0 {
		recent := tide.LatestBucket(observations, tide.BucketWidth(cfg.Analysis.Bucket))
		names, err := analyzer.Adapter().SelectConstituents(recent, cfg.Analysis.Latitude, thr)
		if err != nil {
			return fmt.Errorf("selecting constituents: %w", err)
		}
		logger.Infof("fitting %d constituents covering %g%% of energy: %v", len(names), thr, names)
		solver.Constituents = names
	}

	result := analyzer.Run(observations)
	logger.Infof("constituent table has %d rows (%d of %d segments failed)",
		len(result.Constituents), result.FailedCount, result.SegmentCount)

	if cfg.Storage.SQLite == nil && cfg.Storage.TimescaleDB == nil {
		logger.Warn("no storage backend configured, results discarded")
		return nil
	}

	client := database.NewClient(&cfg.Storage, logger)
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	if err := client.Migrate(); err != nil {
		return fmt.Errorf("migrating result tables: %w", err)
	}
	if err := client.SaveConstituents(result.Constituents); err != nil {
		return fmt.Errorf("storing constituent table: %w", err)
	}
	if result.Series != nil {
		if err := client.SaveSeries(result.Series); err != nil {
			return fmt.Errorf("storing reconstructed series: %w", err)
		}
	}
	return nil
}
