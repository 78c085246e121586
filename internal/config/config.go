package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"runlog/internal/analysis"
)

// EnvDBPath overrides the configured database path
const EnvDBPath = "RUNLOG_DB_PATH"

// Config represents the application configuration
type Config struct {
	Analysis AnalysisConfig `json:"analysis"`
	Watch    WatchConfig    `json:"watch"`
	Server   ServerConfig   `json:"server"`
	Display  DisplayConfig  `json:"display"`
	DBPath   string         `json:"db_path,omitempty"`
}

// AnalysisConfig holds the tunable analysis parameters
type AnalysisConfig struct {
	ZoneBoundaries           []int     `json:"zone_boundaries"`
	ReferenceDistances       []float64 `json:"reference_distances_m"`
	SplitDistance            float64   `json:"split_distance_m"`
	SmoothingBlockSeconds    int       `json:"smoothing_block_s"`
	CadenceFloor             float64   `json:"cadence_floor_spm"`
	MaxInvalidCoordinateFrac float64   `json:"max_invalid_coordinate_fraction"`
	HistogramBins            int       `json:"histogram_bins"`
	MinPeakFraction          float64   `json:"min_peak_fraction"`
	ValleyDepth              float64   `json:"valley_depth"`
	SignalCoverage           float64   `json:"signal_coverage"`
	MinPhaseSeconds          float64   `json:"min_phase_s"`
	ProgressionTolerance     float64   `json:"progression_tolerance"`
}

// WatchConfig holds folder watcher settings
type WatchConfig struct {
	Folder          string `json:"folder"`
	IntervalSeconds int    `json:"interval_s"`
	LogFile         string `json:"log_file"`
}

// ServerConfig holds JSON API settings
type ServerConfig struct {
	Addr string `json:"addr"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
	PaceUnit     string `json:"pace_unit"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	a := analysis.DefaultConfig()
	return Config{
		Analysis: AnalysisConfig{
			ZoneBoundaries:           a.ZoneBoundaries[:],
			ReferenceDistances:       a.ReferenceDistances,
			SplitDistance:            a.SplitDistance,
			SmoothingBlockSeconds:    a.SmoothingBlockSeconds,
			CadenceFloor:             a.CadencePlausibilityFloor,
			MaxInvalidCoordinateFrac: a.MaxInvalidCoordinateFraction,
			HistogramBins:            a.Intervals.HistogramBins,
			MinPeakFraction:          a.Intervals.MinPeakFraction,
			ValleyDepth:              a.Intervals.ValleyDepth,
			SignalCoverage:           a.Intervals.SignalCoverage,
			MinPhaseSeconds:          a.Intervals.MinPhaseSeconds,
			ProgressionTolerance:     a.Intervals.ProgressionTolerance,
		},
		Watch: WatchConfig{
			Folder:          "Archivos",
			IntervalSeconds: 5,
			LogFile:         "import.log",
		},
		Server: ServerConfig{
			Addr: ":5000",
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
	}
}

// Load reads the configuration from ~/.runlog/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path, applying defaults for missing values
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// LoadOrDefault returns the saved configuration, or the defaults when none exists
func LoadOrDefault() (*Config, error) {
	cfg, err := Load()
	if errors.Is(err, ErrNoConfig) {
		d := DefaultConfig()
		d.applyEnv()
		return &d, nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	a, d := &c.Analysis, defaults.Analysis
	if len(a.ZoneBoundaries) == 0 {
		a.ZoneBoundaries = d.ZoneBoundaries
	}
	if len(a.ReferenceDistances) == 0 {
		a.ReferenceDistances = d.ReferenceDistances
	}
	if a.SplitDistance == 0 {
		a.SplitDistance = d.SplitDistance
	}
	if a.SmoothingBlockSeconds == 0 {
		a.SmoothingBlockSeconds = d.SmoothingBlockSeconds
	}
	if a.CadenceFloor == 0 {
		a.CadenceFloor = d.CadenceFloor
	}
	if a.MaxInvalidCoordinateFrac == 0 {
		a.MaxInvalidCoordinateFrac = d.MaxInvalidCoordinateFrac
	}
	if a.HistogramBins == 0 {
		a.HistogramBins = d.HistogramBins
	}
	if a.MinPeakFraction == 0 {
		a.MinPeakFraction = d.MinPeakFraction
	}
	if a.ValleyDepth == 0 {
		a.ValleyDepth = d.ValleyDepth
	}
	if a.SignalCoverage == 0 {
		a.SignalCoverage = d.SignalCoverage
	}
	if a.MinPhaseSeconds == 0 {
		a.MinPhaseSeconds = d.MinPhaseSeconds
	}
	if a.ProgressionTolerance == 0 {
		a.ProgressionTolerance = d.ProgressionTolerance
	}

	if c.Watch.Folder == "" {
		c.Watch.Folder = defaults.Watch.Folder
	}
	if c.Watch.IntervalSeconds == 0 {
		c.Watch.IntervalSeconds = defaults.Watch.IntervalSeconds
	}
	if c.Watch.LogFile == "" {
		c.Watch.LogFile = defaults.Watch.LogFile
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Display.DistanceUnit == "" {
		c.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
	if c.Display.PaceUnit == "" {
		c.Display.PaceUnit = defaults.Display.PaceUnit
	}
}

func (c *Config) applyEnv() {
	if p := os.Getenv(EnvDBPath); p != "" {
		c.DBPath = p
	}
}

// Save writes the configuration to ~/.runlog/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes the configuration to path
func SaveFile(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	return SaveFile(path, &example)
}

// Validate checks that the config values are usable
func (c *Config) Validate() error {
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}
	if c.Watch.IntervalSeconds < 0 {
		return fmt.Errorf("watch.interval_s must not be negative, got %d", c.Watch.IntervalSeconds)
	}
	if len(c.Analysis.ZoneBoundaries) != 0 && len(c.Analysis.ZoneBoundaries) != 5 {
		return fmt.Errorf("analysis.zone_boundaries must have 5 values, got %d", len(c.Analysis.ZoneBoundaries))
	}

	if _, err := c.AnalysisConfig(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}

// AnalysisConfig converts the analysis section into engine parameters
func (c *Config) AnalysisConfig() (analysis.Config, error) {
	cfg := analysis.DefaultConfig()
	a := c.Analysis

	if len(a.ZoneBoundaries) == len(cfg.ZoneBoundaries) {
		copy(cfg.ZoneBoundaries[:], a.ZoneBoundaries)
	}
	if len(a.ReferenceDistances) > 0 {
		cfg.ReferenceDistances = a.ReferenceDistances
	}
	if a.SplitDistance != 0 {
		cfg.SplitDistance = a.SplitDistance
	}
	if a.SmoothingBlockSeconds != 0 {
		cfg.SmoothingBlockSeconds = a.SmoothingBlockSeconds
	}
	if a.CadenceFloor != 0 {
		cfg.CadencePlausibilityFloor = a.CadenceFloor
	}
	if a.MaxInvalidCoordinateFrac != 0 {
		cfg.MaxInvalidCoordinateFraction = a.MaxInvalidCoordinateFrac
	}
	if a.HistogramBins != 0 {
		cfg.Intervals.HistogramBins = a.HistogramBins
	}
	if a.MinPeakFraction != 0 {
		cfg.Intervals.MinPeakFraction = a.MinPeakFraction
	}
	if a.ValleyDepth != 0 {
		cfg.Intervals.ValleyDepth = a.ValleyDepth
	}
	if a.SignalCoverage != 0 {
		cfg.Intervals.SignalCoverage = a.SignalCoverage
	}
	if a.MinPhaseSeconds != 0 {
		cfg.Intervals.MinPhaseSeconds = a.MinPhaseSeconds
	}
	if a.ProgressionTolerance != 0 {
		cfg.Intervals.ProgressionTolerance = a.ProgressionTolerance
	}

	return cfg, cfg.Validate()
}

// WatchInterval returns the polling interval of the folder watcher
func (c *Config) WatchInterval() time.Duration {
	if c.Watch.IntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Watch.IntervalSeconds) * time.Second
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".runlog"), nil
}
