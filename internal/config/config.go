package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"conflictlens/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data    DataConfig
	Output  OutputConfig
	Model   ModelConfig
	Figures FigureConfig
}

// DataConfig holds dataset input settings
type DataConfig struct {
	Path string // CSV or XLSX panel dataset
}

// OutputConfig holds result artifact locations
type OutputConfig struct {
	FiguresDir string
	ResultsDir string
	HTML       bool // also render reports as HTML
	Verbose    bool
}

// ModelConfig holds analysis parameters
type ModelConfig struct {
	LagYears          []int // leads analyzed for future conflict
	ExcludedThreshold int   // power rank at or below which a group is excluded
	Alpha             float64
}

// FigureConfig holds chart rendering settings
type FigureConfig struct {
	WidthInches  float64
	HeightInches float64
	Format       string // png or svg
}

// Load reads configuration from a .env file (if present) and environment
// variables, then validates it.
func Load() (*Config, error) {
	// Missing .env is fine; the environment alone is enough
	_ = godotenv.Load()

	config := &Config{
		Data: DataConfig{
			Path: getEnvOrDefault("CONFLICTLENS_DATA", "data/ethnic_conflict_data.csv"),
		},
		Output: OutputConfig{
			FiguresDir: getEnvOrDefault("CONFLICTLENS_FIGURES_DIR", "output/figures"),
			ResultsDir: getEnvOrDefault("CONFLICTLENS_RESULTS_DIR", "output/results"),
			HTML:       getEnvBoolOrDefault("CONFLICTLENS_HTML", false),
			Verbose:    getEnvBoolOrDefault("CONFLICTLENS_VERBOSE", false),
		},
		Model: ModelConfig{
			LagYears:          []int{1, 2, 3},
			ExcludedThreshold: getEnvIntOrDefault("CONFLICTLENS_EXCLUDED_THRESHOLD", 3),
			Alpha:             getEnvFloatOrDefault("CONFLICTLENS_ALPHA", 0.05),
		},
		Figures: FigureConfig{
			WidthInches:  getEnvFloatOrDefault("CONFLICTLENS_FIG_WIDTH", 8),
			HeightInches: getEnvFloatOrDefault("CONFLICTLENS_FIG_HEIGHT", 5),
			Format:       getEnvOrDefault("CONFLICTLENS_FIG_FORMAT", "png"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Data.Path == "" {
		return errors.ConfigInvalid("data path is required")
	}
	if config.Output.FiguresDir == "" || config.Output.ResultsDir == "" {
		return errors.ConfigInvalid("output directories are required")
	}
	if config.Model.ExcludedThreshold < 1 || config.Model.ExcludedThreshold > 7 {
		return errors.ConfigInvalid("exclusion threshold must be a power rank in [1,7]")
	}
	if config.Model.Alpha <= 0 || config.Model.Alpha >= 1 {
		return errors.ConfigInvalid("alpha must be in (0,1)")
	}
	switch config.Figures.Format {
	case "png", "svg", "pdf":
	default:
		return errors.ConfigInvalid("figure format must be png, svg or pdf")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
