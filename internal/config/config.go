package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Training TrainingConfig `mapstructure:"training"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// StoreConfig holds the embedded store location.
type StoreConfig struct {
	Dir      string `mapstructure:"dir"`
	InMemory bool   `mapstructure:"in_memory"`
}

// AnalysisConfig holds the statistical tunables. The exact constants are
// heuristics, not load-bearing; the defaults preserve the qualitative shape
// (monotonic in sample size and effect size).
type AnalysisConfig struct {
	MinSamplesForCorrelation int     `mapstructure:"min_samples_for_correlation"`
	TopInsights              int     `mapstructure:"top_insights"`
	BaselineDays             int     `mapstructure:"baseline_days"`
	BaselineExcludeDays      int     `mapstructure:"baseline_exclude_days"`
	MinBaselineSamples       int     `mapstructure:"min_baseline_samples"`
	SigmaThreshold           float64 `mapstructure:"sigma_threshold"`
	MinAnomalyRun            int     `mapstructure:"min_anomaly_run"`
	MinHistoryForPrediction  int     `mapstructure:"min_history_for_prediction"`
	TrendWindowDays          int     `mapstructure:"trend_window_days"`
	TrendDeadband            float64 `mapstructure:"trend_deadband"` // relative per-day slope below which a trend is stable
	StrongCorrelation        float64 `mapstructure:"strong_correlation"`
}

// TrainingConfig holds model-training tunables.
type TrainingConfig struct {
	MinAlignedRows int     `mapstructure:"min_aligned_rows"`
	ValidationFrac float64 `mapstructure:"validation_frac"`
	ForestTrees    int     `mapstructure:"forest_trees"`
	ForestDepth    int     `mapstructure:"forest_depth"`
	RidgeAlpha     float64 `mapstructure:"ridge_alpha"`
	Seed           int64   `mapstructure:"seed"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("store.dir", "./data/hygieia")
	v.SetDefault("store.in_memory", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("analysis.min_samples_for_correlation", 5)
	v.SetDefault("analysis.top_insights", 8)
	v.SetDefault("analysis.baseline_days", 30)
	v.SetDefault("analysis.baseline_exclude_days", 3)
	v.SetDefault("analysis.min_baseline_samples", 7)
	v.SetDefault("analysis.sigma_threshold", 2.0)
	v.SetDefault("analysis.min_anomaly_run", 3)
	v.SetDefault("analysis.min_history_for_prediction", 7)
	v.SetDefault("analysis.trend_window_days", 14)
	v.SetDefault("analysis.trend_deadband", 0.01)
	v.SetDefault("analysis.strong_correlation", 0.5)

	v.SetDefault("training.min_aligned_rows", 10)
	v.SetDefault("training.validation_frac", 0.2)
	v.SetDefault("training.forest_trees", 50)
	v.SetDefault("training.forest_depth", 4)
	v.SetDefault("training.ridge_alpha", 1.0)
	v.SetDefault("training.seed", 42)

	v.SetEnvPrefix("HYGIEIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("server.port", "PORT")
	v.BindEnv("store.dir", "HYGIEIA_STORE_DIR")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// It's okay if the config file doesn't exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Store.Dir == "" && !c.Store.InMemory {
		return fmt.Errorf("store.dir is required unless store.in_memory is set")
	}
	if c.Analysis.MinSamplesForCorrelation < 3 {
		return fmt.Errorf("analysis.min_samples_for_correlation must be at least 3")
	}
	if c.Training.ValidationFrac <= 0 || c.Training.ValidationFrac >= 1 {
		return fmt.Errorf("training.validation_frac must be in (0, 1)")
	}
	return nil
}
