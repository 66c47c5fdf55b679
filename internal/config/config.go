package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Locator   LocatorConfig   `yaml:"locator" envconfig:"LOCATOR"`
	Fetch     FetchConfig     `yaml:"fetch" envconfig:"FETCH"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// LocatorConfig configures the browser session driving the Locator form
type LocatorConfig struct {
	URL          string        `yaml:"url" envconfig:"URL" validate:"required,url"`
	Headless     bool          `yaml:"headless" envconfig:"HEADLESS"`
	ChromePath   string        `yaml:"chrome_path" envconfig:"CHROME_PATH"`
	QueryTimeout time.Duration `yaml:"query_timeout" envconfig:"QUERY_TIMEOUT" validate:"gt=0"`
	MinInterval  time.Duration `yaml:"min_interval" envconfig:"MIN_INTERVAL" validate:"gte=0"`
}

// FetchConfig holds the per-run defaults that CLI flags may override
type FetchConfig struct {
	FailurePolicy string        `yaml:"failure_policy" envconfig:"FAILURE_POLICY" validate:"oneof=abort skip"`
	Retries       int           `yaml:"retries" envconfig:"RETRIES" validate:"gte=0,lte=10"`
	RetryDelay    time.Duration `yaml:"retry_delay" envconfig:"RETRY_DELAY" validate:"gte=0"`
	SkipExisting  bool          `yaml:"skip_existing" envconfig:"SKIP_EXISTING"`
}

// TelemetryConfig controls tracing and the metrics textfile
type TelemetryConfig struct {
	Tracing     bool   `yaml:"tracing" envconfig:"TRACING"`
	TraceFile   string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, the YAML file at path (or the
// first one found by FindConfigFile when path is empty), then environment
// variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if paths, err := GetPaths(); err == nil {
			path = paths.FindConfigFile()
		}
	}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Environment variables only overwrite fields they name
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes a YAML file over cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// Always JSON
	c.Logging.Format = "json"

	if c.Logging.Output == "" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = defaultLogPath()
	}

	return nil
}

func defaultLogPath() string {
	paths, err := GetPaths()
	if err != nil {
		return "logs/" + LogFileName
	}
	return paths.GetLogPath(LogFileName)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "both",
		},
		Locator: LocatorConfig{
			URL:          DefaultLocatorURL,
			Headless:     true,
			QueryTimeout: DefaultQueryTimeout,
			MinInterval:  DefaultMinInterval,
		},
		Fetch: FetchConfig{
			FailurePolicy: FailurePolicyAbort,
			Retries:       0,
			RetryDelay:    DefaultRetryDelay,
		},
	}
}
