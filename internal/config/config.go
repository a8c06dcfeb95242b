package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "tmdbcli/internal/errors"
	"tmdbcli/pkg/contracts"
)

// EnvPrefix namespaces every environment override, e.g. TMDB_PIPELINE_INPUT_PATH
const EnvPrefix = "TMDB"

// Config represents the complete application configuration
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PipelineConfig contains the input, outputs and query sizes of a run
type PipelineConfig struct {
	InputPath  string `yaml:"input_path" envconfig:"INPUT_PATH" validate:"required"`
	Sheet      string `yaml:"sheet" envconfig:"SHEET"`
	OutputPath string `yaml:"output_path" envconfig:"OUTPUT_PATH" validate:"required"`
	ReportPath string `yaml:"report_path" envconfig:"REPORT_PATH" validate:"omitempty,endswith=.xlsx"`
	JSONPath   string `yaml:"json_path" envconfig:"JSON_PATH"`
	MoneyMode  string `yaml:"money_mode" envconfig:"MONEY_MODE" validate:"oneof=magnitude leading-group signed"`
	TopN       int    `yaml:"top_n" envconfig:"TOP_N" validate:"min=1"`
	FrequentN  int    `yaml:"frequent_n" envconfig:"FREQUENT_N" validate:"min=1"`
	BOM        bool   `yaml:"bom" envconfig:"BOM"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig contains tracing and metrics configuration.
// Spans are written to TracePath and metrics to MetricsPath; empty paths
// disable the corresponding file.
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	ServiceVersion string  `yaml:"service_version" envconfig:"SERVICE_VERSION"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracePath      string  `yaml:"trace_path" envconfig:"TRACE_PATH"`
	MetricsPath    string  `yaml:"metrics_path" envconfig:"METRICS_PATH"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, an optional YAML file and
// TMDB_* environment variables, in increasing order of precedence.
// An empty path searches the usual locations and skips the file if none exists.
// The result is not validated: callers apply their own overrides, then Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = getConfigFilePath()
	}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, apperrors.NewConfigError("failed to load config from file", err).
					WithContext(apperrors.ContextPath, path)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}
	return cfg, nil
}

// loadFromFile overlays the keys present in a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use yaml tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration and normalizes case-insensitive values
func (c *Config) Validate() error {
	c.Pipeline.MoneyMode = strings.ToLower(strings.TrimSpace(c.Pipeline.MoneyMode))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewConfigError("config validation failed", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
	}
	return apperrors.NewConfigError("invalid configuration: "+strings.Join(fields, ", "), nil).
		WithContext("fields", fields)
}

// getConfigFilePath returns the first config file found in the usual locations
func getConfigFilePath() string {
	locations := []string{
		"tmdb.yaml",
		"configs/tmdb.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			InputPath:  "tmdb-movies.csv",
			OutputPath: "tmdb-movies-clean.csv",
			MoneyMode:  "magnitude",
			TopN:       10,
			FrequentN:  15,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/tmdb-insights.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "tmdb-insights",
			ServiceVersion: contracts.Version,
			Environment:    "development",
			SampleRatio:    1.0,
		},
	}
}
