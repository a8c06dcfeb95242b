package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tmdbcli/internal/errors"
)

var envVars = []string{
	"TMDB_PIPELINE_INPUT_PATH", "TMDB_PIPELINE_OUTPUT_PATH", "TMDB_PIPELINE_MONEY_MODE",
	"TMDB_PIPELINE_TOP_N", "TMDB_PIPELINE_BOM", "TMDB_LOGGING_LEVEL", "TMDB_LOGGING_OUTPUT",
	"TMDB_TELEMETRY_ENABLED", "TMDB_TELEMETRY_SAMPLE_RATIO",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tmdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "file overrides defaults",
			file: `
pipeline:
  input_path: data/movies.csv
  money_mode: signed
  top_n: 5
logging:
  level: DEBUG
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "data/movies.csv", cfg.Pipeline.InputPath)
				assert.Equal(t, "signed", cfg.Pipeline.MoneyMode)
				assert.Equal(t, 5, cfg.Pipeline.TopN)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "tmdb-movies-clean.csv", cfg.Pipeline.OutputPath)
				assert.Equal(t, 15, cfg.Pipeline.FrequentN)
			},
		},
		{
			name: "env overrides file",
			env: map[string]string{
				"TMDB_PIPELINE_INPUT_PATH": "env.csv",
				"TMDB_PIPELINE_BOM":        "true",
				"TMDB_TELEMETRY_ENABLED":   "true",
			},
			file: `
pipeline:
  input_path: file.csv
  output_path: file-out.csv
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "env.csv", cfg.Pipeline.InputPath)
				assert.Equal(t, "file-out.csv", cfg.Pipeline.OutputPath)
				assert.True(t, cfg.Pipeline.BOM)
				assert.True(t, cfg.Telemetry.Enabled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := Load(path)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		path    string
		wantMsg string
	}{
		{
			name:    "missing explicit file",
			path:    filepath.Join(os.TempDir(), "does-not-exist", "tmdb.yaml"),
			wantMsg: "failed to load config from file",
		},
		{
			name:    "malformed yaml",
			file:    "pipeline: [unclosed",
			wantMsg: "failed to load config from file",
		},
		{
			name:    "unknown money mode",
			file:    "pipeline:\n  money_mode: rounded\n",
			wantMsg: "pipeline.money_mode (oneof)",
		},
		{
			name:    "bad env value",
			env:     map[string]string{"TMDB_PIPELINE_TOP_N": "ten"},
			wantMsg: "failed to load config from env",
		},
		{
			name:    "sample ratio out of range",
			env:     map[string]string{"TMDB_TELEMETRY_SAMPLE_RATIO": "1.5"},
			wantMsg: "telemetry.sample_ratio (lte)",
		},
		{
			name:    "report must be a workbook",
			file:    "pipeline:\n  report_path: report.csv\n",
			wantMsg: "pipeline.report_path (endswith)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := tt.path
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := Load(path)
			if err == nil {
				err = cfg.Validate()
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_LeavesValidationToCaller(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "pipeline:\n  money_mode: rounded\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rounded", cfg.Pipeline.MoneyMode)
	assert.Error(t, cfg.Validate())

	cfg.Pipeline.MoneyMode = "signed"
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})

	t.Run("file output needs a path", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Output = "file"
		cfg.Logging.FilePath = ""

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logging.file_path (required_unless)")
	})

	t.Run("reports every invalid field", func(t *testing.T) {
		cfg := Default()
		cfg.Pipeline.InputPath = ""
		cfg.Pipeline.TopN = 0

		err := cfg.Validate()
		require.Error(t, err)

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, []string{"pipeline.input_path (required)", "pipeline.top_n (min)"}, appErr.Context["fields"])
	})

	t.Run("normalizes case", func(t *testing.T) {
		cfg := Default()
		cfg.Pipeline.MoneyMode = " Leading-Group "
		cfg.Logging.Output = "BOTH"

		require.NoError(t, cfg.Validate())
		assert.Equal(t, "leading-group", cfg.Pipeline.MoneyMode)
		assert.Equal(t, "both", cfg.Logging.Output)
	})
}
