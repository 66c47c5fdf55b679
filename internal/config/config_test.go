package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "windorbit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no file and no env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "both", cfg.Logging.Output)
				assert.NotEmpty(t, cfg.Logging.FilePath)
				assert.Equal(t, DefaultLocatorURL, cfg.Locator.URL)
				assert.True(t, cfg.Locator.Headless)
				assert.Equal(t, DefaultQueryTimeout, cfg.Locator.QueryTimeout)
				assert.Equal(t, FailurePolicyAbort, cfg.Fetch.FailurePolicy)
				assert.Equal(t, 0, cfg.Fetch.Retries)
				assert.False(t, cfg.Fetch.SkipExisting)
				assert.False(t, cfg.Telemetry.Tracing)
			},
		},
		{
			name: "yaml file overrides defaults",
			file: `
logging:
  level: debug
locator:
  headless: false
  query_timeout: 90s
fetch:
  failure_policy: skip
  retries: 2
telemetry:
  metrics_file: /tmp/windorbit.prom
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.False(t, cfg.Locator.Headless)
				assert.Equal(t, 90*time.Second, cfg.Locator.QueryTimeout)
				assert.Equal(t, DefaultMinInterval, cfg.Locator.MinInterval)
				assert.Equal(t, FailurePolicySkip, cfg.Fetch.FailurePolicy)
				assert.Equal(t, 2, cfg.Fetch.Retries)
				assert.Equal(t, "/tmp/windorbit.prom", cfg.Telemetry.MetricsFile)
			},
		},
		{
			name: "env overrides file",
			file: `
fetch:
  failure_policy: skip
  retries: 2
`,
			env: map[string]string{
				"WINDORBIT_FETCH_RETRIES":       "4",
				"WINDORBIT_LOCATOR_HEADLESS":    "false",
				"WINDORBIT_LOCATOR_CHROME_PATH": "/usr/bin/chromium",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, FailurePolicySkip, cfg.Fetch.FailurePolicy)
				assert.Equal(t, 4, cfg.Fetch.Retries)
				assert.False(t, cfg.Locator.Headless)
				assert.Equal(t, "/usr/bin/chromium", cfg.Locator.ChromePath)
			},
		},
		{
			name:    "invalid failure policy",
			env:     map[string]string{"WINDORBIT_FETCH_FAILURE_POLICY": "ignore"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			file:    "logging:\n  level: verbose\n",
			wantErr: true,
		},
		{
			name:    "invalid duration in env",
			env:     map[string]string{"WINDORBIT_LOCATOR_QUERY_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "logging: [unterminated\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	p := newPaths(dir)

	assert.Equal(t, filepath.Join(dir, "logs"), p.LogsDir)
	assert.Equal(t, filepath.Join(dir, "logs", "x.log"), p.GetLogPath("x.log"))

	require.NoError(t, p.EnsureDirectories())
	assert.DirExists(t, p.LogsDir)

	assert.Equal(t, "", p.FindConfigFile())
	require.NoError(t, os.WriteFile(p.ConfigFile, []byte("{}"), 0644))
	assert.Equal(t, p.ConfigFile, p.FindConfigFile())
}

func TestGetPaths(t *testing.T) {
	p, err := GetPaths()
	require.NoError(t, err)
	assert.NotEmpty(t, p.ExecutableDir)
	assert.True(t, filepath.IsAbs(p.LogsDir))
}
