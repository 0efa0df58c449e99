package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"resume_store_url": "http://store:8000",
		"tracker_url": "https://tracker.example",
		"output_dir": "out",
		"request_timeout": "30s",
		"port": 9090
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "http://store:8000", cfg.ResumeStoreURL)
	assert.Equal(t, "https://tracker.example", cfg.TrackerURL)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
resume_store_url: http://store:8000
tick_interval: 500ms
log_format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://store:8000", cfg.ResumeStoreURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Tick())
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_ExpandsEnv(t *testing.T) {
	t.Setenv("TAILOR_TEST_KEY", "s3cret")
	path := writeConfig(t, "config.yml", "auth_key: ${TAILOR_TEST_KEY}\ntracker_url: ${TAILOR_TEST_UNSET}\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.AuthKey)
	assert.Equal(t, "${TAILOR_TEST_UNSET}", cfg.TrackerURL)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", "port: [not an int")

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"empty is valid", Config{}, ""},
		{"defaults are valid", Defaults(), ""},
		{"bad store url", Config{ResumeStoreURL: "localhost:8000"}, "resume_store_url"},
		{"bad tracker scheme", Config{TrackerURL: "ftp://tracker"}, "tracker_url"},
		{"bad timeout", Config{RequestTimeout: "soon"}, "request_timeout"},
		{"negative tick", Config{TickInterval: "-1s"}, "tick_interval"},
		{"bad log format", Config{LogFormat: "xml"}, "log_format"},
		{"bad port", Config{Port: 70000}, "port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{
		ResumeStoreURL: "http://custom:1",
		Port:           0,
	}

	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "http://custom:1", merged.ResumeStoreURL)
	assert.Equal(t, ".", merged.OutputDir)
	assert.Equal(t, "120s", merged.RequestTimeout)
	assert.Equal(t, 8080, merged.Port)
	assert.Empty(t, merged.TrackerURL)
	// original is untouched
	assert.Empty(t, cfg.OutputDir)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvTrackerURL: "http://tracker:9000",
		EnvAuthKey:    "from-env",
	}
	cfg := Config{TrackerURL: "http://file", AuthKey: "from-file", LogLevel: "warn"}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "http://tracker:9000", cfg.TrackerURL)
	assert.Equal(t, "from-env", cfg.AuthKey)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_LayersFileEnvDefaults(t *testing.T) {
	t.Setenv(EnvResumeStoreURL, "http://env-store:8000")
	t.Setenv(EnvTrackerURL, "")
	t.Setenv(EnvAuthKey, "")
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvLogLevel, "")
	path := writeConfig(t, "config.json", `{"resume_store_url": "http://file-store:8000", "output_dir": "docs"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env-store:8000", cfg.ResumeStoreURL)
	assert.Equal(t, "docs", cfg.OutputDir)
	assert.Equal(t, time.Second, cfg.Tick())
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{"port": -5}`)
	_, err := Load(path)
	assert.Error(t, err)
}
