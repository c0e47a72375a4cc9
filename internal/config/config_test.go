package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv clears key for the test; t.Setenv restores it afterwards, which
// also undoes what godotenv wrote.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 64, cfg.MaxSessions)
	assert.Equal(t, 10.0, cfg.DeformationScale)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Origins())
	assert.Equal(t, []string{"localhost:5173", "localhost:3000"}, cfg.OriginPatterns())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MAX_SESSIONS=3\nLOG_FORMAT=json\n"), 0o644))
	t.Setenv("PORT", "9090")
	unsetenv(t, "MAX_SESSIONS")
	unsetenv(t, "LOG_FORMAT")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3, cfg.MaxSessions)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"MAX_SESSIONS", "0"},
		{"DEFORMATION_SCALE", "-1"},
		{"SURFACE_WIDTH", "0"},
		{"LOG_LEVEL", "chatty"},
		{"LOG_FORMAT", "xml"},
		{"PORT", "eighty"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestOriginsWildcard(t *testing.T) {
	cfg := &Config{AllowedOrigins: " * , https://truss.example "}
	assert.Equal(t, []string{"*", "https://truss.example"}, cfg.Origins())
	assert.Equal(t, []string{"*", "truss.example"}, cfg.OriginPatterns())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelError))
}
