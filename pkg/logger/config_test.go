package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/watchstate/pkg/interfaces"
)

func TestBuild_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchstate.log")
	cfg := DefaultConfig()
	cfg.OutputPath = path
	cfg.InitialFields = map[string]interface{}{"service": "watchstate"}

	log, err := cfg.Build()
	require.NoError(t, err)

	log.WithFields(interfaces.String("profile_id", "p1")).Info("Favorite added",
		interfaces.Int64("show_id", 7),
		interfaces.Error(errors.New("ignored")))
	log.Debug("below the configured level")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Favorite added", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "watchstate", entry["service"])
	assert.Equal(t, "p1", entry["profile_id"])
	assert.Equal(t, float64(7), entry["show_id"])
	assert.Equal(t, "ignored", entry["error"])
}

func TestBuild_UnknownLevelFallsBackToInfo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "verbose"
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.log")

	log, err := NewFromConfig(cfg)
	require.NoError(t, err)
	log.Debug("hidden")
	log.Warn("shown")
	_ = log.Sync()

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}
