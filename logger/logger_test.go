package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLoggerWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, InitLogger(path, "info"))
	t.Cleanup(func() { Logger = zap.NewNop() })

	Logger.Debug("hidden")
	Logger.Info("visible")
	require.NoError(t, Logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Contains(t, entry, "time")
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	_, err := New("", "loud")
	require.Error(t, err)
}
