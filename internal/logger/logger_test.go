package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONToFile(t *testing.T) {
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		_ = Setup(DefaultConfig())
	})

	path := filepath.Join(t.TempDir(), "ebilling.log")
	require.NoError(t, Setup(LogConfig{Level: "debug", Format: "json", Output: path}))

	log := WithBill("pdf", "b42")
	log.Debug().Msg("rendered")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "pdf", entry["component"])
	assert.Equal(t, "b42", entry["bill_id"])
	assert.Equal(t, "rendered", entry["message"])
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetup_BadLevel(t *testing.T) {
	err := Setup(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
