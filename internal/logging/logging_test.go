package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_ProductionWritesJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer
	logger := NewWithWriter(EnvProduction, &buf)

	logger.Debug().Msg("hidden")
	trackerLog := Component(logger, "tracker")
	trackerLog.Info().Str("render_id", "r-1").Msg("checked")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "checked", entry["message"])
	assert.Equal(t, "tracker", entry["component"])
	assert.Equal(t, "reel-studio", entry["service"])
	assert.Equal(t, "r-1", entry["render_id"])
}

func TestNewWithWriter_DevelopmentLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	logger := NewWithWriter(EnvDevelopment, &bytes.Buffer{})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestNewWithWriter_LevelOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	logger := NewWithWriter(EnvProduction, &bytes.Buffer{})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestComponent_KeepsParentFields(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer
	parent := NewWithWriter(EnvProduction, &buf).With().Str("request_id", "req-7").Logger()

	child := Component(parent, "pipeline")
	child.Warn().Msg("stage failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, "warn", entry["level"])
}
