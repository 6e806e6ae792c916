package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.Info().Str("source", "pdf").Int("count", 3).Msg("parsed statement")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "parsed statement", entry["message"])
	assert.Equal(t, "pdf", entry["source"])
	assert.EqualValues(t, 3, entry["count"])
	assert.Contains(t, entry, "time")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("chatty"))
}

func TestNew_Level(t *testing.T) {
	log := New(Options{Level: "error", Format: "json"})
	assert.Equal(t, zerolog.ErrorLevel, log.GetLevel())
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), log)
	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("from context")
	assert.Contains(t, buf.String(), "from context")

	// No logger in context: nothing is written anywhere
	assert.Equal(t, zerolog.Disabled, FromContext(context.Background()).GetLevel())
}
