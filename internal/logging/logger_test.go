package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "quiz-live", "production")

	logger.Info().Str("room_id", "123456").Msg("room created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "quiz-live", line["app"])
	assert.Equal(t, "123456", line["room_id"])
	assert.Equal(t, "room created", line["message"])
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "quiz-live", "production")

	ctx := IntoContext(context.Background(), logger)
	ctxLogger := FromContext(ctx)
	ctxLogger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")

	buf.Reset()
	nopLogger := FromContext(context.Background())
	nopLogger.Info().Msg("dropped")
	assert.Empty(t, buf.String())
}
