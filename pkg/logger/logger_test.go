package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{zl: zerolog.New(&buf)}

	l.With(String("stage", "regime")).Warn("unit skipped",
		String("symbol", "BTC/USD"),
		Int("bars", 12),
		Float64("adx", 27.5),
		Duration("took", 1500*time.Millisecond),
		Error(errors.New("insufficient data")),
	)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "regime", got["stage"])
	assert.Equal(t, "BTC/USD", got["symbol"])
	assert.Equal(t, float64(12), got["bars"])
	assert.Equal(t, 27.5, got["adx"])
	assert.Equal(t, float64(1500), got["took"])
	assert.Equal(t, "insufficient data", got["error"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "chatty", Output: "stdout"})
	assert.Error(t, err)
}
