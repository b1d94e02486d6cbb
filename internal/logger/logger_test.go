package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json", "storefront")

	log.Debug().Int64("order_id", 7).Msg("order created")

	var entry map[string]interface{}
	assert.NilError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, entry["service"], "storefront")
	assert.Equal(t, entry["level"], "debug")
	assert.Equal(t, entry["order_id"], float64(7))
	assert.Check(t, is.Contains(entry, "time"))
}

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := NewWithWriter(&bytes.Buffer{}, tt.level, "json", "svc")
			assert.Equal(t, log.GetLevel(), tt.want)
		})
	}
}

func TestNewWithWriter_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json", "svc")

	log.Info().Msg("dropped")
	assert.Equal(t, buf.Len(), 0)

	log.Warn().Msg("kept")
	assert.Check(t, is.Contains(buf.String(), "kept"))
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "console", "svc")

	log.Info().Msg("hello")
	out := buf.String()
	assert.Check(t, is.Contains(out, "hello"))
	assert.Check(t, !strings.HasPrefix(out, "{"))
}
