package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestWithRunAttachesRunID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	ctx := WithRun(context.Background())
	id := RunID(ctx)
	require.Len(t, id, 8)
	assert.Equal(t, ctx, WithRun(ctx), "existing run id is kept")

	Ctx(ctx).Info().Int("epoch", 10).Msg("training")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, id, entry["run_id"])
	assert.Equal(t, "training", entry["message"])
	assert.EqualValues(t, 10, entry["epoch"])
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Ctx(context.Background()).Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	Ctx(context.Background()).Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}
