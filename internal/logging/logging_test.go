package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("json", "info", &buf)
	log.Debug("hidden")
	log.Info("exam created", "exam_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "exam created", line["msg"])
	assert.Equal(t, 7.0, line["exam_id"])
}

func TestColorHandler_KeepsAttrsAndGroups(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	log := New("text", "debug", &buf).With("component", "grading").WithGroup("attempt")
	log.Debug("graded", "score", 2)

	out := buf.String()
	assert.Contains(t, out, "DEBUG: graded")
	assert.Contains(t, out, " component=grading")
	assert.Contains(t, out, "attempt.score=2")
}

func TestColorHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewColorHandler(&buf, slog.LevelWarn))
	log.Info("quiet")
	assert.Empty(t, buf.String())
	log.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}
