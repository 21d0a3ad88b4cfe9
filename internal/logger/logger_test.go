package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledDiscards(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: false, Stderr: &out}))
	Info("should not appear")
	assert.Empty(t, out.String())
}

func TestInit_TextToWriter(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Level: slog.LevelInfo, Stderr: &out}))
	defer Init(Options{})

	Debug("hidden")
	Info("materialized", "addr", "0x1000")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "msg=materialized")
	assert.Contains(t, out.String(), "addr=0x1000")
}

func TestInit_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, JSON: true, Level: slog.LevelDebug, Stderr: &out}))
	defer Init(Options{})

	Warn("fault", "code", 4)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "fault", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
}

func TestInit_FileAndRetention(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, logPrefix+time.Now().AddDate(0, 0, -(retentionDays+5)).Format("2006-01-02")+logSuffix)
	require.NoError(t, os.WriteFile(stale, []byte("old\n"), 0o644))
	other := filepath.Join(dir, "unrelated.log")
	require.NoError(t, os.WriteFile(other, nil, 0o644))

	require.NoError(t, Init(Options{Enabled: true, Dir: dir}))
	defer Init(Options{})
	Error("boom")

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale log should be removed")
	_, err = os.Stat(other)
	assert.NoError(t, err, "unrelated files are kept")

	today := filepath.Join(dir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
	data, err := os.ReadFile(today)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=boom")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
