package logging

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

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("dropped")
	logger.Warn("unstable request", "model", "MCPCI", "rho", 1.2)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "info must be filtered at warn level")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "unstable request", rec["msg"])
	assert.Equal(t, "MCPCI", rec["model"])
	assert.Equal(t, 1.2, rec["rho"])
}

func TestNew_TextToFile(t *testing.T) {
	var console bytes.Buffer
	base := filepath.Join(t.TempDir(), "logs", "queuelaw.log")

	logger, closer, err := New(Options{Level: "info", File: base, Output: &console})
	require.NoError(t, err)

	logger.Info("server started", "addr", ":8080")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "server started")

	data, err := os.ReadFile(base) // follows the symlink
	require.NoError(t, err)
	assert.Contains(t, string(data), "addr=:8080")
}

func TestNew_ReportsLogFile(t *testing.T) {
	var console bytes.Buffer
	base := filepath.Join(t.TempDir(), "queuelaw.log")

	_, closer, err := New(Options{Level: "debug", Format: "json", File: base, Output: &console})
	require.NoError(t, err)
	defer closer.Close()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(console.Bytes()), &rec))
	assert.Equal(t, "writing log file", rec["msg"])
	assert.Equal(t, closer.(*RotatingWriter).Current(), rec["path"])
	assert.Contains(t, rec["path"], "queuelaw-")
}

func TestNew_Errors(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, _, err = New(Options{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestRotatingWriter_SizeAndDay(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "calc.log")

	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := &RotatingWriter{BasePath: base, MaxBytes: 10, now: func() time.Time { return day }}
	require.NoError(t, w.rotate(0))
	t.Cleanup(func() { _ = w.Close() })

	_, err := w.Write([]byte("12345678"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "calc-2026-03-01.log"), w.Current())

	_, err = w.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "calc-2026-03-01-2.log"), w.Current())

	day = day.Add(24 * time.Hour)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "calc-2026-03-02.log"), w.Current())

	target, err := os.Readlink(base)
	require.NoError(t, err)
	assert.Equal(t, "calc-2026-03-02.log", target)
}

func TestNewRotatingWriter_Dash(t *testing.T) {
	w, err := NewRotatingWriter("-", 0)
	require.NoError(t, err)
	n, err := w.Write([]byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, w.Close())
}
