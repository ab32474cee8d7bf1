package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/lmittmann/tint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestSetupWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "seat-monitor.log")

	logger, closer, err := Setup(path, "info", true)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("checking course", "course", "CSE 572")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "checking course")
	assert.Contains(t, string(data), "CSE 572")
	assert.NotContains(t, string(data), "hidden")
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := NewMultiHandler(
		tint.NewHandler(&debugBuf, &tint.Options{Level: slog.LevelDebug, NoColor: true}),
		tint.NewHandler(&warnBuf, &tint.Options{Level: slog.LevelWarn, NoColor: true}),
	)
	logger := slog.New(h).With("course", "CSE 578")

	logger.Info("section seats")
	logger.Warn("no classes found")

	assert.Contains(t, debugBuf.String(), "section seats")
	assert.Contains(t, debugBuf.String(), "no classes found")
	assert.NotContains(t, warnBuf.String(), "section seats")
	assert.Contains(t, warnBuf.String(), "no classes found")
	assert.Contains(t, warnBuf.String(), "CSE 578")
}
