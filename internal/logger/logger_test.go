package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesPerLevelFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := New(dir)
	defer l.Close()

	l.Info("counted %d parts", 3)
	l.Warning("queue %s", "full")
	l.Error("sink failed: %v", os.ErrNotExist)

	info, err := os.ReadFile(filepath.Join(dir, InfoFile))
	require.NoError(t, err)
	assert.Contains(t, string(info), "counted 3 parts")

	warning, err := os.ReadFile(filepath.Join(dir, WarningFile))
	require.NoError(t, err)
	assert.Contains(t, string(warning), "queue full")
	assert.NotContains(t, string(warning), "counted")

	errLog, err := os.ReadFile(filepath.Join(dir, ErrorFile))
	require.NoError(t, err)
	assert.Contains(t, string(errLog), "sink failed")
	assert.Contains(t, string(errLog), "logger_test.go", "caller file should be reported, not the logger itself")
}

func TestLogger_CleanLogs(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	defer l.Close()

	l.Error("something broke")
	require.NoError(t, l.CleanLogs(ErrorFile))

	data, err := os.ReadFile(filepath.Join(dir, ErrorFile))
	require.NoError(t, err)
	assert.Empty(t, data)

	assert.Error(t, l.CleanLogs("missing.log"))
}
