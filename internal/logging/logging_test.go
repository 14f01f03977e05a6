package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesPlainFileLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs", "r1")
	var console bytes.Buffer

	logger, closeFn, err := New(Options{RunDir: dir, Console: &console})
	require.NoError(t, err)

	logger.Debug("row \033[32mGREEN\033[0m")
	logger.Warn("portal breaker open")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(filepath.Join(dir, LogFile))
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, `"msg":"row GREEN"`)
	assert.Contains(t, content, "portal breaker open")
	assert.NotContains(t, content, "\033[")

	assert.Contains(t, console.String(), "portal breaker open")
	assert.NotContains(t, console.String(), "row")
}

func TestNewVerboseConsole(t *testing.T) {
	var console bytes.Buffer

	logger, closeFn, err := New(Options{Console: &console, Verbose: true})
	require.NoError(t, err)

	logger.Info("starting run")
	logger.Debug("row classified")
	require.NoError(t, closeFn())

	assert.True(t, strings.Contains(console.String(), "starting run"))
	assert.NotContains(t, console.String(), "row classified")
}

func TestNewNop(t *testing.T) {
	logger, closeFn, err := New(Options{})
	require.NoError(t, err)
	logger.Info("dropped")
	assert.NoError(t, closeFn())
}
