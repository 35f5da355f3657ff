package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultsFillZeroFields(t *testing.T) {
	opts := Options{MaxBackups: 3}.withDefaults()
	assert.Equal(t, "logs", opts.Dir)
	assert.Equal(t, "chb-api.log", opts.Filename)
	assert.Equal(t, 3, opts.MaxBackups)
	assert.Positive(t, opts.MaxSizeMB)
	assert.Positive(t, opts.MaxAgeDays)
}

func TestPrepareLogFileRelativeDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	path, err := prepareLogFile("logs", "api.log")
	require.NoError(t, err)

	realTmp, err := filepath.EvalSymlinks(tmpDir)
	require.NoError(t, err)
	realDir, err := filepath.EvalSymlinks(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(realTmp, "logs"), realDir)
	assert.Equal(t, "api.log", filepath.Base(path))
}

func TestReleaseWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	log := New("release", Options{Dir: dir, Filename: "release.log"})
	log.Info("reservation_confirmed", zap.Uint("reservation_id", 7))
	log.Debug("hidden_at_info")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(dir, "release.log"))
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, `"event":"reservation_confirmed"`)
	assert.Contains(t, text, `"service":"chb-api"`)
	assert.NotContains(t, text, "hidden_at_info")
}

func TestConfiguredLevelOverridesMode(t *testing.T) {
	dir := t.TempDir()
	log := New("release", Options{Dir: dir, Filename: "warn.log", Level: "warn"})
	log.Info("info_dropped")
	log.Warn("warn_kept")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(dir, "warn.log"))
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(content), "info_dropped"))
	assert.True(t, strings.Contains(string(content), "warn_kept"))
}

func TestDebugModeSkipsFile(t *testing.T) {
	dir := t.TempDir()
	log := New("debug", Options{Dir: dir, Filename: "debug.log"})
	log.Info("console_only")
	_ = log.Sync()

	_, err := os.Stat(filepath.Join(dir, "debug.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestUninitializedLoggerIsUsable(t *testing.T) {
	saved := L
	L = nil
	t.Cleanup(func() { L = saved })

	require.NotNil(t, Z())
	require.NotNil(t, StdLogger())
	SW("reservation_id", 42).Infow("bootstrap_logger_test")
}
