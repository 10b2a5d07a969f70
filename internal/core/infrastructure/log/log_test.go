package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logconfig "github.com/weisyn/assemble-go/internal/config/log"
)

func TestNew_FileOutput(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "assemble.log")

	logger, err := New(logconfig.New(&logconfig.LogOptions{
		Level:      DebugLevel,
		FilePath:   logPath,
		ToConsole:  false,
		SplitFiles: false,
	}))
	require.NoError(t, err)

	logger.Debug("调试日志")
	logger.With("event_id", "42", "tier", 2).Info("结构化日志")
	logger.Warnf("警告 %d", 7)
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "结构化日志", entry["message"])
	assert.Equal(t, "42", entry["event_id"])
	assert.Equal(t, float64(2), entry["tier"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_SplitFiles(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(logconfig.New(&logconfig.LogOptions{
		Level:      InfoLevel,
		FilePath:   filepath.Join(dir, "assemble.log"),
		SplitFiles: true,
	}))
	require.NoError(t, err)

	WithModule(logger, "transport").Info("rpc call")
	WithModule(logger, "assemble.events").Info("event created")
	require.NoError(t, logger.Sync())

	rpc, err := os.ReadFile(filepath.Join(dir, "assemble-rpc.log"))
	require.NoError(t, err)
	sdk, err := os.ReadFile(filepath.Join(dir, "assemble-sdk.log"))
	require.NoError(t, err)

	assert.Contains(t, string(rpc), "rpc call")
	assert.NotContains(t, string(rpc), "event created")
	assert.Contains(t, string(sdk), "event created")
}

func TestNew_LevelFilter(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "assemble.log")

	logger, err := New(logconfig.New(&logconfig.LogOptions{Level: "WARN", FilePath: logPath}))
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Error("shown")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "hidden")
	assert.Contains(t, string(content), "shown")
}

func TestNew_NoOutputsIsNop(t *testing.T) {
	logger, err := New(logconfig.New(&logconfig.LogOptions{Level: InfoLevel}))
	require.NoError(t, err)
	logger.Info("discarded")
	assert.NotNil(t, logger.GetZapLogger())
}

func TestGlobalLogger(t *testing.T) {
	old := GetLogger()
	defer SetLogger(old)

	nop := NewNop()
	SetLogger(nop)
	assert.Same(t, nop, GetLogger())
	assert.Same(t, nop, OrDefault(nil))

	SetLogger(nil)
	assert.Same(t, nop, GetLogger())

	Infof("不会输出 %s", "x")
	assert.NotNil(t, With("k", "v"))
}

func TestToZapFields_DropsDanglingKey(t *testing.T) {
	fields := toZapFields("a", 1, "b")
	require.Len(t, fields, 1)
	assert.Equal(t, "a", fields[0].Key)
}
