package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitSetsLevel(t *testing.T) {
	require.NoError(t, Init(Config{Level: "error"}))
	assert.False(t, L().Core().Enabled(zapcore.InfoLevel))

	require.NoError(t, Init(Config{Level: "debug"}))
	assert.True(t, L().Core().Enabled(zapcore.DebugLevel))
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init(Config{Level: "chatty"}))
	assert.True(t, L().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, L().Core().Enabled(zapcore.DebugLevel))
}

func TestLoggerUsableWithoutInit(t *testing.T) {
	globalLogger = nil
	assert.NotNil(t, L())
	assert.NotPanics(t, func() { Debug("message before init") })
}
