package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_Console(t *testing.T) {
	err := Initialize(false)
	require.NoError(t, err)
	require.NotNil(t, Logger)
	assert.False(t, JSONOutput)

	// Must not panic
	Infow("console logger ready", FieldSource, "test")
}

func TestInitialize_JSON(t *testing.T) {
	err := Initialize(true)
	require.NoError(t, err)
	require.NotNil(t, Logger)
	assert.True(t, JSONOutput)

	Infow("json logger ready", FieldSource, "test")
}

func TestWrappers_SafeBeforeInitialize(t *testing.T) {
	// The package-level wrappers must be safe with the init() no-op logger.
	saved := Logger
	defer func() { Logger = saved }()

	Infow("no-op")
	Warnw("no-op")
	Errorw("no-op")
	Debugw("no-op")
	Infof("no-op %d", 1)
	Cleanup()
}
