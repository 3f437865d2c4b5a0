package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		level zapcore.Level
	}{
		{"quiet by default", false, zapcore.WarnLevel},
		{"verbose enables debug", true, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.debug)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.level))
			assert.False(t, log.Core().Enabled(tt.level-1))
		})
	}
}

func TestNewWithFile(t *testing.T) {
	t.Run("empty path keeps console only", func(t *testing.T) {
		log, err := NewWithFile(false, "")
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("file receives debug entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "git-sync.log")
		log, err := NewWithFile(false, path)
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

		log.Debug("planned sync", zap.String("host", "alice@box"))
		_ = log.Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"planned sync"`)
		assert.Contains(t, string(content), `"host":"alice@box"`)
	})
}

func TestRotatingFile(t *testing.T) {
	lj := RotatingFile("/tmp/git-sync.log")
	assert.Equal(t, "/tmp/git-sync.log", lj.Filename)
	assert.Equal(t, 1, lj.MaxSize)
	assert.Equal(t, 2, lj.MaxBackups)
}
