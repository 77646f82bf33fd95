package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestFieldsPairsKeysAndValues(t *testing.T) {
	got := fields([]interface{}{"session", "s-1", "error", errors.New("boom"), "dangling"})

	assert.Len(t, got, 2)
	assert.Equal(t, "session", got[0].Key)
	assert.Equal(t, "error", got[1].Key)
	assert.Equal(t, zapcore.ErrorType, got[1].Type)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop().With("component", "test")
	assert.NotPanics(t, func() {
		l.Info("hello", "n", 1)
		l.Sync()
	})
}
