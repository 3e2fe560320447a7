package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func levelPtr(l zapcore.Level) *zapcore.Level { return &l }

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		json    bool
		wantErr bool
		enabled zapcore.Level
		skipped *zapcore.Level
	}{
		{name: "json info", level: "info", json: true, enabled: zapcore.InfoLevel, skipped: levelPtr(zapcore.DebugLevel)},
		{name: "console debug", level: "debug", enabled: zapcore.DebugLevel},
		{name: "warn hides info", level: "warn", json: true, enabled: zapcore.WarnLevel, skipped: levelPtr(zapcore.InfoLevel)},
		{name: "unknown level", level: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, tt.json)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger.Check(tt.enabled, "probe"))
			if tt.skipped != nil {
				assert.Nil(t, logger.Check(*tt.skipped, "probe"))
			}
		})
	}
}

func TestNop(t *testing.T) {
	assert.Nil(t, Nop().Check(zapcore.ErrorLevel, "probe"))
}
