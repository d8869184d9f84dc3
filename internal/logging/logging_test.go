package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", NewDefaultConfig(), false},
		{"json debug", Config{Level: "debug", Format: "json"}, false},
		{"bad level", Config{Level: "loud", Format: "console"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Format: "json"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept", zap.Int("track", 2))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(2), entry["track"])
	assert.Contains(t, entry, "ts")
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Level: "nope", Format: "console"}, nil)
	assert.Error(t, err)
}
