package utils

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Gkemhcs/slidebox/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		wantLevel logrus.Level
	}{
		{name: "development logs debug", env: "development", wantLevel: logrus.DebugLevel},
		{name: "production logs info", env: "production", wantLevel: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(&config.Config{Env: tt.env})
			assert.Equal(t, tt.wantLevel, log.GetLevel())

			var buf bytes.Buffer
			log.SetOutput(&buf)
			log.WithField("provider", "dropbox").Warn("Could not start login")

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "slidebox", entry["service"])
			assert.Equal(t, tt.env, entry["env"])
			assert.Equal(t, "dropbox", entry["provider"])
			assert.Equal(t, "Could not start login", entry["msg"])
		})
	}
}

func TestDefaultFieldsDoNotOverride(t *testing.T) {
	log := New(&config.Config{Env: "production"})
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.WithField("service", "purger").Info("tick")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "purger", entry["service"])
}
