package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "env: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, ":80", cfg.HTTP.Address)
	assert.Equal(t, "sim", cfg.Sonar.Driver)
	assert.Equal(t, 300, cfg.Sonar.MaxDistanceCM)
	assert.Equal(t, 50*time.Millisecond, cfg.Sonar.Settle)
	assert.Equal(t, time.Second, cfg.Cycle.Interval)
	assert.Equal(t, 50.0, cfg.Thresholds.Low)
	assert.Equal(t, 75.0, cfg.Thresholds.Mid)
	assert.Equal(t, 90.0, cfg.Thresholds.High)
	assert.Equal(t, "log", cfg.Indicators.Driver)
	assert.Equal(t, 16, cfg.Display.Width)
	assert.False(t, cfg.Uplink.Enabled)
	assert.Equal(t, 5, cfg.Uplink.Retry.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
sonar:
  driver: remote
  url: http://sensor.local/ping
cycle:
  interval: 250ms
thresholds:
  low: 20
  mid: 40
  high: 60
uplink:
  enabled: true
  driver: mqtt
  url: tcp://broker:1883
`))
	require.NoError(t, err)

	assert.Equal(t, "remote", cfg.Sonar.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Cycle.Interval)
	assert.Equal(t, 40.0, cfg.Thresholds.Mid)
	assert.Equal(t, "mqtt", cfg.Uplink.Driver)
	assert.Equal(t, "levelmon/readings", cfg.Uplink.Topic)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("SONAR_DRIVER", "iio")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "env: test\n"))
	require.NoError(t, err)
	assert.Equal(t, "iio", cfg.Sonar.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromConfigPathEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "env: from-env\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Env)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "nope.yaml")) })
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown sonar", "sonar:\n  driver: laser\n"},
		{"remote without url", "sonar:\n  driver: remote\n"},
		{"unknown indicators", "indicators:\n  driver: neon\n"},
		{"uplink without url", "uplink:\n  enabled: true\n"},
		{"unknown uplink", "uplink:\n  enabled: true\n  driver: kafka\n  url: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
