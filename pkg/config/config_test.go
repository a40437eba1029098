package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 3*time.Second, cfg.Timing.Settle)
	assert.Equal(t, time.Second, cfg.Timing.ReadTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Timing.ProbeTimeout)
	assert.Equal(t, 4, cfg.Frame.Offset)
	assert.Equal(t, 9, cfg.Frame.Length)
	assert.True(t, cfg.Frame.Verify)
	assert.Equal(t, 500*time.Millisecond, cfg.Acquisition.Interval)
	assert.Equal(t, 0, cfg.Acquisition.AverageSamples)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "g", cfg.Mock.Unit)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB0"
  baud_rate: 19200

timing:
  settle: 1500ms
  read_timeout: 2s
  probe_timeout: 50ms

frame:
  offset: 4
  length: 8
  verify: false

acquisition:
  interval: 250ms
  buffer_size: 10
  average_samples: 5

log:
  level: debug
  format: json
  output: file
  file:
    path: /tmp/kern
    filename: scale.log

mock:
  weight: 42.5
  period: 20ms
  baud_rate: 4800
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 19200, cfg.Serial.BaudRate)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timing.Settle)
	assert.Equal(t, 2*time.Second, cfg.Timing.ReadTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Timing.ProbeTimeout)
	assert.Equal(t, 8, cfg.Frame.Length)
	assert.False(t, cfg.Frame.Verify)
	assert.Equal(t, 250*time.Millisecond, cfg.Acquisition.Interval)
	assert.Equal(t, 10, cfg.Acquisition.BufferSize)
	assert.Equal(t, 5, cfg.Acquisition.AverageSamples)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/kern", cfg.Log.File.Path)
	assert.Equal(t, 42.5, cfg.Mock.Weight)
	assert.Equal(t, 20*time.Millisecond, cfg.Mock.Period)
	assert.Equal(t, 4800, cfg.Mock.BaudRate)
	assert.Equal(t, "g", cfg.Mock.Unit) // default
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB1"
timing:
  settle: 0s
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Port)
	assert.Equal(t, time.Duration(0), cfg.Timing.Settle) // explicit zero kept

	// Should use defaults for missing fields
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, time.Second, cfg.Timing.ReadTimeout)
	assert.Equal(t, 9, cfg.Frame.Length)
	assert.Equal(t, 500*time.Millisecond, cfg.Acquisition.Interval)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Serial.BaudRate = 2400
	cfg.Acquisition.AverageSamples = 3

	filename := filepath.Join(t.TempDir(), "saved.yaml")

	err := cfg.Save(filename)
	require.NoError(t, err)

	loaded, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, 2400, loaded.Serial.BaudRate)
	assert.Equal(t, 3, loaded.Acquisition.AverageSamples)
	assert.Equal(t, cfg.Timing, loaded.Timing)
}
