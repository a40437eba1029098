package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Timing      TimingConfig      `yaml:"timing"`
	Frame       FrameConfig       `yaml:"frame"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Log         LogConfig         `yaml:"log"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// TimingConfig contains the handshake and read timeouts.
type TimingConfig struct {
	Settle       time.Duration `yaml:"settle"`        // Wait after opening before the first probe
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Upper bound for receiving one frame
	ProbeTimeout time.Duration `yaml:"probe_timeout"` // Per-read timeout while draining the probe buffer
}

// FrameConfig describes where the measurement field sits in a frame.
type FrameConfig struct {
	Offset int  `yaml:"offset"`
	Length int  `yaml:"length"`
	Verify bool `yaml:"verify"` // Decode one full frame during the handshake
}

// AcquisitionConfig contains polling parameters.
type AcquisitionConfig struct {
	Interval       time.Duration `yaml:"interval"`
	BufferSize     int           `yaml:"buffer_size"`
	AverageSamples int           `yaml:"average_samples"` // Number of readings to average (0 = disabled, default)
}

// LogConfig contains logger configuration.
type LogConfig struct {
	Level  string        `yaml:"level"`  // debug, info, warn, error
	Format string        `yaml:"format"` // console or json
	Output string        `yaml:"output"` // stdout, stderr, file or both
	File   LogFileConfig `yaml:"file"`
}

// LogFileConfig contains rotated log file settings.
type LogFileConfig struct {
	Path       string `yaml:"path"`
	Filename   string `yaml:"filename"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxAge     int    `yaml:"max_age"`  // days
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// MockConfig contains simulated balance configuration.
type MockConfig struct {
	Weight     float64       `yaml:"weight"`      // Nominal load
	NoiseLevel float64       `yaml:"noise_level"` // Peak noise amplitude
	Period     time.Duration `yaml:"period"`      // Time between transmitted frames
	BaudRate   int           `yaml:"baud_rate"`   // Rate the simulated balance is set to
	Unit       string        `yaml:"unit"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyUSB0" on Linux
			BaudRate: 9600,
		},
		Timing: TimingConfig{
			Settle:       3 * time.Second,
			ReadTimeout:  time.Second,
			ProbeTimeout: 100 * time.Millisecond,
		},
		Frame: FrameConfig{
			Offset: 4,
			Length: 9,
			Verify: true,
		},
		Acquisition: AcquisitionConfig{
			Interval:       500 * time.Millisecond,
			BufferSize:     100,
			AverageSamples: 0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
			File: LogFileConfig{
				Path:       "logs",
				Filename:   "kernscale.log",
				MaxSize:    10,
				MaxAge:     30,
				MaxBackups: 5,
			},
		},
		Mock: MockConfig{
			Weight:     123.45,
			NoiseLevel: 0.002,
			Period:     100 * time.Millisecond,
			BaudRate:   9600,
			Unit:       "g",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
// Settle is left alone: zero is a valid settling window.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Timing.ReadTimeout == 0 {
		c.Timing.ReadTimeout = def.Timing.ReadTimeout
	}
	if c.Timing.ProbeTimeout == 0 {
		c.Timing.ProbeTimeout = def.Timing.ProbeTimeout
	}

	if c.Frame.Length == 0 {
		c.Frame.Offset = def.Frame.Offset
		c.Frame.Length = def.Frame.Length
	}

	if c.Acquisition.Interval == 0 {
		c.Acquisition.Interval = def.Acquisition.Interval
	}
	if c.Acquisition.BufferSize == 0 {
		c.Acquisition.BufferSize = def.Acquisition.BufferSize
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = def.Log.Output
	}
	if c.Log.File.Path == "" {
		c.Log.File.Path = def.Log.File.Path
	}
	if c.Log.File.Filename == "" {
		c.Log.File.Filename = def.Log.File.Filename
	}

	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
	if c.Mock.BaudRate == 0 {
		c.Mock.BaudRate = def.Mock.BaudRate
	}
	if c.Mock.Unit == "" {
		c.Mock.Unit = def.Mock.Unit
	}
}
