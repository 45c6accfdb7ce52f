// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package config loads the application configuration from an optional
// YAML file, on top of built-in defaults. Command line flags override
// both.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Monitor MonitorConfig `yaml:"monitor"`
	Output  OutputConfig  `yaml:"output"`
	Verbose bool          `yaml:"verbose"`
}

// Duration wraps time.Duration so YAML values like "500ms" or "5s" decode.
// Bare integers are taken as nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DeviceConfig describes the serial connection to the supply.
type DeviceConfig struct {
	Interface   string   `yaml:"interface"`
	BaudRate    int      `yaml:"baud_rate"`
	AddressCode int      `yaml:"address_code"`
	ReadTimeout Duration `yaml:"read_timeout"`
}

// MonitorConfig describes the polling session.
type MonitorConfig struct {
	Delay        Duration `yaml:"delay"`
	MaxWatt      int      `yaml:"max_watt"`
	VoltageLimit float64  `yaml:"voltage_limit"`
	Comment      string   `yaml:"comment"`
}

// OutputConfig describes where records go.
type OutputConfig struct {
	CSVPath    string `yaml:"csv_path"`
	MQTTServer string `yaml:"mqtt_server"`
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Interface:   DefaultInterface(),
			BaudRate:    9600,
			AddressCode: 1,
			ReadTimeout: Duration(5 * time.Second),
		},
		Monitor: MonitorConfig{
			Delay:        Duration(time.Second),
			MaxWatt:      50,
			VoltageLimit: 14.5,
		},
		Output: OutputConfig{
			CSVPath: "power_log.csv",
		},
	}
}

// DefaultInterface picks the usual serial device path for the platform.
func DefaultInterface() string {
	if runtime.GOOS == "windows" {
		return "COM1"
	}
	return "/dev/ttyUSB0"
}
