// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package dpm8600

import (
	"errors"
	"time"

	"go.bug.st/serial"
)

// Constants defining default values and ranges for DPM-8600 parameters.
const (
	// Default serial parameters of the DPM-8600 series
	DefaultBaudRate = 9600
	DefaultDataBits = 8

	// Default timeout waiting for a response line from the device
	DefaultReadTimeout = 5 * time.Second
	ReadTimeoutMin     = 100 * time.Millisecond
	ReadTimeoutMax     = 60 * time.Second

	// Default address code on the RS485 bus
	DefaultAddressCode = 1
)

// Config defines a DPM-8600 client configuration.
type Config struct {
	// Serial port settings
	Serial SerialConfig

	// AddressCode of the device on the bus, formatted as two zero-padded
	// digits in every frame. Range [1, 99].
	AddressCode int
}

// Valid applies defaults and checks configuration validity.
func (sf *Config) Valid() error {
	if sf == nil {
		return errors.New("invalid nil config")
	}

	if sf.Serial.Address == "" {
		return errors.New("serial address (port name) must be configured")
	}
	if sf.Serial.BaudRate == 0 {
		sf.Serial.BaudRate = DefaultBaudRate
	} else if sf.Serial.BaudRate < 0 {
		return errors.New("serial baud rate must be positive")
	}
	if sf.Serial.DataBits == 0 {
		sf.Serial.DataBits = DefaultDataBits
	}

	if sf.Serial.Timeout == 0 {
		sf.Serial.Timeout = DefaultReadTimeout
	} else if sf.Serial.Timeout < ReadTimeoutMin || sf.Serial.Timeout > ReadTimeoutMax {
		return errors.New("read timeout out of range [100ms, 60s]")
	}

	if sf.AddressCode == 0 {
		sf.AddressCode = DefaultAddressCode
	} else if sf.AddressCode < AddressCodeMin || sf.AddressCode > AddressCodeMax {
		return ErrBadAddress
	}

	return nil
}

// DefaultConfig provides a default DPM-8600 configuration.
// NOTE: SerialConfig.Address needs to be set explicitly.
func DefaultConfig() Config {
	return Config{
		Serial: SerialConfig{
			BaudRate: DefaultBaudRate,
			DataBits: DefaultDataBits,
			StopBits: serial.OneStopBit,
			Parity:   serial.NoParity,
			Timeout:  DefaultReadTimeout,
		},
		AddressCode: DefaultAddressCode,
	}
}
