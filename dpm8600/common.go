// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package dpm8600

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// SerialConfig holds serial port configuration parameters.
type SerialConfig struct {
	// Address is the serial port address (e.g., "COM3" on Windows, "/dev/ttyUSB0" on Linux).
	Address string
	// BaudRate is the serial port speed (e.g., 9600, 19200, 115200).
	BaudRate int
	// DataBits is the number of data bits (usually 8).
	DataBits int
	// StopBits specifies the number of stop bits. Use serial.OneStopBit or serial.TwoStopBits.
	StopBits serial.StopBits
	// Parity specifies the parity mode. Use serial.NoParity, serial.OddParity, serial.EvenParity.
	Parity serial.Parity
	// Timeout specifies the read timeout for the serial port.
	Timeout time.Duration
}

// Transport is a duplex line channel to the device. Implementations are
// not safe for concurrent use; the Client serializes access and never has
// more than one request outstanding (half-duplex line).
type Transport interface {
	// WriteFrame writes one complete request frame.
	WriteFrame(p []byte) error
	// ReadLine reads until the CRLF terminator or the read timeout.
	// On timeout it returns whatever arrived so far with a nil error;
	// the missing terminator is detected by ParseFrame.
	ReadLine() (string, error)
	// Drain discards any buffered input, resynchronizing the line.
	Drain() error
	Close() error
}

// openSerialPort opens and configures the port described by cfg.
func openSerialPort(cfg SerialConfig) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
	}
	port, err := serial.Open(cfg.Address, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", cfg.Address, err)
	}
	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("setting read timeout on %s: %w", cfg.Address, err)
	}
	return port, nil
}

// serialTransport adapts a serial.Port to the Transport interface.
type serialTransport struct {
	port serial.Port
}

// NewSerialTransport opens the configured serial port and wraps it as a
// Transport.
func NewSerialTransport(cfg SerialConfig) (Transport, error) {
	port, err := openSerialPort(cfg)
	if err != nil {
		return nil, err
	}
	return &serialTransport{port: port}, nil
}

func (sf *serialTransport) WriteFrame(p []byte) error {
	if sf.port == nil {
		return ErrUseClosedPort
	}
	for len(p) > 0 {
		n, err := sf.port.Write(p)
		if err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		p = p[n:]
	}
	return nil
}

func (sf *serialTransport) ReadLine() (string, error) {
	if sf.port == nil {
		return "", ErrUseClosedPort
	}
	var b strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := sf.port.Read(buf)
		if err != nil {
			return b.String(), fmt.Errorf("serial read: %w", err)
		}
		if n == 0 { // read timeout expired
			return b.String(), nil
		}
		b.WriteByte(buf[0])
		if buf[0] == '\n' && strings.HasSuffix(b.String(), Terminator) {
			return b.String(), nil
		}
	}
}

func (sf *serialTransport) Drain() error {
	if sf.port == nil {
		return ErrUseClosedPort
	}
	return sf.port.ResetInputBuffer()
}

func (sf *serialTransport) Close() error {
	if sf.port == nil {
		return ErrUseClosedPort
	}
	err := sf.port.Close()
	sf.port = nil
	return err
}
