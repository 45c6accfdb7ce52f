// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package dpm8600

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Client talks to one DPM-8600 series supply over its line-oriented
// "simple protocol". The line is half-duplex: every request is followed by
// exactly one response (writes included, the device sends an undocumented
// ack), and the client never has more than one request outstanding. A
// mutex serializes callers so each request/response pair stays intact.
type Client struct {
	option    ClientOption
	transport Transport

	mu  sync.Mutex
	log *logrus.Entry
}

// Connect opens the configured serial port, clears any stale input and
// returns a ready client. A failed open is the only fatal condition of the
// protocol engine; everything later is recoverable per request.
func Connect(o *ClientOption) (*Client, error) {
	opt := *o
	if err := opt.config.Valid(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	transport, err := NewSerialTransport(opt.config.Serial)
	if err != nil {
		return nil, err
	}
	c := NewClient(transport, &opt)
	c.log.Debug("initially clearing input buffer")
	if err := transport.Drain(); err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("clearing input buffer: %w", err)
	}
	return c, nil
}

// NewClient wraps an already open transport. The client takes ownership of
// the transport and closes it on Close.
func NewClient(transport Transport, o *ClientOption) *Client {
	opt := *o
	if err := opt.config.Valid(); err != nil {
		opt.config = DefaultConfig()
	}
	if opt.logger == nil {
		opt.logger = logrus.StandardLogger()
	}
	return &Client{
		option:    opt,
		transport: transport,
		log:       opt.logger.WithField("device", opt.config.Serial.Address),
	}
}

// Close releases the serial port.
func (sf *Client) Close() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.transport == nil {
		return ErrUseClosedPort
	}
	err := sf.transport.Close()
	sf.transport = nil
	return err
}

// send encodes and writes one request frame.
func (sf *Client) send(dir byte, code int, operands []string) error {
	if sf.transport == nil {
		return ErrUseClosedPort
	}
	raw, err := EncodeFrame(sf.option.config.AddressCode, dir, code, operands)
	if err != nil {
		return err
	}
	sf.log.Debugf("out >%s<", strings.TrimRight(string(raw), Terminator))
	return sf.transport.WriteFrame(raw)
}

// receive reads and validates the response to the request with the given
// function code. On any fault the input buffer is drained so the next
// request starts on a clean line.
func (sf *Client) receive(code int) (*Frame, error) {
	line, err := sf.transport.ReadLine()
	if err != nil {
		return nil, err
	}
	sf.log.Debugf("in >%s<", strings.TrimRight(line, Terminator))

	frame, err := ParseFrame(line)
	if err != nil {
		sf.log.Warnf("%v, clearing input", err)
		if derr := sf.transport.Drain(); derr != nil {
			sf.log.Warnf("drain failed: %v", derr)
		}
		return nil, err
	}
	if frame.Ack {
		return frame, nil
	}
	if frame.Code != code {
		sf.log.Warnf("wrong answer, got function %d expected %d, clearing input", frame.Code, code)
		if derr := sf.transport.Drain(); derr != nil {
			sf.log.Warnf("drain failed: %v", derr)
		}
		return nil, fmt.Errorf("%w: got %d, want %d", ErrMismatch, frame.Code, code)
	}
	return frame, nil
}

// read issues one read request and returns the raw operand.
func (sf *Client) read(f ReadFunction) (int, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if err := sf.send(MarkRead, f.Code(), []string{"0"}); err != nil {
		return 0, err
	}
	frame, err := sf.receive(f.Code())
	if err != nil {
		return 0, err
	}
	if frame.Ack {
		// An ack is only a valid answer to a write.
		return 0, fmt.Errorf("%w: got ack for read function %d", ErrMismatch, f.Code())
	}
	return frame.Operands[0], nil
}

// write issues one write request and consumes the device's acknowledgement.
// Skipping that read would desynchronize every following request.
func (sf *Client) write(f WriteFunction, vals ...float64) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	operands, err := f.Pack(vals)
	if err != nil {
		return err
	}
	if err := sf.send(MarkWrite, f.Code(), operands); err != nil {
		return err
	}
	_, err = sf.receive(f.Code())
	return err
}

// GetMaxOutputVoltage reads the hardware voltage ceiling in volts.
func (sf *Client) GetMaxOutputVoltage() (float64, error) {
	raw, err := sf.read(ReadMaxOutputVoltage)
	if err != nil {
		return 0, err
	}
	return ReadMaxOutputVoltage.Scale(raw), nil
}

// GetMaxOutputCurrent reads the hardware current ceiling in amps. The
// value identifies the model (5 A -> DPM-8605, ...).
func (sf *Client) GetMaxOutputCurrent() (float64, error) {
	raw, err := sf.read(ReadMaxOutputCurrent)
	if err != nil {
		return 0, err
	}
	return ReadMaxOutputCurrent.Scale(raw), nil
}

// GetVoltage reads the live output voltage in volts.
func (sf *Client) GetVoltage() (float64, error) {
	raw, err := sf.read(ReadOutputVoltage)
	if err != nil {
		return 0, err
	}
	return ReadOutputVoltage.Scale(raw), nil
}

// GetCurrent reads the live output current in amps.
func (sf *Client) GetCurrent() (float64, error) {
	raw, err := sf.read(ReadOutputCurrent)
	if err != nil {
		return 0, err
	}
	return ReadOutputCurrent.Scale(raw), nil
}

// GetOutputStatus reads whether the output is switched on.
func (sf *Client) GetOutputStatus() (bool, error) {
	raw, err := sf.read(ReadOutputStatus)
	if err != nil {
		return false, err
	}
	return raw != 0, nil
}

// GetOutputType reads the regulation mode (CV or CC).
func (sf *Client) GetOutputType() (RegulationMode, error) {
	raw, err := sf.read(ReadOutputType)
	if err != nil {
		return ModeCV, err
	}
	if raw == 0 {
		return ModeCV, nil
	}
	return ModeCC, nil
}

// GetTemperature reads the device temperature in degrees Celsius.
func (sf *Client) GetTemperature() (float64, error) {
	raw, err := sf.read(ReadTemperature)
	if err != nil {
		return 0, err
	}
	return ReadTemperature.Scale(raw), nil
}

// GetVoltageLimit reads the configured voltage limit in volts.
func (sf *Client) GetVoltageLimit() (float64, error) {
	raw, err := sf.read(ReadVoltageSetting)
	if err != nil {
		return 0, err
	}
	return ReadVoltageSetting.Scale(raw), nil
}

// GetCurrentLimit reads the configured current limit in amps.
func (sf *Client) GetCurrentLimit() (float64, error) {
	raw, err := sf.read(ReadCurrentSetting)
	if err != nil {
		return 0, err
	}
	return ReadCurrentSetting.Scale(raw), nil
}

// SetVoltageLimit sets the output voltage limit in volts.
func (sf *Client) SetVoltageLimit(v float64) error {
	return sf.write(WriteVoltageLimit, v)
}

// SetCurrentLimit sets the output current limit in amps.
func (sf *Client) SetCurrentLimit(a float64) error {
	return sf.write(WriteCurrentLimit, a)
}

// SetOutput switches the output on or off.
func (sf *Client) SetOutput(on bool) error {
	val := 0.0
	if on {
		val = 1
	}
	return sf.write(WriteOutputStatus, val)
}

// SetVoltageAndCurrentLimit sets both limits in one request. Unlike the
// other writes the device sends no acknowledgement for function 20, so
// this is fire-and-forget.
func (sf *Client) SetVoltageAndCurrentLimit(v, a float64) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	operands, err := WriteVoltageAndCurrentLimit.Pack([]float64{v, a})
	if err != nil {
		return err
	}
	return sf.send(MarkWrite, WriteVoltageAndCurrentLimit.Code(), operands)
}
