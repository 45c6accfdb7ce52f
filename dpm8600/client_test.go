// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package dpm8600

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

// fakeTransport scripts the device side of the line.
type fakeTransport struct {
	written []string
	lines   []string
	drains  int
	closed  bool
}

func (sf *fakeTransport) WriteFrame(p []byte) error {
	sf.written = append(sf.written, string(p))
	return nil
}

func (sf *fakeTransport) ReadLine() (string, error) {
	if len(sf.lines) == 0 {
		return "", nil // read timeout: nothing arrived
	}
	line := sf.lines[0]
	sf.lines = sf.lines[1:]
	return line, nil
}

func (sf *fakeTransport) Drain() error {
	sf.drains++
	return nil
}

func (sf *fakeTransport) Close() error {
	sf.closed = true
	return nil
}

func newTestClient(lines ...string) (*Client, *fakeTransport) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	tr := &fakeTransport{lines: lines}
	return NewClient(tr, NewOption().SetLogger(quiet)), tr
}

func TestClientGetVoltage(t *testing.T) {
	c, tr := newTestClient(":01r30=1402,\r\n")
	v, err := c.GetVoltage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 14.02 {
		t.Fatalf("got %v V, want 14.02", v)
	}
	if len(tr.written) != 1 || tr.written[0] != ":01r30=0,\r\n" {
		t.Fatalf("unexpected request: %q", tr.written)
	}
}

func TestClientGetReadings(t *testing.T) {
	c, _ := newTestClient(
		":01r31=3571,\r\n",
		":01r12=1,\r\n",
		":01r32=1,\r\n",
		":01r33=31,\r\n",
		":01r10=1450,\r\n",
		":01r11=5000,\r\n",
	)

	a, err := c.GetCurrent()
	if err != nil || a != 3.571 {
		t.Fatalf("current: got %v, %v", a, err)
	}
	on, err := c.GetOutputStatus()
	if err != nil || !on {
		t.Fatalf("status: got %v, %v", on, err)
	}
	mode, err := c.GetOutputType()
	if err != nil || mode != ModeCC {
		t.Fatalf("type: got %v, %v", mode, err)
	}
	temp, err := c.GetTemperature()
	if err != nil || temp != 31 {
		t.Fatalf("temperature: got %v, %v", temp, err)
	}
	vlim, err := c.GetVoltageLimit()
	if err != nil || vlim != 14.5 {
		t.Fatalf("voltage limit: got %v, %v", vlim, err)
	}
	alim, err := c.GetCurrentLimit()
	if err != nil || alim != 5.0 {
		t.Fatalf("current limit: got %v, %v", alim, err)
	}
}

func TestClientMismatchDrains(t *testing.T) {
	// Response for another function code means the line is desynchronized.
	c, tr := newTestClient(":01r31=3571,\r\n")
	_, err := c.GetVoltage()
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("got %v, want ErrMismatch", err)
	}
	if tr.drains != 1 {
		t.Fatalf("input not drained after mismatch (%d drains)", tr.drains)
	}
}

func TestClientTruncatedResponse(t *testing.T) {
	c, tr := newTestClient(":01r30=14")
	_, err := c.GetVoltage()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if tr.drains != 1 {
		t.Fatalf("input not drained after timeout (%d drains)", tr.drains)
	}
}

func TestClientMalformedResponse(t *testing.T) {
	c, tr := newTestClient("voltage is fine\r\n")
	_, err := c.GetVoltage()
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("got %v, want ErrMalformed", err)
	}
	if tr.drains != 1 {
		t.Fatalf("input not drained after malformed frame (%d drains)", tr.drains)
	}
}

func TestClientAckForReadIsMismatch(t *testing.T) {
	c, _ := newTestClient(":01ok\r\n")
	if _, err := c.GetVoltage(); !errors.Is(err, ErrMismatch) {
		t.Fatalf("got %v, want ErrMismatch", err)
	}
}

func TestClientSetCurrentLimitConsumesAck(t *testing.T) {
	c, tr := newTestClient(":01ok\r\n")
	if err := c.SetCurrentLimit(3.571); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tr.written) != 1 || tr.written[0] != ":01w11=3571,\r\n" {
		t.Fatalf("unexpected request: %q", tr.written)
	}
	if len(tr.lines) != 0 {
		t.Fatal("acknowledgement line was not consumed")
	}
}

func TestClientSetVoltageLimit(t *testing.T) {
	c, tr := newTestClient(":01ok\r\n")
	if err := c.SetVoltageLimit(14.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.written[0] != ":01w10=1450,\r\n" {
		t.Fatalf("unexpected request: %q", tr.written)
	}
}

func TestClientSetOutput(t *testing.T) {
	c, tr := newTestClient(":01ok\r\n", ":01ok\r\n")
	if err := c.SetOutput(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.SetOutput(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.written[0] != ":01w12=1,\r\n" || tr.written[1] != ":01w12=0,\r\n" {
		t.Fatalf("unexpected requests: %q", tr.written)
	}
}

func TestClientSetVoltageAndCurrentLimitFireAndForget(t *testing.T) {
	// Function 20 gets no acknowledgement; the client must not read one.
	c, tr := newTestClient(":01r30=1402,\r\n")
	if err := c.SetVoltageAndCurrentLimit(14.5, 5.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.written[0] != ":01w20=1450,5000,\r\n" {
		t.Fatalf("unexpected request: %q", tr.written)
	}
	if len(tr.lines) != 1 {
		t.Fatal("fire-and-forget write consumed a response line")
	}
}

func TestClientClose(t *testing.T) {
	c, tr := newTestClient()
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tr.closed {
		t.Fatal("transport not closed")
	}
	if _, err := c.GetVoltage(); !errors.Is(err, ErrUseClosedPort) {
		t.Fatalf("got %v, want ErrUseClosedPort", err)
	}
	if err := c.Close(); !errors.Is(err, ErrUseClosedPort) {
		t.Fatalf("second close: got %v, want ErrUseClosedPort", err)
	}
}
