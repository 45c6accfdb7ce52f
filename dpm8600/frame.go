// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package dpm8600

import (
	"fmt"
	"strconv"
	"strings"
)

// DPM-8600 "simple protocol" frame format constants
const (
	// StartChar is the start character for frames in either direction
	StartChar byte = ':'
	// MarkRead and MarkWrite select the function code namespace
	MarkRead  byte = 'r'
	MarkWrite byte = 'w'
	// Terminator closes every frame; a line without it is truncated
	Terminator = "\r\n"
	// AckLine is the acknowledgement the device sends after most writes.
	// Not documented in the vendor protocol description, but real devices
	// send it and it must be consumed to keep request/response pairing.
	AckLine = ":01ok"

	// Largest value an operand field can carry
	maxOperand = 0xFFFF

	// Address codes are formatted as two zero-padded digits
	AddressCodeMin = 1
	AddressCodeMax = 99
)

// Frame is one decoded response line.
type Frame struct {
	Addr     int
	Dir      byte // MarkRead or MarkWrite, as echoed by the device
	Code     int
	Operands []int
	Ack      bool // true for the AckLine success sentinel, all other fields zero
}

// EncodeFrame builds the wire form of one request:
// ':' + 2-digit address + direction + 2-digit function code + '=' +
// comma-joined operands + trailing comma + CRLF. The trailing comma is a
// wire-format requirement of the device, not cosmetic.
func EncodeFrame(addr int, dir byte, code int, operands []string) ([]byte, error) {
	if addr < AddressCodeMin || addr > AddressCodeMax {
		return nil, fmt.Errorf("%w: %d", ErrBadAddress, addr)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%c%02d%c%02d=", StartChar, addr, dir, code)
	for _, op := range operands {
		b.WriteString(op)
		b.WriteByte(',')
	}
	b.WriteString(Terminator)
	return []byte(b.String()), nil
}

// ParseFrame validates one received line against the frame grammar.
// A line without the exact CRLF terminator is reported as ErrTimeout (the
// read gave up mid-frame), anything terminated but not matching the
// grammar as ErrMalformed. Validation is all-or-nothing: no partially
// parsed frame is ever returned.
func ParseFrame(line string) (*Frame, error) {
	if !strings.HasSuffix(line, Terminator) {
		return nil, fmt.Errorf("%w: got %q", ErrTimeout, line)
	}
	body := strings.TrimSuffix(line, Terminator)

	if strings.TrimSpace(body) == AckLine {
		return &Frame{Ack: true}, nil
	}

	if len(body) < 2 || body[0] != StartChar {
		return nil, fmt.Errorf("%w: missing start character in %q", ErrMalformed, line)
	}
	rest := body[1:]

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(rest) {
		return nil, fmt.Errorf("%w: bad address in %q", ErrMalformed, line)
	}
	addr, err := strconv.Atoi(rest[:i])
	if err != nil || addr <= 0 {
		return nil, fmt.Errorf("%w: bad address in %q", ErrMalformed, line)
	}

	dir := rest[i]
	if dir != MarkRead && dir != MarkWrite {
		return nil, fmt.Errorf("%w: bad direction marker %q in %q", ErrMalformed, dir, line)
	}
	rest = rest[i+1:]

	eq := strings.IndexByte(rest, '=')
	if eq <= 0 {
		return nil, fmt.Errorf("%w: missing '=' in %q", ErrMalformed, line)
	}
	code, err := strconv.Atoi(rest[:eq])
	if err != nil {
		return nil, fmt.Errorf("%w: bad function code in %q", ErrMalformed, line)
	}

	opsField := strings.TrimSuffix(rest[eq+1:], ",")
	if opsField == "" {
		return nil, fmt.Errorf("%w: no operands in %q", ErrMalformed, line)
	}
	parts := strings.Split(opsField, ",")
	operands := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: bad operand %q in %q", ErrMalformed, p, line)
		}
		operands = append(operands, v)
	}

	return &Frame{
		Addr:     addr,
		Dir:      dir,
		Code:     code,
		Operands: operands,
	}, nil
}
