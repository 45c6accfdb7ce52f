// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package dpm8600

import (
	"fmt"
	"math"
	"strconv"
)

// ReadFunction selects a read operation of the DPM-8600 simple protocol.
// Function codes are scoped per direction: read code 10 and write code 10
// are different operations, the direction marker in the frame decides.
type ReadFunction int

const (
	ReadMaxOutputVoltage ReadFunction = 0  // V/100
	ReadMaxOutputCurrent ReadFunction = 1  // mA; 5A -> DPM-8605, ...
	ReadVoltageSetting   ReadFunction = 10 // send 0 to get response
	ReadCurrentSetting   ReadFunction = 11 // send 0 to get response
	ReadOutputStatus     ReadFunction = 12 // output off (0), output on (1)
	ReadOutputVoltage    ReadFunction = 30 // V/100, send 0 to get response
	ReadOutputCurrent    ReadFunction = 31 // mA, send 0 to get response
	ReadOutputType       ReadFunction = 32 // ConstantVoltage (CV) = 0, ConstantCurrent (CC) = 1
	ReadTemperature      ReadFunction = 33 // degrees Celsius
)

// WriteFunction selects a write operation of the DPM-8600 simple protocol.
type WriteFunction int

const (
	WriteVoltageLimit           WriteFunction = 10 // V/100
	WriteCurrentLimit           WriteFunction = 11 // mA
	WriteOutputStatus           WriteFunction = 12 // output off (0), output on (1)
	WriteVoltageAndCurrentLimit WriteFunction = 20 // V/100, mA
)

// Code returns the numeric function code as sent on the wire.
func (f ReadFunction) Code() int { return int(f) }

// Code returns the numeric function code as sent on the wire.
func (f WriteFunction) Code() int { return int(f) }

// Scale maps a raw wire operand to the engineering value for this function.
// Voltage-carrying functions are scaled by 1/100, current-carrying ones by
// 1/1000. Temperature, status and regulation type pass through unscaled.
func (f ReadFunction) Scale(raw int) float64 {
	switch f {
	case ReadMaxOutputVoltage, ReadVoltageSetting, ReadOutputVoltage:
		return float64(raw) / 100
	case ReadMaxOutputCurrent, ReadCurrentSetting, ReadOutputCurrent:
		return float64(raw) / 1000
	default:
		return float64(raw)
	}
}

// Pack converts engineering values to wire operands for this function,
// applying the truncating (not rounding) fixed-point scaling the device
// expects. Values whose scaled form does not fit an unsigned 16-bit
// operand are rejected with ErrOperandRange before anything is sent.
func (f WriteFunction) Pack(vals []float64) ([]string, error) {
	scale := func(v, factor float64) (string, error) {
		scaled := math.Trunc(v * factor)
		if scaled < 0 || scaled > maxOperand {
			return "", fmt.Errorf("%w: %v scaled to %v", ErrOperandRange, v, scaled)
		}
		return strconv.Itoa(int(scaled)), nil
	}

	switch f {
	case WriteVoltageLimit:
		if len(vals) != 1 {
			return nil, fmt.Errorf("%w: want 1 operand, got %d", ErrOperandRange, len(vals))
		}
		op, err := scale(vals[0], 100)
		if err != nil {
			return nil, err
		}
		return []string{op}, nil

	case WriteCurrentLimit:
		if len(vals) != 1 {
			return nil, fmt.Errorf("%w: want 1 operand, got %d", ErrOperandRange, len(vals))
		}
		op, err := scale(vals[0], 1000)
		if err != nil {
			return nil, err
		}
		return []string{op}, nil

	case WriteOutputStatus:
		if len(vals) != 1 {
			return nil, fmt.Errorf("%w: want 1 operand, got %d", ErrOperandRange, len(vals))
		}
		if vals[0] != 0 {
			return []string{"1"}, nil
		}
		return []string{"0"}, nil

	case WriteVoltageAndCurrentLimit:
		if len(vals) != 2 {
			return nil, fmt.Errorf("%w: want 2 operands, got %d", ErrOperandRange, len(vals))
		}
		v, err := scale(vals[0], 100)
		if err != nil {
			return nil, err
		}
		a, err := scale(vals[1], 1000)
		if err != nil {
			return nil, err
		}
		return []string{v, a}, nil

	default:
		return nil, fmt.Errorf("%w: unknown write function %d", ErrOperandRange, int(f))
	}
}

// RegulationMode is the regulation type the supply reports while the
// output is on.
type RegulationMode int

const (
	ModeCV RegulationMode = iota // constant voltage
	ModeCC                       // constant current
)

func (m RegulationMode) String() string {
	if m == ModeCC {
		return "CC"
	}
	return "CV"
}
