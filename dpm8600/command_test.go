// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package dpm8600

import (
	"errors"
	"reflect"
	"testing"
)

func TestWriteFunctionPack(t *testing.T) {
	tests := []struct {
		name string
		f    WriteFunction
		vals []float64
		want []string
	}{
		{"voltage limit scales by 100", WriteVoltageLimit, []float64{14.5}, []string{"1450"}},
		{"voltage truncates, not rounds", WriteVoltageLimit, []float64{14.999}, []string{"1499"}},
		{"current limit scales by 1000", WriteCurrentLimit, []float64{3.571}, []string{"3571"}},
		{"current truncates", WriteCurrentLimit, []float64{3.5719}, []string{"3571"}},
		{"output on", WriteOutputStatus, []float64{1}, []string{"1"}},
		{"output off", WriteOutputStatus, []float64{0}, []string{"0"}},
		{"combined limit", WriteVoltageAndCurrentLimit, []float64{14.5, 5.0}, []string{"1450", "5000"}},
	}
	for _, tst := range tests {
		got, err := tst.f.Pack(tst.vals)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tst.name, err)
		}
		if !reflect.DeepEqual(got, tst.want) {
			t.Fatalf("%s: got %v, want %v", tst.name, got, tst.want)
		}
	}
}

func TestWriteFunctionPackRange(t *testing.T) {
	tests := []struct {
		name string
		f    WriteFunction
		vals []float64
	}{
		{"negative voltage", WriteVoltageLimit, []float64{-0.5}},
		{"voltage too large", WriteVoltageLimit, []float64{656.0}},
		{"current too large", WriteCurrentLimit, []float64{66.0}},
		{"wrong arity", WriteVoltageLimit, []float64{1, 2}},
		{"combined wrong arity", WriteVoltageAndCurrentLimit, []float64{14.5}},
	}
	for _, tst := range tests {
		if _, err := tst.f.Pack(tst.vals); !errors.Is(err, ErrOperandRange) {
			t.Fatalf("%s: got %v, want ErrOperandRange", tst.name, err)
		}
	}
}

func TestReadFunctionScale(t *testing.T) {
	tests := []struct {
		f    ReadFunction
		raw  int
		want float64
	}{
		{ReadOutputVoltage, 1402, 14.02},
		{ReadVoltageSetting, 1450, 14.5},
		{ReadMaxOutputVoltage, 6000, 60.0},
		{ReadOutputCurrent, 3571, 3.571},
		{ReadCurrentSetting, 5000, 5.0},
		{ReadMaxOutputCurrent, 5000, 5.0},
		{ReadTemperature, 31, 31},
		{ReadOutputStatus, 1, 1},
		{ReadOutputType, 0, 0},
	}
	for _, tst := range tests {
		if got := tst.f.Scale(tst.raw); got != tst.want {
			t.Fatalf("function %d raw %d: got %v, want %v", tst.f.Code(), tst.raw, got, tst.want)
		}
	}
}

func TestRegulationModeString(t *testing.T) {
	if ModeCV.String() != "CV" || ModeCC.String() != "CC" {
		t.Fatalf("unexpected mode strings: %s, %s", ModeCV, ModeCC)
	}
}
