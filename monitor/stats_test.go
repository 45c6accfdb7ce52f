// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package monitor

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSessionFirstSampleContributesNothing(t *testing.T) {
	var s Session
	wh := s.Add(14.0, 4.0, 0, 0)
	if wh != 0 {
		t.Fatalf("first interval contributed %v Wh, want 0", wh)
	}
	if s.EnergySum() != 0 || s.EnergyGross() != 0 {
		t.Fatalf("sums after first sample: %v, %v", s.EnergySum(), s.EnergyGross())
	}
}

func TestSessionIntervalEnergy(t *testing.T) {
	var s Session
	// 56 W over one hour is 56 Wh.
	s.Add(14.0, 4.0, 3600, 3600)
	if !almostEqual(s.EnergySum(), 56.0) {
		t.Fatalf("got %v Wh, want 56", s.EnergySum())
	}
}

func TestSessionRechunkingAssociative(t *testing.T) {
	// Constant power: two consecutive sub-intervals sum to the combined
	// interval.
	var split, whole Session
	split.Add(14.0, 4.0, 600, 600)
	split.Add(14.0, 4.0, 900, 1500)
	whole.Add(14.0, 4.0, 1500, 1500)
	if !almostEqual(split.EnergySum(), whole.EnergySum()) {
		t.Fatalf("split %v Wh != whole %v Wh", split.EnergySum(), whole.EnergySum())
	}
}

func TestSessionGrossAllIdle(t *testing.T) {
	// Only zero-current samples: the mean path must stay at zero and
	// never divide by zero.
	var s Session
	for i := 1; i <= 10; i++ {
		s.Add(14.0, 0, 1, float64(i))
	}
	if s.EnergyGross() != 0 {
		t.Fatalf("gross energy %v, want 0", s.EnergyGross())
	}
	if s.Samples() != 10 {
		t.Fatalf("samples %d, want 10", s.Samples())
	}
}

func TestSessionGrossConstantLoad(t *testing.T) {
	// Constant 14 V / 4 A for an hour: both estimates agree at 56 Wh.
	var s Session
	for i := 1; i <= 3600; i++ {
		s.Add(14.0, 4.0, 1, float64(i))
	}
	if !almostEqual(s.EnergySum(), 56.0) {
		t.Fatalf("interval sum %v Wh, want 56", s.EnergySum())
	}
	if !almostEqual(s.EnergyGross(), 56.0) {
		t.Fatalf("gross %v Wh, want 56", s.EnergyGross())
	}
}

func TestSessionIdleSamplesDiluteGross(t *testing.T) {
	// Idle samples count toward the gross session length but not the
	// means, while the interval sum accrues nothing for them.
	var s Session
	s.Add(14.0, 4.0, 1800, 1800)
	s.Add(0, 0, 1800, 3600)
	if !almostEqual(s.EnergySum(), 28.0) {
		t.Fatalf("interval sum %v Wh, want 28", s.EnergySum())
	}
	// Gross still reflects the last active recomputation at t=1800s.
	if !almostEqual(s.EnergyGross(), 28.0) {
		t.Fatalf("gross %v Wh, want 28", s.EnergyGross())
	}
	s.Add(14.0, 4.0, 1800, 5400)
	// Means now diluted by the idle sample: (28/3)*(8/3)*1.5 h.
	want := (28.0 / 3) * (8.0 / 3) * 5400 / 3600
	if !almostEqual(s.EnergyGross(), want) {
		t.Fatalf("gross %v Wh, want %v", s.EnergyGross(), want)
	}
}
