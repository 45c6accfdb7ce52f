// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package monitor drives a DPM-8600 polling session: it samples the
// supply on a fixed grid, accumulates energy statistics, adjusts the
// current limit to hold a power target and hands each cycle to the
// configured emitters.
package monitor

// Session accumulates the energy statistics of one monitoring session.
// Two independent estimates are kept because downstream consumers rely on
// either: the interval sum integrates power over each polling interval,
// the gross estimate multiplies mean voltage by mean current over the
// whole session. Pure accumulation, no I/O.
type Session struct {
	samples int
	voltSum float64
	ampSum  float64
	whSum   float64
	whGross float64
}

// Add folds one sample into the running statistics and returns the energy
// contribution (Wh) of this interval. interval and total are seconds since
// the previous sample and since session start. A zero interval (first
// sample) contributes zero energy.
//
// Samples with zero voltage or current count toward the session length of
// the gross estimate but not toward its means; the interval sum still
// accrues their (near-zero) energy.
func (sf *Session) Add(volts, amps, interval, total float64) float64 {
	wh := volts * amps * interval / 3600
	sf.whSum += wh

	sf.samples++
	if volts > 0 && amps > 0 {
		sf.voltSum += volts
		sf.ampSum += amps
		n := float64(sf.samples)
		sf.whGross = (sf.voltSum / n) * (sf.ampSum / n) * total / 3600
	}
	return wh
}

// Samples returns the number of samples folded in so far.
func (sf *Session) Samples() int { return sf.samples }

// EnergySum returns the interval-integrated energy in Wh.
func (sf *Session) EnergySum() float64 { return sf.whSum }

// EnergyGross returns the mean-based energy estimate in Wh.
func (sf *Session) EnergyGross() float64 { return sf.whGross }
