// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package monitor

import (
	"sync/atomic"
)

// Target wattage bounds and step size for runtime adjustment.
const (
	WattLowerLimit = 5
	WattUpperLimit = 300
	WattStep       = 5
)

// TargetWatts is the power target shared between the control loop and an
// asynchronous input listener. The loop reads it every cycle while the
// listener may adjust it at any time, so access is atomic.
type TargetWatts struct {
	watts atomic.Int64
}

// NewTargetWatts returns a target clamped into [WattLowerLimit, WattUpperLimit].
func NewTargetWatts(w int) *TargetWatts {
	if w < WattLowerLimit {
		w = WattLowerLimit
	}
	if w > WattUpperLimit {
		w = WattUpperLimit
	}
	t := &TargetWatts{}
	t.watts.Store(int64(w))
	return t
}

// Get returns the current target in watts.
func (sf *TargetWatts) Get() float64 {
	return float64(sf.watts.Load())
}

// Raise increases the target by one step unless already at the upper bound.
// It returns the resulting target.
func (sf *TargetWatts) Raise() int {
	return sf.step(WattStep)
}

// Lower decreases the target by one step unless already at the lower bound.
// It returns the resulting target.
func (sf *TargetWatts) Lower() int {
	return sf.step(-WattStep)
}

func (sf *TargetWatts) step(delta int64) int {
	for {
		old := sf.watts.Load()
		next := old + delta
		if next < WattLowerLimit || next > WattUpperLimit {
			return int(old)
		}
		if sf.watts.CompareAndSwap(old, next) {
			return int(next)
		}
	}
}
