// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package monitor

import (
	"time"

	"github.com/schuellerf/dpm-monitor/dpm8600"
)

// Record is the structured result of one completed polling cycle, handed
// to every emitter. Field set matches the CSV log of the monitor.
type Record struct {
	Timestamp   time.Time     // wall clock time of the cycle
	SessionTime time.Duration // elapsed since session start

	Voltage float64 // V
	Current float64 // A
	Power   float64 // W, Voltage * Current

	IntervalEnergy float64 // Wh accrued during the last interval
	EnergySum      float64 // Wh, interval-integrated
	EnergyGross    float64 // Wh, mean-based estimate

	VoltageLimit float64 // V
	CurrentLimit float64 // A
	TargetWatts  float64 // W

	OutputOn bool
	Mode     dpm8600.RegulationMode

	Comment string
}

// Emitter consumes one record per completed cycle. Implementations own
// durability (CSV file, MQTT broker); the loop only logs their failures
// and carries on.
type Emitter interface {
	Emit(Record) error
	Close() error
}
