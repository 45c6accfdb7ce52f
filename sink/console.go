// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package sink

import (
	"fmt"
	"io"

	"github.com/schuellerf/dpm-monitor/monitor"
)

// Console prints one human-readable line per cycle.
type Console struct {
	w io.Writer
}

// NewConsole writes cycle lines to w (usually os.Stdout).
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Emit prints the cycle summary line.
func (sf *Console) Emit(r monitor.Record) error {
	state := "OFF"
	if r.OutputOn {
		state = "ON"
	}
	_, err := fmt.Fprintf(sf.w,
		"[%s / %s] %.2f/%.2f V, %.3f/%.3f A, %.3f/%.3f W, %.3f Wh, %.3f Wh_gross, %s, %s\n",
		r.Timestamp.Format(realtimeLayout), r.SessionTime,
		r.Voltage, r.VoltageLimit,
		r.Current, r.CurrentLimit,
		r.Power, r.TargetWatts,
		r.EnergySum, r.EnergyGross,
		state, r.Mode)
	return err
}

// Close is a no-op; the writer is owned by the caller.
func (sf *Console) Close() error { return nil }
