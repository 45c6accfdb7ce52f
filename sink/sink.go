// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package sink holds the emitters that persist or publish the records the
// monitor produces: an append-mode CSV log, a per-field MQTT publisher and
// a human-readable console line.
package sink

import (
	"strconv"

	"github.com/schuellerf/dpm-monitor/monitor"
)

// realtimeLayout is the timestamp format of the realtime CSV column.
const realtimeLayout = "2006-01-02 15:04:05.000000"

type field struct {
	name  string
	value string
}

// fields flattens a record into the named per-field set shared by the CSV
// header/rows and the MQTT topics. Order is fixed and matches the CSV log
// layout of earlier sessions, so appending to an existing file stays
// consistent.
func fields(r monitor.Record) []field {
	state := "OFF"
	if r.OutputOn {
		state = "ON"
	}
	return []field{
		{"timestamp", strconv.FormatInt(r.Timestamp.UnixMicro(), 10)},
		{"session_time", r.SessionTime.String()},
		{"realtime", r.Timestamp.Format(realtimeLayout)},
		{"V", formatFloat(r.Voltage)},
		{"A", formatFloat(r.Current)},
		{"W", formatFloat(r.Power)},
		{"Wh", formatFloat(r.IntervalEnergy)},
		{"Wh Sum", formatFloat(r.EnergySum)},
		{"Wh Gross", formatFloat(r.EnergyGross)},
		{"Vmax", formatFloat(r.VoltageLimit)},
		{"Amax", formatFloat(r.CurrentLimit)},
		{"Wmax", formatFloat(r.TargetWatts)},
		{"OutputState", state},
		{"ConstVolt_ConstCurr", r.Mode.String()},
		{"comment", r.Comment},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
