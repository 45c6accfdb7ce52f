// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/schuellerf/dpm-monitor/monitor"
)

// CSVWriter appends one row per cycle to a CSV log file. The file is
// opened in append mode; the header is written only when the file is
// empty, so sessions can be concatenated into one log.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens (or creates) the log file at path.
func NewCSVWriter(path string) (*CSVWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening csv log %s: %w", path, err)
	}
	sf := &CSVWriter{
		file:   file,
		writer: csv.NewWriter(file),
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat csv log %s: %w", path, err)
	}
	if info.Size() == 0 {
		header := make([]string, 0, 16)
		for _, f := range fields(monitor.Record{}) {
			header = append(header, f.name)
		}
		if err := sf.writer.Write(header); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("writing csv header: %w", err)
		}
		sf.writer.Flush()
		if err := sf.writer.Error(); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("writing csv header: %w", err)
		}
	}
	return sf, nil
}

// Emit appends one record as a CSV row.
func (sf *CSVWriter) Emit(r monitor.Record) error {
	row := make([]string, 0, 16)
	for _, f := range fields(r) {
		row = append(row, f.value)
	}
	if err := sf.writer.Write(row); err != nil {
		return err
	}
	sf.writer.Flush()
	return sf.writer.Error()
}

// Close flushes and closes the log file.
func (sf *CSVWriter) Close() error {
	sf.writer.Flush()
	if err := sf.writer.Error(); err != nil {
		_ = sf.file.Close()
		return err
	}
	return sf.file.Close()
}
