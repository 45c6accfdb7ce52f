// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/schuellerf/dpm-monitor/dpm8600"
)

// Defaults for the loop configuration.
const (
	DefaultToleranceWatt = 1.0
	DefaultRetryBackoff  = 100 * time.Millisecond
)

// Device is the slice of the DPM-8600 client the loop needs. The loop owns
// the device for the duration of a session.
type Device interface {
	GetVoltage() (float64, error)
	GetCurrent() (float64, error)
	GetOutputStatus() (bool, error)
	GetOutputType() (dpm8600.RegulationMode, error)
	GetVoltageLimit() (float64, error)
	GetCurrentLimit() (float64, error)
	SetVoltageLimit(float64) error
	SetCurrentLimit(float64) error
}

// Config defines one monitoring session.
type Config struct {
	// Delay is the nominal polling interval. Cycle start times stay
	// aligned to a fixed grid from session start regardless of per-cycle
	// overhead.
	Delay time.Duration

	// VoltageLimit is written to the device once at session start.
	// Zero skips the write.
	VoltageLimit float64

	// ToleranceWatt is the hysteresis band around the target that keeps
	// the current-limit adjustment from oscillating.
	ToleranceWatt float64

	// RetryBackoff is slept after a failed voltage/current read before
	// the cycle is retried, so a dead line is not busy-polled.
	RetryBackoff time.Duration

	// Comment is carried verbatim into every record.
	Comment string
}

// Valid applies defaults and checks configuration validity.
func (sf *Config) Valid() error {
	if sf == nil {
		return errors.New("invalid nil config")
	}
	if sf.Delay <= 0 {
		return errors.New("polling delay must be positive")
	}
	if sf.ToleranceWatt == 0 {
		sf.ToleranceWatt = DefaultToleranceWatt
	} else if sf.ToleranceWatt < 0 {
		return errors.New("tolerance must not be negative")
	}
	if sf.RetryBackoff == 0 {
		sf.RetryBackoff = DefaultRetryBackoff
	} else if sf.RetryBackoff < 0 {
		return errors.New("retry backoff must not be negative")
	}
	return nil
}

// Monitor is the session driver: one logical thread polling the device,
// accumulating statistics and holding the power target.
type Monitor struct {
	cfg      Config
	dev      Device
	target   *TargetWatts
	emitters []Emitter
	session  Session
	log      *logrus.Entry
}

// New creates a monitor. target carries the runtime-adjustable power
// target; emitters receive one record per completed cycle.
func New(dev Device, cfg Config, target *TargetWatts, logger *logrus.Logger, emitters ...Emitter) (*Monitor, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Monitor{
		cfg:      cfg,
		dev:      dev,
		target:   target,
		emitters: emitters,
		log:      logger.WithField("component", "monitor"),
	}, nil
}

// Session exposes the accumulated statistics.
func (sf *Monitor) Session() *Session { return &sf.session }

// Run drives the polling loop until ctx is cancelled. Mid-session faults
// are recovered at the cycle level; Run only returns the context error.
func (sf *Monitor) Run(ctx context.Context) error {
	if sf.cfg.VoltageLimit > 0 {
		if err := sf.dev.SetVoltageLimit(sf.cfg.VoltageLimit); err != nil {
			sf.log.Warnf("setting initial voltage limit: %v", err)
		}
	}

	start := time.Now()
	prev := time.Duration(0)

	if !sleepCtx(ctx, sf.cfg.Delay) {
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		wall := time.Now()
		elapsed := wall.Sub(start) // monotonic
		interval := elapsed - prev
		prev = elapsed

		volts, errV := sf.dev.GetVoltage()
		amps, errA := sf.dev.GetCurrent()
		on, errOn := sf.dev.GetOutputStatus()
		mode, errMode := sf.dev.GetOutputType()
		vlim, errVlim := sf.dev.GetVoltageLimit()
		alim, errAlim := sf.dev.GetCurrentLimit()

		if errV != nil || errA != nil {
			sf.log.Warnf("skipping cycle, bad sample: voltage %v, current %v", errV, errA)
			if !sleepCtx(ctx, sf.cfg.RetryBackoff) {
				return ctx.Err()
			}
			continue
		}
		for _, err := range []error{errOn, errMode, errVlim, errAlim} {
			if err != nil {
				sf.log.Warnf("auxiliary read failed: %v", err)
			}
		}

		power := volts * amps
		wh := sf.session.Add(volts, amps, interval.Seconds(), elapsed.Seconds())
		target := sf.target.Get()

		rec := Record{
			Timestamp:      wall,
			SessionTime:    elapsed,
			Voltage:        volts,
			Current:        amps,
			Power:          power,
			IntervalEnergy: wh,
			EnergySum:      sf.session.EnergySum(),
			EnergyGross:    sf.session.EnergyGross(),
			VoltageLimit:   vlim,
			CurrentLimit:   alim,
			TargetWatts:    target,
			OutputOn:       on,
			Mode:           mode,
			Comment:        sf.cfg.Comment,
		}
		for _, e := range sf.emitters {
			if err := e.Emit(rec); err != nil {
				sf.log.Warnf("emitter failed: %v", err)
			}
		}

		if limit, ok := nextCurrentLimit(power, volts, target, sf.cfg.ToleranceWatt, on, mode); ok {
			sf.log.Infof("got %.3f W, want %.3f W, setting current limit to %.3f A", power, target, limit)
			if err := sf.dev.SetCurrentLimit(limit); err != nil {
				sf.log.Warnf("setting current limit: %v", err)
			}
		}

		if !sleepCtx(ctx, gridSleep(time.Since(start), sf.cfg.Delay)) {
			return ctx.Err()
		}
	}
}

// nextCurrentLimit stages the power-limiting adjustment for one cycle.
// Two checks run in fixed order and the second may overwrite the first
// (last write wins): lower the limit when delivered power exceeds
// target+tolerance, raise it when the supply is current-limited below
// target-tolerance. Both only apply while the output is on.
func nextCurrentLimit(power, volts, target, tolerance float64, on bool, mode dpm8600.RegulationMode) (float64, bool) {
	if !on || volts <= 0 {
		return 0, false
	}
	limit := 0.0
	staged := false
	if power > target+tolerance {
		limit = target / volts
		staged = true
	}
	if power < target-tolerance && mode == dpm8600.ModeCC {
		limit = target / volts
		staged = true
	}
	return limit, staged
}

// gridSleep returns the sleep needed to land the next cycle on the fixed
// grid: delay minus the session-elapsed remainder modulo delay.
func gridSleep(elapsed, delay time.Duration) time.Duration {
	return delay - elapsed%delay
}

// sleepCtx sleeps for d unless ctx is cancelled first. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
