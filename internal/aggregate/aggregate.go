// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package aggregate polls the GY-89 at a fixed cadence and publishes one
// averaged composite sample per output period.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_sensors/internal/env"
	"github.com/relabs-tech/flight_sensors/internal/imu"
	"github.com/relabs-tech/flight_sensors/internal/sensors"
)

var (
	// ErrAggregationAborted wraps the read failure that discarded a window.
	ErrAggregationAborted = errors.New("aggregation window aborted")

	// ErrInitBudgetExhausted is returned by Run when the devices could not
	// be initialized within the configured number of attempts.
	ErrInitBudgetExhausted = errors.New("device initialization retries exhausted")
)

// Source is the set of sensors polled each sample. *sensors.Board
// implements it.
type Source interface {
	Init() error
	ReadAcceleration() (imu.Acceleration, error)
	ReadMagnetometer() (imu.MagneticField, error)
	ReadGyroscope() (imu.AngularRate, error)
	ReadBarometer() (env.Barometer, error)
}

// Sink receives every composite sample.
type Sink interface {
	Publish(c imu.Composite) error
}

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config sets the cadence and the retry policy.
type Config struct {
	OutputPeriod     time.Duration
	SamplesPerWindow int
	InitBackoff      time.Duration
	InitRetries      int
	// Barometer adds a BMP180 cycle to every poll.
	Barometer bool
}

// DefaultConfig matches the reference firmware: 150 ms windows of 5 polls.
var DefaultConfig = Config{
	OutputPeriod:     150 * time.Millisecond,
	SamplesPerWindow: 5,
	InitBackoff:      time.Second,
	InitRetries:      10,
	Barometer:        true,
}

// InterSamplePeriod is the wait after each poll of a window.
func (c Config) InterSamplePeriod() time.Duration {
	return c.OutputPeriod / time.Duration(c.SamplesPerWindow)
}

// Validate rejects non-positive periods and counts.
func (c Config) Validate() error {
	if c.OutputPeriod <= 0 {
		return fmt.Errorf("output period must be positive, got %v", c.OutputPeriod)
	}
	if c.SamplesPerWindow < 1 {
		return fmt.Errorf("samples per window must be at least 1, got %d", c.SamplesPerWindow)
	}
	if c.InterSamplePeriod() <= 0 {
		return fmt.Errorf("output period %v too short for %d samples", c.OutputPeriod, c.SamplesPerWindow)
	}
	if c.InitBackoff < 0 {
		return fmt.Errorf("init backoff must not be negative, got %v", c.InitBackoff)
	}
	if c.InitRetries < 1 {
		return fmt.Errorf("init retries must be at least 1, got %d", c.InitRetries)
	}
	return nil
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithSleep replaces the wait used between polls and init attempts.
func WithSleep(f SleepFunc) Option { return func(a *Aggregator) { a.sleep = f } }

// WithClock replaces time.Now for window timestamps.
func WithClock(now func() time.Time) Option { return func(a *Aggregator) { a.now = now } }

// WithRegisterer registers the aggregation metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *Aggregator) { a.reg = reg }
}

// Aggregator owns the source for the duration of Run.
type Aggregator struct {
	cfg   Config
	src   Source
	sink  Sink
	sleep SleepFunc
	now   func() time.Time
	reg   prometheus.Registerer
	m     *metrics
	acc   *Accumulator
	seq   uint64
	log   *log.Entry
}

// New validates cfg and wires the aggregator.
func New(cfg Config, src Source, sink Sink, opts ...Option) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil || sink == nil {
		return nil, errors.New("aggregate: source and sink are required")
	}
	a := &Aggregator{
		cfg:   cfg,
		src:   src,
		sink:  sink,
		sleep: Sleep,
		now:   time.Now,
		acc:   NewAccumulator(cfg.SamplesPerWindow),
		log:   log.WithField("component", "aggregate"),
	}
	for _, o := range opts {
		o(a)
	}
	a.m = newMetrics(a.reg)
	return a, nil
}

// Run initializes the devices and then emits one composite per window until
// ctx is cancelled, in which case it returns nil. A read failure discards the
// current window and sends the loop back to initialization. Run returns an
// error wrapping ErrInitBudgetExhausted when initialization keeps failing.
func (a *Aggregator) Run(ctx context.Context) error {
	a.log.WithFields(log.Fields{
		"period":  a.cfg.OutputPeriod,
		"samples": a.cfg.SamplesPerWindow,
		"baro":    a.cfg.Barometer,
	}).Info("starting acquisition")

	for {
		if err := a.initialize(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		for {
			if ctx.Err() != nil {
				return nil
			}
			c, err := a.window(ctx)
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				a.m.windowsAborted.Inc()
				a.log.WithError(err).Warn("window discarded, reinitializing devices")
				break
			}
			a.publish(c)
		}
	}
}

func (a *Aggregator) initialize(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= a.cfg.InitRetries; attempt++ {
		if err = a.src.Init(); err == nil {
			a.log.Info("devices initialized")
			return nil
		}
		device := sensors.FailedDevice(err)
		if device == "" {
			device = "unknown"
		}
		a.m.initFailures.WithLabelValues(device).Inc()
		a.log.WithError(err).WithFields(log.Fields{
			"device":  device,
			"attempt": attempt,
			"of":      a.cfg.InitRetries,
		}).Warn("device initialization failed")

		if attempt == a.cfg.InitRetries {
			break
		}
		if serr := a.sleep(ctx, a.cfg.InitBackoff); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrInitBudgetExhausted, a.cfg.InitRetries, err)
}

func (a *Aggregator) window(ctx context.Context) (imu.Composite, error) {
	a.acc.Reset()
	start := a.now()
	wait := a.cfg.InterSamplePeriod()
	for i := 0; i < a.cfg.SamplesPerWindow; i++ {
		s, err := a.poll()
		if err != nil {
			return imu.Composite{}, fmt.Errorf("%w: sample %d of %d: %w", ErrAggregationAborted, i+1, a.cfg.SamplesPerWindow, err)
		}
		if err := a.acc.Add(s); err != nil {
			return imu.Composite{}, fmt.Errorf("%w: %w", ErrAggregationAborted, err)
		}
		if err := a.sleep(ctx, wait); err != nil {
			return imu.Composite{}, err
		}
	}
	c := a.acc.Composite()
	c.Start, c.End = start, a.now()
	a.seq++
	c.Seq = a.seq
	return c, nil
}

func (a *Aggregator) poll() (Sample, error) {
	var s Sample
	var err error
	if s.Accel, err = a.src.ReadAcceleration(); err != nil {
		return s, err
	}
	if s.Mag, err = a.src.ReadMagnetometer(); err != nil {
		return s, err
	}
	if s.Gyro, err = a.src.ReadGyroscope(); err != nil {
		return s, err
	}
	if a.cfg.Barometer {
		b, err := a.src.ReadBarometer()
		if err != nil {
			return s, err
		}
		s.Baro = &b
	}
	return s, nil
}

func (a *Aggregator) publish(c imu.Composite) {
	a.m.windowDuration.Observe(c.End.Sub(c.Start).Seconds())
	if err := a.sink.Publish(c); err != nil {
		a.m.sinkErrors.Inc()
		a.log.WithError(err).WithField("seq", c.Seq).Warn("sink rejected composite")
		return
	}
	a.m.windowsEmitted.Inc()
}
