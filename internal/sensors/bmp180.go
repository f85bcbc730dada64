// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"time"

	"github.com/relabs-tech/flight_sensors/internal/bus"
	"github.com/relabs-tech/flight_sensors/internal/env"
)

const (
	bmp180ChipID      = 0x55
	bmp180CmdTemp     = 0x2E
	bmp180CmdPressure = 0x34
)

// Extra settling time per oversampling setting on top of the OSS 0 delay
// (datasheet maximum conversion times 4.5, 7.5, 13.5 and 25.5 ms).
var bmp180OSSExtra = [4]time.Duration{0, 3 * time.Millisecond, 9 * time.Millisecond, 21 * time.Millisecond}

// BMP180State is the initialization progress of a BMP180.
type BMP180State int

const (
	Uninitialized BMP180State = iota
	IdentityVerified
	CalibrationLoaded
	Ready
)

func (s BMP180State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case IdentityVerified:
		return "identity verified"
	case CalibrationLoaded:
		return "calibration loaded"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("BMP180State(%d)", int(s))
}

// BMP180Opts configures a BMP180.
type BMP180Opts struct {
	Addr uint16
	// OSS is the pressure oversampling setting, 0 to 3.
	OSS uint8
	// ConversionDelay is the wait between a conversion command and reading
	// the result at OSS 0. Higher OSS add the datasheet difference.
	ConversionDelay time.Duration
	// CalibrationRetries bounds the EEPROM read attempts in LoadCalibration.
	CalibrationRetries int
	// SeaLevel is the altitude reference in hPa.
	SeaLevel float64
	// Registers overrides the built-in register table.
	Registers RegisterMap
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultBMP180Opts is the GY-89 wiring with datasheet timing.
var DefaultBMP180Opts = BMP180Opts{
	Addr:               bus.AddrBMP180,
	ConversionDelay:    4500 * time.Microsecond,
	CalibrationRetries: 3,
	SeaLevel:           1013.25,
}

// BMP180 drives a Bosch BMP180 pressure and temperature sensor.
type BMP180 struct {
	t     bus.Transport
	opts  BMP180Opts
	regs  RegisterMap
	state BMP180State
	cal   Calibration
	// gen advances on every Init and invalidates older temperature readings.
	gen uint64
}

// NewBMP180 validates opts and returns an uninitialized driver. It does not
// touch the bus.
func NewBMP180(t bus.Transport, opts *BMP180Opts) (*BMP180, error) {
	o := DefaultBMP180Opts
	if opts != nil {
		o = *opts
	}
	if o.OSS > 3 {
		return nil, fmt.Errorf("bmp180: oversampling %d out of range 0-3", o.OSS)
	}
	if o.CalibrationRetries < 1 {
		return nil, fmt.Errorf("bmp180: calibration retries must be at least 1, got %d", o.CalibrationRetries)
	}
	if o.SeaLevel <= 0 {
		return nil, fmt.Errorf("bmp180: sea level pressure must be positive, got %v", o.SeaLevel)
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	regs := o.Registers
	if regs == nil {
		regs = newRegisterMap(bmp180Registers)
	}
	if err := regs.Require("ID", "CALIB", "CTRL_MEAS", "OUT_MSB"); err != nil {
		return nil, fmt.Errorf("bmp180: %w", err)
	}
	return &BMP180{t: t, opts: o, regs: regs}, nil
}

// State reports the initialization progress.
func (d *BMP180) State() BMP180State { return d.state }

// Calibration returns the coefficients loaded by the last successful
// LoadCalibration.
func (d *BMP180) Calibration() Calibration { return d.cal }

// Registers returns the register table the driver uses.
func (d *BMP180) Registers() RegisterMap { return d.regs }

// Address is the 7-bit bus address.
func (d *BMP180) Address() uint16 { return d.opts.Addr }

// VerifyIdentity checks the chip ID. On mismatch or bus failure the state
// is left untouched.
func (d *BMP180) VerifyIdentity() error {
	if err := verifyIdentity(d.t, d.opts.Addr, d.regs.Addr("ID"), bmp180ChipID, DeviceBMP180); err != nil {
		return err
	}
	if d.state < IdentityVerified {
		d.state = IdentityVerified
	}
	return nil
}

// LoadCalibration reads and validates the coefficient block, retrying up to
// CalibrationRetries attempts. It needs a verified identity.
func (d *BMP180) LoadCalibration() error {
	if d.state < IdentityVerified {
		return fmt.Errorf("bmp180: load calibration: %w", ErrNotReady)
	}
	calib := d.regs["CALIB"]
	buf := make([]byte, calib.Width)
	var lastErr error
	for attempt := 1; attempt <= d.opts.CalibrationRetries; attempt++ {
		if attempt > 1 {
			d.opts.Sleep(d.opts.ConversionDelay)
		}
		if err := bus.ReadRegister(d.t, d.opts.Addr, calib.Addr, buf); err != nil {
			lastErr = err
			continue
		}
		cal, err := ParseCalibration(buf)
		if err != nil {
			lastErr = err
			continue
		}
		d.cal = cal
		d.state = CalibrationLoaded
		return nil
	}
	return fmt.Errorf("bmp180: calibration after %d attempts: %w", d.opts.CalibrationRetries, lastErr)
}

// Init runs the identity check and the calibration load and leaves the
// driver Ready. It can be called again to re-initialize after a fault.
func (d *BMP180) Init() error {
	d.state = Uninitialized
	d.gen++
	if err := d.VerifyIdentity(); err != nil {
		return err
	}
	if err := d.LoadCalibration(); err != nil {
		return err
	}
	d.state = Ready
	return nil
}

// ReadTemperature runs one temperature conversion.
func (d *BMP180) ReadTemperature() (TemperatureReading, error) {
	if d.state != Ready {
		return TemperatureReading{}, fmt.Errorf("bmp180: read temperature: %w", ErrNotReady)
	}
	if err := bus.WriteRegister(d.t, d.opts.Addr, d.regs.Addr("CTRL_MEAS"), bmp180CmdTemp); err != nil {
		return TemperatureReading{}, fmt.Errorf("bmp180: start temperature: %w", err)
	}
	d.opts.Sleep(d.opts.ConversionDelay)
	buf := make([]byte, 2)
	if err := bus.ReadRegister(d.t, d.opts.Addr, d.regs.Addr("OUT_MSB"), buf); err != nil {
		return TemperatureReading{}, fmt.Errorf("bmp180: read temperature: %w", err)
	}
	ut := int32(buf[0])<<8 | int32(buf[1])
	t, err := d.cal.CompensateTemperature(ut)
	if err != nil {
		return TemperatureReading{}, fmt.Errorf("bmp180: %w", err)
	}
	t.issuer, t.gen = d, d.gen
	return t, nil
}

// ReadPressure runs one pressure conversion and returns Pa. t must come from
// a ReadTemperature of the same cycle.
func (d *BMP180) ReadPressure(t TemperatureReading) (int32, error) {
	if d.state != Ready {
		return 0, fmt.Errorf("bmp180: read pressure: %w", ErrNotReady)
	}
	if t.issuer != d || t.gen != d.gen {
		return 0, fmt.Errorf("bmp180: read pressure: no temperature reading from this driver since init: %w", ErrNotReady)
	}
	oss := d.opts.OSS
	if err := bus.WriteRegister(d.t, d.opts.Addr, d.regs.Addr("CTRL_MEAS"), bmp180CmdPressure+oss<<6); err != nil {
		return 0, fmt.Errorf("bmp180: start pressure: %w", err)
	}
	d.opts.Sleep(d.opts.ConversionDelay + bmp180OSSExtra[oss])
	buf := make([]byte, 3)
	if err := bus.ReadRegister(d.t, d.opts.Addr, d.regs.Addr("OUT_MSB"), buf); err != nil {
		return 0, fmt.Errorf("bmp180: read pressure: %w", err)
	}
	up := (int32(buf[0])<<16 | int32(buf[1])<<8 | int32(buf[2])) >> (8 - oss)
	p, err := d.cal.CompensatePressure(up, t.B5, oss)
	if err != nil {
		return 0, fmt.Errorf("bmp180: %w", err)
	}
	return p, nil
}

// Sense reads temperature then pressure and reports them with the derived
// altitude.
func (d *BMP180) Sense() (env.Barometer, error) {
	t, err := d.ReadTemperature()
	if err != nil {
		return env.Barometer{}, err
	}
	pa, err := d.ReadPressure(t)
	if err != nil {
		return env.Barometer{}, err
	}
	hpa := float64(pa) / 100
	return env.Barometer{
		Temperature: t.PreciseCelsius(),
		Pressure:    hpa,
		Altitude:    Altitude(hpa, d.opts.SeaLevel),
	}, nil
}
