// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_sensors/internal/bus"
	"github.com/relabs-tech/flight_sensors/internal/env"
	"github.com/relabs-tech/flight_sensors/internal/imu"
)

// DeviceError tags an error with the device that produced it.
type DeviceError struct {
	Device string
	Err    error
}

func (e *DeviceError) Error() string { return e.Err.Error() }
func (e *DeviceError) Unwrap() error { return e.Err }

// FailedDevice returns the device name carried by err, or "" if none.
func FailedDevice(err error) string {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Device
	}
	return ""
}

// BoardOpts configures the three GY-89 devices. A nil BMP180 leaves the
// barometer out.
type BoardOpts struct {
	LSM303D *LSM303DOpts
	L3GD20  *L3GD20Opts
	BMP180  *BMP180Opts
}

// Board is the GY-89: LSM303D, L3GD20 and optionally BMP180 on one bus.
type Board struct {
	Accel *LSM303D
	Gyro  *L3GD20
	Baro  *BMP180
}

// NewBoard builds the drivers without touching the bus.
func NewBoard(t bus.Transport, opts BoardOpts) (*Board, error) {
	am, err := NewLSM303D(t, opts.LSM303D)
	if err != nil {
		return nil, err
	}
	g, err := NewL3GD20(t, opts.L3GD20)
	if err != nil {
		return nil, err
	}
	b := &Board{Accel: am, Gyro: g}
	if opts.BMP180 != nil {
		if b.Baro, err = NewBMP180(t, opts.BMP180); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// HasBarometer reports whether the BMP180 is part of the board.
func (b *Board) HasBarometer() bool { return b.Baro != nil }

// Init initializes every device in turn and stops at the first failure,
// returned as a *DeviceError.
func (b *Board) Init() error {
	if err := b.Accel.Init(); err != nil {
		return &DeviceError{Device: DeviceLSM303D, Err: err}
	}
	log.WithField("device", DeviceLSM303D).Info("accelerometer ±2 g at 50 Hz, magnetometer ±4 gauss at 6.25 Hz")

	if err := b.Gyro.Init(); err != nil {
		return &DeviceError{Device: DeviceL3GD20, Err: err}
	}
	log.WithField("device", DeviceL3GD20).Info("gyroscope 250 dps at 95 Hz")

	if b.Baro == nil {
		return nil
	}
	if err := b.Baro.Init(); err != nil {
		return &DeviceError{Device: DeviceBMP180, Err: err}
	}
	c := b.Baro.Calibration()
	log.WithField("device", DeviceBMP180).Infof("calibration AC1=%d AC2=%d AC3=%d AC4=%d AC5=%d AC6=%d B1=%d B2=%d MB=%d MC=%d MD=%d",
		c.AC1, c.AC2, c.AC3, c.AC4, c.AC5, c.AC6, c.B1, c.B2, c.MB, c.MC, c.MD)
	return nil
}

// Probe checks the identity of each device without configuring it. The
// result maps device name to nil or the identity error.
func (b *Board) Probe() map[string]error {
	res := map[string]error{
		DeviceLSM303D: b.Accel.VerifyIdentity(),
		DeviceL3GD20:  b.Gyro.VerifyIdentity(),
	}
	if b.Baro != nil {
		res[DeviceBMP180] = b.Baro.VerifyIdentity()
	}
	return res
}

// ReadAcceleration reads the LSM303D accelerometer.
func (b *Board) ReadAcceleration() (imu.Acceleration, error) {
	a, err := b.Accel.ReadAcceleration()
	if err != nil {
		return a, &DeviceError{Device: DeviceLSM303D, Err: err}
	}
	return a, nil
}

// ReadMagnetometer reads the LSM303D magnetometer.
func (b *Board) ReadMagnetometer() (imu.MagneticField, error) {
	m, err := b.Accel.ReadMagnetometer()
	if err != nil {
		return m, &DeviceError{Device: DeviceLSM303D, Err: err}
	}
	return m, nil
}

// ReadGyroscope reads the L3GD20.
func (b *Board) ReadGyroscope() (imu.AngularRate, error) {
	r, err := b.Gyro.ReadGyroscope()
	if err != nil {
		return r, &DeviceError{Device: DeviceL3GD20, Err: err}
	}
	return r, nil
}

// ReadBarometer runs one BMP180 temperature and pressure cycle.
func (b *Board) ReadBarometer() (env.Barometer, error) {
	if b.Baro == nil {
		return env.Barometer{}, &DeviceError{Device: DeviceBMP180, Err: fmt.Errorf("bmp180: not fitted: %w", ErrNotReady)}
	}
	v, err := b.Baro.Sense()
	if err != nil {
		return v, &DeviceError{Device: DeviceBMP180, Err: err}
	}
	return v, nil
}

// ReadRaw reads accelerometer, magnetometer and gyroscope counts.
func (b *Board) ReadRaw() (imu.Raw, error) {
	ax, ay, az, err := b.Accel.ReadRawAcceleration()
	if err != nil {
		return imu.Raw{}, &DeviceError{Device: DeviceLSM303D, Err: err}
	}
	mx, my, mz, err := b.Accel.ReadRawMagnetometer()
	if err != nil {
		return imu.Raw{}, &DeviceError{Device: DeviceLSM303D, Err: err}
	}
	gx, gy, gz, err := b.Gyro.ReadRaw()
	if err != nil {
		return imu.Raw{}, &DeviceError{Device: DeviceL3GD20, Err: err}
	}
	return imu.Raw{Ax: ax, Ay: ay, Az: az, Mx: mx, My: my, Mz: mz, Gx: gx, Gy: gy, Gz: gz}, nil
}
