// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"github.com/relabs-tech/flight_sensors/internal/bus"
	"github.com/relabs-tech/flight_sensors/internal/imu"
)

const (
	lsm303dChipID = 0x49
	stAutoInc     = 0x80 // ST sub-address auto-increment bit

	// StandardGravity converts g to m/s².
	StandardGravity = 9.81

	accelMgPerLSB    = 0.061 // ±2 g
	magMgaussPerLSB  = 0.160 // ±4 gauss
	gyroMdpsPerLSB   = 8.75  // 250 dps
	milliToUnitScale = 1000
)

// lsm303dInit is applied in order by Init.
var lsm303dInit = []registerWrite{
	{"CTRL2", 0x00}, // 773 Hz anti-alias, ±2 g, self-test off
	{"CTRL1", 0x57}, // 50 Hz, continuous update, X/Y/Z on
	{"CTRL5", 0x64}, // temperature off, high mag resolution, 6.25 Hz
	{"CTRL6", 0x20}, // ±4 gauss
	{"CTRL7", 0x00}, // accel HPF normal and bypassed, mag continuous
}

// LSM303DOpts configures an LSM303D.
type LSM303DOpts struct {
	Addr      uint16
	Registers RegisterMap
}

// LSM303D drives the ST LSM303D accelerometer and magnetometer.
type LSM303D struct {
	t     bus.Transport
	addr  uint16
	regs  RegisterMap
	ready bool
}

// NewLSM303D returns an uninitialized driver.
func NewLSM303D(t bus.Transport, opts *LSM303DOpts) (*LSM303D, error) {
	o := LSM303DOpts{Addr: bus.AddrLSM303D}
	if opts != nil {
		o = *opts
	}
	regs := o.Registers
	if regs == nil {
		regs = newRegisterMap(lsm303dRegisters)
	}
	if err := regs.Require("WHO_AM_I", "CTRL1", "CTRL2", "CTRL5", "CTRL6", "CTRL7", "OUT_X_L_A", "OUT_X_L_M"); err != nil {
		return nil, fmt.Errorf("lsm303d: %w", err)
	}
	return &LSM303D{t: t, addr: o.Addr, regs: regs}, nil
}

// Registers returns the register table the driver uses.
func (d *LSM303D) Registers() RegisterMap { return d.regs }

// Address is the 7-bit bus address.
func (d *LSM303D) Address() uint16 { return d.addr }

// VerifyIdentity checks WHO_AM_I.
func (d *LSM303D) VerifyIdentity() error {
	return verifyIdentity(d.t, d.addr, d.regs.Addr("WHO_AM_I"), lsm303dChipID, DeviceLSM303D)
}

// Init checks the identity and writes the configuration sequence.
func (d *LSM303D) Init() error {
	d.ready = false
	if err := d.VerifyIdentity(); err != nil {
		return err
	}
	if err := writeSequence(d.t, d.addr, d.regs, lsm303dInit, DeviceLSM303D); err != nil {
		return err
	}
	d.ready = true
	return nil
}

// ReadRawAcceleration returns the accelerometer output counts.
func (d *LSM303D) ReadRawAcceleration() (x, y, z int16, err error) {
	if !d.ready {
		return 0, 0, 0, fmt.Errorf("lsm303d: read acceleration: %w", ErrNotReady)
	}
	x, y, z, err = readVector(d.t, d.addr, d.regs.Addr("OUT_X_L_A"), stAutoInc)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("lsm303d: read acceleration: %w", err)
	}
	return x, y, z, nil
}

// ReadRawMagnetometer returns the magnetometer output counts.
func (d *LSM303D) ReadRawMagnetometer() (x, y, z int16, err error) {
	if !d.ready {
		return 0, 0, 0, fmt.Errorf("lsm303d: read magnetometer: %w", ErrNotReady)
	}
	x, y, z, err = readVector(d.t, d.addr, d.regs.Addr("OUT_X_L_M"), stAutoInc)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("lsm303d: read magnetometer: %w", err)
	}
	return x, y, z, nil
}

// ReadAcceleration returns the acceleration in m/s².
func (d *LSM303D) ReadAcceleration() (imu.Acceleration, error) {
	x, y, z, err := d.ReadRawAcceleration()
	if err != nil {
		return imu.Acceleration{}, err
	}
	return AccelerationFromRaw(x, y, z), nil
}

// ReadMagnetometer returns the magnetic field in gauss.
func (d *LSM303D) ReadMagnetometer() (imu.MagneticField, error) {
	x, y, z, err := d.ReadRawMagnetometer()
	if err != nil {
		return imu.MagneticField{}, err
	}
	return MagneticFieldFromRaw(x, y, z), nil
}

// AccelerationFromRaw converts ±2 g counts to m/s².
func AccelerationFromRaw(x, y, z int16) imu.Acceleration {
	c := func(v int16) float64 { return float64(v) * accelMgPerLSB / milliToUnitScale * StandardGravity }
	return imu.Acceleration{X: c(x), Y: c(y), Z: c(z)}
}

// MagneticFieldFromRaw converts ±4 gauss counts to gauss.
func MagneticFieldFromRaw(x, y, z int16) imu.MagneticField {
	c := func(v int16) float64 { return float64(v) * magMgaussPerLSB / milliToUnitScale }
	return imu.MagneticField{X: c(x), Y: c(y), Z: c(z)}
}
