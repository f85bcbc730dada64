// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"github.com/relabs-tech/flight_sensors/internal/bus"
	"github.com/relabs-tech/flight_sensors/internal/imu"
)

const l3gd20ChipID = 0xD4

var l3gd20Init = []registerWrite{
	{"CTRL_REG1", 0x0F}, // 95 Hz, 12.5 Hz cut-off, normal mode, X/Y/Z on
	{"CTRL_REG2", 0x00}, // HPF normal mode, default cut-off
	{"CTRL_REG4", 0x00}, // 250 dps, little-endian
}

// L3GD20Opts configures an L3GD20.
type L3GD20Opts struct {
	Addr      uint16
	Registers RegisterMap
}

// L3GD20 drives the ST L3GD20 three-axis gyroscope.
type L3GD20 struct {
	t     bus.Transport
	addr  uint16
	regs  RegisterMap
	ready bool
}

// NewL3GD20 returns an uninitialized driver.
func NewL3GD20(t bus.Transport, opts *L3GD20Opts) (*L3GD20, error) {
	o := L3GD20Opts{Addr: bus.AddrL3GD20}
	if opts != nil {
		o = *opts
	}
	regs := o.Registers
	if regs == nil {
		regs = newRegisterMap(l3gd20Registers)
	}
	if err := regs.Require("WHO_AM_I", "CTRL_REG1", "CTRL_REG2", "CTRL_REG4", "OUT_X_L"); err != nil {
		return nil, fmt.Errorf("l3gd20: %w", err)
	}
	return &L3GD20{t: t, addr: o.Addr, regs: regs}, nil
}

// Registers returns the register table the driver uses.
func (d *L3GD20) Registers() RegisterMap { return d.regs }

// Address is the 7-bit bus address.
func (d *L3GD20) Address() uint16 { return d.addr }

// VerifyIdentity checks WHO_AM_I.
func (d *L3GD20) VerifyIdentity() error {
	return verifyIdentity(d.t, d.addr, d.regs.Addr("WHO_AM_I"), l3gd20ChipID, DeviceL3GD20)
}

// Init checks the identity and writes the configuration sequence.
func (d *L3GD20) Init() error {
	d.ready = false
	if err := d.VerifyIdentity(); err != nil {
		return err
	}
	if err := writeSequence(d.t, d.addr, d.regs, l3gd20Init, DeviceL3GD20); err != nil {
		return err
	}
	d.ready = true
	return nil
}

// ReadRaw returns the gyroscope output counts.
func (d *L3GD20) ReadRaw() (x, y, z int16, err error) {
	if !d.ready {
		return 0, 0, 0, fmt.Errorf("l3gd20: read rate: %w", ErrNotReady)
	}
	x, y, z, err = readVector(d.t, d.addr, d.regs.Addr("OUT_X_L"), stAutoInc)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("l3gd20: read rate: %w", err)
	}
	return x, y, z, nil
}

// ReadGyroscope returns the angular rate in degrees per second.
func (d *L3GD20) ReadGyroscope() (imu.AngularRate, error) {
	x, y, z, err := d.ReadRaw()
	if err != nil {
		return imu.AngularRate{}, err
	}
	return AngularRateFromRaw(x, y, z), nil
}

// AngularRateFromRaw converts 250 dps counts to degrees per second.
func AngularRateFromRaw(x, y, z int16) imu.AngularRate {
	c := func(v int16) float64 { return float64(v) * gyroMdpsPerLSB / milliToUnitScale }
	return imu.AngularRate{X: c(x), Y: c(y), Z: c(z)}
}
