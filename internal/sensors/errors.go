// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors holds the GY-89 drivers: BMP180 barometer, LSM303D
// accelerometer/magnetometer and L3GD20 gyroscope.
package sensors

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/flight_sensors/internal/bus"
)

var (
	// ErrIdentityMismatch means the identity register did not hold the
	// expected chip ID: wrong part, wrong address or nothing answering.
	ErrIdentityMismatch = errors.New("identity mismatch")

	// ErrCalibrationInvalid means a BMP180 calibration word read back as
	// 0x0000 or 0xFFFF.
	ErrCalibrationInvalid = errors.New("calibration invalid")

	// ErrNotReady is returned by reads issued before Init succeeded.
	ErrNotReady = errors.New("device not initialized")

	// ErrCompensation means the raw data drove a compensation formula into a
	// zero divisor.
	ErrCompensation = errors.New("compensation out of range")
)

// verifyIdentity reads the one-byte identity register and compares it.
func verifyIdentity(t bus.Transport, addr uint16, reg, want byte, device string) error {
	id := make([]byte, 1)
	if err := bus.ReadRegister(t, addr, reg, id); err != nil {
		return fmt.Errorf("%s: read identity: %w", device, err)
	}
	if id[0] != want {
		return fmt.Errorf("%s: %w: register 0x%02X = 0x%02X, want 0x%02X", device, ErrIdentityMismatch, reg, id[0], want)
	}
	return nil
}

// writeSequence applies a fixed configuration sequence in order.
func writeSequence(t bus.Transport, addr uint16, regs RegisterMap, seq []registerWrite, device string) error {
	for _, w := range seq {
		if err := bus.WriteRegister(t, addr, regs.Addr(w.reg), w.value); err != nil {
			return fmt.Errorf("%s: write %s=0x%02X: %w", device, w.reg, w.value, err)
		}
	}
	return nil
}

// readVector burst-reads three little-endian int16 axes starting at reg.
// inc is OR-ed into the sub-address to enable auto-increment.
func readVector(t bus.Transport, addr uint16, reg, inc byte) (x, y, z int16, err error) {
	buf := make([]byte, 6)
	if err := bus.ReadRegister(t, addr, reg|inc, buf); err != nil {
		return 0, 0, 0, err
	}
	x = int16(uint16(buf[0]) | uint16(buf[1])<<8)
	y = int16(uint16(buf[2]) | uint16(buf[3])<<8)
	z = int16(uint16(buf[4]) | uint16(buf[5])<<8)
	return x, y, z, nil
}
