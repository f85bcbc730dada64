// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"math"
	"time"
)

// Default GY-89 board addresses.
const (
	AddrBMP180  = 0x77
	AddrLSM303D = 0x1E
	AddrL3GD20  = 0x6A
)

// BMP180DatasheetCalibration is the coefficient block of the worked example
// in the BMP180 datasheet (AC1..AC6, B1, B2, MB, MC, MD), big-endian as it
// sits in the device EEPROM at 0xAA.
var BMP180DatasheetCalibration = [22]byte{
	0x01, 0x98, // AC1 408
	0xFF, 0xB8, // AC2 -72
	0xC7, 0xD1, // AC3 -14383
	0x7F, 0xE5, // AC4 32741
	0x7F, 0xF5, // AC5 32757
	0x5A, 0x71, // AC6 23153
	0x18, 0x2E, // B1 6190
	0x00, 0x04, // B2 4
	0x80, 0x00, // MB -32768
	0xDD, 0xF9, // MC -8711
	0x0B, 0x34, // MD 2868
}

// GY89 is a Sim populated with a BMP180, an LSM303D and an L3GD20 that
// answer identity reads, expose the datasheet calibration and return
// whatever raw values were last set.
type GY89 struct {
	*Sim

	ut uint16
	up uint32
}

// NewGY89Sim builds the simulated board. Raw values start at the BMP180
// datasheet example (UT 27898, UP 23843) and a level, resting IMU.
func NewGY89Sim() *GY89 {
	g := &GY89{Sim: NewSim(), ut: 27898, up: 23843}

	baro := &SimDevice{OnWrite: g.bmp180Write}
	baro.Regs[0xD0] = 0x55
	copy(baro.Regs[0xAA:], BMP180DatasheetCalibration[:])
	g.Attach(AddrBMP180, baro)

	am := &SimDevice{IncrementBit: 0x80}
	am.Regs[0x0F] = 0x49
	am.PutInt16LE(0x2C, 16393) // +1 g on Z at ±2 g
	g.Attach(AddrLSM303D, am)

	gyro := &SimDevice{IncrementBit: 0x80}
	gyro.Regs[0x0F] = 0xD4
	g.Attach(AddrL3GD20, gyro)

	return g
}

// bmp180Write latches a conversion result into 0xF6.. when a measurement
// command lands in CTRL_MEAS.
func (g *GY89) bmp180Write(d *SimDevice, reg, value byte) {
	if reg != 0xF4 {
		return
	}
	switch {
	case value == 0x2E:
		d.PutUint16BE(0xF6, g.ut)
	case value&0x3F == 0x34:
		oss := value >> 6
		v := g.up << oss << (8 - oss)
		d.Regs[0xF6] = byte(v >> 16)
		d.Regs[0xF7] = byte(v >> 8)
		d.Regs[0xF8] = byte(v)
	}
}

// SetBarometerRaw sets the uncompensated temperature and pressure the
// BMP180 reports on its next conversions. up is given at OSS 0 resolution;
// higher oversampling settings report it scaled by 2^OSS.
func (g *GY89) SetBarometerRaw(ut uint16, up uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ut, g.up = ut, up
}

// SetAccelerationRaw sets the LSM303D accelerometer output counts.
func (g *GY89) SetAccelerationRaw(x, y, z int16) {
	g.Update(AddrLSM303D, func(d *SimDevice) {
		d.PutInt16LE(0x28, x)
		d.PutInt16LE(0x2A, y)
		d.PutInt16LE(0x2C, z)
	})
}

// SetMagneticRaw sets the LSM303D magnetometer output counts.
func (g *GY89) SetMagneticRaw(x, y, z int16) {
	g.Update(AddrLSM303D, func(d *SimDevice) {
		d.PutInt16LE(0x08, x)
		d.PutInt16LE(0x0A, y)
		d.PutInt16LE(0x0C, z)
	})
}

// SetRateRaw sets the L3GD20 output counts.
func (g *GY89) SetRateRaw(x, y, z int16) {
	g.Update(AddrL3GD20, func(d *SimDevice) {
		d.PutInt16LE(0x28, x)
		d.PutInt16LE(0x2A, y)
		d.PutInt16LE(0x2C, z)
	})
}

// Animate moves the simulated board along smooth curves so that a
// simulated acquisition run produces changing output.
func (g *GY89) Animate(elapsed time.Duration) {
	s := elapsed.Seconds()
	tilt := 0.35 * math.Sin(s)
	g.SetAccelerationRaw(
		int16(16393*math.Sin(tilt)),
		int16(4000*math.Sin(s*0.7)),
		int16(16393*math.Cos(tilt)),
	)
	g.SetMagneticRaw(
		int16(1500*math.Cos(s*0.3)),
		int16(1500*math.Sin(s*0.3)),
		-2500,
	)
	g.SetRateRaw(
		int16(2000*math.Cos(s)),
		int16(800*math.Sin(s*0.7)),
		int16(1200*math.Sin(s*0.3)),
	)
	g.SetBarometerRaw(uint16(27898+40*math.Sin(s*0.1)), uint32(23843+30*math.Sin(s*0.2)))
}
