// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Calibration holds the BMP180 factory coefficients.
type Calibration struct {
	AC1, AC2, AC3 int16
	AC4, AC5, AC6 uint16
	B1, B2        int16
	MB, MC, MD    int16
}

var calibrationNames = [11]string{"AC1", "AC2", "AC3", "AC4", "AC5", "AC6", "B1", "B2", "MB", "MC", "MD"}

// ParseCalibration decodes the 22-byte EEPROM block. A word equal to 0x0000
// or 0xFFFF means the EEPROM did not answer properly and is rejected with
// ErrCalibrationInvalid.
func ParseCalibration(b []byte) (Calibration, error) {
	if len(b) != 22 {
		return Calibration{}, fmt.Errorf("%w: got %d bytes, want 22", ErrCalibrationInvalid, len(b))
	}
	var w [11]uint16
	for i := range w {
		w[i] = binary.BigEndian.Uint16(b[2*i:])
		if w[i] == 0x0000 || w[i] == 0xFFFF {
			return Calibration{}, fmt.Errorf("%w: %s = 0x%04X", ErrCalibrationInvalid, calibrationNames[i], w[i])
		}
	}
	return Calibration{
		AC1: int16(w[0]), AC2: int16(w[1]), AC3: int16(w[2]),
		AC4: w[3], AC5: w[4], AC6: w[5],
		B1: int16(w[6]), B2: int16(w[7]),
		MB: int16(w[8]), MC: int16(w[9]), MD: int16(w[10]),
	}, nil
}

// TemperatureReading is the result of one temperature conversion. B5 feeds
// the pressure compensation of the same measurement cycle. Only a reading
// returned by BMP180.ReadTemperature is accepted by ReadPressure, and only
// until the driver is initialized again.
type TemperatureReading struct {
	Raw    int32 // UT
	B5     int32
	Tenths int32 // 0.1 °C

	issuer *BMP180
	gen    uint64
}

// Celsius returns whole degrees, truncated toward zero.
func (t TemperatureReading) Celsius() float64 {
	return float64(t.Tenths / 10)
}

// PreciseCelsius keeps the 0.1 °C resolution.
func (t TemperatureReading) PreciseCelsius() float64 {
	return float64(t.Tenths) / 10
}

// CompensateTemperature applies the datasheet integer algorithm to UT.
func (c Calibration) CompensateTemperature(ut int32) (TemperatureReading, error) {
	x1 := ((ut - int32(c.AC6)) * int32(c.AC5)) >> 15
	d := x1 + int32(c.MD)
	if d == 0 {
		return TemperatureReading{}, fmt.Errorf("%w: X1+MD = 0 for UT %d", ErrCompensation, ut)
	}
	x2 := (int32(c.MC) << 11) / d
	b5 := x1 + x2
	return TemperatureReading{Raw: ut, B5: b5, Tenths: (b5 + 8) >> 4}, nil
}

// CompensatePressure turns UP into Pa using B5 from the temperature
// conversion of the same cycle. oss must match the one used to sample UP.
func (c Calibration) CompensatePressure(up, b5 int32, oss uint8) (int32, error) {
	b6 := b5 - 4000
	x1 := (int32(c.B2) * ((b6 * b6) >> 12)) >> 11
	x2 := (int32(c.AC2) * b6) >> 11
	x3 := x1 + x2
	b3 := (((int32(c.AC1)*4 + x3) << oss) + 2) / 4

	x1 = (int32(c.AC3) * b6) >> 13
	x2 = (int32(c.B1) * ((b6 * b6) >> 12)) >> 16
	x3 = ((x1 + x2) + 2) >> 2
	b4 := (uint32(c.AC4) * uint32(x3+32768)) >> 15
	if b4 == 0 {
		return 0, fmt.Errorf("%w: B4 = 0 for B5 %d", ErrCompensation, b5)
	}
	b7 := (uint32(up) - uint32(b3)) * (50000 >> oss)

	p := divideB7(b7, b4)
	x1 = (p >> 8) * (p >> 8)
	x1 = (x1 * 3038) >> 16
	x2 = (-7357 * p) >> 16
	return p + ((x1 + x2 + 3791) >> 4), nil
}

// divideB7 computes 2*B7/B4 without overflowing 32 bits: below 0x80000000 the
// doubling happens first for precision, at or above it the division does.
func divideB7(b7, b4 uint32) int32 {
	if b7 < 0x80000000 {
		return int32((b7 * 2) / b4)
	}
	return int32((b7 / b4) * 2)
}

// Altitude returns the height in meters for a pressure in hPa relative to
// the sea-level reference seaLevel, per the international barometric formula.
func Altitude(pressure, seaLevel float64) float64 {
	return 44330 * (1 - math.Pow(pressure/seaLevel, 1/5.255))
}
