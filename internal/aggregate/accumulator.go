// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package aggregate

import (
	"fmt"

	"github.com/relabs-tech/flight_sensors/internal/env"
	"github.com/relabs-tech/flight_sensors/internal/imu"
)

// Sample is one poll of every sensor. Baro is nil when the barometer is not
// part of the pipeline.
type Sample struct {
	Accel imu.Acceleration
	Mag   imu.MagneticField
	Gyro  imu.AngularRate
	Baro  *env.Barometer
}

// Accumulator keeps running per-axis sums for one window.
type Accumulator struct {
	size  int
	count int

	accel, mag, gyro [3]float64
	baro             [3]float64 // temperature, pressure, altitude
	baroCount        int
}

// NewAccumulator returns an empty accumulator for windows of size samples.
func NewAccumulator(size int) *Accumulator {
	return &Accumulator{size: size}
}

// Reset clears the sums at the start of a window.
func (a *Accumulator) Reset() {
	*a = Accumulator{size: a.size}
}

// Count is the number of samples added since the last Reset.
func (a *Accumulator) Count() int { return a.count }

// Full reports whether the window holds size samples.
func (a *Accumulator) Full() bool { return a.count == a.size }

// Add folds s into the sums. Adding to a full window is an error.
func (a *Accumulator) Add(s Sample) error {
	if a.count >= a.size {
		return fmt.Errorf("accumulator full at %d samples", a.size)
	}
	a.count++
	addVec(&a.accel, s.Accel.X, s.Accel.Y, s.Accel.Z)
	addVec(&a.mag, s.Mag.X, s.Mag.Y, s.Mag.Z)
	addVec(&a.gyro, s.Gyro.X, s.Gyro.Y, s.Gyro.Z)
	if s.Baro != nil {
		a.baroCount++
		addVec(&a.baro, s.Baro.Temperature, s.Baro.Pressure, s.Baro.Altitude)
	}
	return nil
}

func addVec(v *[3]float64, x, y, z float64) {
	v[0] += x
	v[1] += y
	v[2] += z
}

// Composite averages the sums over the configured window size. The barometer
// is averaged over the samples that carried it and left nil if none did.
func (a *Accumulator) Composite() imu.Composite {
	n := float64(a.size)
	c := imu.Composite{
		Samples: a.count,
		Accel:   imu.Acceleration{X: a.accel[0] / n, Y: a.accel[1] / n, Z: a.accel[2] / n},
		Mag:     imu.MagneticField{X: a.mag[0] / n, Y: a.mag[1] / n, Z: a.mag[2] / n},
		Gyro:    imu.AngularRate{X: a.gyro[0] / n, Y: a.gyro[1] / n, Z: a.gyro[2] / n},
	}
	if a.baroCount > 0 {
		b := float64(a.baroCount)
		c.Baro = &env.Barometer{Temperature: a.baro[0] / b, Pressure: a.baro[1] / b, Altitude: a.baro[2] / b}
	}
	return c
}
