// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"time"

	"github.com/relabs-tech/flight_sensors/internal/env"
)

// Raw represents a single raw accel+mag+gyro sample in sensor counts.
type Raw struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Mx int16 `json:"mx"` // magnetometer
	My int16 `json:"my"`
	Mz int16 `json:"mz"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// Acceleration in m/s².
type Acceleration struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MagneticField in gauss.
type MagneticField struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// AngularRate in degrees per second.
type AngularRate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Composite is one time-averaged output of the acquisition loop.
type Composite struct {
	Seq     uint64    `json:"seq"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Samples int       `json:"samples"`

	Accel Acceleration  `json:"accel"`
	Mag   MagneticField `json:"mag"`
	Gyro  AngularRate   `json:"gyro"`

	// Baro is nil when the barometer is not part of the pipeline.
	Baro *env.Barometer `json:"baro,omitempty"`
}
