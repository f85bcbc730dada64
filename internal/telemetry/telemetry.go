// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry holds the consumers of composite samples: console log,
// MQTT, websocket hub, serial NMEA line, SQLite datalog and OLED display.
package telemetry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relabs-tech/flight_sensors/internal/imu"
)

// Sink receives every composite sample produced by the acquisition loop.
type Sink interface {
	Publish(c imu.Composite) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(c imu.Composite) error

func (f SinkFunc) Publish(c imu.Composite) error { return f(c) }

// Multi fans a composite out to every sink. One failing sink does not keep
// the others from receiving it; all errors are joined.
type Multi []Sink

func (m Multi) Publish(c imu.Composite) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Datalog returns the first datalog sink in m, or nil.
func (m Multi) Datalog() *Datalog {
	for _, s := range m {
		if d, ok := s.(*Datalog); ok {
			return d
		}
	}
	return nil
}

// FormatConsole renders c in the flight controller console format, one line
// per sensor.
func FormatConsole(c imu.Composite) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Acc: (x: %2.2f, y: %2.2f, z: %2.2f)\n", c.Accel.X, c.Accel.Y, c.Accel.Z)
	fmt.Fprintf(&b, "Mag: (x: %2.2f, y: %2.2f, z: %2.2f)\n", c.Mag.X, c.Mag.Y, c.Mag.Z)
	fmt.Fprintf(&b, "Gyro: (x: %2.2f, y: %2.2f, z: %2.2f)", c.Gyro.X, c.Gyro.Y, c.Gyro.Z)
	if c.Baro != nil {
		fmt.Fprintf(&b, "\nBaro: (t: %2.1f C, p: %4.2f hPa, alt: %2.1f m)", c.Baro.Temperature, c.Baro.Pressure, c.Baro.Altitude)
	}
	return b.String()
}
