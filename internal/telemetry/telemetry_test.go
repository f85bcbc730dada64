package telemetry

import (
	"errors"
	"strings"
	"testing"

	"github.com/relabs-tech/flight_sensors/internal/env"
	"github.com/relabs-tech/flight_sensors/internal/imu"
)

func sampleComposite(withBaro bool) imu.Composite {
	c := imu.Composite{
		Seq:     7,
		Samples: 5,
		Accel:   imu.Acceleration{X: 0.5, Y: -1.25, Z: 9.75},
		Mag:     imu.MagneticField{X: 0.2, Y: -0.25, Z: 0.5},
		Gyro:    imu.AngularRate{X: 1.5, Y: -2.5, Z: 30},
	}
	if withBaro {
		c.Baro = &env.Barometer{Temperature: 15.5, Pressure: 699.64, Altitude: 3016.5}
	}
	return c
}

func TestMultiPublishesToAllSinks(t *testing.T) {
	errA := errors.New("sink a down")
	var got []uint64
	ok := SinkFunc(func(c imu.Composite) error {
		got = append(got, c.Seq)
		return nil
	})
	failing := SinkFunc(func(imu.Composite) error { return errA })

	m := Multi{failing, ok, ok}
	err := m.Publish(sampleComposite(false))
	if !errors.Is(err, errA) {
		t.Fatalf("Publish error = %v, want %v", err, errA)
	}
	if len(got) != 2 {
		t.Fatalf("healthy sinks received %d composites, want 2", len(got))
	}
}

func TestMultiNoErrors(t *testing.T) {
	m := Multi{SinkFunc(func(imu.Composite) error { return nil })}
	if err := m.Publish(sampleComposite(true)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := (Multi{}).Publish(sampleComposite(true)); err != nil {
		t.Fatalf("empty Multi: %v", err)
	}
}

func TestFormatConsole(t *testing.T) {
	got := FormatConsole(sampleComposite(false))
	want := "Acc: (x: 0.50, y: -1.25, z: 9.75)\n" +
		"Mag: (x: 0.20, y: -0.25, z: 0.50)\n" +
		"Gyro: (x: 1.50, y: -2.50, z: 30.00)"
	if got != want {
		t.Fatalf("FormatConsole =\n%s\nwant\n%s", got, want)
	}

	withBaro := FormatConsole(sampleComposite(true))
	lines := strings.Split(withBaro, "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	if lines[3] != "Baro: (t: 15.5 C, p: 699.64 hPa, alt: 3016.5 m)" {
		t.Fatalf("baro line = %q", lines[3])
	}
}
