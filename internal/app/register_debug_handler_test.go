package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/relabs-tech/flight_sensors/internal/env"
	"github.com/relabs-tech/flight_sensors/internal/imu"
	"github.com/relabs-tech/flight_sensors/internal/sensors"
)

func sampleComposite() imu.Composite {
	return imu.Composite{
		Seq:     3,
		Samples: 5,
		Gyro:    imu.AngularRate{X: 1, Y: 2, Z: 3},
		Baro:    &env.Barometer{Temperature: 15, Pressure: 699.64, Altitude: 3016.7},
	}
}

func TestRegisterDebuggerReadWrite(t *testing.T) {
	sim, board := newSimBoard(t)
	dbg := NewRegisterDebugger(sim, board)

	if got := dbg.Devices(); strings.Join(got, ",") != "bmp180,l3gd20,lsm303d" {
		t.Fatalf("Devices = %v", got)
	}

	v, err := dbg.Read(sensors.DeviceLSM303D, 0x0F)
	if err != nil || v != 0x49 {
		t.Fatalf("WHO_AM_I = 0x%02X, %v", v, err)
	}

	if err := dbg.Write(sensors.DeviceLSM303D, 0x20, 0x57); err != nil {
		t.Fatalf("Write CTRL1: %v", err)
	}
	if v, err := dbg.Read(sensors.DeviceLSM303D, 0x20); err != nil || v != 0x57 {
		t.Fatalf("CTRL1 = 0x%02X, %v", v, err)
	}

	if err := dbg.Write(sensors.DeviceLSM303D, 0x0F, 0x00); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("write WHO_AM_I error = %v, want ErrReadOnly", err)
	}
	if err := dbg.Write(sensors.DeviceL3GD20, 0x7E, 0x00); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("write unmapped register error = %v, want ErrReadOnly", err)
	}
	if _, err := dbg.Read("hmc5983", 0x00); err == nil {
		t.Fatal("read from unknown device succeeded")
	}
}

func TestRegisterDebuggerReadAll(t *testing.T) {
	sim, board := newSimBoard(t)
	dbg := NewRegisterDebugger(sim, board)

	regs, err := dbg.ReadAll(sensors.DeviceBMP180)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if regs[0xD0] != 0x55 {
		t.Fatalf("ID = 0x%02X", regs[0xD0])
	}
	// Calibration block, first and last byte of the datasheet coefficients.
	if regs[0xAA] != 0x01 || regs[0xBF] != 0x34 {
		t.Fatalf("calibration bytes 0x%02X 0x%02X", regs[0xAA], regs[0xBF])
	}
	if _, ok := regs[0xE0]; ok {
		t.Fatal("write-only SOFT_RESET was read")
	}
}

func TestRegisterDebuggerWithoutBarometer(t *testing.T) {
	sim, _ := newSimBoard(t)
	opts := defaultConfig(t).Board()
	opts.BMP180 = nil
	board, err := sensors.NewBoard(sim, opts)
	if err != nil {
		t.Fatal(err)
	}
	dbg := NewRegisterDebugger(sim, board)
	if _, err := dbg.RegisterMap(sensors.DeviceBMP180); err == nil {
		t.Fatal("bmp180 map served without a barometer")
	}
}

func TestRegisterDebuggerHandle(t *testing.T) {
	sim, board := newSimBoard(t)
	dbg := NewRegisterDebugger(sim, board)

	tests := []struct {
		name     string
		cmd      RegisterCmd
		wantType string
		check    func(t *testing.T, r RegisterResponse)
	}{
		{"map default device", RegisterCmd{Action: "get_map"}, "register_map", func(t *testing.T, r RegisterResponse) {
			if r.Device != sensors.DeviceLSM303D || r.RegisterMap[0].Address != "0x05" {
				t.Fatalf("map = %+v", r)
			}
		}},
		{"read", RegisterCmd{Action: "read", Device: "bmp180", Address: "0xD0"}, "register_data", func(t *testing.T, r RegisterResponse) {
			if r.Value != "0x55" || r.Address != "0xD0" {
				t.Fatalf("read = %+v", r)
			}
		}},
		{"write", RegisterCmd{Action: "write", Device: "l3gd20", Address: "0x20", Value: "0x0F"}, "register_data", func(t *testing.T, r RegisterResponse) {
			if r.Message != "write successful" {
				t.Fatalf("write = %+v", r)
			}
		}},
		{"read all", RegisterCmd{Action: "read_all", Device: "l3gd20"}, "register_data", func(t *testing.T, r RegisterResponse) {
			if r.Registers["0x0F"] != "0xD4" || r.Registers["0x20"] != "0x0F" {
				t.Fatalf("registers = %v", r.Registers)
			}
		}},
		{"bad address", RegisterCmd{Action: "read", Address: "15"}, "error", nil},
		{"bad value", RegisterCmd{Action: "write", Address: "0x20", Value: "0x100"}, "error", nil},
		{"read only", RegisterCmd{Action: "write", Address: "0x0F", Value: "0x00"}, "error", nil},
		{"unknown action", RegisterCmd{Action: "set_spi_speed"}, "error", nil},
	}
	// Cases run in order: read all relies on the write before it.
	for _, tt := range tests {
		resp := dbg.Handle(tt.cmd)
		if resp.Type != tt.wantType {
			t.Fatalf("%s: type = %q (%s), want %q", tt.name, resp.Type, resp.Message, tt.wantType)
		}
		if tt.check != nil {
			tt.check(t, resp)
		}
	}
}
