package sensors

import (
	"bytes"
	"errors"
	"testing"

	"github.com/relabs-tech/flight_sensors/internal/bus"
)

func TestLSM303DInitSequence(t *testing.T) {
	g := bus.NewGY89Sim()
	d, err := NewLSM303D(g, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var writes [][]byte
	for _, op := range g.Ops() {
		if len(op.Write) == 2 {
			writes = append(writes, op.Write)
		}
	}
	want := [][]byte{{0x21, 0x00}, {0x20, 0x57}, {0x24, 0x64}, {0x25, 0x20}, {0x26, 0x00}}
	if len(writes) != len(want) {
		t.Fatalf("writes %X, want %X", writes, want)
	}
	for i := range want {
		if !bytes.Equal(writes[i], want[i]) {
			t.Errorf("write %d = %X, want %X", i, writes[i], want[i])
		}
	}
}

func TestLSM303DReadAcceleration(t *testing.T) {
	g := bus.NewGY89Sim()
	g.SetAccelerationRaw(1000, -2000, 16384)
	d, _ := NewLSM303D(g, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	g.ResetOps()

	a, err := d.ReadAcceleration()
	if err != nil {
		t.Fatalf("ReadAcceleration: %v", err)
	}
	if !approx(a.X, 0.59841, 1e-9) || !approx(a.Y, -1.19682, 1e-9) || !approx(a.Z, 9.80434944, 1e-9) {
		t.Fatalf("got %+v", a)
	}
	ops := g.Ops()
	if len(ops) != 2 || !bytes.Equal(ops[0].Write, []byte{0x28 | 0x80}) || !ops[0].Hold || ops[1].Read != 6 {
		t.Fatalf("ops %+v", ops)
	}
}

func TestLSM303DReadMagnetometer(t *testing.T) {
	g := bus.NewGY89Sim()
	g.SetMagneticRaw(100, -6250, 0)
	d, _ := NewLSM303D(g, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	g.ResetOps()

	m, err := d.ReadMagnetometer()
	if err != nil {
		t.Fatalf("ReadMagnetometer: %v", err)
	}
	if !approx(m.X, 0.016, 1e-12) || !approx(m.Y, -1.0, 1e-12) || m.Z != 0 {
		t.Fatalf("got %+v", m)
	}
	if ops := g.Ops(); !bytes.Equal(ops[0].Write, []byte{0x08 | 0x80}) {
		t.Fatalf("pointer write %X", ops[0].Write)
	}
}

func TestLSM303DConversionsAreLinear(t *testing.T) {
	for _, raw := range []int16{-32768, -1234, -1, 0, 1, 777, 32767} {
		a := AccelerationFromRaw(raw, 0, 0)
		if !approx(a.X, float64(raw)*AccelerationFromRaw(1, 0, 0).X, 1e-9) {
			t.Errorf("accel %d: %v", raw, a.X)
		}
		if a.Z != 0 {
			t.Errorf("zero input produced %v", a.Z)
		}
		m := MagneticFieldFromRaw(raw, 0, 0)
		if !approx(m.X, float64(raw)*MagneticFieldFromRaw(1, 0, 0).X, 1e-9) {
			t.Errorf("mag %d: %v", raw, m.X)
		}
	}
}

func TestLSM303DWrongIdentity(t *testing.T) {
	g := bus.NewGY89Sim()
	g.Update(bus.AddrLSM303D, func(dev *bus.SimDevice) { dev.Regs[0x0F] = 0xD4 })
	d, _ := NewLSM303D(g, nil)

	if err := d.Init(); !errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("got %v, want ErrIdentityMismatch", err)
	}
	for _, op := range g.Ops() {
		if len(op.Write) == 2 {
			t.Fatalf("configuration written after identity failure: %X", op.Write)
		}
	}
	if _, err := d.ReadAcceleration(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("read after failed Init: %v", err)
	}
}

func TestLSM303DBusFailureWraps(t *testing.T) {
	g := bus.NewGY89Sim()
	d, _ := NewLSM303D(g, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	g.Detach(bus.AddrLSM303D)
	if _, err := d.ReadMagnetometer(); !errors.Is(err, bus.ErrTransaction) {
		t.Fatalf("got %v, want ErrTransaction", err)
	}
}
