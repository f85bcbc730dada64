package sensors

import (
	"bytes"
	"errors"
	"testing"

	"github.com/relabs-tech/flight_sensors/internal/bus"
)

func TestL3GD20InitAndRead(t *testing.T) {
	g := bus.NewGY89Sim()
	g.SetRateRaw(1000, -1000, 0)
	d, err := NewL3GD20(g, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.ReadGyroscope(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("read before Init: %v", err)
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
	want := [][]byte{{0x20, 0x0F}, {0x21, 0x00}, {0x23, 0x00}}
	if len(writes) != len(want) {
		t.Fatalf("writes %X, want %X", writes, want)
	}
	for i := range want {
		if !bytes.Equal(writes[i], want[i]) {
			t.Errorf("write %d = %X, want %X", i, writes[i], want[i])
		}
	}

	r, err := d.ReadGyroscope()
	if err != nil {
		t.Fatalf("ReadGyroscope: %v", err)
	}
	if !approx(r.X, 8.75, 1e-12) || !approx(r.Y, -8.75, 1e-12) || r.Z != 0 {
		t.Fatalf("got %+v", r)
	}
}

func TestL3GD20ConversionIsLinear(t *testing.T) {
	unit := AngularRateFromRaw(1, 0, 0).X
	for _, raw := range []int16{-32768, -100, 0, 3, 32767} {
		if got := AngularRateFromRaw(0, 0, raw).Z; !approx(got, float64(raw)*unit, 1e-9) {
			t.Errorf("raw %d: got %v", raw, got)
		}
	}
	if got := AngularRateFromRaw(32767, 0, 0).X; !approx(got, 286.71125, 1e-9) {
		t.Errorf("full scale: got %v", got)
	}
}

func TestL3GD20WrongIdentity(t *testing.T) {
	g := bus.NewGY89Sim()
	g.Update(bus.AddrL3GD20, func(dev *bus.SimDevice) { dev.Regs[0x0F] = 0xD7 })
	d, _ := NewL3GD20(g, nil)
	if err := d.Init(); !errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("got %v, want ErrIdentityMismatch", err)
	}
}
