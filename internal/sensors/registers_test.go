package sensors

import "testing"

func TestRegisterTables(t *testing.T) {
	tables := map[string][]Register{
		DeviceBMP180:  bmp180Registers,
		DeviceLSM303D: lsm303dRegisters,
		DeviceL3GD20:  l3gd20Registers,
	}
	for dev, table := range tables {
		regs := newRegisterMap(table).Sorted()
		if len(regs) != len(table) {
			t.Errorf("%s: %d registers after build, want %d", dev, len(regs), len(table))
		}
		for i := 1; i < len(regs); i++ {
			if regs[i-1].Addr >= regs[i].Addr {
				t.Errorf("%s: %s (0x%02X) not before %s (0x%02X)", dev, regs[i-1].Name, regs[i-1].Addr, regs[i].Name, regs[i].Addr)
			}
		}
		for _, r := range regs {
			if r.Width < 1 {
				t.Errorf("%s: %s has width %d", dev, r.Name, r.Width)
			}
		}
	}
}

func TestRegisterMapRequireAndLookup(t *testing.T) {
	m := newRegisterMap(lsm303dRegisters)
	if err := m.Require("WHO_AM_I", "CTRL1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Require("CTRL_REG1"); err == nil {
		t.Fatal("missing register not reported")
	}
	r, ok := m.Lookup(0x28)
	if !ok || r.Name != "OUT_X_L_A" || r.Width != 6 {
		t.Fatalf("lookup 0x28: %+v %v", r, ok)
	}
	if _, ok := m.Lookup(0xFF); ok {
		t.Fatal("lookup of unmapped address succeeded")
	}
}

func TestRegisterMapsAreIndependent(t *testing.T) {
	a := newRegisterMap(l3gd20Registers)
	delete(a, "WHO_AM_I")
	b := newRegisterMap(l3gd20Registers)
	if err := b.Require("WHO_AM_I"); err != nil {
		t.Fatal("mutating one map affected another")
	}
}
