// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"sort"
)

// BitField describes one field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// Register is the metadata for one device register. Width is the number of
// consecutive bytes read from Addr in a single burst.
type Register struct {
	Name        string
	Addr        byte
	Width       int
	Access      string // "R", "W", "RW"
	Description string
	Default     string
	BitFields   []BitField
}

// RegisterMap indexes a device's registers by name. Drivers resolve every
// address through it so that a different silicon revision only needs a new
// table.
type RegisterMap map[string]Register

func newRegisterMap(regs []Register) RegisterMap {
	m := make(RegisterMap, len(regs))
	for _, r := range regs {
		if r.Width == 0 {
			r.Width = 1
		}
		m[r.Name] = r
	}
	return m
}

// Require returns an error naming the first register missing from m.
func (m RegisterMap) Require(names ...string) error {
	for _, n := range names {
		if _, ok := m[n]; !ok {
			return fmt.Errorf("register map has no %s", n)
		}
	}
	return nil
}

// Addr returns the address of a register that Require has already checked.
func (m RegisterMap) Addr(name string) byte {
	return m[name].Addr
}

// Lookup finds the register at addr.
func (m RegisterMap) Lookup(addr byte) (Register, bool) {
	for _, r := range m {
		if r.Addr == addr {
			return r, true
		}
	}
	return Register{}, false
}

// Sorted returns the registers ordered by address.
func (m RegisterMap) Sorted() []Register {
	out := make([]Register, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// registerWrite is one step of a fixed configuration sequence.
type registerWrite struct {
	reg   string
	value byte
}

// Device names used in logs, metrics labels and the register debugger.
const (
	DeviceBMP180  = "bmp180"
	DeviceLSM303D = "lsm303d"
	DeviceL3GD20  = "l3gd20"
)
