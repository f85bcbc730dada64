// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// I2C adapts a periph.io i2c.Bus to Transport.
//
// A held write is not put on the wire by itself: it is buffered and sent
// together with the following Read as a single Tx, which periph issues as
// write, repeated start, read. The bus mutex is taken by the held Write and
// only released by the Read at the held address, so a Write or Read from
// any other goroutine waits for the whole pointer and data exchange.
// ReadRegister on an *I2C is a single locked Tx.
type I2C struct {
	bus i2c.Bus

	// mu owns the bus. It stays locked from a held Write until its Read.
	mu sync.Mutex

	// st guards the fields below.
	st          sync.Mutex
	held        bool
	pending     []byte
	pendingAddr uint16
}

// NewI2C wraps an already opened periph bus.
func NewI2C(b i2c.Bus) *I2C {
	return &I2C{bus: b}
}

// OpenI2C initializes the periph host and opens the named bus ("" selects
// the first available one).
func OpenI2C(name string) (*I2C, i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periph host init: %w", err)
	}
	bc, err := i2creg.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("i2c open %q: %w", name, err)
	}
	return NewI2C(bc), bc, nil
}

// Bus returns the underlying periph bus for periph device drivers (the OLED
// display) that share it.
func (t *I2C) Bus() i2c.Bus {
	return t.bus
}

// Write implements Transport. After a held Write the caller must Read
// from the same address before touching the bus again.
func (t *I2C) Write(addr uint16, data []byte, hold bool) error {
	t.mu.Lock()
	if !hold {
		defer t.mu.Unlock()
		return t.txLocked(addr, data, nil)
	}
	t.st.Lock()
	t.held = true
	t.pending = append(t.pending[:0], data...)
	t.pendingAddr = addr
	t.st.Unlock()
	return nil
}

// Read implements Transport. A Read at the held address completes the held
// write as its register pointer and releases the bus. Any other Read waits
// for the bus.
func (t *I2C) Read(addr uint16, buf []byte) (int, error) {
	t.st.Lock()
	owner := t.held && t.pendingAddr == addr
	var w []byte
	if owner {
		w = append([]byte(nil), t.pending...)
		t.pending = t.pending[:0]
		t.held = false
	}
	t.st.Unlock()

	if !owner {
		t.mu.Lock()
	}
	defer t.mu.Unlock()
	if err := t.txLocked(addr, w, buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// readRegister performs pointer write and burst read as one Tx.
func (t *I2C) readRegister(addr uint16, reg byte, buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.txLocked(addr, []byte{reg}, buf)
}

func (t *I2C) txLocked(addr uint16, w, r []byte) error {
	if err := t.bus.Tx(addr, w, r); err != nil {
		if len(r) > 0 {
			return fmt.Errorf("%w: read 0x%02X: %w", ErrTransaction, addr, err)
		}
		return fmt.Errorf("%w: write 0x%02X: %w", ErrTransaction, addr, err)
	}
	return nil
}
