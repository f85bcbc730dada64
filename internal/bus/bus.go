// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bus defines the blocking I²C transport the sensor drivers talk to,
// a periph.io backed implementation and a register-level simulator.
package bus

import (
	"errors"
	"fmt"
)

// ErrTransaction is wrapped by every transport level failure (NACK, timeout,
// short read, injected fault).
var ErrTransaction = errors.New("bus transaction failed")

// Transport is a blocking byte-buffer I²C transport addressed by 7-bit
// device address.
//
// A Write with hold set keeps the bus for the caller so that the next Read
// to the same address is issued as a repeated start: register pointer, then
// burst read. Implementations must not let another caller interleave a
// transaction between the two.
type Transport interface {
	Write(addr uint16, data []byte, hold bool) error
	Read(addr uint16, buf []byte) (int, error)
}

// registerReader is implemented by transports that can issue the pointer
// write and the data read as one indivisible transaction.
type registerReader interface {
	readRegister(addr uint16, reg byte, buf []byte) error
}

// ReadRegister sets the register pointer of the device at addr to reg and
// reads len(buf) bytes from it.
func ReadRegister(t Transport, addr uint16, reg byte, buf []byte) error {
	if rr, ok := t.(registerReader); ok {
		return rr.readRegister(addr, reg, buf)
	}
	if err := t.Write(addr, []byte{reg}, true); err != nil {
		return err
	}
	n, err := t.Read(addr, buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("%w: short read from 0x%02X reg 0x%02X: got %d of %d bytes", ErrTransaction, addr, reg, n, len(buf))
	}
	return nil
}

// WriteRegister writes a single register value and releases the bus.
func WriteRegister(t Transport, addr uint16, reg, value byte) error {
	return t.Write(addr, []byte{reg, value}, false)
}
