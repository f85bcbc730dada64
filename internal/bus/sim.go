// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Op records one transaction seen by a Sim.
type Op struct {
	Addr  uint16
	Write []byte // nil for reads
	Hold  bool
	Read  int // bytes requested, 0 for writes
}

// SimDevice is a 256-byte register file behind one address.
type SimDevice struct {
	Regs [256]byte

	// IncrementBit selects how the register pointer advances on multi-byte
	// access. Zero means it always advances. A non-zero mask (0x80 on ST
	// parts) must be set in the sub-address to advance and is stripped from
	// the pointer.
	IncrementBit byte

	// OnWrite runs after each byte written to reg. It is called with the
	// simulator lock held and may modify Regs.
	OnWrite func(d *SimDevice, reg, value byte)

	ptr byte
	inc bool
}

// PutInt16LE stores v little-endian at reg, reg+1.
func (d *SimDevice) PutInt16LE(reg byte, v int16) {
	binary.LittleEndian.PutUint16(d.Regs[reg:], uint16(v))
}

// PutUint16BE stores v big-endian at reg, reg+1.
func (d *SimDevice) PutUint16BE(reg byte, v uint16) {
	binary.BigEndian.PutUint16(d.Regs[reg:], v)
}

func (d *SimDevice) setPointer(sub byte) {
	if d.IncrementBit == 0 {
		d.ptr, d.inc = sub, true
		return
	}
	d.ptr, d.inc = sub&^d.IncrementBit, sub&d.IncrementBit != 0
}

func (d *SimDevice) advance() {
	if d.inc {
		d.ptr++
	}
}

// Sim is an in-memory Transport with devices attached at fixed addresses.
// Addresses without a device NACK.
type Sim struct {
	mu      sync.Mutex
	devices map[uint16]*SimDevice
	ops     []Op
	fail    func(n int, op Op) error
}

// NewSim returns an empty simulator.
func NewSim() *Sim {
	return &Sim{devices: make(map[uint16]*SimDevice)}
}

// Attach places d at addr, replacing any previous device.
func (s *Sim) Attach(addr uint16, d *SimDevice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[addr] = d
}

// Detach removes the device at addr; later transactions to it NACK.
func (s *Sim) Detach(addr uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.devices, addr)
}

// Update runs f with the simulator lock held, for mutating register
// contents while the bus is in use.
func (s *Sim) Update(addr uint16, f func(d *SimDevice)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.devices[addr]; ok {
		f(d)
	}
}

// FailWhen installs a fault injector. f gets the zero-based index of the
// transaction and the transaction itself; a non-nil return fails it.
// Passing nil clears the injector.
func (s *Sim) FailWhen(f func(n int, op Op) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = f
}

// Ops returns a copy of the transaction log.
func (s *Sim) Ops() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Op(nil), s.ops...)
}

// ResetOps clears the transaction log. Fault injector indices restart at 0.
func (s *Sim) ResetOps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
}

func (s *Sim) record(op Op) (*SimDevice, error) {
	n := len(s.ops)
	s.ops = append(s.ops, op)
	if s.fail != nil {
		if err := s.fail(n, op); err != nil {
			return nil, fmt.Errorf("%w: injected at op %d: %w", ErrTransaction, n, err)
		}
	}
	d, ok := s.devices[op.Addr]
	if !ok {
		return nil, fmt.Errorf("%w: no ack from 0x%02X", ErrTransaction, op.Addr)
	}
	return d, nil
}

// Write implements Transport. The first byte is the sub-address, the rest
// are written starting there.
func (s *Sim) Write(addr uint16, data []byte, hold bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(addr, data, hold)
}

func (s *Sim) writeLocked(addr uint16, data []byte, hold bool) error {
	d, err := s.record(Op{Addr: addr, Write: append([]byte(nil), data...), Hold: hold})
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	d.setPointer(data[0])
	for _, v := range data[1:] {
		reg := d.ptr
		d.Regs[reg] = v
		if d.OnWrite != nil {
			d.OnWrite(d, reg, v)
		}
		d.advance()
	}
	return nil
}

// Read implements Transport.
func (s *Sim) Read(addr uint16, buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(addr, buf)
}

// readRegister keeps the pointer write and the data read under one lock so
// concurrent users of the simulator cannot move the pointer in between.
func (s *Sim) readRegister(addr uint16, reg byte, buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeLocked(addr, []byte{reg}, true); err != nil {
		return err
	}
	_, err := s.readLocked(addr, buf)
	return err
}

func (s *Sim) readLocked(addr uint16, buf []byte) (int, error) {
	d, err := s.record(Op{Addr: addr, Read: len(buf)})
	if err != nil {
		return 0, err
	}
	for i := range buf {
		buf[i] = d.Regs[d.ptr]
		d.advance()
	}
	return len(buf), nil
}
