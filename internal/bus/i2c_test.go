package bus

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestI2CReadRegisterIsOneTx(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x77, W: []byte{0xD0}, R: []byte{0x55}},
		},
	}
	tr := NewI2C(pb)

	buf := make([]byte, 1)
	if err := ReadRegister(tr, 0x77, 0xD0, buf); err != nil {
		t.Fatalf("ReadRegister: %v", err)
	}
	if buf[0] != 0x55 {
		t.Fatalf("got 0x%02X, want 0x55", buf[0])
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("playback not drained: %v", err)
	}
}

func TestI2CHeldWriteJoinsRead(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x1E, W: []byte{0xA8}, R: []byte{1, 2, 3, 4, 5, 6}},
			{Addr: 0x1E, W: []byte{0x20, 0x57}},
		},
	}
	tr := NewI2C(pb)

	if err := tr.Write(0x1E, []byte{0xA8}, true); err != nil {
		t.Fatalf("held write: %v", err)
	}
	buf := make([]byte, 6)
	n, err := tr.Read(0x1E, buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 6 || !bytes.Equal(buf, []byte{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("read %d bytes %v", n, buf)
	}
	if err := WriteRegister(tr, 0x1E, 0x20, 0x57); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("playback not drained: %v", err)
	}
}

func TestI2CHeldWriteKeepsTheBus(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x77, W: []byte{0xF6}, R: []byte{0x6C, 0xFA}},
			{Addr: 0x1E, W: []byte{0x20, 0x57}},
			{Addr: 0x6A, W: []byte{0x0F}, R: []byte{0xD4}},
		},
		DontPanic: true,
	}
	tr := NewI2C(pb)

	if err := tr.Write(0x77, []byte{0xF6}, true); err != nil {
		t.Fatalf("held write: %v", err)
	}

	writeDone := make(chan error, 1)
	go func() { writeDone <- WriteRegister(tr, 0x1E, 0x20, 0x57) }()
	select {
	case err := <-writeDone:
		t.Fatalf("write to 0x1E went out while the bus was held: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	buf := make([]byte, 2)
	if _, err := tr.Read(0x77, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buf, []byte{0x6C, 0xFA}) {
		t.Fatalf("read %X, want 6CFA", buf)
	}
	if err := <-writeDone; err != nil {
		t.Fatalf("write to 0x1E: %v", err)
	}

	id := make([]byte, 1)
	if err := ReadRegister(tr, 0x6A, 0x0F, id); err != nil || id[0] != 0xD4 {
		t.Fatalf("ReadRegister after release = %X, %v", id, err)
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("playback not drained: %v", err)
	}
}

func TestI2CReadFromOtherAddressWaitsForHolder(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x1E, W: []byte{0xA8}, R: []byte{1, 2}},
			{Addr: 0x6A, R: []byte{0xD4}},
		},
		DontPanic: true,
	}
	tr := NewI2C(pb)

	if err := tr.Write(0x1E, []byte{0xA8}, true); err != nil {
		t.Fatalf("held write: %v", err)
	}
	readDone := make(chan error, 1)
	go func() {
		_, err := tr.Read(0x6A, make([]byte, 1))
		readDone <- err
	}()
	select {
	case err := <-readDone:
		t.Fatalf("read from 0x6A went out while the bus was held: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := tr.Read(0x1E, make([]byte, 2)); err != nil {
		t.Fatalf("holder read: %v", err)
	}
	if err := <-readDone; err != nil {
		t.Fatalf("read from 0x6A: %v", err)
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("playback not drained: %v", err)
	}
}

func TestI2CErrorsWrapTransaction(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	tr := NewI2C(pb)

	err := ReadRegister(tr, 0x77, 0xD0, make([]byte, 1))
	if !errors.Is(err, ErrTransaction) {
		t.Fatalf("got %v, want ErrTransaction", err)
	}
}
