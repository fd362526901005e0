//go:build linux

package i2c

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux I2C access via /dev/i2c-*.
//
// Register reads go through I2C_RDWR so the write of the register address
// and the read of its contents happen in one transaction with a repeated
// start. The LSM6DS33 (like the other AltIMU chips) requires that for
// multi-byte output reads with register auto-increment.

const (
	flagRead  = 0x0001 // I2C_M_RD
	ioctlRdwr = 0x0707 // I2C_RDWR
)

type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

type i2cRdwrReq struct {
	msgs  uintptr
	nmsgs uint32
}

// Bus is an opened I2C bus such as /dev/i2c-1.
//
// Multiple Dev handles may share one Bus, but transfers are not
// serialized here; callers running concurrent loops must coordinate.
type Bus struct {
	f    *os.File
	path string
}

func Open(path string) (*Bus, error) {
	path = filepath.Clean(path)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &Bus{f: f, path: path}, nil
}

func (b *Bus) Close() error {
	if b == nil || b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

// Dev returns a handle for the device at a 7-bit address on this bus.
func (b *Bus) Dev(addr uint16) *Dev {
	if b == nil {
		return nil
	}
	return &Dev{bus: b, addr: addr}
}

type Dev struct {
	bus  *Bus
	addr uint16
}

func (d *Dev) Write(p []byte) error {
	return d.transfer(p, nil)
}

func (d *Dev) Read(p []byte) error {
	return d.transfer(nil, p)
}

// WriteRead performs a combined write+read transaction (repeated start).
func (d *Dev) WriteRead(w, r []byte) error {
	return d.transfer(w, r)
}

// ReadReg reads len(dst) bytes starting at reg. With register
// auto-increment enabled on the device this covers a contiguous block.
func (d *Dev) ReadReg(reg byte, dst []byte) error {
	return d.WriteRead([]byte{reg}, dst)
}

func (d *Dev) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := d.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadRegS16 reads a low/high register pair starting at regLo and
// combines the bytes into a signed 16-bit value. All AltIMU output
// register pairs store the low byte first.
func (d *Dev) ReadRegS16(regLo byte) (int16, error) {
	var b [2]byte
	if err := d.ReadReg(regLo, b[:]); err != nil {
		return 0, err
	}
	return CombineLoHi(b[0], b[1]), nil
}

func (d *Dev) WriteReg(reg, value byte) error {
	return d.Write([]byte{reg, value})
}

// CombineLoHi assembles a signed 16-bit sensor value from its low and
// high output bytes.
func CombineLoHi(lo, hi byte) int16 {
	return int16(uint16(hi)<<8 | uint16(lo))
}

func (d *Dev) transfer(w, r []byte) error {
	if d == nil || d.bus == nil || d.bus.f == nil {
		return errors.New("i2c: device is nil")
	}
	if d.addr == 0 || d.addr > 0x7F {
		return fmt.Errorf("i2c: invalid addr 0x%X", d.addr)
	}

	msgs := make([]i2cMsg, 0, 2)
	if len(w) > 0 {
		msgs = append(msgs, i2cMsg{addr: d.addr, len: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))})
	}
	if len(r) > 0 {
		msgs = append(msgs, i2cMsg{addr: d.addr, flags: flagRead, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))})
	}
	if len(msgs) == 0 {
		return nil
	}

	req := i2cRdwrReq{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(len(msgs))}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.bus.f.Fd(), uintptr(ioctlRdwr), uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		return fmt.Errorf("i2c: transfer to 0x%X on %s: %w", d.addr, d.bus.path, errno)
	}
	return nil
}
