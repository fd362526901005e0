//go:build !linux

package i2c

import "fmt"

type Bus struct{}

type Dev struct{}

func Open(path string) (*Bus, error) { return nil, fmt.Errorf("i2c: unsupported OS (need linux)") }

func (b *Bus) Close() error { return nil }

func (b *Bus) Dev(addr uint16) *Dev { return nil }

func (d *Dev) Write(p []byte) error                 { return fmt.Errorf("i2c: unsupported OS") }
func (d *Dev) Read(p []byte) error                  { return fmt.Errorf("i2c: unsupported OS") }
func (d *Dev) WriteRead(w, r []byte) error          { return fmt.Errorf("i2c: unsupported OS") }
func (d *Dev) ReadReg(reg byte, dst []byte) error   { return fmt.Errorf("i2c: unsupported OS") }
func (d *Dev) ReadRegU8(reg byte) (byte, error)     { return 0, fmt.Errorf("i2c: unsupported OS") }
func (d *Dev) ReadRegS16(regLo byte) (int16, error) { return 0, fmt.Errorf("i2c: unsupported OS") }
func (d *Dev) WriteReg(reg, value byte) error       { return fmt.Errorf("i2c: unsupported OS") }

// CombineLoHi assembles a signed 16-bit sensor value from its low and
// high output bytes.
func CombineLoHi(lo, hi byte) int16 {
	return int16(uint16(hi)<<8 | uint16(lo))
}
