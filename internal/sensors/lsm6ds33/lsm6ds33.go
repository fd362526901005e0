// Package lsm6ds33 drives the ST LSM6DS33 accelerometer+gyroscope, the
// IMU half of Pololu's AltIMU-10v5 board.
//
// Scope: probe, enable/disable sequence and raw axis reads. Scaling to
// physical units happens upstream in the fusion layer.
package lsm6ds33

import (
	"fmt"

	"altimu-ng/internal/i2c"
	"altimu-ng/internal/imu"
)

const (
	addrDefault = 0x6B

	regWhoAmI = 0x0F
	whoAmIVal = 0x69

	regFifoCtrl5 = 0x0A
	regCtrl1XL   = 0x10 // accelerometer control
	regCtrl2G    = 0x11 // gyroscope control
	regCtrl3C    = 0x12 // device/communication settings

	// Gyro output block, low byte first, auto-increment covers all six.
	regOutXLG = 0x22
	// Accel output block follows the same layout.
	regOutXLXL = 0x28

	// 1.66 kHz, +/-4 g.
	ctrl1AccelOn = 0x58
	// 208 Hz high performance, 1000 dps full scale. The fusion gyro gain
	// of 0.035 deg/s per LSB matches this setting.
	ctrl2GyroOn = 0x58
	// IF_INC: register auto-increment on multi-byte reads.
	ctrl3AutoIncrement = 0x04
)

// Config selects which sensors and axes to enable. An axis that is not
// requested reads as absent, not zero.
type Config struct {
	Accelerometer bool
	Gyroscope     bool

	X, Y, Z bool
}

// DefaultConfig enables both sensors on all three axes.
func DefaultConfig() Config {
	return Config{Accelerometer: true, Gyroscope: true, X: true, Y: true, Z: true}
}

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

type Device struct {
	dev regIO
	cfg Config
}

func DefaultAddress() uint16 { return addrDefault }

func New(dev *i2c.Dev, cfg Config) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("lsm6ds33: dev is nil")
	}
	return newWithIO(dev, cfg)
}

func newWithIO(dev regIO, cfg Config) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("lsm6ds33: dev is nil")
	}
	d := &Device{dev: dev, cfg: cfg}

	who, err := d.dev.ReadRegU8(regWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("lsm6ds33: whoami read failed: %w", err)
	}
	if who != whoAmIVal {
		return nil, fmt.Errorf("lsm6ds33: whoami=0x%02X want 0x%02X", who, whoAmIVal)
	}

	if err := d.enable(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) enable() error {
	// Power both sensors down before reconfiguring.
	if err := d.dev.WriteReg(regCtrl1XL, 0x00); err != nil {
		return fmt.Errorf("lsm6ds33: accel power-down failed: %w", err)
	}
	if err := d.dev.WriteReg(regCtrl2G, 0x00); err != nil {
		return fmt.Errorf("lsm6ds33: gyro power-down failed: %w", err)
	}
	if err := d.dev.WriteReg(regCtrl3C, ctrl3AutoIncrement); err != nil {
		return fmt.Errorf("lsm6ds33: ctrl3 config failed: %w", err)
	}

	// FIFO off; we poll the output registers directly.
	if err := d.dev.WriteReg(regFifoCtrl5, 0x00); err != nil {
		return fmt.Errorf("lsm6ds33: fifo disable failed: %w", err)
	}

	if d.cfg.Accelerometer {
		if err := d.dev.WriteReg(regCtrl1XL, ctrl1AccelOn); err != nil {
			return fmt.Errorf("lsm6ds33: accel enable failed: %w", err)
		}
	}
	if d.cfg.Gyroscope {
		if err := d.dev.WriteReg(regCtrl2G, ctrl2GyroOn); err != nil {
			return fmt.Errorf("lsm6ds33: gyro enable failed: %w", err)
		}
	}
	return nil
}

// Close powers both sensors down. Best-effort.
func (d *Device) Close() error {
	if d == nil || d.dev == nil {
		return nil
	}
	err1 := d.dev.WriteReg(regCtrl1XL, 0x00)
	err2 := d.dev.WriteReg(regCtrl2G, 0x00)
	if err1 != nil {
		return err1
	}
	return err2
}

// Gyroscope returns the raw angular-rate vector in sensor LSB for the
// requested axes.
func (d *Device) Gyroscope() (imu.Vector, error) {
	if d == nil || !d.cfg.Gyroscope {
		return imu.Vector{}, fmt.Errorf("lsm6ds33: gyroscope: %w", imu.ErrNotEnabled)
	}
	return d.readBlock(regOutXLG)
}

// Accelerometer returns the raw acceleration vector in sensor LSB for the
// requested axes.
func (d *Device) Accelerometer() (imu.Vector, error) {
	if d == nil || !d.cfg.Accelerometer {
		return imu.Vector{}, fmt.Errorf("lsm6ds33: accelerometer: %w", imu.ErrNotEnabled)
	}
	return d.readBlock(regOutXLXL)
}

func (d *Device) readBlock(reg byte) (imu.Vector, error) {
	buf := make([]byte, 6)
	if err := d.dev.ReadReg(reg, buf); err != nil {
		return imu.Vector{}, fmt.Errorf("lsm6ds33: read 0x%02X failed: %w", reg, err)
	}

	var v imu.Vector
	if d.cfg.X {
		v.X = imu.Val(float64(i2c.CombineLoHi(buf[0], buf[1])))
	}
	if d.cfg.Y {
		v.Y = imu.Val(float64(i2c.CombineLoHi(buf[2], buf[3])))
	}
	if d.cfg.Z {
		v.Z = imu.Val(float64(i2c.CombineLoHi(buf[4], buf[5])))
	}
	return v, nil
}
