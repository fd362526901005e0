package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"altimu-ng/internal/imu"
)

type Config struct {
	IMU    IMUConfig    `yaml:"imu"`
	Fusion FusionConfig `yaml:"fusion"`
	Sim    SimConfig    `yaml:"sim"`
	Servo  ServoConfig  `yaml:"servo"`
	UDP    UDPConfig    `yaml:"udp"`
}

type IMUConfig struct {
	Enable  bool   `yaml:"enable"`
	I2CBus  int    `yaml:"i2c_bus"`
	Address uint16 `yaml:"address"`
	// Axes lists the requested axes as a subset of "xyz". Unlisted axes
	// read as absent.
	Axes string `yaml:"axes"`
	// GyroGain converts raw gyro LSB to deg/s; depends on the full-scale
	// setting (0.035 for 1000 dps, 0.00875 for 245 dps).
	GyroGain float64 `yaml:"gyro_gain"`
}

type FusionConfig struct {
	Interval           time.Duration `yaml:"interval"`
	ComplementaryAlpha *float64      `yaml:"complementary_alpha"`
	KalmanQAngle       float64       `yaml:"kalman_q_angle"`
	KalmanQGyro        float64       `yaml:"kalman_q_gyro"`
	KalmanRAngle       float64       `yaml:"kalman_r_angle"`
	InitFromAccel      *bool         `yaml:"init_from_accel"`
}

type SimConfig struct {
	Enable       bool          `yaml:"enable"`
	Profile      string        `yaml:"profile"`
	RateDps      float64       `yaml:"rate_dps"`
	AmplitudeDeg float64       `yaml:"amplitude_deg"`
	Period       time.Duration `yaml:"period"`
}

type ServoConfig struct {
	Enable         bool          `yaml:"enable"`
	Backend        string        `yaml:"backend"`
	Pin            int           `yaml:"pin"`
	FrequencyHz    int           `yaml:"frequency_hz"`
	CenterDuty     float64       `yaml:"center_duty"`
	DutyRange      float64       `yaml:"duty_range"`
	Axis           string        `yaml:"axis"`
	TargetAngleDeg float64       `yaml:"target_angle_deg"`
	UpdateInterval time.Duration `yaml:"update_interval"`
}

type UDPConfig struct {
	Enable   bool          `yaml:"enable"`
	Dest     string        `yaml:"dest"`
	Interval time.Duration `yaml:"interval"`
}

// FilterConfig assembles the fusion tuning for the imu package.
func (c Config) FilterConfig() imu.FilterConfig {
	fc := imu.DefaultFilterConfig()
	if c.IMU.GyroGain != 0 {
		fc.GyroGain = c.IMU.GyroGain
	}
	if c.Fusion.ComplementaryAlpha != nil {
		fc.ComplementaryAlpha = *c.Fusion.ComplementaryAlpha
	}
	if c.Fusion.KalmanQAngle != 0 {
		fc.KalmanQAngle = c.Fusion.KalmanQAngle
	}
	if c.Fusion.KalmanQGyro != 0 {
		fc.KalmanQGyro = c.Fusion.KalmanQGyro
	}
	if c.Fusion.KalmanRAngle != 0 {
		fc.KalmanRAngle = c.Fusion.KalmanRAngle
	}
	if c.Fusion.InitFromAccel != nil {
		fc.InitFromAccel = *c.Fusion.InitFromAccel
	}
	return fc
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.IMU.Enable && cfg.Sim.Enable {
		return Config{}, fmt.Errorf("imu.enable and sim.enable cannot both be set")
	}
	if !cfg.IMU.Enable && !cfg.Sim.Enable && (cfg.Servo.Enable || cfg.UDP.Enable) {
		return Config{}, fmt.Errorf("servo/udp outputs need imu.enable or sim.enable")
	}

	// IMU defaults.
	if cfg.IMU.I2CBus == 0 {
		cfg.IMU.I2CBus = 1
	}
	if cfg.IMU.Axes == "" {
		cfg.IMU.Axes = "xyz"
	}
	for _, r := range cfg.IMU.Axes {
		if r != 'x' && r != 'y' && r != 'z' {
			return Config{}, fmt.Errorf("imu.axes must be a subset of \"xyz\"")
		}
	}
	if cfg.IMU.GyroGain < 0 {
		return Config{}, fmt.Errorf("imu.gyro_gain must be >= 0")
	}

	// Fusion defaults (safe even if no source is enabled).
	if cfg.Fusion.Interval <= 0 {
		cfg.Fusion.Interval = 20 * time.Millisecond
	}
	if a := cfg.Fusion.ComplementaryAlpha; a != nil && (*a < 0 || *a > 1) {
		return Config{}, fmt.Errorf("fusion.complementary_alpha must be in [0,1]")
	}

	if cfg.Sim.Enable {
		switch cfg.Sim.Profile {
		case "", "level":
			cfg.Sim.Profile = "level"
		case "roll", "pitch-sine":
		default:
			return Config{}, fmt.Errorf("sim.profile %q not recognized", cfg.Sim.Profile)
		}
	}

	if cfg.Servo.Enable {
		switch cfg.Servo.Backend {
		case "", "pwm":
			cfg.Servo.Backend = "pwm"
		case "gpio":
			if cfg.Servo.Pin <= 0 {
				return Config{}, fmt.Errorf("servo.pin is required for the gpio backend")
			}
		default:
			return Config{}, fmt.Errorf("servo.backend %q not recognized", cfg.Servo.Backend)
		}
		switch cfg.Servo.Axis {
		case "":
			cfg.Servo.Axis = "y"
		case "x", "y", "z":
		default:
			return Config{}, fmt.Errorf("servo.axis must be x, y or z")
		}
	}

	if cfg.UDP.Enable {
		if strings.TrimSpace(cfg.UDP.Dest) == "" {
			return Config{}, fmt.Errorf("udp.dest is required when udp.enable is true")
		}
		if cfg.UDP.Interval <= 0 {
			cfg.UDP.Interval = 1 * time.Second
		}
	}

	return cfg, nil
}

// AxisRequested reports whether the named axis appears in imu.axes.
func (c IMUConfig) AxisRequested(axis rune) bool {
	return strings.ContainsRune(c.Axes, axis)
}
