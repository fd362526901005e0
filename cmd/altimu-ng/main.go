package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"altimu-ng/internal/attitude"
	"altimu-ng/internal/config"
	"altimu-ng/internal/i2c"
	"altimu-ng/internal/imu"
	"altimu-ng/internal/sensors/lsm6ds33"
	"altimu-ng/internal/servo"
	"altimu-ng/internal/sim"
	"altimu-ng/internal/udp"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./dev.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	filter := cfg.FilterConfig()

	src, closeSrc, err := openSource(cfg, filter)
	if err != nil {
		log.Fatalf("source init failed: %v", err)
	}
	if closeSrc != nil {
		defer closeSrc()
	}

	att := attitude.New(attitude.Config{
		Enable:   src != nil,
		Interval: cfg.Fusion.Interval,
		Filter:   filter,
	}, src)
	if err := att.Start(ctx); err != nil {
		log.Fatalf("attitude start failed: %v", err)
	}
	defer att.Close()

	log.Printf("altimu-ng starting")
	if src != nil {
		log.Printf("fusion interval=%s gyro gain=%g", cfg.Fusion.Interval, filter.GyroGain)
	}

	if cfg.Servo.Enable {
		srv := servo.New(servo.Config{
			Enable:         true,
			Backend:        cfg.Servo.Backend,
			Pin:            cfg.Servo.Pin,
			FrequencyHz:    cfg.Servo.FrequencyHz,
			CenterDuty:     cfg.Servo.CenterDuty,
			DutyRange:      cfg.Servo.DutyRange,
			Axis:           cfg.Servo.Axis,
			TargetAngleDeg: cfg.Servo.TargetAngleDeg,
			UpdateInterval: cfg.Servo.UpdateInterval,
		}, att.Snapshot)
		if err := srv.Start(ctx); err != nil {
			log.Fatalf("servo start failed: %v", err)
		}
		defer srv.Close()
		log.Printf("servo backend=%s axis=%s target=%gdeg", cfg.Servo.Backend, cfg.Servo.Axis, cfg.Servo.TargetAngleDeg)
	}

	if cfg.UDP.Enable {
		broadcaster, err := udp.NewBroadcaster(cfg.UDP.Dest)
		if err != nil {
			log.Fatalf("udp broadcaster init failed: %v", err)
		}
		defer broadcaster.Close()
		log.Printf("udp dest=%s interval=%s", cfg.UDP.Dest, cfg.UDP.Interval)

		go func() {
			err := broadcaster.Run(ctx, cfg.UDP.Interval, func() []byte {
				snap := att.Snapshot()
				if !snap.Valid {
					return nil
				}
				b, err := json.Marshal(snap)
				if err != nil {
					return nil
				}
				return b
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("udp broadcaster stopped: %v", err)
				cancel()
			}
		}()
	}

	<-ctx.Done()
	log.Printf("altimu-ng stopping")
}

// openSource builds the attitude source selected by the config: the
// LSM6DS33 over I2C, the motion simulator, or none at all. The returned
// closer releases the I2C bus when one was opened.
func openSource(cfg config.Config, filter imu.FilterConfig) (attitude.Source, func(), error) {
	switch {
	case cfg.IMU.Enable:
		bus, err := i2c.Open(fmt.Sprintf("/dev/i2c-%d", cfg.IMU.I2CBus))
		if err != nil {
			return nil, nil, fmt.Errorf("open i2c bus %d: %w", cfg.IMU.I2CBus, err)
		}

		addr := cfg.IMU.Address
		if addr == 0 {
			addr = lsm6ds33.DefaultAddress()
		}

		sensorCfg := lsm6ds33.Config{
			Accelerometer: true,
			Gyroscope:     true,
			X:             cfg.IMU.AxisRequested('x'),
			Y:             cfg.IMU.AxisRequested('y'),
			Z:             cfg.IMU.AxisRequested('z'),
		}
		dev, err := lsm6ds33.New(bus.Dev(addr), sensorCfg)
		if err != nil {
			bus.Close()
			return nil, nil, fmt.Errorf("init lsm6ds33 at 0x%02x: %w", addr, err)
		}

		closer := func() {
			dev.Close()
			bus.Close()
		}
		return imu.NewSensorSource(dev, filter.GyroGain), closer, nil

	case cfg.Sim.Enable:
		return &sim.MotionSim{
			Profile:      sim.Profile(cfg.Sim.Profile),
			RateDps:      cfg.Sim.RateDps,
			AmplitudeDeg: cfg.Sim.AmplitudeDeg,
			Period:       cfg.Sim.Period,
		}, nil, nil
	}

	return nil, nil, nil
}
