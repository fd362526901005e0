package servo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"altimu-ng/internal/attitude"
)

var openPWMFn = openPWM
var openGPIOFn = openGPIO

type Config struct {
	Enable bool

	// Backend selects the output driver: "pwm" (sysfs hardware PWM,
	// default) or "gpio" (on/off line via the GPIO character device,
	// for bang-bang actuators).
	Backend string
	// Pin is the BCM GPIO line for the gpio backend. The pwm backend
	// uses the first sysfs PWM channel.
	Pin int

	// FrequencyHz is the PWM base frequency; hobby servos want 50.
	FrequencyHz int
	// CenterDuty is the neutral position duty percent (1.5 ms pulse at
	// 50 Hz is 7.5).
	CenterDuty float64
	// DutyRange is the maximum offset from center, bounding servo travel.
	DutyRange float64

	// Axis selects which fused angle to level: "x", "y" or "z".
	Axis string
	// TargetAngleDeg is the angle to hold; 180 is the rest reference of
	// the tilt convention.
	TargetAngleDeg float64

	UpdateInterval time.Duration
}

type Snapshot struct {
	Enabled   bool `json:"enabled"`
	Available bool `json:"available"`

	Duty float64 `json:"duty"`

	LastUpdateAt time.Time `json:"last_update_utc,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

// Service holds one servo at the configured fused angle.
type Service struct {
	cfg      Config
	latest   func() attitude.Snapshot
	pid      *pidController

	mu   sync.RWMutex
	snap Snapshot

	drvMu sync.Mutex
	drv   pwmDriver

	wg sync.WaitGroup

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New builds the service; latest supplies the current fused attitude.
func New(cfg Config, latest func() attitude.Snapshot) *Service {
	if cfg.Backend == "" {
		cfg.Backend = "pwm"
	}
	if cfg.FrequencyHz <= 0 {
		cfg.FrequencyHz = 50
	}
	if cfg.CenterDuty <= 0 {
		cfg.CenterDuty = 7.5
	}
	if cfg.DutyRange <= 0 {
		cfg.DutyRange = 2.5
	}
	if cfg.Axis == "" {
		cfg.Axis = "y"
	}
	if cfg.TargetAngleDeg == 0 {
		cfg.TargetAngleDeg = 180
	}
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = 50 * time.Millisecond
	}

	pid := newPID(0.05, 0.01, 0.002)
	pid.SetOutputLimits(-cfg.DutyRange, cfg.DutyRange)
	pid.Set(cfg.TargetAngleDeg)

	return &Service{cfg: cfg, latest: latest, pid: pid, stopCh: make(chan struct{})}
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()

	s.drvMu.Lock()
	drv := s.drv
	s.drvMu.Unlock()
	if drv != nil {
		_ = drv.Close()
	}
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("servo: service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}
	if s.latest == nil {
		return fmt.Errorf("servo: attitude source is nil")
	}

	s.setState(func(sn *Snapshot) { sn.Enabled = true })

	var drv pwmDriver
	var err error
	switch s.cfg.Backend {
	case "pwm":
		drv, err = openPWMFn()
	case "gpio":
		drv, err = openGPIOFn(s.cfg.Pin)
	default:
		err = fmt.Errorf("servo: unknown backend %q", s.cfg.Backend)
	}
	if err != nil {
		s.setErr(err.Error())
		return err
	}
	s.drvMu.Lock()
	s.drv = drv
	s.drvMu.Unlock()

	if err := drv.SetFrequencyHz(s.cfg.FrequencyHz); err != nil {
		s.setErr(fmt.Sprintf("servo: set pwm frequency failed: %v", err))
		_ = drv.Close()
		s.drvMu.Lock()
		if s.drv == drv {
			s.drv = nil
		}
		s.drvMu.Unlock()
		return err
	}

	s.setState(func(sn *Snapshot) { sn.Available = true })

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLoop(ctx, drv)
	}()
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return nil
}

func (s *Service) runLoop(ctx context.Context, drv pwmDriver) {
	t := time.NewTicker(s.cfg.UpdateInterval)
	defer t.Stop()

	// Start at neutral.
	s.applyDuty(drv, s.cfg.CenterDuty)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-t.C:
			s.stepOnce(drv, s.cfg.UpdateInterval.Seconds())
		}
	}
}

func (s *Service) stepOnce(drv pwmDriver, dt float64) {
	snap := s.latest()
	angle, ok := axisAngle(snap, s.cfg.Axis)
	if !snap.Valid || !ok {
		// No usable estimate: hold neutral rather than chase stale data.
		s.applyDuty(drv, s.cfg.CenterDuty)
		return
	}
	duty := s.cfg.CenterDuty + s.pid.Update(angle, dt)
	s.applyDuty(drv, duty)
}

func (s *Service) applyDuty(drv pwmDriver, duty float64) {
	if err := drv.SetDutyPercent(duty); err != nil {
		s.setErr(fmt.Sprintf("servo: set pwm duty failed: %v", err))
		return
	}
	s.setState(func(sn *Snapshot) {
		sn.Duty = duty
		sn.LastError = ""
	})
}

func axisAngle(snap attitude.Snapshot, axis string) (float64, bool) {
	v := snap.KalmanAngle
	switch axis {
	case "x":
		return v.X.Value, v.X.Valid
	case "y":
		return v.Y.Value, v.Y.Valid
	case "z":
		return v.Z.Value, v.Z.Valid
	}
	return 0, false
}

func (s *Service) setErr(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastError = msg
	s.snap.LastUpdateAt = time.Now().UTC()
}

func (s *Service) setState(update func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.snap)
	s.snap.LastUpdateAt = time.Now().UTC()
}
