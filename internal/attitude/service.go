// Package attitude runs the sensor-fusion control loop: it polls a
// rate/tilt source at a fixed interval, feeds the imu filters, and
// publishes the latest fused angles as a snapshot.
package attitude

import (
	"context"
	"fmt"
	"sync"
	"time"

	"altimu-ng/internal/imu"
)

// Source delivers calibrated angular rate (deg/s) and raw acceleration.
// Axes may be independently absent when not requested or not enabled.
// A read error means "no data this cycle", never a fatal condition.
type Source interface {
	ReadAngularRate() (imu.Vector, error)
	ReadAcceleration() (imu.Vector, error)
}

type Config struct {
	Enable   bool
	Interval time.Duration

	Filter imu.FilterConfig
}

type Snapshot struct {
	Valid bool `json:"valid"`

	// Per-axis angle estimates in degrees from the three trackers.
	GyroAngle          imu.Vector `json:"gyro_angle"`
	ComplementaryAngle imu.Vector `json:"complementary_angle"`
	KalmanAngle        imu.Vector `json:"kalman_angle"`

	// Kalman gyro-bias estimates in degrees/second.
	KalmanBias imu.Vector `json:"kalman_bias"`

	Cycles    uint64    `json:"cycles"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_utc"`
}

type Service struct {
	cfg Config
	src Source

	integ *imu.GyroIntegrator
	comp  *imu.ComplementaryFilter
	kal   *imu.KalmanFilter

	lastCycleAt time.Time

	recalCh chan recalReq

	mu      sync.RWMutex
	snap    Snapshot
	started bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

type recalReq struct {
	seed imu.Vector
	done chan error
}

func New(cfg Config, src Source) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 20 * time.Millisecond // 50 Hz
	}
	return &Service{
		cfg:     cfg,
		src:     src,
		integ:   imu.NewGyroIntegrator(),
		comp:    imu.NewComplementaryFilter(cfg.Filter),
		kal:     imu.NewKalmanFilter(cfg.Filter),
		recalCh: make(chan recalReq, 1),
		stopCh:  make(chan struct{}),
	}
}

func (s *Service) Snapshot() Snapshot {
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
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("attitude: service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}
	if s.src == nil {
		return fmt.Errorf("attitude: source is nil")
	}

	// Sources are up once Start is reached; arm the trackers.
	s.integ.Calibrate(imu.Vector{})
	s.comp.Enable()
	s.kal.Enable()

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Recalibrate resets the gyro-integrated angles to seed (absent axes to
// zero). The complementary and Kalman state persists; it re-converges on
// its own.
func (s *Service) Recalibrate(ctx context.Context, seed imu.Vector) error {
	if s == nil {
		return fmt.Errorf("attitude: service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("attitude: ctx is nil")
	}
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		// Without the run loop nothing would ever drain the request.
		return fmt.Errorf("attitude: service not started")
	}
	done := make(chan error, 1)
	select {
	case s.recalCh <- recalReq{seed: seed, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("attitude: recalibration already pending")
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) run(ctx context.Context) {
	tick := time.NewTicker(s.cfg.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.stopCh:
			return
		case req := <-s.recalCh:
			s.integ.Calibrate(req.seed)
			req.done <- nil
		case <-tick.C:
			s.step(time.Now().UTC())
		}
	}
}

// step runs one fusion cycle at the given wall-clock time. The elapsed
// time since the previous cycle is what the filters integrate over, so a
// stalled loop shows up as angle drift rather than a crash.
func (s *Service) step(now time.Time) {
	dt := 0.0
	if !s.lastCycleAt.IsZero() {
		dt = now.Sub(s.lastCycleAt).Seconds()
	}
	s.lastCycleAt = now
	if dt < 0 || dt > 0.5 {
		// Clock jumped or the loop stalled; skip integration this cycle.
		dt = 0
	}

	rate, rateErr := s.src.ReadAngularRate()
	accel, accelErr := s.src.ReadAcceleration()
	if rateErr != nil || accelErr != nil {
		// No data this cycle. Keep the last estimates; try again next tick.
		err := rateErr
		if err == nil {
			err = accelErr
		}
		s.setErr(err.Error())
		return
	}

	tilt := imu.TiltAngles(accel)

	gyroAngle, err := s.integ.Integrate(rate, dt)
	if err != nil {
		s.setErr(err.Error())
		return
	}
	compAngle, err := s.comp.Update(rate, tilt, dt)
	if err != nil {
		s.setErr(err.Error())
		return
	}
	kalAngle, err := s.kal.Update(rate, tilt, dt)
	if err != nil {
		s.setErr(err.Error())
		return
	}

	kx, ky, kz := s.kal.States()

	s.mu.Lock()
	s.snap.Valid = true
	s.snap.GyroAngle = gyroAngle
	s.snap.ComplementaryAngle = compAngle
	s.snap.KalmanAngle = kalAngle
	s.snap.KalmanBias = imu.NewVector(kx.Bias, ky.Bias, kz.Bias)
	s.snap.Cycles++
	s.snap.LastError = ""
	s.snap.UpdatedAt = now
	s.mu.Unlock()
}

func (s *Service) setErr(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastError = msg
	s.snap.UpdatedAt = time.Now().UTC()
}
