package servo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"altimu-ng/internal/attitude"
	"altimu-ng/internal/imu"
)

type fakePWMDriver struct {
	mu     sync.Mutex
	freqs  []int
	duties []float64
	closed bool
}

func (d *fakePWMDriver) SetFrequencyHz(hz int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.freqs = append(d.freqs, hz)
	return nil
}

func (d *fakePWMDriver) SetDutyPercent(p float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.duties = append(d.duties, p)
	return nil
}

func (d *fakePWMDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakePWMDriver) lastDuty() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.duties) == 0 {
		return 0, false
	}
	return d.duties[len(d.duties)-1], true
}

func withFakePWM(t *testing.T) *fakePWMDriver {
	t.Helper()
	fake := &fakePWMDriver{}
	oldOpen := openPWMFn
	openPWMFn = func() (pwmDriver, error) { return fake, nil }
	t.Cleanup(func() { openPWMFn = oldOpen })
	return fake
}

func levelSnapshot() attitude.Snapshot {
	return attitude.Snapshot{
		Valid:       true,
		KalmanAngle: imu.NewVector(180, 180, 180),
	}
}

func TestStart_ConfiguresFrequencyAndNeutral(t *testing.T) {
	fake := withFakePWM(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := New(Config{Enable: true}, levelSnapshot)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Close()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if duty, ok := fake.lastDuty(); ok {
			if duty != 7.5 {
				t.Fatalf("duty=%v want neutral 7.5", duty)
			}
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.freqs) != 1 || fake.freqs[0] != 50 {
		t.Fatalf("freqs=%v want [50]", fake.freqs)
	}
}

func TestStepOnce_DrivesTowardTarget(t *testing.T) {
	fake := &fakePWMDriver{}
	// Pitched 10 degrees past the target: duty must move below neutral.
	snap := attitude.Snapshot{
		Valid:       true,
		KalmanAngle: imu.NewVector(180, 190, 180),
	}
	svc := New(Config{Enable: true}, func() attitude.Snapshot { return snap })

	svc.stepOnce(fake, 0.05)

	duty, ok := fake.lastDuty()
	if !ok {
		t.Fatalf("no duty applied")
	}
	if duty >= 7.5 {
		t.Fatalf("duty=%v want below neutral", duty)
	}
	got := svc.Snapshot()
	if got.Duty != duty {
		t.Fatalf("snapshot duty=%v want %v", got.Duty, duty)
	}
}

func TestStepOnce_InvalidAttitudeHoldsNeutral(t *testing.T) {
	fake := &fakePWMDriver{}
	svc := New(Config{Enable: true}, func() attitude.Snapshot {
		return attitude.Snapshot{Valid: false}
	})

	svc.stepOnce(fake, 0.05)

	duty, ok := fake.lastDuty()
	if !ok || duty != 7.5 {
		t.Fatalf("duty=%v ok=%v want neutral 7.5", duty, ok)
	}
}

func TestStepOnce_AbsentAxisHoldsNeutral(t *testing.T) {
	fake := &fakePWMDriver{}
	snap := attitude.Snapshot{
		Valid:       true,
		KalmanAngle: imu.Vector{X: imu.Val(180), Z: imu.Val(180)}, // y absent
	}
	svc := New(Config{Enable: true, Axis: "y"}, func() attitude.Snapshot { return snap })

	svc.stepOnce(fake, 0.05)

	duty, ok := fake.lastDuty()
	if !ok || duty != 7.5 {
		t.Fatalf("duty=%v ok=%v want neutral 7.5", duty, ok)
	}
}

func TestStart_UnknownBackendErrors(t *testing.T) {
	svc := New(Config{Enable: true, Backend: "spi"}, levelSnapshot)
	if err := svc.Start(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStart_OpenFailureSurfaces(t *testing.T) {
	oldOpen := openPWMFn
	openPWMFn = func() (pwmDriver, error) { return nil, fmt.Errorf("no pwmchip") }
	t.Cleanup(func() { openPWMFn = oldOpen })

	svc := New(Config{Enable: true}, levelSnapshot)
	if err := svc.Start(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if svc.Snapshot().LastError == "" {
		t.Fatalf("want recorded error")
	}
}

func TestClose_ClosesDriver(t *testing.T) {
	fake := withFakePWM(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := New(Config{Enable: true}, levelSnapshot)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	svc.Close()

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !fake.closed {
		t.Fatalf("driver not closed")
	}
}
