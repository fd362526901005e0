// Package sim synthesizes IMU readings for bench runs without hardware.
// A MotionSim stands in for the LSM6DS33-backed source: it scripts an
// attitude profile over wall-clock time and emits the angular rate and
// acceleration a sensor flying that profile would report.
package sim

import (
	"math"
	"time"

	"altimu-ng/internal/imu"
)

type Profile string

const (
	// ProfileLevel holds the sensor at rest.
	ProfileLevel Profile = "level"
	// ProfileRoll rotates about x at a constant rate.
	ProfileRoll Profile = "roll"
	// ProfilePitchSine oscillates about y sinusoidally.
	ProfilePitchSine Profile = "pitch-sine"
)

// restAccel matches a typical raw LSB reading for 1 g on the z axis.
const restAccel = 1000.0

// MotionSim implements the attitude source contract with deterministic,
// clock-driven kinematics.
type MotionSim struct {
	Profile      Profile
	RateDps      float64       // roll profile rate
	AmplitudeDeg float64       // pitch-sine amplitude
	Period       time.Duration // pitch-sine period

	// Now is the clock; defaults to time.Now. Tests inject fixed times.
	Now func() time.Time
}

func (s *MotionSim) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Kinematics returns the scripted deviation from rest (degrees) and its
// rate (degrees/second) at the given instant. Roll deviations are about
// x, pitch about y.
func (s *MotionSim) Kinematics(now time.Time) (rollDeg, rollRate, pitchDeg, pitchRate float64) {
	t := float64(now.UnixNano()) / float64(time.Second)

	switch s.Profile {
	case ProfileRoll:
		rate := s.RateDps
		if rate == 0 {
			rate = 10
		}
		rollDeg = math.Mod(rate*t, 360)
		rollRate = rate
	case ProfilePitchSine:
		amp := s.AmplitudeDeg
		if amp == 0 {
			amp = 15
		}
		period := s.Period
		if period <= 0 {
			period = 10 * time.Second
		}
		w := 2 * math.Pi / period.Seconds()
		pitchDeg = amp * math.Sin(w*t)
		// d/dt (amp*sin(w*t)) = amp*w*cos(w*t)
		pitchRate = amp * w * math.Cos(w*t)
	}
	return rollDeg, rollRate, pitchDeg, pitchRate
}

// ReadAngularRate returns the scripted rate vector in degrees/second.
func (s *MotionSim) ReadAngularRate() (imu.Vector, error) {
	_, rollRate, _, pitchRate := s.Kinematics(s.now())
	return imu.NewVector(rollRate, pitchRate, 0), nil
}

// ReadAcceleration returns the gravity vector rotated by the scripted
// attitude, scaled to raw sensor units. The values are chosen so the tilt
// reference (atan2 plus the 180-degree rest offset) recovers the scripted
// angles exactly.
func (s *MotionSim) ReadAcceleration() (imu.Vector, error) {
	rollDeg, _, pitchDeg, _ := s.Kinematics(s.now())
	rollRad := rollDeg * math.Pi / 180
	pitchRad := pitchDeg * math.Pi / 180

	ax := restAccel * math.Sin(pitchRad)
	ay := restAccel * math.Sin(rollRad)
	az := restAccel * math.Cos(rollRad) * math.Cos(pitchRad)
	return imu.NewVector(ax, ay, az), nil
}
