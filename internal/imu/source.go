package imu

// RawSource delivers raw per-axis sensor readings. It is implemented by
// the LSM6DS33 driver and by the bench simulator; absent components mean
// the axis was not requested or its sensor is not enabled.
type RawSource interface {
	// Gyroscope returns the raw angular-rate vector in sensor LSB.
	Gyroscope() (Vector, error)
	// Accelerometer returns the raw acceleration vector.
	Accelerometer() (Vector, error)
}

// SensorSource adapts a RawSource into the calibrated units the fusion
// filters consume: raw gyro readings are scaled by the configured gain
// into degrees/second, acceleration passes through untouched.
type SensorSource struct {
	raw  RawSource
	gain float64
}

// NewSensorSource wraps raw, scaling gyro readings by gain (deg/s per
// raw unit; value depends on the sensor full-scale setting).
func NewSensorSource(raw RawSource, gain float64) *SensorSource {
	return &SensorSource{raw: raw, gain: gain}
}

// ReadAngularRate returns the angular-rate vector in degrees/second.
// Absent raw axes stay absent.
func (s *SensorSource) ReadAngularRate() (Vector, error) {
	v, err := s.raw.Gyroscope()
	if err != nil {
		return Vector{}, err
	}
	var out Vector
	in := [3]Axis{v.X, v.Y, v.Z}
	axes := [3]*Axis{&out.X, &out.Y, &out.Z}
	for i := range in {
		if in[i].Valid {
			*axes[i] = Val(in[i].Value * s.gain)
		}
	}
	return out, nil
}

// ReadAcceleration returns the raw acceleration vector.
func (s *SensorSource) ReadAcceleration() (Vector, error) {
	return s.raw.Accelerometer()
}
