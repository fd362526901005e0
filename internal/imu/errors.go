package imu

import "errors"

// All failures are local and recoverable: the control loop decides whether
// to skip a cycle or abort. An absent axis in a result is not an error.
var (
	// ErrNotCalibrated is returned when gyro integration is requested
	// before the integrator has been calibrated.
	ErrNotCalibrated = errors.New("imu: gyro integrator not calibrated")

	// ErrNotEnabled is returned when a fusion filter is updated before
	// its rate/tilt sources are enabled.
	ErrNotEnabled = errors.New("imu: sensor source not enabled")

	// ErrInvalidInput is returned for a malformed vector (missing or
	// non-finite component where a full vector is required).
	ErrInvalidInput = errors.New("imu: invalid input vector")

	// ErrDegenerateVector is returned when normalizing a zero-magnitude
	// vector.
	ErrDegenerateVector = errors.New("imu: zero-magnitude vector")
)
