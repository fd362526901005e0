package imu

// Defaults match the AltIMU-10v5 bring-up values: gyro full scale 1000 dps
// and the filter constants tuned for a 50 Hz control loop.
const (
	// DefaultGyroGain converts raw gyro LSB to degrees/second at the
	// 1000 dps full-scale setting. At 245 dps full scale use 0.00875.
	DefaultGyroGain = 0.035

	// DefaultComplementaryAlpha is the weight given to the
	// gyro-integrated term of the complementary blend.
	DefaultComplementaryAlpha = 0.60

	DefaultKalmanQAngle = 0.01
	DefaultKalmanQGyro  = 0.0003
	DefaultKalmanRAngle = 0.01
)

// FilterConfig is the immutable fusion tuning set at construction.
type FilterConfig struct {
	// GyroGain scales raw angular-rate units to degrees/second. The
	// value depends on the sensor's configured full scale.
	GyroGain float64

	// ComplementaryAlpha in [0,1] weights the gyro-integrated term;
	// 1-alpha weights the accelerometer tilt term.
	ComplementaryAlpha float64

	KalmanQAngle float64
	KalmanQGyro  float64
	KalmanRAngle float64

	// InitFromAccel seeds the filters' angle state from the first
	// accelerometer tilt reading instead of zero.
	InitFromAccel bool
}

// DefaultFilterConfig returns the stock AltIMU tuning.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		GyroGain:           DefaultGyroGain,
		ComplementaryAlpha: DefaultComplementaryAlpha,
		KalmanQAngle:       DefaultKalmanQAngle,
		KalmanQGyro:        DefaultKalmanQGyro,
		KalmanRAngle:       DefaultKalmanRAngle,
		InitFromAccel:      true,
	}
}
