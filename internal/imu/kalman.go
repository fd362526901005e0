package imu

// KalmanState is the full state of one axis's filter: the angle and
// gyro-bias estimates plus the 2x2 error covariance.
type KalmanState struct {
	Angle float64 // degrees
	Bias  float64 // degrees/second
	P00   float64
	P01   float64
	P10   float64
	P11   float64
}

// KalmanAxis is a discrete 2-state (angle, gyro bias) Kalman filter for a
// single axis. It predicts from the gyro rate and corrects from the
// accelerometer tilt angle.
//
// No clamping is applied to the estimates or covariance: with pathological
// noise settings they can grow without bound. The state is never reset
// automatically; call Reinit to clear accumulated drift.
//
// Not safe for concurrent use.
type KalmanAxis struct {
	qAngle float64
	qGyro  float64
	rAngle float64

	st KalmanState
}

// NewKalmanAxis returns a filter with zeroed state and covariance.
func NewKalmanAxis(qAngle, qGyro, rAngle float64) *KalmanAxis {
	return &KalmanAxis{qAngle: qAngle, qGyro: qGyro, rAngle: rAngle}
}

// Reinit replaces the filter state wholesale.
func (k *KalmanAxis) Reinit(st KalmanState) { k.st = st }

// State returns a copy of the current filter state.
func (k *KalmanAxis) State() KalmanState { return k.st }

// Predict propagates the state by deltaT seconds using the gyro rate in
// degrees/second, reintroducing process noise into the covariance.
func (k *KalmanAxis) Predict(rate, deltaT float64) {
	k.st.Angle += (rate - k.st.Bias) * deltaT
	k.st.P00 += deltaT*(-k.st.P01-k.st.P10) + k.qAngle*deltaT
	k.st.P01 += -deltaT * k.st.P11
	k.st.P10 += -deltaT * k.st.P11
	k.st.P11 += k.qGyro * deltaT
}

// Correct folds in an accelerometer tilt measurement (degrees) and returns
// the corrected angle estimate.
func (k *KalmanAxis) Correct(measured float64) float64 {
	y := measured - k.st.Angle
	s := k.st.P00 + k.rAngle
	k0 := k.st.P00 / s
	k1 := k.st.P10 / s

	k.st.Angle += k0 * y
	k.st.Bias += k1 * y

	// The P10/P11 decrements use the covariance values from before this
	// correction. Folding the already-decremented P00/P01 back in would
	// introduce a systematic bias error.
	p00, p01 := k.st.P00, k.st.P01
	k.st.P00 -= k0 * p00
	k.st.P01 -= k0 * p01
	k.st.P10 -= k1 * p00
	k.st.P11 -= k1 * p01

	return k.st.Angle
}

// KalmanFilter tracks all three axes, each with its own independent
// 2-state filter.
//
// Not safe for concurrent use.
type KalmanFilter struct {
	axes          [3]*KalmanAxis
	initFromAccel bool

	enabled bool
	seeded  bool
}

// NewKalmanFilter constructs per-axis filters from cfg. The filter must be
// enabled (sensors up) before the first Update.
func NewKalmanFilter(cfg FilterConfig) *KalmanFilter {
	f := &KalmanFilter{initFromAccel: cfg.InitFromAccel}
	for i := range f.axes {
		f.axes[i] = NewKalmanAxis(cfg.KalmanQAngle, cfg.KalmanQGyro, cfg.KalmanRAngle)
	}
	return f
}

// Enable marks the underlying rate/tilt sources as available.
func (f *KalmanFilter) Enable() { f.enabled = true }

// States returns copies of the x, y and z axis filter states.
func (f *KalmanFilter) States() (x, y, z KalmanState) {
	return f.axes[0].State(), f.axes[1].State(), f.axes[2].State()
}

// Update runs one predict+correct cycle per axis. For any axis where rate
// or tilt is absent the filter state is left untouched and the output axis
// is absent. If configured, the very first call seeds the angle estimates
// from tilt (bias stays zero) instead of running the cycle.
func (f *KalmanFilter) Update(rate, tilt Vector, deltaT float64) (Vector, error) {
	if !f.enabled {
		return Vector{}, ErrNotEnabled
	}

	seeding := f.initFromAccel && !f.seeded
	f.seeded = true

	var out Vector
	rates := [3]Axis{rate.X, rate.Y, rate.Z}
	tilts := [3]Axis{tilt.X, tilt.Y, tilt.Z}
	axes := [3]*Axis{&out.X, &out.Y, &out.Z}
	for i, k := range f.axes {
		if !rates[i].Valid || !tilts[i].Valid {
			continue
		}
		if seeding {
			k.Reinit(KalmanState{Angle: tilts[i].Value})
			*axes[i] = Val(tilts[i].Value)
			continue
		}
		k.Predict(rates[i].Value, deltaT)
		*axes[i] = Val(k.Correct(tilts[i].Value))
	}
	return out, nil
}
