package imu

// GyroIntegrator accumulates angular rate over time into a per-axis angle.
// It must be calibrated before the first Integrate call; recalibrating
// discards the accumulated angle.
//
// Not safe for concurrent use.
type GyroIntegrator struct {
	angle      [3]float64
	calibrated bool
}

// NewGyroIntegrator returns an uncalibrated integrator.
func NewGyroIntegrator() *GyroIntegrator {
	return &GyroIntegrator{}
}

// Calibrate resets the tracked angles to seed. Absent seed components
// reset to zero. Callable at any time.
func (g *GyroIntegrator) Calibrate(seed Vector) {
	g.angle = [3]float64{}
	if seed.X.Valid {
		g.angle[0] = seed.X.Value
	}
	if seed.Y.Valid {
		g.angle[1] = seed.Y.Value
	}
	if seed.Z.Valid {
		g.angle[2] = seed.Z.Value
	}
	g.calibrated = true
}

// Integrate adds rate*deltaT to the tracked angle for every present rate
// axis and returns the full post-update angle vector. Absent rate axes
// leave their accumulated angle unchanged; the previous value is still
// returned, since the tracked angle is a persistent quantity.
//
// deltaT must be the true elapsed wall-clock seconds since the previous
// call; it is applied verbatim, so timing jitter directly increases
// absolute angle drift.
func (g *GyroIntegrator) Integrate(rate Vector, deltaT float64) (Vector, error) {
	if !g.calibrated {
		return Vector{}, ErrNotCalibrated
	}
	for i, a := range [3]Axis{rate.X, rate.Y, rate.Z} {
		if a.Valid {
			g.angle[i] += a.Value * deltaT
		}
	}
	return NewVector(g.angle[0], g.angle[1], g.angle[2]), nil
}

// Angle returns the current accumulated angle vector.
func (g *GyroIntegrator) Angle() (Vector, error) {
	if !g.calibrated {
		return Vector{}, ErrNotCalibrated
	}
	return NewVector(g.angle[0], g.angle[1], g.angle[2]), nil
}
