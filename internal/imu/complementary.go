package imu

// ComplementaryFilter blends the gyro-integrated angle with the
// accelerometer tilt angle per axis:
//
//	angle' = alpha*(angle + rate*deltaT) + (1-alpha)*tilt
//
// The gyro term tracks fast motion, the accelerometer term pulls the
// estimate back toward the driftless tilt reference.
//
// Not safe for concurrent use.
type ComplementaryFilter struct {
	alpha         float64
	initFromAccel bool

	enabled bool
	seeded  bool
	angle   [3]float64
}

// NewComplementaryFilter constructs the filter from cfg. The filter must
// be enabled (sensors up) before the first Update.
func NewComplementaryFilter(cfg FilterConfig) *ComplementaryFilter {
	return &ComplementaryFilter{
		alpha:         cfg.ComplementaryAlpha,
		initFromAccel: cfg.InitFromAccel,
	}
}

// Enable marks the underlying rate/tilt sources as available.
func (f *ComplementaryFilter) Enable() { f.enabled = true }

// Update advances the blend by one cycle. For any axis where rate or tilt
// is absent the stored state is left untouched and the output axis is
// absent. If configured, the very first call seeds the angle state from
// tilt instead of applying the recurrence.
func (f *ComplementaryFilter) Update(rate, tilt Vector, deltaT float64) (Vector, error) {
	if !f.enabled {
		return Vector{}, ErrNotEnabled
	}

	seeding := f.initFromAccel && !f.seeded
	f.seeded = true

	var out Vector
	rates := [3]Axis{rate.X, rate.Y, rate.Z}
	tilts := [3]Axis{tilt.X, tilt.Y, tilt.Z}
	axes := [3]*Axis{&out.X, &out.Y, &out.Z}
	for i := range rates {
		if !rates[i].Valid || !tilts[i].Valid {
			continue
		}
		if seeding {
			f.angle[i] = tilts[i].Value
		} else {
			f.angle[i] = f.alpha*(f.angle[i]+rates[i].Value*deltaT) + (1-f.alpha)*tilts[i].Value
		}
		*axes[i] = Val(f.angle[i])
	}
	return out, nil
}
