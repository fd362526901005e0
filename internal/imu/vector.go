// Package imu fuses gyroscope and accelerometer readings into attitude
// angles. It tracks per-axis angles three ways: raw gyro integration, a
// complementary filter, and a 2-state Kalman filter (angle + gyro bias).
//
// All angles are degrees; all rates are degrees/second. The package never
// reads a clock: elapsed time is supplied by the caller on every update.
package imu

import "math"

// Axis is one optional vector component. Absence means the axis was not
// requested or its sensor is not enabled; it is not the same as zero.
type Axis struct {
	Value float64
	Valid bool
}

// Val returns a present axis component.
func Val(v float64) Axis { return Axis{Value: v, Valid: true} }

// Vector is a 3-axis reading (rate, acceleration or angle) with
// independently optional components.
type Vector struct {
	X, Y, Z Axis
}

// NewVector returns a vector with all three components present.
func NewVector(x, y, z float64) Vector {
	return Vector{X: Val(x), Y: Val(y), Z: Val(z)}
}

// Full reports whether all three components are present.
func (v Vector) Full() bool {
	return v.X.Valid && v.Y.Valid && v.Z.Valid
}

func (v Vector) finite() bool {
	for _, a := range [3]Axis{v.X, v.Y, v.Z} {
		if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) {
			return false
		}
	}
	return true
}

// Dot returns the dot product of two fully populated vectors.
func Dot(a, b Vector) (float64, error) {
	if !a.Full() || !b.Full() || !a.finite() || !b.finite() {
		return 0, ErrInvalidInput
	}
	return a.X.Value*b.X.Value + a.Y.Value*b.Y.Value + a.Z.Value*b.Z.Value, nil
}

// Cross returns the cross product of two fully populated vectors.
func Cross(a, b Vector) (Vector, error) {
	if !a.Full() || !b.Full() || !a.finite() || !b.finite() {
		return Vector{}, ErrInvalidInput
	}
	return NewVector(
		a.Y.Value*b.Z.Value-a.Z.Value*b.Y.Value,
		a.Z.Value*b.X.Value-a.X.Value*b.Z.Value,
		a.X.Value*b.Y.Value-a.Y.Value*b.X.Value,
	), nil
}

// Normalize scales a fully populated vector to unit magnitude.
func Normalize(v Vector) (Vector, error) {
	d, err := Dot(v, v)
	if err != nil {
		return Vector{}, err
	}
	mag := math.Sqrt(d)
	if mag == 0 {
		return Vector{}, ErrDegenerateVector
	}
	return NewVector(v.X.Value/mag, v.Y.Value/mag, v.Z.Value/mag), nil
}
