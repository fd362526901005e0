package imu

import "math"

// TiltAngles converts a raw 3-axis acceleration reading into per-axis tilt
// angles in degrees:
//
//	angleX = degrees(atan2(accel.y, accel.z) + pi)
//	angleY = degrees(atan2(accel.x, accel.z) + pi)
//	angleZ = degrees(atan2(accel.x, accel.y) + pi)
//
// The +pi offset rotates the atan2 range so 0 degrees aligns with the
// sensor's physical rest orientation; every consumer depends on that zero
// reference, so the offset must not be changed. atan2(0,0) is 0 (Go's
// math.Atan2 convention), so a resting sensor yields 180 degrees on all
// axes.
//
// An axis whose inputs include an absent component yields an absent output
// component.
func TiltAngles(accel Vector) Vector {
	var out Vector
	if accel.Y.Valid && accel.Z.Valid {
		out.X = Val(degrees(math.Atan2(accel.Y.Value, accel.Z.Value) + math.Pi))
	}
	if accel.X.Valid && accel.Z.Valid {
		out.Y = Val(degrees(math.Atan2(accel.X.Value, accel.Z.Value) + math.Pi))
	}
	if accel.X.Valid && accel.Y.Valid {
		out.Z = Val(degrees(math.Atan2(accel.X.Value, accel.Y.Value) + math.Pi))
	}
	return out
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
