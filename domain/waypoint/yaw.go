package waypoint

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Yaw returns the heading of a planar orientation in radians.
// Roll and pitch are assumed zero, so only z (Kmag) and w (Real) are read.
func Yaw(q quat.Number) float64 {
	z := q.Kmag
	w := q.Real
	return math.Atan2(2.0*(w*z), 1.0-2.0*(z*z))
}

// OrientationFromYaw builds the planar quaternion for a heading.
func OrientationFromYaw(yaw float64) quat.Number {
	return quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)}
}
