package waypoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/num/quat"
)

func TestYaw(t *testing.T) {
	half := math.Sqrt(0.5)
	tests := []struct {
		name string
		q    quat.Number
		want float64
	}{
		{"identity", quat.Number{Real: 1}, 0},
		{"quarter turn left", quat.Number{Real: half, Kmag: half}, math.Pi / 2},
		{"quarter turn right", quat.Number{Real: half, Kmag: -half}, -math.Pi / 2},
		{"half turn", quat.Number{Real: 0, Kmag: 1}, math.Pi},
		{"rounded input", quat.Number{Real: 0.7071, Kmag: 0.7071}, math.Atan2(2*0.7071*0.7071, 1-2*0.7071*0.7071)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Yaw(tt.q), 1e-12)
		})
	}
}

func TestYawIgnoresRollPitchComponents(t *testing.T) {
	q := quat.Number{Real: 0.6, Imag: 0.3, Jmag: 0.2, Kmag: 0.5}
	assert.Equal(t, math.Atan2(2*0.6*0.5, 1-2*0.5*0.5), Yaw(q))
}

func TestYawMatchesFormulaOverCircle(t *testing.T) {
	for deg := -179; deg <= 180; deg += 7 {
		theta := float64(deg) * math.Pi / 180
		q := OrientationFromYaw(theta)
		want := math.Atan2(2*q.Real*q.Kmag, 1-2*q.Kmag*q.Kmag)
		assert.Equal(t, want, Yaw(q), "deg=%d", deg)
		assert.InDelta(t, theta, Yaw(q), 1e-9, "deg=%d", deg)
	}
}

func TestRoundedQuaternionWithinTolerance(t *testing.T) {
	q := quat.Number{Real: 0.7071, Kmag: 0.7071}
	assert.InDelta(t, math.Pi/2, Yaw(q), 1e-3)
}
