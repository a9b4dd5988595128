package waypoint

import (
	"time"

	"github.com/golang/geo/r3"
)

// MarkerType mirrors the visualization marker shape codes.
type MarkerType int32

// MarkerAction mirrors the visualization marker action codes.
type MarkerAction int32

const (
	MarkerArrow MarkerType   = 0
	MarkerAdd   MarkerAction = 0
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Marker is a visualization primitive for one saved waypoint.
type Marker struct {
	FrameID   string
	Stamp     time.Time
	Namespace string
	ID        int32
	Type      MarkerType
	Action    MarkerAction
	Pose      Pose
	Scale     r3.Vector
	Color     Color
}

// MarkerStyle holds the labels and appearance shared by all waypoint markers.
type MarkerStyle struct {
	FrameID   string
	Namespace string
	Scale     r3.Vector
	Color     Color
}

// DefaultMarkerStyle is a flat red arrow 0.3 long and 0.1 wide in "map".
var DefaultMarkerStyle = MarkerStyle{
	FrameID:   "map",
	Namespace: "waypoints",
	Scale:     r3.Vector{X: 0.3, Y: 0.1, Z: 0.0},
	Color:     Color{R: 1, G: 0, B: 0, A: 1},
}

// NewArrowMarker builds the marker for a waypoint saved at pose.
func NewArrowMarker(id int32, pose Pose, stamp time.Time, style MarkerStyle) Marker {
	return Marker{
		FrameID:   style.FrameID,
		Stamp:     stamp,
		Namespace: style.Namespace,
		ID:        id,
		Type:      MarkerArrow,
		Action:    MarkerAdd,
		Pose:      pose,
		Scale:     style.Scale,
		Color:     style.Color,
	}
}
