// Package waypoint records teleoperated robot poses as waypoints.
//
// A Recorder consumes gamepad and pose events from its inbox on a single
// goroutine. Each cycle it forwards gamepad axes as velocity commands and,
// when the save button was pressed, appends the current pose to a CSV file
// and publishes an arrow marker for it.
package waypoint

import (
	"encoding/json"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is the robot's best current pose estimate in the world frame.
// Orientation uses Real as w and Kmag as z; motion is planar so Imag and Jmag
// are expected to be zero.
type Pose struct {
	Position    r3.Vector
	Orientation quat.Number
}

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type quaternionJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

type poseJSON struct {
	Position    pointJSON      `json:"position"`
	Orientation quaternionJSON `json:"orientation"`
}

// MarshalJSON encodes the pose the way geometry_msgs/Pose is written:
// position {x, y, z} and orientation {x, y, z, w}.
func (p Pose) MarshalJSON() ([]byte, error) {
	return json.Marshal(poseJSON{
		Position: pointJSON{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z},
		Orientation: quaternionJSON{
			X: p.Orientation.Imag,
			Y: p.Orientation.Jmag,
			Z: p.Orientation.Kmag,
			W: p.Orientation.Real,
		},
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (p *Pose) UnmarshalJSON(data []byte) error {
	var v poseJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.Position = r3.Vector{X: v.Position.X, Y: v.Position.Y, Z: v.Position.Z}
	p.Orientation = quat.Number{
		Real: v.Orientation.W,
		Imag: v.Orientation.X,
		Jmag: v.Orientation.Y,
		Kmag: v.Orientation.Z,
	}
	return nil
}

// InitialPose is the pose assumed before any localization arrives.
var InitialPose = Pose{Orientation: quat.Number{Real: 1}}

// Waypoint is one persisted (x, y, yaw) record.
type Waypoint struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Yaw float64 `json:"yaw"`
}

// FromPose reduces a pose to a waypoint.
func FromPose(p Pose) Waypoint {
	return Waypoint{
		X:   p.Position.X,
		Y:   p.Position.Y,
		Yaw: Yaw(p.Orientation),
	}
}

// Event is an inbox entry: GamepadEvent or PoseEvent.
type Event interface {
	isEvent()
}

// GamepadEvent carries one joystick sample.
type GamepadEvent struct {
	Buttons []int32
	Axes    []float32
}

// PoseEvent carries one localization estimate. Covariance is not kept.
type PoseEvent struct {
	Pose Pose
}

func (GamepadEvent) isEvent() {}
func (PoseEvent) isEvent()    {}

// SaveRecord describes the outcome of one save.
type SaveRecord struct {
	SessionID       string    `json:"session_id"`
	Waypoint        Waypoint  `json:"waypoint"`
	MarkerID        int32     `json:"marker_id"`
	Written         bool      `json:"written"`
	MarkerPublished bool      `json:"marker_published"`
	Time            time.Time `json:"time"`
}
