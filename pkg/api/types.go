package api

import (
	"github.com/open-teleop/waypoint-recorder/domain/waypoint"
	"github.com/open-teleop/waypoint-recorder/pkg/processing"
)

// --- Data Structures for HTTP and WebSocket Messages ---

// JoyMsg is a browser gamepad sample, matching sensor_msgs/Joy.
type JoyMsg struct {
	Axes    []float32 `json:"axes"`
	Buttons []int32   `json:"buttons"`
}

// StatusSource provides the recorder snapshot. *waypoint.Recorder implements it.
type StatusSource interface {
	Status() waypoint.Status
}

// WaypointListResponse is returned by GET /api/v1/waypoints.
type WaypointListResponse struct {
	Count     int                 `json:"count"`
	Waypoints []waypoint.Waypoint `json:"waypoints"`
}

// TopicListResponse is returned by GET /api/v1/topics.
type TopicListResponse struct {
	Topics []processing.TopicInfo `json:"topics"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}
