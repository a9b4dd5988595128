package processing

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/open-teleop/waypoint-recorder/domain/waypoint"
	"github.com/open-teleop/waypoint-recorder/pkg/config"
	message "github.com/open-teleop/waypoint-recorder/pkg/flatbuffers/open_teleop/message"
	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
	"github.com/open-teleop/waypoint-recorder/pkg/rosparser"
)

// EventSink accepts recorder events. *waypoint.Recorder implements it.
type EventSink interface {
	Enqueue(ev waypoint.Event) error
}

// EventProcessor turns inbound OttMessages into recorder events
type EventProcessor struct {
	logger        customlog.Logger
	topicRegistry *TopicRegistry
}

// NewEventProcessor creates a new event processor
func NewEventProcessor(logger customlog.Logger, topicRegistry *TopicRegistry) *EventProcessor {
	return &EventProcessor{
		logger:        logger,
		topicRegistry: topicRegistry,
	}
}

// ProcessMessage decodes an OttMessage into a GamepadEvent or PoseEvent
func (p *EventProcessor) ProcessMessage(ottMsg *message.OttMessage) (waypoint.Event, error) {
	topic := string(ottMsg.Ott())

	info, exists := p.topicRegistry.GetTopicInfo(topic)
	if !exists {
		return nil, fmt.Errorf("unknown message type for topic '%s'", topic)
	}
	if info.Direction != config.DirectionInbound {
		return nil, fmt.Errorf("topic '%s' is not an inbound topic", topic)
	}

	ev, err := p.decode(topic, info.MessageType, ottMsg)
	p.topicRegistry.UpdateTopicStats(topic, ottMsg.TimestampNs(), err != nil)
	return ev, err
}

func (p *EventProcessor) decode(topic, messageType string, ottMsg *message.OttMessage) (waypoint.Event, error) {
	payloadBytes := ottMsg.PayloadBytes()
	if len(payloadBytes) == 0 {
		return nil, fmt.Errorf("empty payload for topic '%s'", topic)
	}

	var format rosparser.Format
	switch ottMsg.ContentType() {
	case message.ContentTypeROS2_CDR:
		format = rosparser.FormatCDR
	case message.ContentTypeJSON_COMMAND:
		format = rosparser.FormatJSON
	default:
		return nil, fmt.Errorf("unsupported content type %s for topic '%s'", ottMsg.ContentType(), topic)
	}

	p.logger.Debugf("Processing ROS message for topic '%s' (type: %s, %s, %d bytes)",
		topic, messageType, format, len(payloadBytes))

	parsed, err := rosparser.Decode(messageType, format, payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message for topic '%s': %w", topic, err)
	}

	switch m := parsed.(type) {
	case *rosparser.Joy:
		return JoyToEvent(m), nil
	case *rosparser.PoseWithCovarianceStamped:
		return PoseToEvent(m), nil
	default:
		return nil, fmt.Errorf("message type %s on topic '%s' is not a recorder input", messageType, topic)
	}
}

// JoyToEvent converts a Joy message to a gamepad event.
func JoyToEvent(m *rosparser.Joy) waypoint.GamepadEvent {
	return waypoint.GamepadEvent{Buttons: m.Buttons, Axes: m.Axes}
}

// PoseToEvent converts an AMCL pose to a pose event. Covariance is dropped.
func PoseToEvent(m *rosparser.PoseWithCovarianceStamped) waypoint.PoseEvent {
	return waypoint.PoseEvent{Pose: PoseFromROS(m.Pose.Pose)}
}

// PoseFromROS converts a geometry_msgs pose.
func PoseFromROS(p rosparser.Pose) waypoint.Pose {
	return waypoint.Pose{
		Position: r3.Vector{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z},
		Orientation: quat.Number{
			Real: p.Orientation.W,
			Imag: p.Orientation.X,
			Jmag: p.Orientation.Y,
			Kmag: p.Orientation.Z,
		},
	}
}

// PoseToROS converts a recorder pose to geometry_msgs.
func PoseToROS(p waypoint.Pose) rosparser.Pose {
	return rosparser.Pose{
		Position: rosparser.Point{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z},
		Orientation: rosparser.Quaternion{
			X: p.Orientation.Imag,
			Y: p.Orientation.Jmag,
			Z: p.Orientation.Kmag,
			W: p.Orientation.Real,
		},
	}
}
