package processing

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/open-teleop/waypoint-recorder/domain/teleop"
	"github.com/open-teleop/waypoint-recorder/domain/waypoint"
	"github.com/open-teleop/waypoint-recorder/pkg/config"
	message "github.com/open-teleop/waypoint-recorder/pkg/flatbuffers/open_teleop/message"
	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
	"github.com/open-teleop/waypoint-recorder/pkg/rosparser"
)

// MessagePublisher defines the interface for publishing messages
type MessagePublisher interface {
	PublishMessage(topic string, data []byte) error
}

// RosPublisher encodes recorder output as ROS messages and publishes them on
// the outbound OTT topics.
type RosPublisher struct {
	logger        customlog.Logger
	publisher     MessagePublisher
	topicRegistry *TopicRegistry
	clock         clock.Clock
	velocity      config.TopicMapping
	markers       config.TopicMapping
}

// NewRosPublisher resolves the outbound Twist and Marker mappings from cfg.
func NewRosPublisher(
	cfg *config.Config,
	logger customlog.Logger,
	publisher MessagePublisher,
	topicRegistry *TopicRegistry,
	clk clock.Clock,
) (*RosPublisher, error) {
	velocity, ok := cfg.GetTopicMappingByMessageType(config.DirectionOutbound, config.MessageTypeTwist)
	if !ok {
		return nil, fmt.Errorf("no outbound mapping for %s", config.MessageTypeTwist)
	}
	markers, ok := cfg.GetTopicMappingByMessageType(config.DirectionOutbound, config.MessageTypeMarker)
	if !ok {
		return nil, fmt.Errorf("no outbound mapping for %s", config.MessageTypeMarker)
	}
	if clk == nil {
		clk = clock.New()
	}

	return &RosPublisher{
		logger:        logger,
		publisher:     publisher,
		topicRegistry: topicRegistry,
		clock:         clk,
		velocity:      velocity,
		markers:       markers,
	}, nil
}

// PublishVelocity sends a geometry_msgs/Twist.
func (p *RosPublisher) PublishVelocity(cmd teleop.Command) error {
	twist := &rosparser.Twist{
		Linear:  rosparser.Vector3{X: cmd.LinearX, Y: cmd.LinearY, Z: cmd.LinearZ},
		Angular: rosparser.Vector3{X: cmd.AngularX, Y: cmd.AngularY, Z: cmd.AngularZ},
	}
	return p.publish(p.velocity, twist)
}

// PublishMarker sends a visualization_msgs/Marker.
func (p *RosPublisher) PublishMarker(m waypoint.Marker) error {
	return p.publish(p.markers, MarkerToROS(m))
}

func (p *RosPublisher) publish(mapping config.TopicMapping, msg rosparser.Message) error {
	format, contentType := rosparser.FormatCDR, message.ContentTypeROS2_CDR
	if mapping.SourceType == config.SourceTypeJSON {
		format, contentType = rosparser.FormatJSON, message.ContentTypeJSON_COMMAND
	}

	payload, err := rosparser.Encode(msg, format)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", msg.TypeName(), err)
	}

	now := p.clock.Now().UnixNano()
	data := EncodeOttMessage(mapping.OttTopic, contentType, payload, now)

	err = p.publisher.PublishMessage(mapping.OttTopic, data)
	if p.topicRegistry != nil {
		p.topicRegistry.UpdateTopicStats(mapping.OttTopic, now, err != nil)
	}
	if err != nil {
		return fmt.Errorf("failed to publish message for topic '%s': %w", mapping.OttTopic, err)
	}

	p.logger.Debugf("Published %s on '%s' (%d bytes)", msg.TypeName(), mapping.OttTopic, len(data))
	return nil
}

// MarkerToROS converts a waypoint marker to visualization_msgs/Marker.
func MarkerToROS(m waypoint.Marker) *rosparser.Marker {
	return &rosparser.Marker{
		Header: rosparser.Header{
			Stamp:   TimeToROS(m.Stamp),
			FrameID: m.FrameID,
		},
		Ns:     m.Namespace,
		ID:     m.ID,
		Type:   int32(m.Type),
		Action: int32(m.Action),
		Pose:   PoseToROS(m.Pose),
		Scale:  rosparser.Vector3{X: m.Scale.X, Y: m.Scale.Y, Z: m.Scale.Z},
		Color:  rosparser.ColorRGBA{R: m.Color.R, G: m.Color.G, B: m.Color.B, A: m.Color.A},
	}
}

// TimeToROS converts a wall-clock time to builtin_interfaces/Time.
func TimeToROS(t time.Time) rosparser.Time {
	if t.IsZero() {
		return rosparser.Time{}
	}
	ns := t.UnixNano()
	return rosparser.Time{
		Sec:     int32(ns / int64(time.Second)),
		Nanosec: uint32(ns % int64(time.Second)),
	}
}
