package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Directions
const (
	DirectionInbound  = "INBOUND"
	DirectionOutbound = "OUTBOUND"
)

// Source types (payload encodings on the gateway link)
const (
	SourceTypeROS2CDR = "ROS2_CDR"
	SourceTypeJSON    = "JSON"
)

// ROS message types the recorder exchanges with the gateway
const (
	MessageTypeJoy       = "sensor_msgs/msg/Joy"
	MessageTypePoseStamp = "geometry_msgs/msg/PoseWithCovarianceStamped"
	MessageTypeTwist     = "geometry_msgs/msg/Twist"
	MessageTypeMarker    = "visualization_msgs/msg/Marker"
)

// Config represents the topic configuration shared with the gateway
type Config struct {
	Version       string         `yaml:"version" json:"version"`
	ConfigID      string         `yaml:"config_id" json:"config_id"`
	RobotID       string         `yaml:"robot_id" json:"robot_id"`
	TopicMappings []TopicMapping `yaml:"topic_mappings" json:"topic_mappings"`
	Defaults      DefaultsConfig `yaml:"defaults" json:"defaults"`
}

// TopicMapping represents a mapping between ROS topics and Open-Teleop topics
type TopicMapping struct {
	RosTopic    string `yaml:"ros_topic" json:"ros_topic"`
	OttTopic    string `yaml:"ott" json:"ott"`
	MessageType string `yaml:"message_type" json:"message_type"`
	Direction   string `yaml:"direction" json:"direction"`
	SourceType  string `yaml:"source_type" json:"source_type"`
}

// DefaultsConfig holds default values for topic mappings
type DefaultsConfig struct {
	Direction  string `yaml:"direction" json:"direction"`
	SourceType string `yaml:"source_type" json:"source_type"`
}

// DefaultConfig returns the built-in topic mapping: gamepad and AMCL pose in,
// velocity commands and waypoint markers out.
func DefaultConfig() *Config {
	return &Config{
		Version:  "1.0",
		ConfigID: "waypoint-recorder-default",
		TopicMappings: []TopicMapping{
			{
				RosTopic:    "/joy",
				OttTopic:    "teleop.input.joy",
				MessageType: MessageTypeJoy,
				Direction:   DirectionInbound,
			},
			{
				RosTopic:    "/amcl_pose",
				OttTopic:    "teleop.localization.pose",
				MessageType: MessageTypePoseStamp,
				Direction:   DirectionInbound,
			},
			{
				RosTopic:    "/ypspur_ros/cmd_vel",
				OttTopic:    "teleop.control.velocity",
				MessageType: MessageTypeTwist,
				Direction:   DirectionOutbound,
			},
			{
				RosTopic:    "/waypoint_markers",
				OttTopic:    "teleop.visualization.waypoint_markers",
				MessageType: MessageTypeMarker,
				Direction:   DirectionOutbound,
			},
		},
		Defaults: DefaultsConfig{
			Direction:  DirectionInbound,
			SourceType: SourceTypeROS2CDR,
		},
	}
}

// LoadConfig loads the topic configuration from the specified file path
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that every message type the recorder needs has a mapping
// in the right direction.
func (c *Config) Validate() error {
	required := []struct {
		direction   string
		messageType string
	}{
		{DirectionInbound, MessageTypeJoy},
		{DirectionInbound, MessageTypePoseStamp},
		{DirectionOutbound, MessageTypeTwist},
		{DirectionOutbound, MessageTypeMarker},
	}
	for _, r := range required {
		if _, ok := c.GetTopicMappingByMessageType(r.direction, r.messageType); !ok {
			return fmt.Errorf("missing %s topic mapping for message type %s", r.direction, r.messageType)
		}
	}
	for _, m := range c.TopicMappings {
		if m.OttTopic == "" {
			return fmt.Errorf("topic mapping for ros topic '%s' has no ott topic", m.RosTopic)
		}
		switch applyDefaults(m, c.Defaults).SourceType {
		case SourceTypeROS2CDR, SourceTypeJSON:
		default:
			return fmt.Errorf("topic mapping '%s' has unsupported source_type %q", m.OttTopic, m.SourceType)
		}
	}
	return nil
}

// GetTopicMappingsByDirection returns topic mappings filtered by direction
func (c *Config) GetTopicMappingsByDirection(direction string) []TopicMapping {
	var result []TopicMapping

	for _, mapping := range c.TopicMappings {
		mappingWithDefaults := applyDefaults(mapping, c.Defaults)
		if mappingWithDefaults.Direction == direction {
			result = append(result, mappingWithDefaults)
		}
	}

	return result
}

// GetTopicMappingByOttTopic returns a topic mapping for a specific Open-Teleop topic
func (c *Config) GetTopicMappingByOttTopic(ottTopic string) (TopicMapping, bool) {
	for _, mapping := range c.TopicMappings {
		if mapping.OttTopic == ottTopic {
			return applyDefaults(mapping, c.Defaults), true
		}
	}

	return TopicMapping{}, false
}

// GetTopicMappingByMessageType returns the first mapping carrying the given
// ROS message type in the given direction.
func (c *Config) GetTopicMappingByMessageType(direction, messageType string) (TopicMapping, bool) {
	for _, mapping := range c.GetTopicMappingsByDirection(direction) {
		if mapping.MessageType == messageType {
			return mapping, true
		}
	}
	return TopicMapping{}, false
}

// applyDefaults merges default values into a topic mapping where fields are empty
func applyDefaults(mapping TopicMapping, defaults DefaultsConfig) TopicMapping {
	result := mapping

	if result.Direction == "" {
		result.Direction = defaults.Direction
	}

	if result.SourceType == "" {
		result.SourceType = defaults.SourceType
	}

	return result
}
