package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	configContent := `
version: "1.0"
config_id: "test-recorder-config"
robot_id: "test-robot"

topic_mappings:
  - ros_topic: "/joy"
    ott: "teleop.input.joy"
    message_type: "sensor_msgs/msg/Joy"
    direction: "INBOUND"
    source_type: "JSON"

  - ros_topic: "/amcl_pose"
    ott: "teleop.localization.pose"
    message_type: "geometry_msgs/msg/PoseWithCovarianceStamped"

  - ros_topic: "/cmd_vel"
    ott: "teleop.control.velocity"
    message_type: "geometry_msgs/msg/Twist"
    direction: "OUTBOUND"

  - ros_topic: "/waypoint_markers"
    ott: "teleop.visualization.waypoint_markers"
    message_type: "visualization_msgs/msg/Marker"
    direction: "OUTBOUND"

defaults:
  direction: "INBOUND"
  source_type: "ROS2_CDR"
`

	configPath := filepath.Join(tempDir, "topics.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}
	if config.ConfigID != "test-recorder-config" {
		t.Errorf("Expected config_id test-recorder-config, got %s", config.ConfigID)
	}
	if config.RobotID != "test-robot" {
		t.Errorf("Expected robot_id test-robot, got %s", config.RobotID)
	}
	if len(config.TopicMappings) != 4 {
		t.Errorf("Expected 4 topic mappings, got %d", len(config.TopicMappings))
	}

	joy, found := config.GetTopicMappingByOttTopic("teleop.input.joy")
	if !found {
		t.Fatalf("Expected to find teleop.input.joy")
	}
	if joy.SourceType != SourceTypeJSON {
		t.Errorf("Expected explicit JSON source type, got %s", joy.SourceType)
	}

	pose, found := config.GetTopicMappingByOttTopic("teleop.localization.pose")
	if !found {
		t.Fatalf("Expected to find teleop.localization.pose")
	}
	if pose.Direction != DirectionInbound {
		t.Errorf("Expected default INBOUND direction, got %s", pose.Direction)
	}
	if pose.SourceType != SourceTypeROS2CDR {
		t.Errorf("Expected default ROS2_CDR source type, got %s", pose.SourceType)
	}
}

func TestLoadConfigMissingMapping(t *testing.T) {
	tempDir := t.TempDir()

	configContent := `
topic_mappings:
  - ros_topic: "/joy"
    ott: "teleop.input.joy"
    message_type: "sensor_msgs/msg/Joy"
    direction: "INBOUND"
defaults:
  source_type: "ROS2_CDR"
`
	configPath := filepath.Join(tempDir, "topics.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatalf("Expected error for config without pose mapping")
	}
	if !strings.Contains(err.Error(), MessageTypePoseStamp) {
		t.Errorf("Expected error to name %s, got: %v", MessageTypePoseStamp, err)
	}
}

func TestTopicMappingHelpers(t *testing.T) {
	config := DefaultConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	inbound := config.GetTopicMappingsByDirection(DirectionInbound)
	if len(inbound) != 2 {
		t.Errorf("Expected 2 inbound topics, got %d", len(inbound))
	}

	outbound := config.GetTopicMappingsByDirection(DirectionOutbound)
	if len(outbound) != 2 {
		t.Errorf("Expected 2 outbound topics, got %d", len(outbound))
	}

	twist, found := config.GetTopicMappingByMessageType(DirectionOutbound, MessageTypeTwist)
	if !found {
		t.Fatalf("Expected to find an outbound Twist mapping")
	}
	if twist.RosTopic != "/ypspur_ros/cmd_vel" {
		t.Errorf("Expected /ypspur_ros/cmd_vel, got %s", twist.RosTopic)
	}
	if twist.SourceType != SourceTypeROS2CDR {
		t.Errorf("Expected default ROS2_CDR, got %s", twist.SourceType)
	}

	if _, found := config.GetTopicMappingByMessageType(DirectionInbound, MessageTypeTwist); found {
		t.Errorf("Did not expect an inbound Twist mapping")
	}

	if _, found := config.GetTopicMappingByOttTopic("teleop.nonexistent"); found {
		t.Errorf("Expected not to find teleop.nonexistent topic")
	}
}

func TestLoadBootstrapConfig(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContent := `
logging:
  level: "debug"
  log_path: "/var/log/recorder"
server:
  http_port: 9090
zeromq:
  subscribe_bind_address: "tcp://*:6666"
  publish_bind_address: "tcp://*:7777"
  receive_timeout_ms: 500
data:
  directory: "/data/recorder"
  waypoints_file: "route.csv"
  topic_config_file: "topics.yaml"
recorder:
  rate_hz: 20
  save_button: 1
  marker_policy: "on_success"
  robot_id: "ypspur-1"
marker:
  namespace: "route"
`
	if err := os.WriteFile(filepath.Join(tempDir, BootstrapFileName), []byte(bootstrapContent), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	cfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected logging level 'debug', got '%s'", cfg.Logging.Level)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("Expected server http_port 9090, got %d", cfg.Server.HTTPPort)
	}
	if cfg.ZeroMQ.SubscribeBindAddress != "tcp://*:6666" {
		t.Errorf("Unexpected subscribe_bind_address '%s'", cfg.ZeroMQ.SubscribeBindAddress)
	}
	if cfg.ZeroMQ.ReceiveTimeout() != 500*time.Millisecond {
		t.Errorf("Expected 500ms receive timeout, got %v", cfg.ZeroMQ.ReceiveTimeout())
	}
	if cfg.WaypointsPath() != filepath.Join("/data/recorder", "route.csv") {
		t.Errorf("Unexpected waypoints path '%s'", cfg.WaypointsPath())
	}
	if cfg.TopicConfigPath(tempDir) != filepath.Join(tempDir, "topics.yaml") {
		t.Errorf("Unexpected topic config path '%s'", cfg.TopicConfigPath(tempDir))
	}
	if cfg.Recorder.Period() != 50*time.Millisecond {
		t.Errorf("Expected 50ms period, got %v", cfg.Recorder.Period())
	}
	if cfg.Recorder.SaveButton != 1 {
		t.Errorf("Expected save_button 1, got %d", cfg.Recorder.SaveButton)
	}
	if cfg.Recorder.MarkerPolicy != MarkerPolicyOnSuccess {
		t.Errorf("Expected marker_policy on_success, got %s", cfg.Recorder.MarkerPolicy)
	}

	// Fields the file leaves out keep their defaults
	if cfg.Recorder.LinearAxis != 3 || cfg.Recorder.AngularAxis != 0 {
		t.Errorf("Expected default axes 3/0, got %d/%d", cfg.Recorder.LinearAxis, cfg.Recorder.AngularAxis)
	}
	if cfg.Recorder.InboxSize != 256 {
		t.Errorf("Expected default inbox_size 256, got %d", cfg.Recorder.InboxSize)
	}
	if cfg.Marker.FrameID != "map" {
		t.Errorf("Expected default frame_id 'map', got '%s'", cfg.Marker.FrameID)
	}
	if cfg.Marker.Namespace != "route" {
		t.Errorf("Expected namespace 'route', got '%s'", cfg.Marker.Namespace)
	}
}

func TestLoadBootstrapConfigDefaults(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContent := `
zeromq:
  subscribe_bind_address: "tcp://*:5555"
  publish_bind_address: "tcp://*:5556"
`
	if err := os.WriteFile(filepath.Join(tempDir, BootstrapFileName), []byte(bootstrapContent), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	cfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if cfg.WaypointsPath() != filepath.Join("data", "waypoints.csv") {
		t.Errorf("Unexpected default waypoints path '%s'", cfg.WaypointsPath())
	}
	if cfg.TopicConfigPath(tempDir) != "" {
		t.Errorf("Expected no topic config path, got '%s'", cfg.TopicConfigPath(tempDir))
	}
	if cfg.Recorder.Period() != 100*time.Millisecond {
		t.Errorf("Expected 100ms period, got %v", cfg.Recorder.Period())
	}
	if cfg.Recorder.SaveButton != 2 {
		t.Errorf("Expected default save_button 2, got %d", cfg.Recorder.SaveButton)
	}
	if cfg.Recorder.MarkerPolicy != MarkerPolicyAlways {
		t.Errorf("Expected default marker_policy always, got %s", cfg.Recorder.MarkerPolicy)
	}
	if cfg.ZeroMQ.ConfigAnnounceInterval() != 5*time.Second {
		t.Errorf("Expected 5s config announce interval, got %v", cfg.ZeroMQ.ConfigAnnounceInterval())
	}
}

func TestLoadBootstrapConfigMissingRequired(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContentMissing := `
logging:
  level: "info"
zeromq:
  # subscribe_bind_address: "tcp://*:6666" # Missing
  publish_bind_address: "tcp://*:7777"
`
	if err := os.WriteFile(filepath.Join(tempDir, BootstrapFileName), []byte(bootstrapContentMissing), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	_, err := LoadBootstrapConfig(tempDir)
	if err == nil {
		t.Fatalf("Expected error when loading bootstrap config with missing required fields, but got nil")
	}

	expectedErrorSubstr := "missing required field in bootstrap config: zeromq.subscribe_bind_address"
	if !strings.Contains(err.Error(), expectedErrorSubstr) {
		t.Errorf("Expected error message to contain '%s', but got: %v", expectedErrorSubstr, err)
	}
}

func TestBootstrapValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*BootstrapConfig){
		"zero rate":         func(c *BootstrapConfig) { c.Recorder.RateHz = 0 },
		"negative button":   func(c *BootstrapConfig) { c.Recorder.SaveButton = -1 },
		"unknown policy":    func(c *BootstrapConfig) { c.Recorder.MarkerPolicy = "sometimes" },
		"empty inbox":       func(c *BootstrapConfig) { c.Recorder.InboxSize = 0 },
		"negative announce": func(c *BootstrapConfig) { c.ZeroMQ.ConfigAnnounceIntervalMs = -1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultBootstrapConfig()
			cfg.ZeroMQ.SubscribeBindAddress = "tcp://*:5555"
			cfg.ZeroMQ.PublishBindAddress = "tcp://*:5556"
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error")
			}
		})
	}
}

func TestShippedConfigFiles(t *testing.T) {
	configDir := filepath.Join("..", "..", "config")

	bootstrapCfg, err := LoadBootstrapConfig(configDir)
	if err != nil {
		t.Fatalf("Failed to load shipped bootstrap config: %v", err)
	}

	topicPath := bootstrapCfg.TopicConfigPath(configDir)
	if topicPath == "" {
		t.Fatalf("Expected shipped bootstrap config to name a topic config file")
	}

	cfg, err := LoadConfig(topicPath)
	if err != nil {
		t.Fatalf("Failed to load shipped topic config: %v", err)
	}

	want := DefaultConfig()
	if len(cfg.TopicMappings) != len(want.TopicMappings) {
		t.Fatalf("Expected %d topic mappings, got %d", len(want.TopicMappings), len(cfg.TopicMappings))
	}
	for i, m := range want.TopicMappings {
		got := cfg.TopicMappings[i]
		if got.OttTopic != m.OttTopic || got.RosTopic != m.RosTopic || got.MessageType != m.MessageType {
			t.Errorf("Mapping %d: expected %+v, got %+v", i, m, got)
		}
	}
}
