package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BootstrapFileName is the name of the bootstrap file inside the config directory.
const BootstrapFileName = "recorder_config.yaml"

// Marker policies
const (
	// MarkerPolicyAlways publishes a marker (and consumes an id) after every
	// save attempt, whether or not the CSV write succeeded.
	MarkerPolicyAlways = "always"
	// MarkerPolicyOnSuccess only publishes when the CSV write succeeded.
	MarkerPolicyOnSuccess = "on_success"
)

// BootstrapConfig holds the configuration loaded from recorder_config.yaml
type BootstrapConfig struct {
	Logging  LoggingConfig         `yaml:"logging"`
	Server   BootstrapServerConfig `yaml:"server"`
	ZeroMQ   ZeroMQBootstrap       `yaml:"zeromq"`
	Data     DataConfig            `yaml:"data"`
	Recorder RecorderConfig        `yaml:"recorder"`
	Marker   MarkerConfig          `yaml:"marker"`
}

// LoggingConfig holds logging settings from bootstrap
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogPath string `yaml:"log_path,omitempty"`
}

// BootstrapServerConfig holds bootstrap HTTP server settings
type BootstrapServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// ZeroMQBootstrap holds ZeroMQ settings from bootstrap
type ZeroMQBootstrap struct {
	SubscribeBindAddress string `yaml:"subscribe_bind_address"`
	PublishBindAddress   string `yaml:"publish_bind_address"`
	ReceiveTimeoutMs     int    `yaml:"receive_timeout_ms"`

	// ConfigAnnounceIntervalMs repeats the topic configuration announcement
	// so late-joining gateway subscribers receive it. 0 announces once.
	ConfigAnnounceIntervalMs int `yaml:"config_announce_interval_ms"`
}

// ConfigAnnounceInterval returns the announcement period, 0 when disabled.
func (z ZeroMQBootstrap) ConfigAnnounceInterval() time.Duration {
	return time.Duration(z.ConfigAnnounceIntervalMs) * time.Millisecond
}

// DataConfig holds data directory settings from bootstrap
type DataConfig struct {
	Directory           string `yaml:"directory"`
	WaypointsFilename   string `yaml:"waypoints_file"`
	TopicConfigFilename string `yaml:"topic_config_file,omitempty"`
}

// RecorderConfig holds the waypoint recorder settings
type RecorderConfig struct {
	RateHz       float64 `yaml:"rate_hz"`
	InboxSize    int     `yaml:"inbox_size"`
	SaveButton   int     `yaml:"save_button"`
	LinearAxis   int     `yaml:"linear_axis"`
	AngularAxis  int     `yaml:"angular_axis"`
	MarkerPolicy string  `yaml:"marker_policy"`
	RobotID      string  `yaml:"robot_id,omitempty"`
}

// MarkerConfig holds the visualization marker labels
type MarkerConfig struct {
	FrameID   string `yaml:"frame_id"`
	Namespace string `yaml:"namespace"`
}

// DefaultBootstrapConfig returns the configuration used for every field the
// bootstrap file leaves unset.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Logging: LoggingConfig{Level: "info"},
		Server:  BootstrapServerConfig{HTTPPort: 8080},
		ZeroMQ: ZeroMQBootstrap{
			ReceiveTimeoutMs:         1000,
			ConfigAnnounceIntervalMs: 5000,
		},
		Data: DataConfig{
			Directory:         "data",
			WaypointsFilename: "waypoints.csv",
		},
		Recorder: RecorderConfig{
			RateHz:       10,
			InboxSize:    256,
			SaveButton:   2,
			LinearAxis:   3,
			AngularAxis:  0,
			MarkerPolicy: MarkerPolicyAlways,
		},
		Marker: MarkerConfig{
			FrameID:   "map",
			Namespace: "waypoints",
		},
	}
}

// LoadBootstrapConfig loads the bootstrap configuration from recorder_config.yaml
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, BootstrapFileName)

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	bootstrapCfg := DefaultBootstrapConfig()
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	if err := bootstrapCfg.Validate(); err != nil {
		return nil, err
	}

	return &bootstrapCfg, nil
}

// Validate checks required fields and value ranges.
func (c *BootstrapConfig) Validate() error {
	if c.ZeroMQ.SubscribeBindAddress == "" {
		return fmt.Errorf("missing required field in bootstrap config: zeromq.subscribe_bind_address")
	}
	if c.ZeroMQ.PublishBindAddress == "" {
		return fmt.Errorf("missing required field in bootstrap config: zeromq.publish_bind_address")
	}
	if c.ZeroMQ.ConfigAnnounceIntervalMs < 0 {
		return fmt.Errorf("invalid bootstrap config: zeromq.config_announce_interval_ms must not be negative, got %d", c.ZeroMQ.ConfigAnnounceIntervalMs)
	}
	if c.Data.WaypointsFilename == "" {
		return fmt.Errorf("missing required field in bootstrap config: data.waypoints_file")
	}
	if c.Recorder.RateHz <= 0 {
		return fmt.Errorf("invalid bootstrap config: recorder.rate_hz must be positive, got %v", c.Recorder.RateHz)
	}
	if c.Recorder.InboxSize <= 0 {
		return fmt.Errorf("invalid bootstrap config: recorder.inbox_size must be positive, got %d", c.Recorder.InboxSize)
	}
	if c.Recorder.SaveButton < 0 || c.Recorder.LinearAxis < 0 || c.Recorder.AngularAxis < 0 {
		return fmt.Errorf("invalid bootstrap config: recorder button and axis indices must not be negative")
	}
	switch c.Recorder.MarkerPolicy {
	case MarkerPolicyAlways, MarkerPolicyOnSuccess:
	default:
		return fmt.Errorf("invalid bootstrap config: recorder.marker_policy %q (expected %q or %q)",
			c.Recorder.MarkerPolicy, MarkerPolicyAlways, MarkerPolicyOnSuccess)
	}
	return nil
}

// WaypointsPath returns the CSV path, resolving relative file names against
// the data directory.
func (c *BootstrapConfig) WaypointsPath() string {
	if filepath.IsAbs(c.Data.WaypointsFilename) {
		return c.Data.WaypointsFilename
	}
	return filepath.Join(c.Data.Directory, c.Data.WaypointsFilename)
}

// TopicConfigPath returns the topic configuration path, or "" when the
// built-in topic mapping should be used.
func (c *BootstrapConfig) TopicConfigPath(configDir string) string {
	if c.Data.TopicConfigFilename == "" {
		return ""
	}
	if filepath.IsAbs(c.Data.TopicConfigFilename) {
		return c.Data.TopicConfigFilename
	}
	return filepath.Join(configDir, c.Data.TopicConfigFilename)
}

// Period returns the recorder cycle period derived from rate_hz.
func (c *RecorderConfig) Period() time.Duration {
	return time.Duration(float64(time.Second) / c.RateHz)
}

// ReceiveTimeout returns the ZeroMQ receive timeout.
func (c *ZeroMQBootstrap) ReceiveTimeout() time.Duration {
	return time.Duration(c.ReceiveTimeoutMs) * time.Millisecond
}
