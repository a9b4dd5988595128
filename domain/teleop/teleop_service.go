package teleop

import (
	"errors"
	"fmt"
)

// ErrAxisOutOfRange is returned when a gamepad event carries fewer axes than
// the mapping refers to.
var ErrAxisOutOfRange = errors.New("axis index out of range")

// Command represents a teleoperation command
type Command struct {
	LinearX  float64 `json:"linear_x"`
	LinearY  float64 `json:"linear_y"`
	LinearZ  float64 `json:"linear_z"`
	AngularX float64 `json:"angular_x"`
	AngularY float64 `json:"angular_y"`
	AngularZ float64 `json:"angular_z"`
	RobotID  string  `json:"robot_id"`
}

// AxisMapping selects which gamepad axes drive the robot.
type AxisMapping struct {
	LinearAxis  int
	AngularAxis int
}

// DefaultAxisMapping is right stick vertical for forward/back and left
// stick horizontal for turning.
var DefaultAxisMapping = AxisMapping{LinearAxis: 3, AngularAxis: 0}

// CommandFromAxes builds a command from raw axis values. Values pass through
// unchanged: no dead-zone, smoothing or clamping.
func (m AxisMapping) CommandFromAxes(axes []float32) (Command, error) {
	if m.LinearAxis >= len(axes) || m.AngularAxis >= len(axes) {
		return Command{}, fmt.Errorf("%w: mapping uses axes %d and %d, event has %d",
			ErrAxisOutOfRange, m.LinearAxis, m.AngularAxis, len(axes))
	}
	return Command{
		LinearX:  float64(axes[m.LinearAxis]),
		AngularZ: float64(axes[m.AngularAxis]),
	}, nil
}

// CommandPublisher sends velocity commands to the robot.
type CommandPublisher interface {
	PublishVelocity(cmd Command) error
}

// TeleopService turns gamepad axes into velocity commands
type TeleopService struct {
	publisher CommandPublisher
	mapping   AxisMapping
	robotID   string
}

// NewTeleopService creates a new teleop service instance
func NewTeleopService(publisher CommandPublisher, mapping AxisMapping, robotID string) *TeleopService {
	return &TeleopService{
		publisher: publisher,
		mapping:   mapping,
		robotID:   robotID,
	}
}

// Mapping returns the axis mapping in use.
func (s *TeleopService) Mapping() AxisMapping {
	return s.mapping
}

// Drive maps axes to a command and publishes it. The command is returned even
// when publishing fails.
func (s *TeleopService) Drive(axes []float32) (Command, error) {
	cmd, err := s.mapping.CommandFromAxes(axes)
	if err != nil {
		return Command{}, err
	}
	cmd.RobotID = s.robotID

	if err := s.SendCommand(cmd); err != nil {
		return cmd, err
	}
	return cmd, nil
}

// SendCommand sends a command to the robot
func (s *TeleopService) SendCommand(cmd Command) error {
	if s.publisher == nil {
		return fmt.Errorf("no command publisher configured")
	}
	if err := s.publisher.PublishVelocity(cmd); err != nil {
		return fmt.Errorf("failed to publish velocity command: %w", err)
	}
	return nil
}
