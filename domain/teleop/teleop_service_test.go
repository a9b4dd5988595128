package teleop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	commands []Command
	err      error
}

func (p *recordingPublisher) PublishVelocity(cmd Command) error {
	p.commands = append(p.commands, cmd)
	return p.err
}

func TestCommandFromAxesPassthrough(t *testing.T) {
	axes := []float32{-0.25, 0.9, 0, 0.5}

	cmd, err := DefaultAxisMapping.CommandFromAxes(axes)
	require.NoError(t, err)

	assert.Equal(t, float64(axes[3]), cmd.LinearX)
	assert.Equal(t, float64(axes[0]), cmd.AngularZ)
	assert.Zero(t, cmd.LinearY)
	assert.Zero(t, cmd.AngularX)
}

func TestCommandFromAxesOutOfRange(t *testing.T) {
	_, err := DefaultAxisMapping.CommandFromAxes([]float32{0.1, 0.2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAxisOutOfRange))
}

func TestDrivePublishesOneCommand(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTeleopService(pub, DefaultAxisMapping, "ypspur")

	cmd, err := svc.Drive([]float32{1, 0, 0, -1})
	require.NoError(t, err)

	require.Len(t, pub.commands, 1)
	assert.Equal(t, cmd, pub.commands[0])
	assert.Equal(t, -1.0, cmd.LinearX)
	assert.Equal(t, 1.0, cmd.AngularZ)
	assert.Equal(t, "ypspur", cmd.RobotID)
}

func TestDrivePublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("socket closed")}
	svc := NewTeleopService(pub, AxisMapping{LinearAxis: 1, AngularAxis: 0}, "")

	cmd, err := svc.Drive([]float32{0.3, 0.6})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "socket closed")
	assert.Equal(t, float64(float32(0.6)), cmd.LinearX)
}

func TestDriveRejectsShortAxes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTeleopService(pub, DefaultAxisMapping, "")

	_, err := svc.Drive([]float32{0.1})
	require.ErrorIs(t, err, ErrAxisOutOfRange)
	assert.Empty(t, pub.commands)
}
