package processing

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"

	"github.com/open-teleop/waypoint-recorder/domain/teleop"
	"github.com/open-teleop/waypoint-recorder/domain/waypoint"
	"github.com/open-teleop/waypoint-recorder/pkg/config"
	message "github.com/open-teleop/waypoint-recorder/pkg/flatbuffers/open_teleop/message"
	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
	"github.com/open-teleop/waypoint-recorder/pkg/rosparser"
)

type sentMessage struct {
	topic string
	data  []byte
}

type capturePublisher struct {
	sent []sentMessage
	err  error
}

func (c *capturePublisher) PublishMessage(topic string, data []byte) error {
	c.sent = append(c.sent, sentMessage{topic: topic, data: data})
	return c.err
}

func testLogger() customlog.Logger {
	logger, _ := test.NewNullLogger()
	return customlog.NewFromLogrus(logger)
}

func newRegistry(t *testing.T, cfg *config.Config) *TopicRegistry {
	t.Helper()
	reg := NewTopicRegistry(testLogger())
	reg.LoadFromConfig(cfg)
	return reg
}

func TestOttMessageRoundTrip(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x00, 0x00, 0xde, 0xad}
	data := EncodeOttMessage("teleop.input.joy", message.ContentTypeROS2_CDR, payload, 1234567890)

	msg, err := DecodeOttMessage(data)
	require.NoError(t, err)
	assert.Equal(t, "teleop.input.joy", string(msg.Ott()))
	assert.Equal(t, payload, msg.PayloadBytes())
	assert.Equal(t, message.ContentTypeROS2_CDR, msg.ContentType())
	assert.Equal(t, int64(1234567890), msg.TimestampNs())
	assert.Equal(t, OttMessageVersion, msg.Version())
}

func TestDecodeOttMessageRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		{0x01, 0x02},
		{0xff, 0xff, 0xff, 0x7f, 0x00, 0x00, 0x00, 0x00},
	} {
		_, err := DecodeOttMessage(data)
		assert.Error(t, err, "data=%x", data)
	}
}

func TestTopicRegistryLoadsDefaults(t *testing.T) {
	reg := newRegistry(t, config.DefaultConfig())

	assert.Equal(t, []string{
		"teleop.control.velocity",
		"teleop.input.joy",
		"teleop.localization.pose",
		"teleop.visualization.waypoint_markers",
	}, reg.GetAllTopics())

	info, ok := reg.GetTopicInfo("teleop.input.joy")
	require.True(t, ok)
	assert.Equal(t, "/joy", info.RosTopic)
	assert.Equal(t, config.DirectionInbound, info.Direction)
	assert.Equal(t, config.SourceTypeROS2CDR, info.SourceType)

	reg.UpdateTopicStats("teleop.input.joy", 42, false)
	reg.UpdateTopicStats("teleop.input.joy", 43, true)
	reg.UpdateTopicStats("not.registered", 44, false)

	info, _ = reg.GetTopicInfo("teleop.input.joy")
	assert.Equal(t, int64(2), info.StatCount)
	assert.Equal(t, int64(1), info.ErrorCount)
	assert.Equal(t, int64(43), info.LastActivity)
	assert.Len(t, reg.GetTopicStats(), 4)
}

func TestProcessJoyCDR(t *testing.T) {
	reg := newRegistry(t, config.DefaultConfig())
	proc := NewEventProcessor(testLogger(), reg)

	joy := &rosparser.Joy{
		Header:  rosparser.Header{FrameID: "joy"},
		Axes:    []float32{0.1, 0, 0, -0.5},
		Buttons: []int32{0, 0, 1, 0},
	}
	payload, err := rosparser.Encode(joy, rosparser.FormatCDR)
	require.NoError(t, err)

	msg, err := DecodeOttMessage(EncodeOttMessage("teleop.input.joy", message.ContentTypeROS2_CDR, payload, 7))
	require.NoError(t, err)

	ev, err := proc.ProcessMessage(msg)
	require.NoError(t, err)
	want := waypoint.GamepadEvent{Axes: joy.Axes, Buttons: joy.Buttons}
	if diff := cmp.Diff(want, ev); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}

	info, _ := reg.GetTopicInfo("teleop.input.joy")
	assert.Equal(t, int64(1), info.StatCount)
}

func TestProcessPoseJSON(t *testing.T) {
	reg := newRegistry(t, config.DefaultConfig())
	proc := NewEventProcessor(testLogger(), reg)

	payload := []byte(`{"header":{"frame_id":"map"},"pose":{"pose":{"position":{"x":1,"y":2,"z":0},"orientation":{"x":0,"y":0,"z":0.7071,"w":0.7071}}}}`)
	msg, err := DecodeOttMessage(EncodeOttMessage("teleop.localization.pose", message.ContentTypeJSON_COMMAND, payload, 9))
	require.NoError(t, err)

	ev, err := proc.ProcessMessage(msg)
	require.NoError(t, err)

	pe, ok := ev.(waypoint.PoseEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, r3.Vector{X: 1, Y: 2}, pe.Pose.Position)
	assert.Equal(t, quat.Number{Real: 0.7071, Kmag: 0.7071}, pe.Pose.Orientation)
	assert.InDelta(t, math.Pi/2, waypoint.Yaw(pe.Pose.Orientation), 1e-3)
}

func TestProcessMessageErrors(t *testing.T) {
	reg := newRegistry(t, config.DefaultConfig())
	proc := NewEventProcessor(testLogger(), reg)

	tests := []struct {
		name  string
		topic string
		ct    message.ContentType
		data  []byte
	}{
		{"unknown topic", "teleop.unknown", message.ContentTypeROS2_CDR, []byte{1}},
		{"outbound topic", "teleop.control.velocity", message.ContentTypeROS2_CDR, []byte{1}},
		{"empty payload", "teleop.input.joy", message.ContentTypeROS2_CDR, nil},
		{"video content", "teleop.input.joy", message.ContentTypeENCODED_VIDEO_FRAME, []byte{1}},
		{"truncated cdr", "teleop.input.joy", message.ContentTypeROS2_CDR, []byte{0x00, 0x01, 0x00, 0x00, 0x05}},
		{"bad json", "teleop.localization.pose", message.ContentTypeJSON_COMMAND, []byte("{")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeOttMessage(EncodeOttMessage(tt.topic, tt.ct, tt.data, 1))
			require.NoError(t, err)
			_, err = proc.ProcessMessage(msg)
			assert.Error(t, err)
		})
	}

	info, _ := reg.GetTopicInfo("teleop.input.joy")
	assert.Equal(t, int64(3), info.ErrorCount)
}

func TestRosPublisherVelocity(t *testing.T) {
	cfg := config.DefaultConfig()
	reg := newRegistry(t, cfg)
	capture := &capturePublisher{}
	mock := clock.NewMock()
	mock.Set(time.Unix(100, 5))

	pub, err := NewRosPublisher(cfg, testLogger(), capture, reg, mock)
	require.NoError(t, err)

	require.NoError(t, pub.PublishVelocity(teleop.Command{LinearX: 0.5, AngularZ: -0.25}))
	require.Len(t, capture.sent, 1)
	assert.Equal(t, "teleop.control.velocity", capture.sent[0].topic)

	msg, err := DecodeOttMessage(capture.sent[0].data)
	require.NoError(t, err)
	assert.Equal(t, message.ContentTypeROS2_CDR, msg.ContentType())
	assert.Equal(t, mock.Now().UnixNano(), msg.TimestampNs())

	decoded, err := rosparser.Decode(rosparser.TypeTwist, rosparser.FormatCDR, msg.PayloadBytes())
	require.NoError(t, err)
	twist := decoded.(*rosparser.Twist)
	assert.Equal(t, 0.5, twist.Linear.X)
	assert.Equal(t, -0.25, twist.Angular.Z)

	info, _ := reg.GetTopicInfo("teleop.control.velocity")
	assert.Equal(t, int64(1), info.StatCount)
}

func TestRosPublisherMarkerJSON(t *testing.T) {
	cfg := config.DefaultConfig()
	for i := range cfg.TopicMappings {
		if cfg.TopicMappings[i].MessageType == config.MessageTypeMarker {
			cfg.TopicMappings[i].SourceType = config.SourceTypeJSON
		}
	}
	capture := &capturePublisher{}
	pub, err := NewRosPublisher(cfg, testLogger(), capture, nil, clock.NewMock())
	require.NoError(t, err)

	stamp := time.Unix(1700000000, 250)
	marker := waypoint.NewArrowMarker(3, waypoint.Pose{
		Position:    r3.Vector{X: 1, Y: 2},
		Orientation: quat.Number{Real: 1},
	}, stamp, waypoint.DefaultMarkerStyle)
	require.NoError(t, pub.PublishMarker(marker))

	require.Len(t, capture.sent, 1)
	assert.Equal(t, "teleop.visualization.waypoint_markers", capture.sent[0].topic)
	msg, err := DecodeOttMessage(capture.sent[0].data)
	require.NoError(t, err)
	assert.Equal(t, message.ContentTypeJSON_COMMAND, msg.ContentType())

	decoded, err := rosparser.Decode(rosparser.TypeMarker, rosparser.FormatJSON, msg.PayloadBytes())
	require.NoError(t, err)
	got := decoded.(*rosparser.Marker)
	assert.Equal(t, "map", got.Header.FrameID)
	assert.Equal(t, rosparser.Time{Sec: 1700000000, Nanosec: 250}, got.Header.Stamp)
	assert.Equal(t, "waypoints", got.Ns)
	assert.Equal(t, int32(3), got.ID)
	assert.Equal(t, rosparser.MarkerArrow, got.Type)
	assert.Equal(t, rosparser.MarkerActionAdd, got.Action)
	assert.Equal(t, rosparser.Vector3{X: 0.3, Y: 0.1}, got.Scale)
	assert.Equal(t, rosparser.ColorRGBA{R: 1, A: 1}, got.Color)
	assert.Equal(t, 1.0, got.Pose.Orientation.W)
}

func TestRosPublisherPublishError(t *testing.T) {
	cfg := config.DefaultConfig()
	reg := newRegistry(t, cfg)
	capture := &capturePublisher{err: errors.New("zmq down")}
	pub, err := NewRosPublisher(cfg, testLogger(), capture, reg, nil)
	require.NoError(t, err)

	err = pub.PublishVelocity(teleop.Command{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zmq down")

	info, _ := reg.GetTopicInfo("teleop.control.velocity")
	assert.Equal(t, int64(1), info.ErrorCount)
}

func TestNewRosPublisherMissingMapping(t *testing.T) {
	cfg := &config.Config{}
	_, err := NewRosPublisher(cfg, testLogger(), &capturePublisher{}, nil, nil)
	assert.Error(t, err)
}
