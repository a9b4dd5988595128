package api

import (
	"encoding/json"
	"errors"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/open-teleop/waypoint-recorder/pkg/config"
	message "github.com/open-teleop/waypoint-recorder/pkg/flatbuffers/open_teleop/message"
	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
	"github.com/open-teleop/waypoint-recorder/pkg/processing"
)

// ControlInput holds what the control socket needs to feed the recorder.
type ControlInput struct {
	Processor *processing.EventProcessor
	Sink      processing.EventSink
	JoyTopic  string
	Logger    customlog.Logger
}

// NewControlInput resolves the inbound Joy topic from cfg.
func NewControlInput(cfg *config.Config, processor *processing.EventProcessor, sink processing.EventSink, logger customlog.Logger) (*ControlInput, error) {
	mapping, ok := cfg.GetTopicMappingByMessageType(config.DirectionInbound, config.MessageTypeJoy)
	if !ok {
		return nil, errors.New("no inbound topic mapping for " + config.MessageTypeJoy)
	}
	return &ControlInput{
		Processor: processor,
		Sink:      sink,
		JoyTopic:  mapping.OttTopic,
		Logger:    logger,
	}, nil
}

// HandleJoyJSON validates one JSON Joy message, wraps it in an OttMessage
// and hands the resulting event to the recorder.
func (in *ControlInput) HandleJoyJSON(msg []byte) error {
	var joy JoyMsg
	if err := json.Unmarshal(msg, &joy); err != nil {
		return err
	}

	data := processing.EncodeOttMessage(in.JoyTopic, message.ContentTypeJSON_COMMAND, msg, time.Now().UnixNano())
	ottMsg, err := processing.DecodeOttMessage(data)
	if err != nil {
		return err
	}

	ev, err := in.Processor.ProcessMessage(ottMsg)
	if err != nil {
		return err
	}
	return in.Sink.Enqueue(ev)
}

// ControlWebSocketHandler reads gamepad samples from a browser.
func ControlWebSocketHandler(conn *websocket.Conn, input *ControlInput) {
	logger := input.Logger
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	var (
		mt  int
		msg []byte
		err error
	)
	for {
		if mt, msg, err = conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("Control WS read error: %v", err)
			} else if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
				logger.Infof("Control WS connection closed: %v", err)
			} else {
				logger.Infof("Control WS connection closed normally.")
			}
			break
		}

		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		if err := input.HandleJoyJSON(msg); err != nil {
			logger.Warnf("Dropping Joy message from WS: %v", err)
			continue
		}
		logger.Debugf("Queued Joy message from WS (%d bytes)", len(msg))
	}
	logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
}
