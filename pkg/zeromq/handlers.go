package zeromq

import (
	"fmt"

	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
	"github.com/open-teleop/waypoint-recorder/pkg/processing"
)

// InboundHandler turns OttMessage frames from the gateway into recorder events
type InboundHandler struct {
	processor *processing.EventProcessor
	sink      processing.EventSink
	logger    customlog.Logger
}

// NewInboundHandler creates a handler feeding sink
func NewInboundHandler(processor *processing.EventProcessor, sink processing.EventSink, logger customlog.Logger) *InboundHandler {
	return &InboundHandler{
		processor: processor,
		sink:      sink,
		logger:    logger,
	}
}

// HandleMessage decodes the envelope and payload and enqueues the event
func (h *InboundHandler) HandleMessage(topic string, data []byte) error {
	ottMsg, err := processing.DecodeOttMessage(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	if ott := string(ottMsg.Ott()); ott != topic {
		h.logger.Warnf("Envelope topic '%s' differs from frame topic '%s'", ott, topic)
	}

	ev, err := h.processor.ProcessMessage(ottMsg)
	if err != nil {
		return err
	}

	if err := h.sink.Enqueue(ev); err != nil {
		return fmt.Errorf("failed to enqueue event from '%s': %w", topic, err)
	}
	return nil
}

// RegisterInboundHandlers subscribes the handler to every inbound topic
func RegisterInboundHandlers(service *ZeroMQService, topics []string, handler *InboundHandler, logger customlog.Logger) error {
	for _, topic := range topics {
		if err := service.RegisterHandler(topic, handler); err != nil {
			return err
		}
	}
	logger.Infof("Registered inbound handler for %d topics", len(topics))
	return nil
}
