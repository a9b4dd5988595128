package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/open-teleop/waypoint-recorder/pkg/config"
	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
)

// Common errors
var (
	ErrServiceClosed    = errors.New("zeromq service is closed")
	ErrServiceRunning   = errors.New("zeromq service is already running")
	ErrInvalidMessage   = errors.New("invalid message format")
	ErrNoHandler        = errors.New("no handler registered for topic")
	ErrDuplicateHandler = errors.New("handler already registered for topic")
)

const pollInterval = 500 * time.Millisecond

// ZeroMQMessage represents a generic message structure for ZeroMQ communication
type ZeroMQMessage struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// MessageHandler processes the payload frame received on a topic
type MessageHandler interface {
	HandleMessage(topic string, data []byte) error
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(topic string, data []byte) error

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(topic string, data []byte) error {
	return f(topic, data)
}

// MessageReceiver reads topic+payload messages from a bound SUB socket
type MessageReceiver struct {
	socket     *zmq4.Socket
	dispatcher *MessageDispatcher
	poller     *zmq4.Poller
	logger     customlog.Logger
	running    atomic.Bool
	wg         *sync.WaitGroup
}

// newMessageReceiver creates a new MessageReceiver
func newMessageReceiver(ctx *zmq4.Context, cfg config.ZeroMQBootstrap, dispatcher *MessageDispatcher, logger customlog.Logger, wg *sync.WaitGroup) (*MessageReceiver, error) {
	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	timeout := cfg.ReceiveTimeout()
	if timeout <= 0 {
		timeout = time.Second
	}
	if err := socket.SetRcvtimeo(timeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}

	if err := socket.Bind(cfg.SubscribeBindAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", cfg.SubscribeBindAddress, err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("MessageReceiver bound on %s", cfg.SubscribeBindAddress)

	return &MessageReceiver{
		socket:     socket,
		dispatcher: dispatcher,
		poller:     poller,
		logger:     logger,
		wg:         wg,
	}, nil
}

// subscribe adds a topic prefix filter. Only valid before Start.
func (r *MessageReceiver) subscribe(topic string) error {
	if r.running.Load() {
		return ErrServiceRunning
	}
	if err := r.socket.SetSubscribe(topic); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return nil
}

// Start begins the message receiving loop
func (r *MessageReceiver) Start() {
	if !r.running.CompareAndSwap(false, true) {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.socket.Close()
		r.logger.Infof("MessageReceiver started")

		for r.running.Load() {
			// Poll with a timeout so Stop is noticed
			sockets, err := r.poller.Poll(pollInterval)
			if err != nil {
				if r.running.Load() {
					r.logger.Errorf("Error polling socket: %v", err)
				}
				continue
			}
			if len(sockets) == 0 {
				continue
			}

			frames, err := r.socket.RecvMessageBytes(0)
			if err != nil {
				if r.running.Load() {
					r.logger.Errorf("Error receiving message: %v", err)
				}
				continue
			}
			if len(frames) != 2 {
				r.logger.Warnf("Discarding message with %d frames: %v", len(frames), ErrInvalidMessage)
				continue
			}

			topic := string(frames[0])
			r.logger.Debugf("Received message on '%s' (%d bytes)", topic, len(frames[1]))

			if err := r.dispatcher.Dispatch(topic, frames[1]); err != nil {
				r.logger.Warnf("Error dispatching message on '%s': %v", topic, err)
			}
		}
		r.logger.Infof("MessageReceiver stopped")
	}()
}

// Stop halts the message receiving loop. The socket is closed by the loop
// once it observes the flag.
func (r *MessageReceiver) Stop() {
	r.running.Store(false)
}

// MessageSender handles sending messages to ZeroMQ sockets
type MessageSender struct {
	socket  *zmq4.Socket
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

// newMessageSender creates a new MessageSender
func newMessageSender(ctx *zmq4.Context, cfg config.ZeroMQBootstrap, logger customlog.Logger) (*MessageSender, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	pubAddress := cfg.PublishBindAddress
	if err := socket.Bind(pubAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", pubAddress, err)
	}

	logger.Infof("MessageSender bound on %s", pubAddress)

	return &MessageSender{
		socket:  socket,
		logger:  logger,
		running: true,
	}, nil
}

// PublishMessage sends a message with the given topic
func (s *MessageSender) PublishMessage(topic string, message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServiceClosed
	}

	// Topic frame first, then the payload
	if _, err := s.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := s.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Close cleans up resources
func (s *MessageSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.socket != nil {
		s.socket.Close()
		s.socket = nil
	}
}

// MessageDispatcher routes messages to handlers by exact topic
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewMessageDispatcher creates a new message dispatcher
func NewMessageDispatcher(logger customlog.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a topic
func (d *MessageDispatcher) RegisterHandler(topic string, handler MessageHandler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.handlers[topic]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, topic)
	}
	d.handlers[topic] = handler
	d.logger.Infof("Registered handler for topic: %s", topic)
	return nil
}

// Dispatch hands data to the handler registered for topic. ZeroMQ filters
// by prefix, so a topic may arrive that only shares a prefix with a
// registered one.
func (d *MessageDispatcher) Dispatch(topic string, data []byte) error {
	d.mu.RLock()
	handler, exists := d.handlers[topic]
	d.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNoHandler, topic)
	}
	return handler.HandleMessage(topic, data)
}

// ZeroMQService coordinates ZeroMQ communications for the recorder
type ZeroMQService struct {
	ctx        *zmq4.Context
	receiver   *MessageReceiver
	sender     *MessageSender
	dispatcher *MessageDispatcher
	logger     customlog.Logger
	running    atomic.Bool
	wg         *sync.WaitGroup
}

// NewZeroMQService creates the context and binds both sockets
func NewZeroMQService(cfg config.ZeroMQBootstrap, logger customlog.Logger) (*ZeroMQService, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	dispatcher := NewMessageDispatcher(logger)
	wg := &sync.WaitGroup{}

	receiver, err := newMessageReceiver(ctx, cfg, dispatcher, logger, wg)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	sender, err := newMessageSender(ctx, cfg, logger)
	if err != nil {
		receiver.socket.Close()
		ctx.Term()
		return nil, err
	}

	return &ZeroMQService{
		ctx:        ctx,
		receiver:   receiver,
		sender:     sender,
		dispatcher: dispatcher,
		logger:     logger,
		wg:         wg,
	}, nil
}

// RegisterHandler subscribes to topic and routes its messages to handler.
// Handlers must be registered before Start.
func (s *ZeroMQService) RegisterHandler(topic string, handler MessageHandler) error {
	if s.running.Load() {
		return ErrServiceRunning
	}
	if err := s.dispatcher.RegisterHandler(topic, handler); err != nil {
		return err
	}
	return s.receiver.subscribe(topic)
}

// RegisterHandlerFunc adds a handler function for a topic
func (s *ZeroMQService) RegisterHandlerFunc(topic string, handler func(string, []byte) error) error {
	return s.RegisterHandler(topic, HandlerFunc(handler))
}

// Start begins the ZeroMQ service
func (s *ZeroMQService) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Infof("Starting ZeroMQ service")
	s.receiver.Start()
	return nil
}

// Stop halts the receiver, closes the sockets and terminates the context
func (s *ZeroMQService) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	s.logger.Infof("Stopping ZeroMQ service")
	s.receiver.Stop()
	s.sender.Close()

	s.logger.Debugf("Waiting for receiver goroutine to finish...")
	s.wg.Wait()

	if s.ctx != nil {
		s.ctx.Term()
		s.ctx = nil
	}
	s.logger.Infof("ZeroMQ service stopped")
}

// PublishMessage sends a message with the given topic
func (s *ZeroMQService) PublishMessage(topic string, message []byte) error {
	if !s.running.Load() {
		return ErrServiceClosed
	}
	return s.sender.PublishMessage(topic, message)
}

// PublishJSON publishes a JSON-serializable message with the given topic
func (s *ZeroMQService) PublishJSON(topic string, messageType string, data interface{}) error {
	msg := ZeroMQMessage{
		Type:      messageType,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		Data:      data,
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return s.PublishMessage(topic, msgData)
}
