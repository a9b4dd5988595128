// Package rosparser encodes and decodes the ROS 2 messages the recorder
// exchanges with the gateway, either as CDR (the rmw wire format) or as
// rosbridge-style JSON.
package rosparser

import (
	"encoding/json"
	"fmt"
	"sync"

	customlog "github.com/open-teleop/waypoint-recorder/pkg/log"
)

var (
	// logger instance
	logger customlog.Logger
	mu     sync.RWMutex
)

// SetLogger sets the logger for the rosparser package
func SetLogger(l customlog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

func debugf(format string, args ...interface{}) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		l.Debugf(format, args...)
	}
}

// Error represents an error from the ROS parser.
type Error struct {
	Code    int
	Message string
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("ROS Parser error %d: %s", e.Code, e.Message)
}

// Constants for error codes
const (
	Success            = 0
	ErrorInvalidMsg    = 2
	ErrorUnsupported   = 3
	ErrorSerialization = 4
)

// Format selects the payload encoding.
type Format int

const (
	FormatCDR Format = iota
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatCDR:
		return "CDR"
	case FormatJSON:
		return "JSON"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Message is a ROS message with a CDR representation.
type Message interface {
	TypeName() string
	encodeCDR(w *cdrWriter)
	decodeCDR(r *cdrReader) error
}

var constructors = map[string]func() Message{
	TypeJoy:                       func() Message { return &Joy{} },
	TypePoseWithCovarianceStamped: func() Message { return &PoseWithCovarianceStamped{} },
	TypeTwist:                     func() Message { return &Twist{} },
	TypeMarker:                    func() Message { return &Marker{} },
}

// NewMessage returns an empty message of the given ROS type.
func NewMessage(messageType string) (Message, error) {
	ctor, ok := constructors[messageType]
	if !ok {
		return nil, &Error{Code: ErrorUnsupported, Message: fmt.Sprintf("unsupported message type '%s'", messageType)}
	}
	return ctor(), nil
}

// Decode parses data as a message of the given type.
func Decode(messageType string, format Format, data []byte) (Message, error) {
	msg, err := NewMessage(messageType)
	if err != nil {
		return nil, err
	}

	debugf("Decoding %s (%s, %d bytes)", messageType, format, len(data))

	switch format {
	case FormatCDR:
		r, err := newCDRReader(data)
		if err != nil {
			return nil, &Error{Code: ErrorInvalidMsg, Message: err.Error()}
		}
		if err := msg.decodeCDR(r); err != nil {
			return nil, &Error{Code: ErrorInvalidMsg, Message: fmt.Sprintf("%s: %v", messageType, err)}
		}
	case FormatJSON:
		if err := json.Unmarshal(data, msg); err != nil {
			return nil, &Error{Code: ErrorInvalidMsg, Message: fmt.Sprintf("%s: %v", messageType, err)}
		}
	default:
		return nil, &Error{Code: ErrorUnsupported, Message: fmt.Sprintf("unsupported format %s", format)}
	}
	return msg, nil
}

// Encode serializes msg in the given format.
func Encode(msg Message, format Format) ([]byte, error) {
	switch format {
	case FormatCDR:
		w := newCDRWriter()
		msg.encodeCDR(w)
		return w.Bytes(), nil
	case FormatJSON:
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, &Error{Code: ErrorSerialization, Message: fmt.Sprintf("%s: %v", msg.TypeName(), err)}
		}
		return data, nil
	default:
		return nil, &Error{Code: ErrorUnsupported, Message: fmt.Sprintf("unsupported format %s", format)}
	}
}
