package processing

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	message "github.com/open-teleop/waypoint-recorder/pkg/flatbuffers/open_teleop/message"
)

// OttMessageVersion is the envelope version written by EncodeOttMessage.
const OttMessageVersion uint32 = 1

// EncodeOttMessage wraps payload in an OttMessage envelope.
func EncodeOttMessage(ottTopic string, contentType message.ContentType, payload []byte, timestampNs int64) []byte {
	builder := flatbuffers.NewBuilder(len(payload) + len(ottTopic) + 64)

	ottOffset := builder.CreateString(ottTopic)
	payloadOffset := builder.CreateByteVector(payload)

	message.OttMessageStart(builder)
	message.OttMessageAddVersion(builder, OttMessageVersion)
	message.OttMessageAddPayload(builder, payloadOffset)
	message.OttMessageAddContentType(builder, contentType)
	message.OttMessageAddOtt(builder, ottOffset)
	message.OttMessageAddTimestampNs(builder, timestampNs)
	root := message.OttMessageEnd(builder)
	builder.Finish(root)

	return builder.FinishedBytes()
}

// DecodeOttMessage parses an OttMessage envelope. Flatbuffers accessors panic
// on truncated buffers, so the root and its fields are touched here once and
// a panic is turned into an error.
func DecodeOttMessage(data []byte) (msg *message.OttMessage, err error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("flatbuffer too short: %d bytes", len(data))
	}

	defer func() {
		if r := recover(); r != nil {
			msg = nil
			err = fmt.Errorf("malformed OttMessage: %v", r)
		}
	}()

	msg = message.GetRootAsOttMessage(data, 0)
	if len(msg.Ott()) == 0 {
		return nil, fmt.Errorf("OttMessage has no ott topic")
	}
	_ = msg.PayloadBytes()
	_ = msg.ContentType()
	_ = msg.TimestampNs()
	return msg, nil
}
