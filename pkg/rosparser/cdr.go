package rosparser

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// cdrHeaderLE is the encapsulation header rmw puts in front of every
// little-endian CDR payload. Alignment is computed from the byte after it.
var cdrHeaderLE = [4]byte{0x00, 0x01, 0x00, 0x00}

const maxSequenceLength = 1 << 20

var errShortBuffer = errors.New("buffer too short")

type cdrWriter struct {
	buf []byte
}

func newCDRWriter() *cdrWriter {
	w := &cdrWriter{buf: make([]byte, 0, 256)}
	w.buf = append(w.buf, cdrHeaderLE[:]...)
	return w
}

func (w *cdrWriter) Bytes() []byte {
	return w.buf
}

func (w *cdrWriter) align(n int) {
	for (len(w.buf)-len(cdrHeaderLE))%n != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *cdrWriter) writeBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *cdrWriter) writeInt32(v int32) {
	w.writeUint32(uint32(v))
}

func (w *cdrWriter) writeUint32(v uint32) {
	w.align(4)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *cdrWriter) writeFloat32(v float32) {
	w.writeUint32(math.Float32bits(v))
}

func (w *cdrWriter) writeFloat64(v float64) {
	w.align(8)
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// writeString writes a CDR string: length including the NUL terminator,
// the bytes, then NUL.
func (w *cdrWriter) writeString(s string) {
	w.writeUint32(uint32(len(s) + 1))
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

func (w *cdrWriter) writeBytes(b []byte) {
	w.writeUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// cdrReader keeps the first error it hits; later reads return zero values
// so decoders can check Err once at the end.
type cdrReader struct {
	data []byte
	pos  int
	err  error
}

func newCDRReader(data []byte) (*cdrReader, error) {
	if len(data) < len(cdrHeaderLE) {
		return nil, fmt.Errorf("payload of %d bytes has no CDR encapsulation header", len(data))
	}
	if data[0] != cdrHeaderLE[0] || data[1] != cdrHeaderLE[1] {
		return nil, fmt.Errorf("unsupported CDR encapsulation %#02x%02x (only little-endian CDR is supported)", data[0], data[1])
	}
	return &cdrReader{data: data[len(cdrHeaderLE):]}, nil
}

func (r *cdrReader) Err() error {
	return r.err
}

func (r *cdrReader) align(n int) {
	if rem := r.pos % n; rem != 0 {
		r.pos += n - rem
	}
}

func (r *cdrReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", errShortBuffer, n, r.pos, len(r.data))
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *cdrReader) readBool() bool {
	return r.readUint8() != 0
}

func (r *cdrReader) readUint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *cdrReader) readUint32() uint32 {
	r.align(4)
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *cdrReader) readInt32() int32 {
	return int32(r.readUint32())
}

func (r *cdrReader) readFloat32() float32 {
	return math.Float32frombits(r.readUint32())
}

func (r *cdrReader) readFloat64() float64 {
	r.align(8)
	b := r.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// readLength reads a sequence or string length prefix.
func (r *cdrReader) readLength() int {
	n := r.readUint32()
	if r.err == nil && n > maxSequenceLength {
		r.err = fmt.Errorf("sequence length %d exceeds limit of %d", n, maxSequenceLength)
		return 0
	}
	return int(n)
}

func (r *cdrReader) readString() string {
	n := r.readLength()
	if n == 0 {
		return ""
	}
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b[:n-1])
}

func (r *cdrReader) readBytes() []byte {
	n := r.readLength()
	if n == 0 {
		return nil
	}
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}
