package discordrpc

import (
	"encoding/binary"
	"fmt"
	"io"

	"emperror.dev/errors"
)

// Opcode identifies the kind of an IPC frame.
type Opcode uint32

const (
	OpHandshake Opcode = 0
	OpFrame     Opcode = 1
	OpClose     Opcode = 2
	OpPing      Opcode = 3
	OpPong      Opcode = 4
)

func (o Opcode) String() string {
	switch o {
	case OpHandshake:
		return "handshake"
	case OpFrame:
		return "frame"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	}
	return fmt.Sprintf("opcode(%d)", uint32(o))
}

const (
	headerSize = 8

	// MaxFrameSize bounds the payload of a single frame.
	MaxFrameSize = 1 << 20
)

// WriteFrame writes one frame: a little-endian opcode, a little-endian
// payload length, then the payload.
func WriteFrame(w io.Writer, op Opcode, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return errors.Errorf("frame payload of %d bytes exceeds limit of %d", len(payload), MaxFrameSize)
	}

	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(op))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[headerSize:], payload)

	_, err := w.Write(buf)
	return errors.WrapIf(err, "write frame")
}

// ReadFrame reads one frame written by WriteFrame.
func ReadFrame(r io.Reader) (Opcode, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, errors.WrapIf(err, "read frame header")
	}

	op := Opcode(binary.LittleEndian.Uint32(header[0:4]))
	size := binary.LittleEndian.Uint32(header[4:8])
	if size > MaxFrameSize {
		return 0, nil, errors.Errorf("frame payload of %d bytes exceeds limit of %d", size, MaxFrameSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, errors.WrapIf(err, "read frame payload")
	}
	return op, payload, nil
}
