// Package frame implements bit-exact AMQP 0-9-1 framing: Parse turns bytes
// into a Frame (incrementally, reporting how many bytes it consumed), Gen
// turns a Frame into bytes. Neither function performs I/O; both are pure
// over byte slices, which keeps the state machine above deterministic to
// test.
package frame

import (
	"github.com/pkg/errors"

	"github.com/amqp091core/amqp091core/internal/buffer"
	"github.com/amqp091core/amqp091core/internal/encoding"
	"github.com/amqp091core/amqp091core/internal/wireconst"
)

// ErrIncomplete signals that Parse needs more bytes; it is not a decode
// failure and callers must re-invoke Parse once more data has arrived.
var ErrIncomplete = errors.New("amqp091core: incomplete frame")

// Frame is the tagged union of the five AMQP 0-9-1 frame kinds.
type Frame interface{ isFrame() }

type ProtocolHeader struct{}

func (ProtocolHeader) isFrame() {}

type Method struct {
	Channel uint16
	Method  encoding.Method
}

func (Method) isFrame() {}

type Header struct {
	Channel    uint16
	ClassID    uint16
	BodySize   uint64
	Properties encoding.Properties
}

func (Header) isFrame() {}

type Body struct {
	Channel uint16
	Payload []byte
}

func (Body) isFrame() {}

type Heartbeat struct {
	Channel uint16
}

func (Heartbeat) isFrame() {}

const frameHeaderLen = 1 + 2 + 4 // type + channel + size
const protocolHeaderLen = 8

// Parse reads one frame from the front of b. It returns the number of
// bytes consumed and the decoded Frame. If b does not yet hold a complete
// frame, it returns (0, nil, ErrIncomplete) and leaves b semantically
// untouched (Parse is pure; the caller owns re-slicing).
func Parse(b []byte) (consumed int, fr Frame, err error) {
	if len(b) == 0 {
		return 0, nil, ErrIncomplete
	}

	if b[0] == wireconst.ProtocolHeader[0] {
		if len(b) < protocolHeaderLen {
			return 0, nil, ErrIncomplete
		}
		var hdr [8]byte
		copy(hdr[:], b[:8])
		if hdr != wireconst.ProtocolHeader {
			return 0, nil, errors.Errorf("amqp091core: invalid protocol header %x", hdr)
		}
		return protocolHeaderLen, ProtocolHeader{}, nil
	}

	if len(b) < frameHeaderLen {
		return 0, nil, ErrIncomplete
	}

	typ := b[0]
	channel := uint16(b[1])<<8 | uint16(b[2])
	size := uint32(b[3])<<24 | uint32(b[4])<<16 | uint32(b[5])<<8 | uint32(b[6])

	total := frameHeaderLen + int(size) + 1 // +1 for frame-end octet
	if len(b) < total {
		return 0, nil, ErrIncomplete
	}
	if b[total-1] != wireconst.FrameEnd {
		return 0, nil, errors.Errorf("amqp091core: missing frame-end octet on channel %d", channel)
	}

	payload := b[frameHeaderLen : frameHeaderLen+int(size)]

	switch typ {
	case wireconst.FrameMethod:
		rd := buffer.New(payload)
		classID, ok := rd.ReadUint16()
		if !ok {
			return 0, nil, errors.New("amqp091core: truncated method frame")
		}
		methodID, ok := rd.ReadUint16()
		if !ok {
			return 0, nil, errors.New("amqp091core: truncated method frame")
		}
		m, err := encoding.DecodeMethod(classID, methodID, rd)
		if err != nil {
			return 0, nil, errors.Wrap(err, "amqp091core: decode method")
		}
		return total, Method{Channel: channel, Method: m}, nil

	case wireconst.FrameHeader:
		rd := buffer.New(payload)
		classID, ok := rd.ReadUint16()
		if !ok {
			return 0, nil, errors.New("amqp091core: truncated header frame")
		}
		if _, ok := rd.ReadUint16(); !ok { // weight, always 0, ignored
			return 0, nil, errors.New("amqp091core: truncated header frame")
		}
		bodySize, ok := rd.ReadUint64()
		if !ok {
			return 0, nil, errors.New("amqp091core: truncated header frame")
		}
		props, err := encoding.UnmarshalProperties(rd)
		if err != nil {
			return 0, nil, errors.Wrap(err, "amqp091core: decode properties")
		}
		return total, Header{Channel: channel, ClassID: classID, BodySize: bodySize, Properties: props}, nil

	case wireconst.FrameBody:
		return total, Body{Channel: channel, Payload: append([]byte(nil), payload...)}, nil

	case wireconst.FrameHeartbeat:
		return total, Heartbeat{Channel: channel}, nil

	default:
		return 0, nil, errors.Errorf("amqp091core: unknown frame type %d", typ)
	}
}

// Gen encodes fr into buf, returning the number of bytes written. If buf is
// too small to hold the frame, it returns ErrBufferTooSmall and writes
// nothing (the whole-frame contract: no partial writes).
var ErrBufferTooSmall = errors.New("amqp091core: buffer too small")

func Gen(buf []byte, fr Frame) (written int, err error) {
	switch fr := fr.(type) {
	case ProtocolHeader:
		if len(buf) < protocolHeaderLen {
			return 0, ErrBufferTooSmall
		}
		copy(buf, wireconst.ProtocolHeader[:])
		return protocolHeaderLen, nil

	case Method:
		body := &buffer.Buffer{}
		body.WriteUint16(fr.Method.ClassID())
		body.WriteUint16(fr.Method.MethodID())
		if err := fr.Method.Marshal(body); err != nil {
			return 0, err
		}
		return genWithPayload(buf, wireconst.FrameMethod, fr.Channel, body.Detach())

	case Header:
		body := &buffer.Buffer{}
		body.WriteUint16(fr.ClassID)
		body.WriteUint16(0) // weight
		body.WriteUint64(fr.BodySize)
		if err := fr.Properties.Marshal(body); err != nil {
			return 0, err
		}
		return genWithPayload(buf, wireconst.FrameHeader, fr.Channel, body.Detach())

	case Body:
		return genWithPayload(buf, wireconst.FrameBody, fr.Channel, fr.Payload)

	case Heartbeat:
		return genWithPayload(buf, wireconst.FrameHeartbeat, fr.Channel, nil)

	default:
		return 0, errors.Errorf("amqp091core: unsupported frame type %T", fr)
	}
}

func genWithPayload(buf []byte, typ uint8, channel uint16, payload []byte) (int, error) {
	total := frameHeaderLen + len(payload) + 1
	if len(buf) < total {
		return 0, ErrBufferTooSmall
	}
	buf[0] = typ
	buf[1] = byte(channel >> 8)
	buf[2] = byte(channel)
	size := uint32(len(payload))
	buf[3] = byte(size >> 24)
	buf[4] = byte(size >> 16)
	buf[5] = byte(size >> 8)
	buf[6] = byte(size)
	copy(buf[frameHeaderLen:], payload)
	buf[frameHeaderLen+len(payload)] = wireconst.FrameEnd
	return total, nil
}
