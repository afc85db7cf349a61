package amqp091core

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for non-protocol failure conditions. Wrapped with
// github.com/pkg/errors wherever extra context is attached, so callers can
// still reach the original cause via errors.Cause.
var (
	// ErrInvalidState is returned when an operation is not legal in the
	// Connection's or Channel's current state.
	ErrInvalidState = errors.New("amqp091core: invalid state for this operation")

	// ErrWouldBlock is returned by serialize when there is no frame to emit.
	// Not fatal; state is left unchanged.
	ErrWouldBlock = errors.New("amqp091core: no frame available")

	// ErrNoAvailableChannel is returned when channel id allocation is
	// exhausted (all ids in 1..=channel_max are in use).
	ErrNoAvailableChannel = errors.New("amqp091core: no available channel id")

	// ErrBufferTooSmall is returned by serialize when the caller's buffer
	// cannot hold the next pending frame.
	ErrBufferTooSmall = errors.New("amqp091core: buffer too small")

	// ErrConnectionClosed resolves any channel confirmation still pending
	// once a locally initiated close reaches ConnectionStateClosed. A
	// broker-initiated close resolves them with the broker's *ProtocolError
	// instead.
	ErrConnectionClosed = errors.New("amqp091core: connection closed")

	// ErrAlreadyResolved is returned by Confirmation.Resolve on a second
	// resolution attempt; a Confirmation resolves at most once.
	ErrAlreadyResolved = errors.New("amqp091core: confirmation already resolved")
)

// ParseError wraps a frame-codec decode failure. Incomplete is represented
// separately (it is not an error the caller treats as fatal); ParseError is
// for malformed bytes.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("amqp091core: parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ProtocolError is a broker-initiated or locally-detected AMQP protocol
// violation, carrying the same (code, text, class-id, method-id) tuple the
// wire's connection.close/channel.close methods carry.
type ProtocolError struct {
	Code     uint16
	Message  string
	ClassID  uint16
	MethodID uint16
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("amqp091core: protocol error %d: %s (class=%d method=%d)",
		e.Code, e.Message, e.ClassID, e.MethodID)
}
