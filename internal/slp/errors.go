package slp

import (
	"errors"
	"fmt"
	"io"

	"github.com/Versifine/slping/internal/protocol"
)

// Kind identifies which failure ended a status query.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnectFailed
	KindMalformedVarInt
	KindUnexpectedEOF
	KindPacketTooLarge
	KindUnexpectedPacketID
	KindIO
	KindInvalidResponseJSON
)

func (k Kind) String() string {
	switch k {
	case KindConnectFailed:
		return "connect_failed"
	case KindMalformedVarInt:
		return "malformed_varint"
	case KindUnexpectedEOF:
		return "unexpected_eof"
	case KindPacketTooLarge:
		return "packet_too_large"
	case KindUnexpectedPacketID:
		return "unexpected_packet_id"
	case KindIO:
		return "io"
	case KindInvalidResponseJSON:
		return "invalid_response_json"
	default:
		return "unknown"
	}
}

// ErrConnectionUnusable is returned by a Connection whose exchange already failed.
var ErrConnectionUnusable = errors.New("connection is unusable after a failed exchange")

// Error is returned by every operation of this package.
// Err keeps the underlying cause, so errors.Is works with protocol sentinels.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("slp: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("slp: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// classify maps a codec or transport failure onto the outer error kinds.
func classify(op string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	kind := KindIO
	switch {
	case errors.Is(err, protocol.ErrVarIntTooLong):
		kind = KindMalformedVarInt
	case errors.Is(err, protocol.ErrPacketTooLarge), errors.Is(err, protocol.ErrStringTooLong):
		kind = KindPacketTooLarge
	case errors.Is(err, protocol.ErrUnexpectedPacketID):
		kind = KindUnexpectedPacketID
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		kind = KindUnexpectedEOF
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
