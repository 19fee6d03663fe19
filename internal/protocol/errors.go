package protocol

import "errors"

var (
	ErrVarIntTooLong      = errors.New("varint is too long")
	ErrPacketTooLarge     = errors.New("packet size exceeds maximum allowed")
	ErrStringTooLong      = errors.New("string length exceeds maximum allowed")
	ErrUnexpectedPacketID = errors.New("unexpected packet id")
)
