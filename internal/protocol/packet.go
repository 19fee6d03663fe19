package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// MaxPacketSize caps the declared body length of a single packet.
const MaxPacketSize = 2097152 // 2MB

// Packet is a decoded packet body: the leading VarInt id and the remaining fields.
type Packet struct {
	ID      uint32
	Payload []byte
}

// AppendPacket appends the frame VarInt(len(body)) || body to dst.
func AppendPacket(dst []byte, body []byte) []byte {
	dst = AppendVarInt(dst, uint32(len(body)))
	return append(dst, body...)
}

// WritePacket frames body with its length prefix and writes the whole frame to w.
func WritePacket(w io.Writer, body []byte) error {
	if len(body) > MaxPacketSize {
		return fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, len(body), MaxPacketSize)
	}
	frame := AppendPacket(make([]byte, 0, MaxVarIntLen+len(body)), body)
	return writeFull(w, frame)
}

// ReadPacket reads one length-prefixed packet body from r.
// It blocks until the whole body has arrived; a stream that ends early yields
// io.ErrUnexpectedEOF.
func ReadPacket(r io.Reader) ([]byte, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, length, MaxPacketSize)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read packet body: %w", err)
	}
	return body, nil
}

// ParsePacket splits a body into its id and the bytes that follow it.
func ParsePacket(body []byte) (*Packet, error) {
	id, n, err := ReadVarInt(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &Packet{
		ID:      id,
		Payload: body[n:],
	}, nil
}
