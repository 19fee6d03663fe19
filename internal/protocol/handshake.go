package protocol

import (
	"bytes"
	"fmt"
)

// maxAddressLen bounds the server_address field when parsing handshakes.
const maxAddressLen = 255 * 4

type Handshake struct {
	ProtocolVersion uint32
	ServerAddress   string
	ServerPort      uint16
	NextState       State
}

// AppendBody appends the handshake body (id followed by its fields) to dst.
func (h *Handshake) AppendBody(dst []byte) []byte {
	dst = AppendVarInt(dst, C2SHandshake)
	dst = AppendVarInt(dst, h.ProtocolVersion)
	dst = AppendString(dst, h.ServerAddress)
	dst = AppendUnsignedShort(dst, h.ServerPort)
	return AppendVarInt(dst, uint32(h.NextState))
}

func (h *Handshake) Marshal() []byte {
	return h.AppendBody(nil)
}

// ParseHandshake decodes a handshake body, including its leading packet id.
func ParseHandshake(body []byte) (*Handshake, error) {
	r := bytes.NewReader(body)
	id, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if id != C2SHandshake {
		return nil, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrUnexpectedPacketID, id, C2SHandshake)
	}
	protocolVersion, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	serverAddress, err := ReadString(r, maxAddressLen)
	if err != nil {
		return nil, err
	}
	serverPort, err := ReadUnsignedShort(r)
	if err != nil {
		return nil, err
	}
	nextState, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	return &Handshake{
		ProtocolVersion: protocolVersion,
		ServerAddress:   serverAddress,
		ServerPort:      serverPort,
		NextState:       State(nextState),
	}, nil
}
