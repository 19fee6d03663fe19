package protocol

import (
	"bytes"
	"fmt"
)

// StatusRequest asks the server for its status. It carries no fields.
type StatusRequest struct{}

func (StatusRequest) AppendBody(dst []byte) []byte {
	return AppendVarInt(dst, C2SStatusRequest)
}

func (r StatusRequest) Marshal() []byte {
	return r.AppendBody(nil)
}

// StatusResponse carries the server's status JSON verbatim.
type StatusResponse struct {
	JSON string
}

func (s *StatusResponse) AppendBody(dst []byte) []byte {
	dst = AppendVarInt(dst, S2CStatusResponse)
	return AppendString(dst, s.JSON)
}

func (s *StatusResponse) Marshal() []byte {
	return s.AppendBody(nil)
}

// ParseStatusResponse decodes a status response body.
// Bytes following the JSON string are ignored.
func ParseStatusResponse(body []byte) (*StatusResponse, error) {
	r := bytes.NewReader(body)
	id, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if id != S2CStatusResponse {
		return nil, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrUnexpectedPacketID, id, S2CStatusResponse)
	}
	s, err := ReadString(r, MaxPacketSize)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{JSON: s}, nil
}
