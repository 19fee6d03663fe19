package protocol

const (
	// Handshaking (C→S)
	C2SHandshake = 0x00

	// Status (C→S)
	C2SStatusRequest = 0x00

	// Status (S→C)
	S2CStatusResponse = 0x00
)
