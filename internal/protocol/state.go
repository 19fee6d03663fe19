package protocol

import "fmt"

// State is the protocol phase announced in a handshake's next_state field.
type State uint32

const (
	Handshaking State = iota
	Status
	Login
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "handshaking"
	case Status:
		return "status"
	case Login:
		return "login"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}
