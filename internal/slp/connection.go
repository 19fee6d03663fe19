package slp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/Versifine/slping/internal/protocol"
)

// State is the progress of a Connection through its single status exchange.
type State int

const (
	StateConnected State = iota
	StateHandshakeSent
	StateRequestSent
	StateResponseReceived
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateHandshakeSent:
		return "handshake_sent"
	case StateRequestSent:
		return "request_sent"
	case StateResponseReceived:
		return "response_received"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Connection drives one status exchange over a stream it owns exclusively.
// It is not safe for concurrent use.
type Connection struct {
	rw    io.ReadWriteCloser
	r     *bufio.Reader
	cfg   Config
	state State

	// scratch for outgoing packet bodies
	buf  []byte
	body string
}

// NewConnection wraps an already established stream. Config supplies the
// handshake fields; it is not used for dialing here.
func NewConnection(rw io.ReadWriteCloser, cfg Config) *Connection {
	return &Connection{
		rw:    rw,
		r:     bufio.NewReader(rw),
		cfg:   cfg,
		state: StateConnected,
	}
}

func (c *Connection) Config() Config {
	return c.cfg
}

func (c *Connection) State() State {
	return c.state
}

// Close releases the underlying stream.
func (c *Connection) Close() error {
	return c.rw.Close()
}

// StatusRaw performs handshake, request and response, and returns the response
// JSON exactly as the server sent it.
//
// Once a response has been received, later calls return the stored body and do
// not touch the stream. After a failure every call fails with
// ErrConnectionUnusable; open a new Connection to retry.
//
// If the stream supports deadlines, ctx's deadline and cancellation are applied
// to it. A cancelled exchange leaves the connection failed.
func (c *Connection) StatusRaw(ctx context.Context) (string, error) {
	switch c.state {
	case StateResponseReceived:
		return c.body, nil
	case StateConnected:
	default:
		return "", &Error{Kind: KindIO, Op: "status", Err: ErrConnectionUnusable}
	}
	if err := ctx.Err(); err != nil {
		return "", &Error{Kind: KindIO, Op: "status", Err: err}
	}

	stop := c.applyContext(ctx)
	defer stop()

	if err := c.exchange(); err != nil {
		c.state = StateFailed
		if ctxErr := contextErr(ctx); ctxErr != nil && isTimeout(err.Err) {
			err.Kind = KindIO
			err.Err = errors.Join(ctxErr, err.Err)
		}
		return "", err
	}
	return c.body, nil
}

// Status is StatusRaw followed by ParseStatus.
func (c *Connection) Status(ctx context.Context) (*StatusResponse, error) {
	raw, err := c.StatusRaw(ctx)
	if err != nil {
		return nil, err
	}
	return ParseStatus(raw)
}

func (c *Connection) exchange() *Error {
	handshake := protocol.Handshake{
		ProtocolVersion: c.cfg.ProtocolVersion,
		ServerAddress:   c.cfg.Host,
		ServerPort:      c.cfg.Port,
		NextState:       protocol.Status,
	}
	c.buf = handshake.AppendBody(c.buf[:0])
	if err := protocol.WritePacket(c.rw, c.buf); err != nil {
		return classify("write handshake packet", err)
	}
	c.state = StateHandshakeSent

	c.buf = protocol.StatusRequest{}.AppendBody(c.buf[:0])
	if err := protocol.WritePacket(c.rw, c.buf); err != nil {
		return classify("write request packet", err)
	}
	c.state = StateRequestSent

	body, err := protocol.ReadPacket(c.r)
	if err != nil {
		return classify("read response packet", err)
	}
	response, err := protocol.ParseStatusResponse(body)
	if err != nil {
		return classify("decode response packet", err)
	}
	c.body = response.JSON
	c.state = StateResponseReceived
	return nil
}

// contextErr reports ctx's error, treating a passed deadline as expired even
// if the stream deadline fired before ctx's own timer.
func contextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}
	return nil
}

// isTimeout reports whether err came from the stream deadline, which is how
// ctx expiry and cancellation surface during the exchange.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// applyContext mirrors ctx onto the stream deadline. The returned func detaches it.
func (c *Connection) applyContext(ctx context.Context) func() {
	d, ok := c.rw.(deadliner)
	if !ok {
		return func() {}
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = d.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = d.SetDeadline(time.Unix(1, 0))
	})
	return func() {
		if stop() {
			_ = d.SetDeadline(time.Time{})
		}
	}
}
