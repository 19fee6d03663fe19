// Package slptest provides a minimal status server for tests.
package slptest

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Versifine/slping/internal/protocol"
	"github.com/Versifine/slping/internal/slp"
)

// Responder builds the raw frame written back after a status request.
type Responder func(h *protocol.Handshake) []byte

// JSON answers every request with a well-formed response carrying body.
func JSON(body string) Responder {
	return func(*protocol.Handshake) []byte {
		return protocol.AppendPacket(nil, (&protocol.StatusResponse{JSON: body}).Marshal())
	}
}

// Server accepts connections on 127.0.0.1 and answers one status exchange per
// connection.
type Server struct {
	ln      net.Listener
	respond Responder
	wg      sync.WaitGroup
	served  atomic.Int64
}

func NewServer(respond Responder) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{ln: ln, respond: respond}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Config returns a client configuration pointing at the server.
func (s *Server) Config() slp.Config {
	addr := s.ln.Addr().(*net.TCPAddr)
	return slp.NewConfig("127.0.0.1").WithPort(uint16(addr.Port))
}

// Served reports how many status requests were answered.
func (s *Server) Served() int {
	return int(s.served.Load())
}

// Close stops accepting and waits for in-flight connections.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	body, err := protocol.ReadPacket(conn)
	if err != nil {
		return
	}
	handshake, err := protocol.ParseHandshake(body)
	if err != nil || handshake.NextState != protocol.Status {
		return
	}
	if _, err := protocol.ReadPacket(conn); err != nil {
		return
	}
	s.served.Add(1)
	if frame := s.respond(handshake); len(frame) > 0 {
		_, _ = conn.Write(frame)
	}
}
