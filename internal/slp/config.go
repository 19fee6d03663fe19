package slp

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	// LatestProtocolVersion is the protocol number sent when none is configured (1.15.2).
	LatestProtocolVersion uint32 = 578
	DefaultPort           uint16 = 25565
)

// Config describes which server to query and how to introduce ourselves.
// It is a plain value; the With* methods return modified copies.
type Config struct {
	Host            string
	Port            uint16
	ProtocolVersion uint32
}

// NewConfig returns a Config for host using the default port and the latest
// known protocol version.
func NewConfig(host string) Config {
	return Config{
		Host:            host,
		Port:            DefaultPort,
		ProtocolVersion: LatestProtocolVersion,
	}
}

func (c Config) WithPort(port uint16) Config {
	c.Port = port
	return c
}

func (c Config) WithProtocolVersion(version uint32) Config {
	c.ProtocolVersion = version
	return c
}

// Address is the host:port pair dialed by Connect.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// Connect dials the configured server over TCP.
// Dial failures are reported with KindConnectFailed.
func (c Config) Connect(ctx context.Context) (*Connection, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.Address())
	if err != nil {
		return nil, &Error{Kind: KindConnectFailed, Op: "connect", Err: err}
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	return NewConnection(conn, c), nil
}

// Connect dials host on the default port with the latest protocol version.
func Connect(ctx context.Context, host string) (*Connection, error) {
	return NewConfig(host).Connect(ctx)
}

// ParseTarget turns "host" or "host:port" into a Config with defaults applied.
// Bracketed IPv6 literals ("[::1]:25565", "[::1]") are accepted; a bare IPv6 literal is
// treated as a host without port.
func ParseTarget(target string) (Config, error) {
	if target == "" {
		return Config{}, fmt.Errorf("empty target")
	}
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// no port, or an IPv6 address with or without brackets
		bare := target
		if strings.HasPrefix(bare, "[") && strings.HasSuffix(bare, "]") {
			bare = bare[1 : len(bare)-1]
		}
		if ip := net.ParseIP(bare); ip != nil {
			return NewConfig(bare), nil
		}
		if !strings.ContainsAny(target, ":[]") {
			return NewConfig(target), nil
		}
		return Config{}, fmt.Errorf("parse target %q: %w", target, err)
	}
	if host == "" {
		return Config{}, fmt.Errorf("parse target %q: missing host", target)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Config{}, fmt.Errorf("parse target %q: invalid port %q", target, portStr)
	}
	return NewConfig(host).WithPort(uint16(port)), nil
}
