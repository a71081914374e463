package stun

import (
	"net"
	"time"

	"github.com/pkg/errors"
)

// recvBufferSize is the datagram buffer size; any oversized datagram is
// truncated per spec.md §4.D.
const recvBufferSize = 2048

// Transport abstracts the UDP socket the core sends probes over and
// reads replies from, so the engines are testable without a kernel
// socket. Recv returns (nil, nil, nil) iff no datagram arrived before the
// deadline; the core never retries a timed-out probe.
type Transport interface {
	Send(b []byte, remote *net.UDPAddr) error
	Recv(deadline time.Time) ([]byte, *net.UDPAddr, error)
	LocalAddr() *net.UDPAddr
	Close() error
}

// udpTransport is the default Transport, backed by a real net.UDPConn.
type udpTransport struct {
	conn *net.UDPConn
}

// NewUDPTransport binds a UDP socket at localAddr (empty for the
// any-address with an ephemeral port) and wraps it as a Transport.
func NewUDPTransport(localAddr string) (Transport, error) {
	addr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, errors.Wrap(err, "stun: resolve local address")
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "stun: bind udp socket")
	}
	return WrapUDPConn(conn), nil
}

// WrapUDPConn adapts a caller-owned *net.UDPConn into a Transport. The
// core never closes a socket it did not create itself.
func WrapUDPConn(conn *net.UDPConn) Transport {
	return &udpTransport{conn: conn}
}

func (t *udpTransport) Send(b []byte, remote *net.UDPAddr) error {
	_, err := t.conn.WriteToUDP(b, remote)
	return err
}

func (t *udpTransport) Recv(deadline time.Time) ([]byte, *net.UDPAddr, error) {
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, nil, err
	}
	buf := make([]byte, recvBufferSize)
	n, addr, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		if isTimeout(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return buf[:n], addr, nil
}

func (t *udpTransport) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

func (t *udpTransport) Close() error {
	return t.conn.Close()
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
