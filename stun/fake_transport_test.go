package stun_test

import (
	"net"
	"time"

	"github.com/moien007/stunscout/stun"
)

// sentDatagram records one outgoing probe, so a test can assert the engine
// sent what the state machine in spec.md §4.E/§4.F says it should.
type sentDatagram struct {
	data   []byte
	remote *net.UDPAddr
}

// replyBuilder produces the scripted reply for the probe that was just
// sent, given the just-sent request's transaction id (every probe in a run
// reuses the same id, per spec.md §3's Lifecycle rule, so the builder only
// needs the id, not the full request). A nil return value scripts a
// timeout.
type replyBuilder func(txID []byte) []byte

// fakeTransport replays a fixed sequence of (reply | timeout) observations
// keyed off the request just sent, the scripted Transport spec.md §8's
// "Engine determinism" property and end-to-end scenarios require.
type fakeTransport struct {
	local   *net.UDPAddr
	script  []replyBuilder
	pos     int
	sent    []sentDatagram
	lastTxID []byte
	closed  bool
}

func newFakeTransport(script ...replyBuilder) *fakeTransport {
	return &fakeTransport{
		local:  &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 40000},
		script: script,
	}
}

// timeoutEvent scripts a Recv timeout for one probe.
func timeoutEvent() replyBuilder {
	return func(txID []byte) []byte { return nil }
}

// replyEvent scripts a fixed reply, with txID filled in by the caller's
// message-building helper.
func replyEvent(build func(txID []byte) *stun.Message) replyBuilder {
	return func(txID []byte) []byte {
		return build(txID).Encode()
	}
}

func (f *fakeTransport) Send(b []byte, remote *net.UDPAddr) error {
	f.sent = append(f.sent, sentDatagram{data: append([]byte(nil), b...), remote: remote})
	msg, err := stun.DecodeMessage(b)
	if err == nil {
		f.lastTxID = msg.TransactionID
	}
	return nil
}

func (f *fakeTransport) Recv(deadline time.Time) ([]byte, *net.UDPAddr, error) {
	if f.pos >= len(f.script) {
		return nil, nil, nil
	}
	build := f.script[f.pos]
	f.pos++
	reply := build(f.lastTxID)
	if reply == nil {
		return nil, nil, nil
	}
	return reply, f.local, nil
}

func (f *fakeTransport) LocalAddr() *net.UDPAddr { return f.local }

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}
