package stun_test

import (
	"net"
	"testing"

	"github.com/moien007/stunscout/stun"
	"github.com/stretchr/testify/assert"
)

func bindingResponse(attrs ...stun.Attribute) func(txID []byte) *stun.Message {
	return func(txID []byte) *stun.Message {
		m := &stun.Message{Type: stun.BindingResponse, TransactionID: txID}
		for _, a := range attrs {
			m.Add(a)
		}
		return m
	}
}

func bindingErrorResponse(code int, phrase string) func(txID []byte) *stun.Message {
	return func(txID []byte) *stun.Message {
		m := &stun.Message{Type: stun.BindingErrorResponse, TransactionID: txID}
		m.Add(stun.NewErrorCodeAttr(code, phrase))
		return m
	}
}

var testServer = &net.UDPAddr{IP: net.ParseIP("198.51.100.1"), Port: 3478}

func TestRunClassic_OpenInternet(t *testing.T) {
	t.Parallel()

	local := net.IPv4(10, 0, 0, 5).To4()
	changed := net.IPv4(198, 51, 100, 2).To4()

	tr := newFakeTransport(
		replyEvent(bindingResponse(
			stun.NewEndpointAttr(stun.AttrMappedAddress, local, 40000),
			stun.NewEndpointAttr(stun.AttrChangedAddress, changed, 3479),
		)),
		replyEvent(bindingResponse()),
	)
	tr.local = &net.UDPAddr{IP: local, Port: 40000}

	result := stun.RunClassic(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.Success, result.QueryError)
	assert.Equal(t, stun.OpenInternet, result.NATType)
}

func TestRunClassic_SymmetricUDPFirewall(t *testing.T) {
	t.Parallel()

	local := net.IPv4(10, 0, 0, 5).To4()
	changed := net.IPv4(198, 51, 100, 2).To4()

	tr := newFakeTransport(
		replyEvent(bindingResponse(
			stun.NewEndpointAttr(stun.AttrMappedAddress, local, 40000),
			stun.NewEndpointAttr(stun.AttrChangedAddress, changed, 3479),
		)),
		timeoutEvent(),
	)
	tr.local = &net.UDPAddr{IP: local, Port: 40000}

	result := stun.RunClassic(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.Success, result.QueryError)
	assert.Equal(t, stun.SymmetricUDPFirewall, result.NATType)
}

func TestRunClassic_FullCone(t *testing.T) {
	t.Parallel()

	mapped := net.IPv4(203, 0, 113, 7).To4()
	changed := net.IPv4(198, 51, 100, 2).To4()

	tr := newFakeTransport(
		replyEvent(bindingResponse(
			stun.NewEndpointAttr(stun.AttrMappedAddress, mapped, 51000),
			stun.NewEndpointAttr(stun.AttrChangedAddress, changed, 3479),
		)),
		replyEvent(bindingResponse()),
	)

	result := stun.RunClassic(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.Success, result.QueryError)
	assert.Equal(t, stun.FullCone, result.NATType)
	assert.Equal(t, "203.0.113.7", result.PublicEndpoint.IP.String())
	assert.Equal(t, 51000, result.PublicEndpoint.Port)
}

func TestRunClassic_Symmetric(t *testing.T) {
	t.Parallel()

	mapped := net.IPv4(203, 0, 113, 7).To4()
	changed := net.IPv4(198, 51, 100, 2).To4()
	mapped4 := net.IPv4(203, 0, 113, 7).To4()

	tr := newFakeTransport(
		replyEvent(bindingResponse(
			stun.NewEndpointAttr(stun.AttrMappedAddress, mapped, 51000),
			stun.NewEndpointAttr(stun.AttrChangedAddress, changed, 3479),
		)),
		timeoutEvent(),
		replyEvent(bindingResponse(
			stun.NewEndpointAttr(stun.AttrMappedAddress, mapped4, 62000),
		)),
	)

	result := stun.RunClassic(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.Success, result.QueryError)
	assert.Equal(t, stun.Symmetric, result.NATType)
	assert.Nil(t, result.PublicEndpoint)
}

func TestRunClassic_PortRestricted(t *testing.T) {
	t.Parallel()

	mapped := net.IPv4(203, 0, 113, 7).To4()
	changed := net.IPv4(198, 51, 100, 2).To4()

	tr := newFakeTransport(
		replyEvent(bindingResponse(
			stun.NewEndpointAttr(stun.AttrMappedAddress, mapped, 51000),
			stun.NewEndpointAttr(stun.AttrChangedAddress, changed, 3479),
		)),
		timeoutEvent(),
		replyEvent(bindingResponse(
			stun.NewEndpointAttr(stun.AttrMappedAddress, mapped, 51000),
		)),
		timeoutEvent(),
	)

	result := stun.RunClassic(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.Success, result.QueryError)
	assert.Equal(t, stun.PortRestricted, result.NATType)
}

func TestRunClassic_Restricted(t *testing.T) {
	t.Parallel()

	mapped := net.IPv4(203, 0, 113, 7).To4()
	changed := net.IPv4(198, 51, 100, 2).To4()

	tr := newFakeTransport(
		replyEvent(bindingResponse(
			stun.NewEndpointAttr(stun.AttrMappedAddress, mapped, 51000),
			stun.NewEndpointAttr(stun.AttrChangedAddress, changed, 3479),
		)),
		timeoutEvent(),
		replyEvent(bindingResponse(
			stun.NewEndpointAttr(stun.AttrMappedAddress, mapped, 51000),
		)),
		replyEvent(bindingResponse()),
	)

	result := stun.RunClassic(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.Success, result.QueryError)
	assert.Equal(t, stun.Restricted, result.NATType)
}

func TestRunClassic_ServerErrorOnS0(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport(
		replyEvent(bindingErrorResponse(420, "Bad Request")),
	)

	result := stun.RunClassic(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.ServerErrorKind, result.QueryError)
	assert.Equal(t, 420, result.ServerError)
	assert.Equal(t, "Bad Request", result.ServerErrorPhrase)
}

func TestRunClassic_PublicIPOnly_StopsAtS1(t *testing.T) {
	t.Parallel()

	mapped := net.IPv4(203, 0, 113, 7).To4()

	tr := newFakeTransport(
		replyEvent(bindingResponse(
			stun.NewEndpointAttr(stun.AttrMappedAddress, mapped, 51000),
		)),
	)

	result := stun.RunClassic(tr, testServer, stun.PublicIP, stun.DefaultConfig())

	assert.Equal(t, stun.Success, result.QueryError)
	assert.Equal(t, "203.0.113.7", result.PublicEndpoint.IP.String())
	assert.Len(t, tr.sent, 1)
}

func TestRunClassic_MissingMappedAddress_IsBadResponse(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport(replyEvent(bindingResponse()))

	result := stun.RunClassic(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.BadResponse, result.QueryError)
}
