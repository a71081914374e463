package stun_test

import (
	"net"
	"testing"

	"github.com/moien007/stunscout/stun"
	"github.com/stretchr/testify/assert"
)

var otherServer = &net.UDPAddr{IP: net.ParseIP("198.51.100.1"), Port: 3479}

func xorBindingResponse(xm *stun.EndpointAttr, other *stun.EndpointAttr) func(txID []byte) *stun.Message {
	return func(txID []byte) *stun.Message {
		m := &stun.Message{Type: stun.BindingResponse, TransactionID: txID}
		if xm != nil {
			m.Add(xm)
		}
		if other != nil {
			m.Add(other)
		}
		return m
	}
}

func TestRunBehavior_FullCone(t *testing.T) {
	t.Parallel()

	xm1 := stun.NewEndpointAttr(stun.AttrXorMappedAddress, net.IPv4(198, 51, 100, 9).To4(), 50000)
	other := stun.NewEndpointAttr(stun.AttrOtherAddress, otherServer.IP.To4(), otherServer.Port)
	xm2 := stun.NewEndpointAttr(stun.AttrXorMappedAddress, net.IPv4(198, 51, 100, 9).To4(), 50000)

	tr := newFakeTransport(
		replyEvent(xorBindingResponse(xm1, other)),
		replyEvent(xorBindingResponse(xm2, nil)),
		replyEvent(bindingResponse()),
	)

	result := stun.RunBehavior(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.Success, result.QueryError)
	assert.Equal(t, stun.FullCone, result.NATType)
	assert.NotNil(t, result.MappingBehavior)
	assert.Equal(t, stun.EndpointIndependentMapping, *result.MappingBehavior)
	assert.NotNil(t, result.FilteringBehavior)
	assert.Equal(t, stun.EndpointIndependentFiltering, *result.FilteringBehavior)
}

func TestRunBehavior_Symmetric(t *testing.T) {
	t.Parallel()

	xm1 := stun.NewEndpointAttr(stun.AttrXorMappedAddress, net.IPv4(198, 51, 100, 9).To4(), 50000)
	other := stun.NewEndpointAttr(stun.AttrOtherAddress, otherServer.IP.To4(), otherServer.Port)
	xm2 := stun.NewEndpointAttr(stun.AttrXorMappedAddress, net.IPv4(198, 51, 100, 9).To4(), 50001)
	xm3 := stun.NewEndpointAttr(stun.AttrXorMappedAddress, net.IPv4(198, 51, 100, 9).To4(), 50002)

	tr := newFakeTransport(
		replyEvent(xorBindingResponse(xm1, other)),
		replyEvent(xorBindingResponse(xm2, nil)),
		replyEvent(xorBindingResponse(xm3, nil)),
	)

	result := stun.RunBehavior(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.Success, result.QueryError)
	assert.Equal(t, stun.Symmetric, result.NATType)
	assert.Nil(t, result.PublicEndpoint)
	assert.NotNil(t, result.MappingBehavior)
	assert.Equal(t, stun.AddressAndPortDependentMapping, *result.MappingBehavior)
}

func TestRunBehavior_OpenInternet_NoMapping(t *testing.T) {
	t.Parallel()

	local := &net.UDPAddr{IP: net.ParseIP("203.0.113.50"), Port: 40000}
	xm1 := stun.NewEndpointAttr(stun.AttrXorMappedAddress, local.IP.To4(), local.Port)
	other := stun.NewEndpointAttr(stun.AttrOtherAddress, otherServer.IP.To4(), otherServer.Port)
	xm2 := stun.NewEndpointAttr(stun.AttrXorMappedAddress, local.IP.To4(), local.Port)

	tr := newFakeTransport(
		replyEvent(xorBindingResponse(xm1, other)),
		replyEvent(xorBindingResponse(xm2, nil)),
	)
	tr.local = local

	result := stun.RunBehavior(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.Success, result.QueryError)
	assert.Equal(t, stun.OpenInternet, result.NATType)
	assert.NotNil(t, result.MappingBehavior)
	assert.Equal(t, stun.NoMapping, *result.MappingBehavior)
}

func TestRunBehavior_MT1_NoOtherAddress_IsNotSupported(t *testing.T) {
	t.Parallel()

	xm1 := stun.NewEndpointAttr(stun.AttrXorMappedAddress, net.IPv4(198, 51, 100, 9).To4(), 50000)

	tr := newFakeTransport(replyEvent(xorBindingResponse(xm1, nil)))

	result := stun.RunBehavior(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.NotSupported, result.QueryError)
}

func TestRunBehavior_MT1_MissingXORMapped_IsBadResponse(t *testing.T) {
	t.Parallel()

	other := stun.NewEndpointAttr(stun.AttrOtherAddress, otherServer.IP.To4(), otherServer.Port)

	tr := newFakeTransport(replyEvent(xorBindingResponse(nil, other)))

	result := stun.RunBehavior(tr, testServer, stun.ExactNAT, stun.DefaultConfig())

	assert.Equal(t, stun.BadResponse, result.QueryError)
}

func TestRunBehavior_PublicIPOnly_StopsAtMT1(t *testing.T) {
	t.Parallel()

	xm1 := stun.NewEndpointAttr(stun.AttrXorMappedAddress, net.IPv4(198, 51, 100, 9).To4(), 50000)
	other := stun.NewEndpointAttr(stun.AttrOtherAddress, otherServer.IP.To4(), otherServer.Port)

	tr := newFakeTransport(replyEvent(xorBindingResponse(xm1, other)))

	result := stun.RunBehavior(tr, testServer, stun.PublicIP, stun.DefaultConfig())

	assert.Equal(t, stun.Success, result.QueryError)
	assert.Equal(t, "198.51.100.9", result.PublicEndpoint.IP.String())
	assert.Len(t, tr.sent, 1)
}
