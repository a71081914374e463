package stun

import (
	"net"

	"github.com/moien007/stunscout/resolve"
)

// RunBehavior executes the RFC 5780 mapping and filtering tests described
// in spec.md §4.F and synthesizes a NAT Type from their combination. The
// transaction id's first 4 octets are the magic cookie; the mapping test
// and filtering test share it, per spec.md §3.
func RunBehavior(t Transport, server *net.UDPAddr, queryType QueryType, cfg *Config) *QueryResult {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	result := &QueryResult{
		QueryType:        queryType,
		DiscoveryVariant: RFC5780,
		ServerEndpoint:   server,
		LocalEndpoint:    t.LocalAddr(),
	}
	txID := NewModernTransactionID()

	xm1, other, qerr, serr := behaviorMT1(t, cfg, server, txID)
	if qerr != Success {
		return fail(result, qerr, serr)
	}

	if queryType == PublicIP {
		result.PublicEndpoint = endpointToUDPAddr(xm1)
		result.QueryError = Success
		return result
	}

	otherAddr := endpointToUDPAddr(other)
	mapping, xm2, qerr, serr := behaviorMT2(t, cfg, server, otherAddr, txID, xm1)
	if qerr != Success {
		return fail(result, qerr, serr)
	}

	if mapping == nil {
		// XM2 != XM1: disambiguate address- vs address-and-port-dependent.
		mt3mapping, qerr, serr := behaviorMT3(t, cfg, otherAddr, txID, xm2)
		if qerr != Success {
			return fail(result, qerr, serr)
		}
		result.MappingBehavior = &mt3mapping
		result.PublicEndpoint = nil
		return succeed(result, Symmetric)
	}

	result.MappingBehavior = mapping
	switch *mapping {
	case NoMapping:
		result.PublicEndpoint = endpointToUDPAddr(xm1)
		return succeed(result, OpenInternet)
	case EndpointIndependentMapping:
		result.PublicEndpoint = endpointToUDPAddr(xm1)
		return behaviorFiltering(t, cfg, server, txID, result)
	default:
		result.PublicEndpoint = nil
		return succeed(result, Symmetric)
	}
}

// behaviorMT1 runs MT1: a plain BindingRequest to the primary server.
// XOR-MAPPED-ADDRESS is required; OTHER-ADDRESS (or CHANGED-ADDRESS) must
// also be present for the mapping test to have a second server address to
// probe in MT2 — its absence is what spec.md §7's NotSupported error
// kind names ("the server provided neither OTHER-ADDRESS nor
// CHANGED-ADDRESS"). See DESIGN.md for the precedence decision between
// this and the bare-XM1-missing case spec.md §4.F describes.
func behaviorMT1(t Transport, cfg *Config, server *net.UDPAddr, txID []byte) (xm1, other *EndpointAttr, qerr QueryError, serr *ServerError) {
	msg, qerr, serr := probe(t, cfg, server, txID)
	if qerr != Success {
		return nil, nil, qerr, serr
	}
	other = msg.GetEndpoint(AttrOtherAddress, AttrChangedAddress)
	xm1 = msg.GetEndpoint(AttrXorMappedAddress)
	if other == nil {
		return nil, nil, NotSupported, nil
	}
	if xm1 == nil {
		return nil, nil, BadResponse, nil
	}
	return xm1, other, Success, nil
}

// behaviorMT2 runs MT2: a plain BindingRequest to (other.address,
// primary.port). If the returned XOR-MAPPED-ADDRESS equals XM1, the
// mapping is either NoMapping (host is un-NATted, detected by comparing
// XM1 against the local endpoint and this host's locally-configured
// addresses) or EndpointIndependent; mapping is returned non-nil in that
// case. If it differs, mapping is nil and xm2 is returned for MT3 to
// disambiguate.
func behaviorMT2(t Transport, cfg *Config, server *net.UDPAddr, otherAddr *net.UDPAddr, txID []byte, xm1 *EndpointAttr) (mapping *MappingBehavior, xm2 *EndpointAttr, qerr QueryError, serr *ServerError) {
	dest := &net.UDPAddr{IP: otherAddr.IP, Port: server.Port}
	msg, qerr, serr := probe(t, cfg, dest, txID)
	if qerr != Success {
		return nil, nil, qerr, serr
	}
	xm2 = msg.GetEndpoint(AttrXorMappedAddress)
	if xm2 == nil {
		return nil, nil, BadResponse, nil
	}
	if !xm2.Equal(xm1) {
		return nil, xm2, Success, nil
	}
	m := EndpointIndependentMapping
	if isHostsOwnAddress(xm1.IP, t.LocalAddr()) {
		m = NoMapping
	}
	return &m, xm2, Success, nil
}

// behaviorMT3 runs MT3: a plain BindingRequest to (other.address,
// other.port), only reached when XM2 != XM1.
func behaviorMT3(t Transport, cfg *Config, otherAddr *net.UDPAddr, txID []byte, xm2 *EndpointAttr) (MappingBehavior, QueryError, *ServerError) {
	msg, qerr, serr := probe(t, cfg, otherAddr, txID)
	if qerr != Success {
		return 0, qerr, serr
	}
	xm3 := msg.GetEndpoint(AttrXorMappedAddress)
	if xm3 == nil {
		return 0, BadResponse, nil
	}
	if xm3.Equal(xm2) {
		return AddressDependentMapping, Success, nil
	}
	return AddressAndPortDependentMapping, Success, nil
}

// behaviorFiltering runs FT2/FT3 against the primary server, reusing the
// run's transaction id, and maps the outcome to a terminal NAT Type via
// the synthesis table in spec.md §4.F.
func behaviorFiltering(t Transport, cfg *Config, server *net.UDPAddr, txID []byte, result *QueryResult) *QueryResult {
	_, qerr, serr := probe(t, cfg, server, txID, NewChangeRequestAttr(true, true))
	switch qerr {
	case Success:
		fb := EndpointIndependentFiltering
		result.FilteringBehavior = &fb
		return succeed(result, FullCone)
	case Timeout:
		// fall through to FT3
	default:
		return fail(result, qerr, serr)
	}

	_, qerr, serr = probe(t, cfg, server, txID, NewChangeRequestAttr(false, true))
	switch qerr {
	case Success:
		fb := AddressDependentFiltering
		result.FilteringBehavior = &fb
		return succeed(result, Restricted)
	case Timeout:
		fb := AddressAndPortDependentFiltering
		result.FilteringBehavior = &fb
		return succeed(result, PortRestricted)
	default:
		return fail(result, qerr, serr)
	}
}

// isHostsOwnAddress reports whether ip is the socket's own local address
// or one of this host's locally-configured addresses, per spec.md §4.F's
// "or any locally-configured address of this host" clause.
func isHostsOwnAddress(ip net.IP, local *net.UDPAddr) bool {
	if local != nil && local.IP.Equal(ip) {
		return true
	}
	for _, a := range resolve.LocalUnicastAddrs() {
		if a.Equal(ip) {
			return true
		}
	}
	return false
}
