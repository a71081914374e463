package stun

import "net"

// RunClassic executes the RFC 3489 binding/change-request state machine
// described in spec.md §4.E (states S0-S5) and returns the terminal
// QueryResult. A single 16-octet random transaction id, generated once at
// the start of the run, is reused for every probe.
func RunClassic(t Transport, server *net.UDPAddr, queryType QueryType, cfg *Config) *QueryResult {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	result := &QueryResult{
		QueryType:        queryType,
		DiscoveryVariant: RFC3489,
		ServerEndpoint:   server,
		LocalEndpoint:    t.LocalAddr(),
	}
	txID := NewLegacyTransactionID()

	// S0: plain BindingRequest to the primary server.
	s0, qerr, serr := probe(t, cfg, server, txID)
	if qerr != Success {
		return fail(result, qerr, serr)
	}
	mapped := s0.GetEndpoint(AttrMappedAddress)
	if mapped == nil {
		return fail(result, BadResponse, nil)
	}
	result.PublicEndpoint = endpointToUDPAddr(mapped)
	changed := s0.GetEndpoint(AttrChangedAddress)

	// S1
	if queryType == PublicIP {
		result.QueryError = Success
		return result
	}

	if udpAddrEqual(result.PublicEndpoint, result.LocalEndpoint) {
		return classicS2(t, cfg, server, txID, result)
	}
	return classicS3(t, cfg, server, changed, txID, mapped, queryType, result)
}

// S2: no apparent NAT. Probe the server asking it to reply from a
// different IP and port; a reply means the firewall let it through.
func classicS2(t Transport, cfg *Config, server *net.UDPAddr, txID []byte, result *QueryResult) *QueryResult {
	_, qerr, serr := probe(t, cfg, server, txID, NewChangeRequestAttr(true, true))
	switch qerr {
	case Timeout:
		return succeed(result, SymmetricUDPFirewall)
	case Success:
		return succeed(result, OpenInternet)
	default:
		return fail(result, qerr, serr)
	}
}

// S3: NAT present. Probe the server asking it to reply from a different
// IP and port; a reply means the NAT is a full cone.
func classicS3(t Transport, cfg *Config, server *net.UDPAddr, changed *EndpointAttr, txID []byte, mapped *EndpointAttr, queryType QueryType, result *QueryResult) *QueryResult {
	_, qerr, serr := probe(t, cfg, server, txID, NewChangeRequestAttr(true, true))
	switch qerr {
	case Success:
		return succeed(result, FullCone)
	case Timeout:
		return classicS4(t, cfg, changed, txID, mapped, queryType, result)
	default:
		return fail(result, qerr, serr)
	}
}

// S4: send a plain BindingRequest to the CHANGED-ADDRESS the server
// advertised in S0. A different MAPPED-ADDRESS means the mapping varies
// per destination: symmetric.
func classicS4(t Transport, cfg *Config, changed *EndpointAttr, txID []byte, mapped *EndpointAttr, queryType QueryType, result *QueryResult) *QueryResult {
	if queryType == OpenNAT {
		return succeed(result, Unspecified)
	}
	if changed == nil {
		return fail(result, BadResponse, nil)
	}
	changedAddr := endpointToUDPAddr(changed)

	s4, qerr, serr := probe(t, cfg, changedAddr, txID)
	switch qerr {
	case Timeout:
		return fail(result, Timeout, nil)
	case Success:
		mapped4 := s4.GetEndpoint(AttrMappedAddress)
		if mapped4 == nil {
			return fail(result, BadResponse, nil)
		}
		if !mapped4.Equal(mapped) {
			result.PublicEndpoint = nil
			return succeed(result, Symmetric)
		}
		return classicS5(t, cfg, changedAddr, txID, result)
	default:
		return fail(result, qerr, serr)
	}
}

// S5: probe the CHANGED-ADDRESS asking only for a different port. A reply
// means the filtering only depends on address, not port: restricted. A
// timeout means it depends on both: port restricted.
func classicS5(t Transport, cfg *Config, changedAddr *net.UDPAddr, txID []byte, result *QueryResult) *QueryResult {
	_, qerr, serr := probe(t, cfg, changedAddr, txID, NewChangeRequestAttr(false, true))
	switch qerr {
	case Timeout:
		return succeed(result, PortRestricted)
	case Success:
		return succeed(result, Restricted)
	default:
		return fail(result, qerr, serr)
	}
}
