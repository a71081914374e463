package stun

import "net"

// QueryType selects how much discovery work a façade call performs.
type QueryType int

const (
	// PublicIP stops after learning the public endpoint (S0/S1 or MT1).
	PublicIP QueryType = iota
	// OpenNAT additionally classifies cone vs. restricted NATs but stops
	// short of the symmetric-vs-restricted disambiguation at S4/S5.
	OpenNAT
	// ExactNAT runs the full state machine to a terminal NAT Type.
	ExactNAT
)

func (q QueryType) String() string {
	switch q {
	case PublicIP:
		return "PublicIP"
	case OpenNAT:
		return "OpenNAT"
	case ExactNAT:
		return "ExactNAT"
	default:
		return "Unknown"
	}
}

// DiscoveryVariant selects the discovery procedure.
type DiscoveryVariant int

const (
	RFC3489 DiscoveryVariant = iota
	RFC5780
)

func (v DiscoveryVariant) String() string {
	switch v {
	case RFC3489:
		return "RFC3489"
	case RFC5780:
		return "RFC5780"
	default:
		return "Unknown"
	}
}

// NATType is the legacy cone/symmetric verdict, spec.md §3.
type NATType int

const (
	Unspecified NATType = iota
	OpenInternet
	FullCone
	Restricted
	PortRestricted
	Symmetric
	SymmetricUDPFirewall
)

func (t NATType) String() string {
	switch t {
	case Unspecified:
		return "Unspecified"
	case OpenInternet:
		return "OpenInternet"
	case FullCone:
		return "FullCone"
	case Restricted:
		return "Restricted"
	case PortRestricted:
		return "PortRestricted"
	case Symmetric:
		return "Symmetric"
	case SymmetricUDPFirewall:
		return "SymmetricUDPFirewall"
	default:
		return "Unknown"
	}
}

// MappingBehavior is the RFC 5780 mapping classification.
type MappingBehavior int

const (
	NoMapping MappingBehavior = iota
	EndpointIndependentMapping
	AddressDependentMapping
	AddressAndPortDependentMapping
)

func (m MappingBehavior) String() string {
	switch m {
	case NoMapping:
		return "NoMapping"
	case EndpointIndependentMapping:
		return "EndpointIndependent"
	case AddressDependentMapping:
		return "AddressDependent"
	case AddressAndPortDependentMapping:
		return "AddressAndPortDependent"
	default:
		return "Unknown"
	}
}

// FilteringBehavior is the RFC 5780 filtering classification.
type FilteringBehavior int

const (
	EndpointIndependentFiltering FilteringBehavior = iota
	AddressDependentFiltering
	AddressAndPortDependentFiltering
)

func (f FilteringBehavior) String() string {
	switch f {
	case EndpointIndependentFiltering:
		return "EndpointIndependent"
	case AddressDependentFiltering:
		return "AddressDependent"
	case AddressAndPortDependentFiltering:
		return "AddressAndPortDependent"
	default:
		return "Unknown"
	}
}

// QueryResult is the outcome of one discovery run, spec.md §3.
type QueryResult struct {
	QueryType        QueryType
	DiscoveryVariant DiscoveryVariant
	QueryError       QueryError

	ServerEndpoint *net.UDPAddr
	LocalEndpoint  *net.UDPAddr
	PublicEndpoint *net.UDPAddr

	NATType NATType

	ServerError       int
	ServerErrorPhrase string

	MappingBehavior   *MappingBehavior
	FilteringBehavior *FilteringBehavior

	// Hairpinning is set only when the caller explicitly requested the
	// supplemental hairpin check; it never participates in NATType.
	Hairpinning *bool
}

func endpointToUDPAddr(e *EndpointAttr) *net.UDPAddr {
	if e == nil {
		return nil
	}
	return &net.UDPAddr{IP: e.IP, Port: e.Port}
}

func udpAddrEqual(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.IP.Equal(b.IP) && a.Port == b.Port
}
