// Package resolve implements the host:port parser and DNS collaborator
// sketched as external interfaces in spec.md §6: it is not part of the
// STUN wire codec or discovery engines, but the façade and CLI front-end
// both depend on it to turn a "<host>:<port>" string into a concrete
// endpoint.
package resolve

import (
	"net"
	"strconv"
	"strings"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

// ErrInvalidHostPort is returned for input that is empty or does not
// contain exactly one ':'.
var ErrInvalidHostPort = errors.New("resolve: expected exactly one \"<host>:<port>\"")

// ParseHostPort accepts "<host>:<port>", rejecting empty input and any
// string without exactly one ':'. Port must parse as an unsigned 16-bit
// integer. Host is tried first as a literal IP; on failure it is resolved
// via DNSResolve and the first A/AAAA record is used.
func ParseHostPort(s string) (*net.UDPAddr, error) {
	if s == "" {
		return nil, ErrInvalidHostPort
	}
	if strings.Count(s, ":") != 1 {
		return nil, ErrInvalidHostPort
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return nil, ErrInvalidHostPort
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, errors.Wrap(err, "resolve: invalid port")
	}

	if ip := net.ParseIP(host); ip != nil {
		return &net.UDPAddr{IP: ip, Port: int(port)}, nil
	}

	ip, err := DNSResolve(host)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve: %s", host)
	}
	return &net.UDPAddr{IP: ip, Port: int(port)}, nil
}

// DNSResolve looks up host's first A record, falling back to the first
// AAAA record if no A record exists, against the first nameserver in
// /etc/resolv.conf (127.0.0.1:53 if none is configured). It is the DNS collaborator named in spec.md §6.
func DNSResolve(host string) (net.IP, error) {
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		cfg = &dns.ClientConfig{Servers: []string{"127.0.0.1"}, Port: "53"}
	}
	server := net.JoinHostPort(cfg.Servers[0], firstNonEmpty(cfg.Port, "53"))

	client := &dns.Client{}
	fqdn := dns.Fqdn(host)

	if ip, err := queryRecord(client, server, fqdn, dns.TypeA); err == nil && ip != nil {
		return ip, nil
	}
	ip, err := queryRecord(client, server, fqdn, dns.TypeAAAA)
	if err != nil {
		return nil, err
	}
	if ip == nil {
		return nil, errors.Errorf("resolve: no A/AAAA record for %s", host)
	}
	return ip, nil
}

func queryRecord(client *dns.Client, server, fqdn string, qtype uint16) (net.IP, error) {
	m := &dns.Msg{}
	m.SetQuestion(fqdn, qtype)
	m.RecursionDesired = true

	reply, _, err := client.Exchange(m, server)
	if err != nil {
		return nil, err
	}
	for _, rr := range reply.Answer {
		switch v := rr.(type) {
		case *dns.A:
			return v.A, nil
		case *dns.AAAA:
			return v.AAAA, nil
		}
	}
	return nil, nil
}

func firstNonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// LocalUnicastAddrs enumerates this host's global unicast addresses as
// net.IP.IsGlobalUnicast defines them (private-range addresses included;
// loopback and link-local excluded), used by the RFC 5780 mapping test's "is this host un-NATted"
// check in spec.md §4.F, which leaves how the host's own addresses are
// obtained unspecified.
func LocalUnicastAddrs() []net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var addrs []net.IP
	for _, iface := range ifaces {
		ifAddrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range ifAddrs {
			var ip net.IP
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip != nil && ip.IsGlobalUnicast() {
				addrs = append(addrs, ip)
			}
		}
	}
	return addrs
}
