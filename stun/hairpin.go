package stun

import "net"

// CheckHairpinning is the supplemental check recovered from the
// teacher's Detector.Hairpinning (see SPEC_FULL.md's SUPPLEMENTED
// FEATURES): after public is known, dial it from a second local socket
// and attempt one Binding exchange through that connection. Success
// indicates the NAT loops traffic addressed to the host's own public
// endpoint back to the host ("hairpin" translation). It is purely
// informational: it never changes NATType, MappingBehavior, or
// FilteringBehavior.
func CheckHairpinning(public *net.UDPAddr, cfg *Config) (bool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	t, err := NewUDPTransport("")
	if err != nil {
		return false, err
	}
	defer t.Close()

	txID := NewLegacyTransactionID()
	_, qerr, _ := probe(t, cfg, public, txID)
	return qerr == Success, nil
}
