// Command stunscout is the bundled test front-end for the stun package's
// discovery façade: it resolves a server address, runs one discovery
// variant, and reports the verdict. This front-end, the host:port
// parsing it depends on, and logging configuration are all external
// collaborators per spec.md §1 — the core library has no CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-log/log"

	"github.com/moien007/stunscout/resolve"
	"github.com/moien007/stunscout/stun"
)

var options struct {
	server    string
	local     string
	variant   string
	query     string
	timeoutMs int
	debug     bool
	hairpin   bool
}

func init() {
	flag.StringVar(&options.server, "server", "stun.l.google.com:19302", "STUN server host:port")
	flag.StringVar(&options.local, "local", "", "local bind address, host:port (default: any address, ephemeral port)")
	flag.StringVar(&options.variant, "variant", "3489", "discovery variant: 3489 or 5780")
	flag.StringVar(&options.query, "query", "exact", "query type: public, open, or exact")
	flag.IntVar(&options.timeoutMs, "timeout", 2000, "per-probe receive timeout, milliseconds")
	flag.BoolVar(&options.debug, "debug", false, "log every sent/received message")
	flag.BoolVar(&options.hairpin, "hairpin", false, "also run the supplemental hairpinning check")
}

func main() {
	flag.Parse()

	server, err := resolve.ParseHostPort(options.server)
	if err != nil {
		log.Logf("[stunscout] %v", err)
		os.Exit(1)
	}

	variant, err := parseVariant(options.variant)
	if err != nil {
		log.Logf("[stunscout] %v", err)
		os.Exit(1)
	}
	queryType, err := parseQueryType(options.query)
	if err != nil {
		log.Logf("[stunscout] %v", err)
		os.Exit(1)
	}

	cfg := stun.DefaultConfig()
	cfg.ReceiveTimeout = time.Duration(options.timeoutMs) * time.Millisecond
	if options.debug {
		cfg.Logger = stun.StdLogger{}
	}

	opts := &stun.QueryOptions{
		Config:           cfg,
		LocalBind:        options.local,
		CloseSocket:      true,
		CheckHairpinning: options.hairpin,
	}

	result := stun.Query(server, queryType, variant, opts)
	printResult(result)

	if result.QueryError != stun.Success {
		fmt.Fprintln(os.Stderr, result.QueryError.String())
		os.Exit(1)
	}
	os.Exit(0)
}

func printResult(r *stun.QueryResult) {
	fmt.Printf("query:     %s / %s\n", r.QueryType, r.DiscoveryVariant)
	fmt.Printf("error:     %s\n", r.QueryError)
	if r.LocalEndpoint != nil {
		fmt.Printf("local:     %s\n", r.LocalEndpoint)
	}
	if r.PublicEndpoint != nil {
		fmt.Printf("public:    %s\n", r.PublicEndpoint)
	}
	if r.NATType != stun.Unspecified {
		fmt.Printf("nat type:  %s\n", r.NATType)
	}
	if r.MappingBehavior != nil {
		fmt.Printf("mapping:   %s\n", *r.MappingBehavior)
	}
	if r.FilteringBehavior != nil {
		fmt.Printf("filtering: %s\n", *r.FilteringBehavior)
	}
	if r.Hairpinning != nil {
		fmt.Printf("hairpin:   %v\n", *r.Hairpinning)
	}
	if r.QueryError == stun.ServerErrorKind {
		fmt.Printf("server error: %d %s\n", r.ServerError, r.ServerErrorPhrase)
	}
}

func parseVariant(s string) (stun.DiscoveryVariant, error) {
	switch s {
	case "3489":
		return stun.RFC3489, nil
	case "5780":
		return stun.RFC5780, nil
	default:
		return 0, fmt.Errorf("stunscout: unknown variant %q (want 3489 or 5780)", s)
	}
}

func parseQueryType(s string) (stun.QueryType, error) {
	switch s {
	case "public":
		return stun.PublicIP, nil
	case "open":
		return stun.OpenNAT, nil
	case "exact":
		return stun.ExactNAT, nil
	default:
		return 0, fmt.Errorf("stunscout: unknown query type %q (want public, open, or exact)", s)
	}
}
