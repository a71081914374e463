package stun

import "net"

// QueryOptions configures a façade call: which Config to run with, which
// local interface to bind to when the façade creates its own socket, and
// whether that socket should be released before Query returns.
type QueryOptions struct {
	Config *Config
	// LocalBind is the caller-supplied local interface (spec.md §6); left
	// empty it defaults to the any-address with an ephemeral port, which
	// degrades verdict correctness for the self-address equality checks
	// in §4.E S1 and §4.F's mapping test.
	LocalBind string
	// CloseSocket releases a façade-created socket before Query returns.
	// Ignored by QueryWithSocket, which never closes a caller-owned
	// socket.
	CloseSocket bool
	// CheckHairpinning runs the supplemental hairpin check (SPEC_FULL.md)
	// after a successful run that produced a PublicEndpoint.
	CheckHairpinning bool
}

func (o *QueryOptions) config() *Config {
	if o == nil || o.Config == nil {
		return DefaultConfig()
	}
	return o.Config
}

// Query binds a socket (or the any-address with an ephemeral port, if
// opts.LocalBind is empty), runs the selected discovery variant, and
// optionally closes the socket before returning, per spec.md §4.G.
func Query(server *net.UDPAddr, queryType QueryType, variant DiscoveryVariant, opts *QueryOptions) *QueryResult {
	cfg := opts.config()

	t, err := NewUDPTransport(localBind(opts))
	if err != nil {
		return &QueryResult{
			QueryType:        queryType,
			DiscoveryVariant: variant,
			ServerEndpoint:   server,
			QueryError:       BadResponse,
		}
	}

	result := QueryWithSocket(t, server, queryType, variant, cfg)

	if opts == nil || opts.CloseSocket {
		t.Close()
	}

	if opts != nil && opts.CheckHairpinning && result.QueryError == Success && result.PublicEndpoint != nil {
		ok, _ := CheckHairpinning(result.PublicEndpoint, cfg)
		result.Hairpinning = &ok
	}

	return result
}

func localBind(opts *QueryOptions) string {
	if opts == nil {
		return ""
	}
	return opts.LocalBind
}

// QueryWithSocket runs the selected discovery variant over a caller-owned
// Transport, which this function never closes.
func QueryWithSocket(t Transport, server *net.UDPAddr, queryType QueryType, variant DiscoveryVariant, cfg *Config) *QueryResult {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	switch variant {
	case RFC5780:
		return RunBehavior(t, server, queryType, cfg)
	default:
		return RunClassic(t, server, queryType, cfg)
	}
}

// QueryFuture is the deferred result of an asynchronous façade call. The
// engines themselves have no suspension points (spec.md §5); this offloads
// one synchronous run onto a goroutine, the Go equivalent of the teacher's
// "push a synchronous call onto a worker thread" (spec.md §9).
type QueryFuture struct {
	ch chan *QueryResult
}

// Wait blocks until the run completes and returns its result.
func (f *QueryFuture) Wait() *QueryResult {
	return <-f.ch
}

// QueryAsync is the asynchronous form of Query.
func QueryAsync(server *net.UDPAddr, queryType QueryType, variant DiscoveryVariant, opts *QueryOptions) *QueryFuture {
	f := &QueryFuture{ch: make(chan *QueryResult, 1)}
	go func() {
		f.ch <- Query(server, queryType, variant, opts)
	}()
	return f
}

// QueryWithSocketAsync is the asynchronous form of QueryWithSocket.
func QueryWithSocketAsync(t Transport, server *net.UDPAddr, queryType QueryType, variant DiscoveryVariant, cfg *Config) *QueryFuture {
	f := &QueryFuture{ch: make(chan *QueryResult, 1)}
	go func() {
		f.ch <- QueryWithSocket(t, server, queryType, variant, cfg)
	}()
	return f
}
