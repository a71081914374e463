package stun

import (
	"bytes"
	"net"
	"time"
)

// probe sends one BindingRequest carrying txID (reused across every probe
// in a run) plus any extra attributes, and validates the reply in this
// order: timeout, then a parse failure as BadResponse, then
// transaction-id mismatch, then the message type (an unexpected type or a
// BindingErrorResponse without ERROR-CODE is BadResponse; a carried
// ERROR-CODE is ServerError). It never retries — a single missed response is a
// classification signal, not packet loss (spec.md §1 Non-goals).
func probe(t Transport, cfg *Config, dest *net.UDPAddr, txID []byte, extra ...Attribute) (*Message, QueryError, *ServerError) {
	req := &Message{Type: BindingRequest, TransactionID: txID}
	if cfg.Software != "" {
		req.Add(NewTextAttr(AttrSoftware, cfg.Software))
	}
	for _, a := range extra {
		req.Add(a)
	}

	log := cfg.logger()
	log.Logf("[stun] %v -> %v %v", t.LocalAddr(), dest, req)

	if err := t.Send(req.Encode(), dest); err != nil {
		return nil, BadResponse, nil
	}

	raw, _, err := t.Recv(time.Now().Add(cfg.timeout()))
	if err != nil {
		return nil, BadResponse, nil
	}
	if raw == nil {
		return nil, Timeout, nil
	}

	resp := &Message{}
	if err := resp.Decode(raw); err != nil {
		return nil, BadResponse, nil
	}
	log.Logf("[stun] %v <- %v %v", t.LocalAddr(), dest, resp)

	if !bytes.Equal(resp.TransactionID, txID) {
		return nil, BadTransactionID, nil
	}

	switch resp.Type {
	case BindingResponse:
		return resp, Success, nil
	case BindingErrorResponse:
		ec := resp.GetError()
		if ec == nil {
			return nil, BadResponse, nil
		}
		return nil, ServerErrorKind, &ServerError{Code: ec.Code(), Phrase: ec.Phrase}
	default:
		return nil, BadResponse, nil
	}
}

func fail(r *QueryResult, qerr QueryError, serr *ServerError) *QueryResult {
	r.QueryError = qerr
	if serr != nil {
		r.ServerError = serr.Code
		r.ServerErrorPhrase = serr.Phrase
	}
	return r
}

func succeed(r *QueryResult, natType NATType) *QueryResult {
	r.QueryError = Success
	r.NATType = natType
	return r
}
