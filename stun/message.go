package stun

import (
	"crypto/rand"
	"fmt"

	"github.com/pkg/errors"
)

// MessageType is the 16-bit STUN message type.
type MessageType uint16

const (
	BindingRequest             MessageType = 0x0001
	BindingResponse            MessageType = 0x0101
	BindingErrorResponse       MessageType = 0x0111
	SharedSecretRequest        MessageType = 0x0002
	SharedSecretResponse       MessageType = 0x0102
	SharedSecretErrorResponse  MessageType = 0x0112
)

var messageTypeNames = map[MessageType]string{
	BindingRequest:            "BindingRequest",
	BindingResponse:           "BindingResponse",
	BindingErrorResponse:      "BindingErrorResponse",
	SharedSecretRequest:       "SharedSecretRequest",
	SharedSecretResponse:      "SharedSecretResponse",
	SharedSecretErrorResponse: "SharedSecretErrorResponse",
}

func (t MessageType) String() string {
	if n, ok := messageTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("0x%04x", uint16(t))
}

const headerSize = 20

// magicCookie is the RFC 5780 constant that opens a modern-variant
// transaction id and participates in XOR-MAPPED-ADDRESS.
const magicCookie uint32 = 0x2112A442

// Message is a mutable-until-serialized (type, transaction_id,
// attributes) tuple, per spec.md §3.
type Message struct {
	Type          MessageType
	TransactionID []byte // exactly 16 octets
	Attributes    []Attribute
}

// NewLegacyTransactionID returns a fully random 16-octet transaction id,
// for the RFC 3489 classic procedure.
func NewLegacyTransactionID() []byte {
	id := make([]byte, 16)
	if _, err := rand.Read(id); err != nil {
		panic(err) // crypto/rand failing is unrecoverable
	}
	return id
}

// NewModernTransactionID returns a transaction id whose first 4 octets
// are the magic cookie and whose remaining 12 are random, for the
// RFC 5780 behavior-discovery procedure.
func NewModernTransactionID() []byte {
	id := make([]byte, 16)
	id[0], id[1], id[2], id[3] = 0x21, 0x12, 0xA4, 0x42
	if _, err := rand.Read(id[4:]); err != nil {
		panic(err)
	}
	return id
}

// Get returns the first attribute of the given type, or nil.
func (m *Message) Get(t AttrType) Attribute {
	for _, a := range m.Attributes {
		if a.Type() == t {
			return a
		}
	}
	return nil
}

// GetEndpoint returns the first matching endpoint attribute among the
// given types, trying each in order, or nil.
func (m *Message) GetEndpoint(types ...AttrType) *EndpointAttr {
	for _, t := range types {
		if a, ok := m.Get(t).(*EndpointAttr); ok {
			return a
		}
	}
	return nil
}

// GetError returns the ERROR-CODE attribute, or nil.
func (m *Message) GetError() *ErrorCodeAttr {
	a, _ := m.Get(AttrErrorCode).(*ErrorCodeAttr)
	return a
}

// Add appends an attribute to the message, in encoding order.
func (m *Message) Add(a Attribute) {
	m.Attributes = append(m.Attributes, a)
}

// Encode serializes the message: header, then each attribute's TLV, then
// patches body_length to the attribute section's total octet count. No
// padding is applied to attribute bodies (a deliberate, documented
// deviation from RFC 5389 — see DESIGN.md).
func (m *Message) Encode() []byte {
	c := newWriteCursor()
	c.writeU16(uint16(m.Type))
	c.writeU16(0) // body_length placeholder, patched below
	c.writeBytes(m.TransactionID)

	for _, a := range m.Attributes {
		c.writeU16(uint16(a.Type()))
		lenOffset := c.len()
		c.writeU16(0) // attr length placeholder
		bodyStart := c.len()
		a.encodeBody(c, m.TransactionID)
		bodyLen := c.len() - bodyStart
		c.patchU16(lenOffset, uint16(bodyLen))
	}

	c.patchU16(2, uint16(c.len()-headerSize))
	return c.bytes()
}

// Decode parses a wire buffer into m. Decode fails on truncation, on a
// body that does not line up exactly with the declared body_length, or on
// any inner attribute decode failure. Unrecognized attribute types are
// skipped by advancing past their declared length; decoding continues.
func (m *Message) Decode(buf []byte) error {
	c := newReadCursor(buf)
	if c.len() < headerSize {
		return errTruncated
	}
	typ, err := c.readU16()
	if err != nil {
		return err
	}
	bodyLen, err := c.readU16()
	if err != nil {
		return err
	}
	txID, err := c.readBytes(16)
	if err != nil {
		return err
	}
	if c.len() != headerSize+int(bodyLen) {
		return errLengthMismatch
	}

	m.Type = MessageType(typ)
	m.TransactionID = append([]byte(nil), txID...)
	m.Attributes = nil

	end := headerSize + int(bodyLen)
	for c.pos < end {
		if end-c.pos < 4 {
			return errTruncated
		}
		attrType, err := c.readU16()
		if err != nil {
			return err
		}
		attrLen, err := c.readU16()
		if err != nil {
			return err
		}
		if c.pos+int(attrLen) > end {
			return errLengthMismatch
		}

		a := newAttr(AttrType(attrType))
		if a == nil {
			if err := c.skip(int(attrLen)); err != nil {
				return err
			}
			continue
		}
		bodyBuf := newReadCursor(c.buf[c.pos : c.pos+int(attrLen)])
		if err := a.decodeBody(bodyBuf, int(attrLen), m.TransactionID); err != nil {
			return errors.Wrapf(err, "decode attribute %s", AttrName(AttrType(attrType)))
		}
		if err := c.skip(int(attrLen)); err != nil {
			return err
		}
		m.Attributes = append(m.Attributes, a)
	}
	return nil
}

// DecodeMessage is a convenience constructor around Decode.
func DecodeMessage(buf []byte) (*Message, error) {
	m := &Message{}
	if err := m.Decode(buf); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Message) String() string {
	s := m.Type.String() + "{"
	for i, a := range m.Attributes {
		if i > 0 {
			s += ", "
		}
		s += AttrName(a.Type()) + ": " + a.String()
	}
	return s + "}"
}
