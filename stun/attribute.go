package stun

import (
	"fmt"
	"net"
	"strconv"
)

// AttrType is the 16-bit STUN attribute type tag.
type AttrType uint16

const (
	AttrMappedAddress     AttrType = 0x0001
	AttrResponseAddress   AttrType = 0x0002
	AttrChangeRequest     AttrType = 0x0003
	AttrSourceAddress     AttrType = 0x0004
	AttrChangedAddress    AttrType = 0x0005
	AttrUsername          AttrType = 0x0006
	AttrPassword          AttrType = 0x0007
	AttrMessageIntegrity  AttrType = 0x0008
	AttrErrorCode         AttrType = 0x0009
	AttrUnknownAttributes AttrType = 0x000A
	AttrReflectedFrom     AttrType = 0x000B
	AttrXorMappedAddress  AttrType = 0x0020
	AttrSoftware          AttrType = 0x8022
	AttrAlternateServer   AttrType = 0x8023
	AttrFingerprint       AttrType = 0x8028
	AttrOtherAddress      AttrType = 0x802B
	AttrResponseOrigin    AttrType = 0x802C
)

var attrNames = map[AttrType]string{
	AttrMappedAddress:     "MAPPED-ADDRESS",
	AttrResponseAddress:   "RESPONSE-ADDRESS",
	AttrChangeRequest:     "CHANGE-REQUEST",
	AttrSourceAddress:     "SOURCE-ADDRESS",
	AttrChangedAddress:    "CHANGED-ADDRESS",
	AttrUsername:          "USERNAME",
	AttrPassword:          "PASSWORD",
	AttrMessageIntegrity:  "MESSAGE-INTEGRITY",
	AttrErrorCode:         "ERROR-CODE",
	AttrUnknownAttributes: "UNKNOWN-ATTRIBUTES",
	AttrReflectedFrom:     "REFLECTED-FROM",
	AttrXorMappedAddress:  "XOR-MAPPED-ADDRESS",
	AttrSoftware:          "SOFTWARE",
	AttrAlternateServer:   "ALTERNATE-SERVER",
	AttrFingerprint:       "FINGERPRINT",
	AttrOtherAddress:      "OTHER-ADDRESS",
	AttrResponseOrigin:    "RESPONSE-ORIGIN",
}

// AttrName returns the textual form of a type, or its hex value if unknown.
func AttrName(t AttrType) string {
	if n, ok := attrNames[t]; ok {
		return n
	}
	return "0x" + strconv.FormatUint(uint64(t), 16)
}

// Attribute is the capability set every attribute variant implements:
// decode its body, encode its body, and render a textual form. txID is
// the owning message's transaction id, needed only by XOR-MAPPED-ADDRESS.
type Attribute interface {
	Type() AttrType
	decodeBody(c *cursor, length int, txID []byte) error
	encodeBody(c *cursor, txID []byte)
	String() string
}

// newAttr constructs the zero-value variant for a known attribute type, or
// nil for an unrecognized one. This is the central registry from §4.B.
func newAttr(t AttrType) Attribute {
	switch t {
	case AttrMappedAddress, AttrResponseAddress, AttrSourceAddress, AttrChangedAddress,
		AttrReflectedFrom, AttrAlternateServer, AttrOtherAddress, AttrResponseOrigin:
		return &EndpointAttr{typ: t}
	case AttrXorMappedAddress:
		return &EndpointAttr{typ: t, xor: true}
	case AttrChangeRequest:
		return &ChangeRequestAttr{}
	case AttrUsername, AttrPassword, AttrSoftware:
		return &TextAttr{typ: t}
	case AttrMessageIntegrity:
		return &RawAttr{typ: t}
	case AttrErrorCode:
		return &ErrorCodeAttr{}
	case AttrUnknownAttributes:
		return &UnknownAttributesAttr{}
	case AttrFingerprint:
		return &RawAttr{typ: t}
	}
	return nil
}

// EndpointAttr carries an (IP, port) body as defined in spec §3. When xor
// is true the body is XOR-obfuscated against the owning message's
// transaction id per RFC 5389's XOR-MAPPED-ADDRESS rule: the port is
// XORed with the top 16 bits of the transaction id, an IPv4 address with
// the first 4 octets, an IPv6 address with all 16.
type EndpointAttr struct {
	typ  AttrType
	xor  bool
	IP   net.IP
	Port int
}

func NewEndpointAttr(t AttrType, ip net.IP, port int) *EndpointAttr {
	return &EndpointAttr{typ: t, xor: t == AttrXorMappedAddress, IP: ip, Port: port}
}

func (a *EndpointAttr) Type() AttrType { return a.typ }

func (a *EndpointAttr) decodeBody(c *cursor, length int, txID []byte) error {
	if length < 4 {
		return errTruncated
	}
	if _, err := c.readU8(); err != nil { // reserved
		return err
	}
	family, err := c.readU8()
	if err != nil {
		return err
	}
	port, err := c.readU16()
	if err != nil {
		return err
	}
	n := 4
	if family == 2 {
		n = 16
	}
	raw, err := c.readBytes(n)
	if err != nil {
		return err
	}
	ip := make(net.IP, n)
	copy(ip, raw)
	if a.xor {
		port ^= txCookieTop(txID)
		for i := range ip {
			ip[i] = raw[i] ^ txID[i]
		}
	}
	a.IP = ip
	a.Port = int(port)
	return nil
}

func (a *EndpointAttr) encodeBody(c *cursor, txID []byte) {
	ip4 := a.IP.To4()
	family := byte(1)
	raw := []byte(ip4)
	if ip4 == nil {
		family = 2
		raw = []byte(a.IP.To16())
	}
	c.writeU8(0)
	c.writeU8(family)
	port := uint16(a.Port)
	if a.xor {
		port ^= txCookieTop(txID)
	}
	c.writeU16(port)
	if a.xor {
		xored := make([]byte, len(raw))
		for i := range raw {
			xored[i] = raw[i] ^ txID[i]
		}
		c.writeBytes(xored)
	} else {
		c.writeBytes(raw)
	}
}

func (a *EndpointAttr) String() string {
	if a.Port == 0 {
		return a.IP.String()
	}
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(a.Port))
}

// Equal compares address and port, the way the classic engine's S1/S4
// comparisons require.
func (a *EndpointAttr) Equal(b *EndpointAttr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.IP.Equal(b.IP) && a.Port == b.Port
}

func txCookieTop(id []byte) uint16 {
	if len(id) < 2 {
		return 0
	}
	return uint16(id[0])<<8 | uint16(id[1])
}

// ChangeRequestAttr is the 4-octet CHANGE-REQUEST body: bit 0x04 of the
// last octet asks the server to reply from a different IP, bit 0x02 asks
// for a different port.
type ChangeRequestAttr struct {
	ChangeIP   bool
	ChangePort bool
}

func NewChangeRequestAttr(changeIP, changePort bool) *ChangeRequestAttr {
	return &ChangeRequestAttr{ChangeIP: changeIP, ChangePort: changePort}
}

func (a *ChangeRequestAttr) Type() AttrType { return AttrChangeRequest }

func (a *ChangeRequestAttr) decodeBody(c *cursor, length int, txID []byte) error {
	if length < 4 {
		return errTruncated
	}
	if err := c.skip(3); err != nil {
		return err
	}
	flags, err := c.readU8()
	if err != nil {
		return err
	}
	a.ChangeIP = flags&0x04 != 0
	a.ChangePort = flags&0x02 != 0
	return nil
}

func (a *ChangeRequestAttr) encodeBody(c *cursor, txID []byte) {
	var flags byte
	if a.ChangeIP {
		flags |= 0x04
	}
	if a.ChangePort {
		flags |= 0x02
	}
	c.writeU8(0)
	c.writeU8(0)
	c.writeU8(0)
	c.writeU8(flags)
}

func (a *ChangeRequestAttr) String() string {
	return fmt.Sprintf("{changeIP=%v changePort=%v}", a.ChangeIP, a.ChangePort)
}

// TextAttr holds a UTF-8 text body: USERNAME, PASSWORD, SOFTWARE.
type TextAttr struct {
	typ  AttrType
	Text string
}

func NewTextAttr(t AttrType, text string) *TextAttr {
	return &TextAttr{typ: t, Text: text}
}

func (a *TextAttr) Type() AttrType { return a.typ }

func (a *TextAttr) decodeBody(c *cursor, length int, txID []byte) error {
	b, err := c.readBytes(length)
	if err != nil {
		return err
	}
	a.Text = string(b)
	return nil
}

func (a *TextAttr) encodeBody(c *cursor, txID []byte) {
	c.writeBytes([]byte(a.Text))
}

func (a *TextAttr) String() string { return a.Text }

// ErrorCodeAttr is the ERROR-CODE body: 2 reserved octets, a class (low 3
// bits of the 3rd octet, valid 3..6), a number (4th octet, valid 0..99),
// and a UTF-8 phrase filling the remainder.
type ErrorCodeAttr struct {
	Class  int
	Number int
	Phrase string
}

func NewErrorCodeAttr(code int, phrase string) *ErrorCodeAttr {
	return &ErrorCodeAttr{Class: code / 100, Number: code % 100, Phrase: phrase}
}

func (a *ErrorCodeAttr) Type() AttrType { return AttrErrorCode }

func (a *ErrorCodeAttr) decodeBody(c *cursor, length int, txID []byte) error {
	if length < 4 {
		return errTruncated
	}
	if err := c.skip(2); err != nil {
		return err
	}
	classOctet, err := c.readU8()
	if err != nil {
		return err
	}
	number, err := c.readU8()
	if err != nil {
		return err
	}
	phrase, err := c.readBytes(length - 4)
	if err != nil {
		return err
	}
	a.Class = int(classOctet & 0x07)
	a.Number = int(number)
	a.Phrase = string(phrase)
	return nil
}

func (a *ErrorCodeAttr) encodeBody(c *cursor, txID []byte) {
	c.writeU8(0)
	c.writeU8(0)
	c.writeU8(byte(a.Class))
	c.writeU8(byte(a.Number))
	c.writeBytes([]byte(a.Phrase))
}

// Code is the composite class*100+number error code.
func (a *ErrorCodeAttr) Code() int { return a.Class*100 + a.Number }

func (a *ErrorCodeAttr) String() string {
	return fmt.Sprintf("%d %s", a.Code(), a.Phrase)
}

// UnknownAttributesAttr is a sequence of u16 attribute types.
type UnknownAttributesAttr struct {
	Types []uint16
}

func (a *UnknownAttributesAttr) Type() AttrType { return AttrUnknownAttributes }

func (a *UnknownAttributesAttr) decodeBody(c *cursor, length int, txID []byte) error {
	for i := 0; i+2 <= length; i += 2 {
		v, err := c.readU16()
		if err != nil {
			return err
		}
		a.Types = append(a.Types, v)
	}
	return nil
}

func (a *UnknownAttributesAttr) encodeBody(c *cursor, txID []byte) {
	for _, v := range a.Types {
		c.writeU16(v)
	}
}

func (a *UnknownAttributesAttr) String() string { return fmt.Sprintf("%v", a.Types) }

// RawAttr holds an opaque body this core treats as a byte blob:
// MESSAGE-INTEGRITY (20 octets) and FINGERPRINT (4 octets) are carried but
// never validated or generated here (Non-goal per spec.md §1).
type RawAttr struct {
	typ  AttrType
	Data []byte
}

func (a *RawAttr) Type() AttrType { return a.typ }

func (a *RawAttr) decodeBody(c *cursor, length int, txID []byte) error {
	b, err := c.readBytes(length)
	if err != nil {
		return err
	}
	a.Data = append([]byte(nil), b...)
	return nil
}

func (a *RawAttr) encodeBody(c *cursor, txID []byte) {
	c.writeBytes(a.Data)
}

func (a *RawAttr) String() string { return fmt.Sprintf("% x", a.Data) }
