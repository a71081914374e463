package stun

import "encoding/binary"

// cursor is a position-tracking big-endian reader/writer over a byte
// buffer. It is the only place in the package that converts between wire
// (network, big-endian) order and host order.
type cursor struct {
	buf []byte
	pos int
}

func newReadCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func newWriteCursor() *cursor {
	return &cursor{buf: make([]byte, 0, 128)}
}

func (c *cursor) len() int { return len(c.buf) }

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) seek(pos int) { c.pos = pos }

func (c *cursor) readU8() (byte, error) {
	if c.remaining() < 1 {
		return 0, errTruncated
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) readU16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, errTruncated
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) readU32() (uint32, error) {
	if c.remaining() < 4 {
		return 0, errTruncated
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, errTruncated
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) skip(n int) error {
	if c.remaining() < n {
		return errTruncated
	}
	c.pos += n
	return nil
}

func (c *cursor) writeU8(v byte) {
	c.buf = append(c.buf, v)
	c.pos = len(c.buf)
}

func (c *cursor) writeU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	c.buf = append(c.buf, b[:]...)
	c.pos = len(c.buf)
}

func (c *cursor) writeU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	c.buf = append(c.buf, b[:]...)
	c.pos = len(c.buf)
}

func (c *cursor) writeBytes(b []byte) {
	c.buf = append(c.buf, b...)
	c.pos = len(c.buf)
}

// patchU16 overwrites the two octets at offset with v; used to back-patch
// the message body_length field after encoding the attribute section.
func (c *cursor) patchU16(offset int, v uint16) {
	binary.BigEndian.PutUint16(c.buf[offset:], v)
}

func (c *cursor) bytes() []byte { return c.buf }
