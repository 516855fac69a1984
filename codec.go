package ymsg

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Wire layout constants.
const (
	// HeaderSize is the length of the fixed packet header.
	HeaderSize = 20
	// MaxPayloadSize is the largest body the 16-bit size field can describe.
	MaxPayloadSize = 0xFFFF
)

var (
	magic     = []byte("YMSG")
	delimiter = []byte{0xC0, 0x80}
)

// TextEncoding selects how payload strings are converted to bytes.
type TextEncoding int

const (
	// UTF8 writes strings as UTF-8. This is the default.
	UTF8 TextEncoding = iota
	// Latin1 writes strings as ISO-8859-1 for interoperability with legacy peers.
	Latin1
)

func (t TextEncoding) String() string {
	switch t {
	case UTF8:
		return "utf-8"
	case Latin1:
		return "iso-8859-1"
	default:
		return "unknown"
	}
}

// Codec converts packets to and from their wire representation.
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	text       TextEncoding
	maxPayload int
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// TextEncodingOption sets the payload string encoding.
func TextEncodingOption(t TextEncoding) CodecOption {
	return func(c *Codec) {
		c.text = t
	}
}

// PayloadLimitOption caps the body size accepted by Encode and Decode.
// Values outside (0, MaxPayloadSize] fall back to MaxPayloadSize.
func PayloadLimitOption(n int) CodecOption {
	return func(c *Codec) {
		c.maxPayload = n
	}
}

// NewCodec returns a Codec with the given options applied.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{text: UTF8}
	for _, o := range opts {
		o(c)
	}
	if c.maxPayload <= 0 || c.maxPayload > MaxPayloadSize {
		c.maxPayload = MaxPayloadSize
	}
	return c
}

// TextEncoding returns the configured string encoding.
func (c *Codec) TextEncoding() TextEncoding { return c.text }

// MaxPayload returns the largest body the codec accepts.
func (c *Codec) MaxPayload() int { return c.maxPayload }

// Encode serializes p. The size field is computed from the encoded body; p.Size is
// ignored and p is not modified.
func (c *Codec) Encode(p *Packet) ([]byte, error) {
	if p == nil {
		return nil, errors.Wrap(ErrInvalidPayload, "nil packet")
	}

	body, err := c.encodePayload(p.Payload)
	if err != nil {
		return nil, err
	}
	if len(body) > c.maxPayload {
		return nil, errors.Wrapf(ErrInvalidPayload, "body is %d bytes, limit %d", len(body), c.maxPayload)
	}

	buf := make([]byte, HeaderSize+len(body))
	copy(buf[0:4], magic)
	binary.BigEndian.PutUint16(buf[4:6], uint16(p.Version))
	binary.BigEndian.PutUint16(buf[6:8], uint16(p.VendorID))
	binary.BigEndian.PutUint16(buf[8:10], uint16(len(body)))
	binary.BigEndian.PutUint16(buf[10:12], uint16(p.Service))
	binary.BigEndian.PutUint32(buf[12:16], uint32(p.Status))
	binary.BigEndian.PutUint32(buf[16:20], uint32(p.SessionID))
	copy(buf[HeaderSize:], body)

	return buf, nil
}

// Decode parses one packet from the front of b. Bytes past the declared body are
// ignored.
func (c *Codec) Decode(b []byte) (*Packet, error) {
	size, err := readFrameSize(b, c.maxPayload)
	if err != nil {
		return nil, err
	}
	if len(b)-HeaderSize < size {
		return nil, errors.Wrapf(ErrMalformedPacket, "header declares %d body bytes, have %d", size, len(b)-HeaderSize)
	}

	p := &Packet{
		Version:   int16(binary.BigEndian.Uint16(b[4:6])),
		VendorID:  int16(binary.BigEndian.Uint16(b[6:8])),
		Size:      uint16(size),
		Service:   Service(binary.BigEndian.Uint16(b[10:12])),
		Status:    int32(binary.BigEndian.Uint32(b[12:16])),
		SessionID: int32(binary.BigEndian.Uint32(b[16:20])),
	}

	p.Payload, err = c.decodePayload(b[HeaderSize : HeaderSize+size])
	if err != nil {
		return nil, err
	}
	return p, nil
}

// readFrameSize validates the header at the front of b and returns the declared
// body size.
func readFrameSize(b []byte, maxPayload int) (int, error) {
	if len(b) < HeaderSize {
		return 0, errors.Wrapf(ErrMalformedPacket, "header needs %d bytes, have %d", HeaderSize, len(b))
	}
	if !bytes.Equal(b[0:4], magic) {
		return 0, errors.Wrapf(ErrMalformedPacket, "bad magic %q", b[0:4])
	}
	size := int(binary.BigEndian.Uint16(b[8:10]))
	if size > maxPayload {
		return 0, errors.Wrapf(ErrMalformedPacket, "declared body of %d bytes exceeds limit %d", size, maxPayload)
	}
	return size, nil
}

func (c *Codec) encodePayload(payload Payload) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range payload {
		for _, s := range [2]string{e.Key, e.Value} {
			b, err := c.encodeString(s)
			if err != nil {
				return nil, err
			}
			if bytes.Contains(b, delimiter) {
				return nil, errors.Wrapf(ErrInvalidPayload, "string %q contains the payload delimiter", s)
			}
			buf.Write(b)
			buf.Write(delimiter)
		}
	}
	return buf.Bytes(), nil
}

func (c *Codec) decodePayload(body []byte) (Payload, error) {
	var segments [][]byte
	for i := 0; ; {
		j := indexDelimiter(body, i)
		if j < 0 {
			break
		}
		segments = append(segments, body[i:j])
		i = j + len(delimiter)
	}
	if len(segments)%2 != 0 {
		return nil, errors.Wrapf(ErrMalformedPacket, "payload has %d delimited strings, key without value", len(segments))
	}

	payload := make(Payload, 0, len(segments)/2)
	for i := 0; i < len(segments); i += 2 {
		payload = append(payload, Entry{
			Key:   c.decodeString(segments[i]),
			Value: c.decodeString(segments[i+1]),
		})
	}
	return payload, nil
}

func (c *Codec) encodeString(s string) ([]byte, error) {
	if c.text != Latin1 {
		return []byte(s), nil
	}
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPayload, "string %q is not representable in %s", s, c.text)
	}
	return b, nil
}

// decodeString never fails: every byte is an ISO-8859-1 code point.
func (c *Codec) decodeString(b []byte) string {
	if c.text != Latin1 {
		return string(b)
	}
	s, _ := charmap.ISO8859_1.NewDecoder().Bytes(b)
	return string(s)
}

// indexDelimiter returns the offset of the first delimiter at or after start, or -1.
func indexDelimiter(b []byte, start int) int {
	if start < 0 || start > len(b) {
		return -1
	}
	i := bytes.Index(b[start:], delimiter)
	if i < 0 {
		return -1
	}
	return start + i
}
