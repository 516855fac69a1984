package ymsg

import (
	"strconv"
	"strings"
)

// Protocol defaults written into every new packet.
const (
	DefaultVersion  int16 = 102
	DefaultVendorID int16 = 0x402
)

// Service identifies the kind of a packet.
type Service int16

// Services used by the convenience builders.
const (
	ServiceMessage Service = 6
	ServiceLogin   Service = 550
)

// Status values sent with the convenience builders.
const (
	StatusMessage int32 = 33
	StatusLogin   int32 = 12
)

// Packet is one YMSG message: a fixed header and an ordered key/value body.
type Packet struct {
	Version  int16
	VendorID int16
	Service  Service
	// Size is the body length read from the wire. It is informational on packets
	// built locally; Encode always writes the real encoded length.
	Size      uint16
	Status    int32
	SessionID int32

	Payload Payload
}

// NewPacket returns a packet with the protocol default version and vendor id.
func NewPacket(service Service, status int32) *Packet {
	return &Packet{
		Version:  DefaultVersion,
		VendorID: DefaultVendorID,
		Service:  service,
		Status:   status,
	}
}

// Get returns the first payload value stored under key.
func (p *Packet) Get(key string) (string, bool) {
	return p.Payload.Get(key)
}

// Value returns the first payload value stored under key, or "" when absent.
func (p *Packet) Value(key string) string {
	v, _ := p.Payload.Get(key)
	return v
}

// Values returns all payload values stored under key.
func (p *Packet) Values(key string) []string {
	return p.Payload.Values(key)
}

// Set replaces the first payload value stored under key, appending if absent.
func (p *Packet) Set(key, value string) {
	p.Payload.Set(key, value)
}

// Add appends a payload entry.
func (p *Packet) Add(key, value string) {
	p.Payload.Add(key, value)
}

// Clone returns a deep copy of the packet.
func (p *Packet) Clone() *Packet {
	c := *p
	c.Payload = p.Payload.clone()
	return &c
}

func (p *Packet) String() string {
	var sb strings.Builder
	sb.WriteString("Version: ")
	sb.WriteString(strconv.Itoa(int(p.Version)))
	sb.WriteString(", VendorID: ")
	sb.WriteString(strconv.Itoa(int(p.VendorID)))
	sb.WriteString(", Service: ")
	sb.WriteString(strconv.Itoa(int(p.Service)))
	sb.WriteString(", SessionID: ")
	sb.WriteString(strconv.Itoa(int(p.SessionID)))
	sb.WriteString(", Status: ")
	sb.WriteString(strconv.Itoa(int(p.Status)))
	sb.WriteByte('\n')
	for _, e := range p.Payload {
		sb.WriteString(e.Key)
		sb.WriteByte(':')
		sb.WriteString(e.Value)
		sb.WriteByte('\n')
	}
	return sb.String()
}
