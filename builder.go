package ymsg

import (
	"context"
	"strings"
)

// Credentials identify a logged-in user: the handle and the two session cookies
// obtained from the login web service.
type Credentials struct {
	Handle  string
	CookieY string
	CookieT string
}

// LoginPacket builds the cookie login packet for creds.
func LoginPacket(creds Credentials) *Packet {
	p := NewPacket(ServiceLogin, StatusLogin)
	p.Add("0", creds.Handle)
	p.Add("2", creds.Handle)
	p.Add("1", creds.Handle)
	p.Add("244", "16777215")
	p.Add("6", creds.CookieY+"; "+creds.CookieT+";")
	p.Add("98", "us")
	return p
}

// MessagePacket builds a private message from one handle to another. A non-empty
// tag is prepended to the text, as some clients use it for formatting markup.
func MessagePacket(from, to, text, tag string) *Packet {
	p := NewPacket(ServiceMessage, StatusMessage)
	p.Add("1", from)
	p.Add("5", strings.TrimSpace(to))
	p.Add("14", tag+text)
	p.Add("97", "1")
	p.Add("63", ";0")
	p.Add("64", "0")
	p.Add("241", "0")
	return p
}

// Logon sends the login packet for creds.
func (c *Conn) Logon(ctx context.Context, creds Credentials) error {
	return c.Send(ctx, LoginPacket(creds))
}

// SendMessage sends a private message.
func (c *Conn) SendMessage(ctx context.Context, from, to, text string) error {
	return c.Send(ctx, MessagePacket(from, to, text, ""))
}
