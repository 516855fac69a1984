package ymsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayload_GetAndValues(t *testing.T) {
	var p Payload
	p.Add("7", "bob")
	p.Add("1", "alice")
	p.Add("7", "carol")

	v, ok := p.Get("7")
	assert.True(t, ok)
	assert.Equal(t, "bob", v)

	_, ok = p.Get("99")
	assert.False(t, ok)

	assert.Equal(t, []string{"bob", "carol"}, p.Values("7"))
	assert.Nil(t, p.Values("99"))
	assert.Equal(t, 3, p.Len())
}

func TestPayload_Set(t *testing.T) {
	var p Payload
	p.Set("1", "alice")
	p.Add("7", "bob")
	p.Add("7", "carol")
	p.Set("7", "dave")

	assert.Equal(t, Payload{{"1", "alice"}, {"7", "dave"}, {"7", "carol"}}, p)
}

func TestPayload_Group(t *testing.T) {
	p := Payload{
		{"1", "me"},
		{"7", "bob"},
		{"10", "0"},
		{"7", "carol"},
		{"10", "2"},
		{"19", "busy"},
	}

	groups := p.Group("7")
	assert.Len(t, groups, 2)
	assert.Equal(t, Payload{{"7", "bob"}, {"10", "0"}}, groups[0])
	assert.Equal(t, Payload{{"7", "carol"}, {"10", "2"}, {"19", "busy"}}, groups[1])

	assert.Empty(t, p.Group("99"))

	// Appending to a group must not overwrite the following entries.
	groups[0] = append(groups[0], Entry{"x", "y"})
	assert.Equal(t, "carol", p[3].Value)
}

func TestPacket_Accessors(t *testing.T) {
	p := NewPacket(ServiceMessage, StatusMessage)
	assert.Equal(t, DefaultVersion, p.Version)
	assert.Equal(t, DefaultVendorID, p.VendorID)

	p.Set("5", "bob")
	p.Add("14", "hi")
	p.Add("14", "again")

	assert.Equal(t, "bob", p.Value("5"))
	assert.Equal(t, "", p.Value("99"))
	assert.Equal(t, []string{"hi", "again"}, p.Values("14"))

	c := p.Clone()
	c.Set("5", "carol")
	assert.Equal(t, "bob", p.Value("5"))

	s := p.String()
	assert.Contains(t, s, "Service: 6")
	assert.Contains(t, s, "5:bob\n")
}
