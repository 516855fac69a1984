package ymsg

// Entry is one key/value string pair of a packet body.
type Entry struct {
	Key   string
	Value string
}

// Payload is the ordered body of a packet. Keys may repeat; the protocol uses
// repeated keys for list elements.
type Payload []Entry

// Len returns the number of entries.
func (p Payload) Len() int { return len(p) }

// Get returns the value of the first entry with the given key.
func (p Payload) Get(key string) (string, bool) {
	for _, e := range p {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Values returns the values of every entry with the given key, in insertion order.
func (p Payload) Values(key string) []string {
	var out []string
	for _, e := range p {
		if e.Key == key {
			out = append(out, e.Value)
		}
	}
	return out
}

// Set replaces the value of the first entry with the given key, or appends a new
// entry when the key is absent.
func (p *Payload) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	p.Add(key, value)
}

// Add appends an entry, even when the key already exists.
func (p *Payload) Add(key, value string) {
	*p = append(*p, Entry{Key: key, Value: value})
}

// Group splits the payload into runs that each begin at an occurrence of key.
// Entries before the first occurrence are dropped. Buddy and room lists repeat a
// leading key per element, so each run describes one element.
func (p Payload) Group(key string) []Payload {
	var (
		groups []Payload
		start  = -1
	)
	for i, e := range p {
		if e.Key != key {
			continue
		}
		if start >= 0 {
			groups = append(groups, p[start:i:i])
		}
		start = i
	}
	if start >= 0 {
		groups = append(groups, p[start:len(p):len(p)])
	}
	return groups
}

func (p Payload) clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	copy(out, p)
	return out
}
