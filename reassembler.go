package ymsg

import (
	"bytes"

	"github.com/pkg/errors"
)

// Reassembler turns a byte stream delivered in arbitrary chunks into complete raw
// packets. Boundaries are taken from the header size field only.
//
// A Reassembler is owned by a single reader and is not safe for concurrent use.
type Reassembler struct {
	buf        []byte
	maxPayload int
	err        error
}

// NewReassembler returns a Reassembler rejecting declared bodies above maxPayload.
// Values outside (0, MaxPayloadSize] fall back to MaxPayloadSize.
func NewReassembler(maxPayload int) *Reassembler {
	if maxPayload <= 0 || maxPayload > MaxPayloadSize {
		maxPayload = MaxPayloadSize
	}
	return &Reassembler{maxPayload: maxPayload}
}

// Append buffers chunk. The chunk is copied and may be reused by the caller.
func (r *Reassembler) Append(chunk []byte) {
	r.buf = append(r.buf, chunk...)
}

// Buffered returns the number of bytes held that have not been drained yet.
func (r *Reassembler) Buffered() int {
	return len(r.buf)
}

// Err returns the error that stopped reassembly, if any.
func (r *Reassembler) Err() error {
	return r.err
}

// Ready reports whether at least one complete packet can be drained.
func (r *Reassembler) Ready() bool {
	if r.err != nil {
		return false
	}
	n, err := r.next(r.buf)
	return err == nil && n > 0
}

// Drain returns every complete packet currently buffered, in stream order, and
// discards their bytes. Each block is a fresh slice owned by the caller. Trailing
// partial data stays buffered for the next Append.
//
// When a header is malformed, blocks preceding it are still returned together with
// an ErrMalformedPacket error. The error is sticky until Reset.
func (r *Reassembler) Drain() ([][]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	var (
		blocks [][]byte
		off    int
	)
	for {
		n, err := r.next(r.buf[off:])
		if err != nil {
			r.err = err
			break
		}
		if n == 0 {
			break
		}
		block := make([]byte, n)
		copy(block, r.buf[off:off+n])
		blocks = append(blocks, block)
		off += n
	}

	if off > 0 {
		r.buf = append(r.buf[:0], r.buf[off:]...)
	}
	return blocks, r.err
}

// Reset discards all buffered bytes and clears a sticky error.
func (r *Reassembler) Reset() {
	r.buf = r.buf[:0]
	r.err = nil
}

// next returns the length of the complete packet at the front of b, or 0 when more
// bytes are needed.
func (r *Reassembler) next(b []byte) (int, error) {
	if len(b) < HeaderSize {
		// Reject garbage as soon as the magic prefix disagrees.
		if n := min(len(b), len(magic)); !bytes.Equal(b[:n], magic[:n]) {
			return 0, errors.Wrapf(ErrMalformedPacket, "bad magic %q", b[:n])
		}
		return 0, nil
	}
	size, err := readFrameSize(b, r.maxPayload)
	if err != nil {
		return 0, err
	}
	if len(b)-HeaderSize < size {
		return 0, nil
	}
	return HeaderSize + size, nil
}
