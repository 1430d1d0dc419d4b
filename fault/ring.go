package fault

import "io"

// RingSize is the capacity of a RingTransport. It must be a power of 2.
const RingSize = 1024

// RingTransport stores diagnostic output in memory for a debugger to pull
// out of a halted target. When full, the oldest bytes are overwritten.
type RingTransport struct {
	buffer         [RingSize]byte
	rIndex, wIndex int
}

// NewRingTransport returns an empty ring.
func NewRingTransport() *RingTransport {
	return &RingTransport{}
}

// Write appends p to the ring and reports len(p).
func (rb *RingTransport) Write(p []byte) int {
	for _, b := range p {
		rb.buffer[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & (RingSize - 1)
		if rb.rIndex == rb.wIndex {
			rb.rIndex = (rb.rIndex + 1) & (RingSize - 1)
		}
	}
	return len(p)
}

// Len returns the number of unread bytes.
func (rb *RingTransport) Len() int {
	return (rb.wIndex - rb.rIndex) & (RingSize - 1)
}

// Read reads up to len(p) unread bytes into p. It returns io.EOF once the
// ring is empty.
func (rb *RingTransport) Read(p []byte) (n int, err error) {
	switch {
	case rb.rIndex < rb.wIndex:
		n = copy(p, rb.buffer[rb.rIndex:rb.wIndex])
	case rb.rIndex > rb.wIndex:
		n = copy(p, rb.buffer[rb.rIndex:])
	default:
		return 0, io.EOF
	}
	rb.rIndex = (rb.rIndex + n) & (RingSize - 1)
	return n, nil
}

// Kind returns KindRing.
func (rb *RingTransport) Kind() Kind { return KindRing }

func (rb *RingTransport) transport() {}

var (
	_ Transport = (*RingTransport)(nil)
	_ io.Reader = (*RingTransport)(nil)
)
