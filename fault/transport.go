package fault

import (
	"fmt"
	"io"

	"github.com/ardnew/panicusb/pkg"
)

// Kind selects a diagnostic transport backend.
type Kind uint8

// Transport kinds.
const (
	KindSerial Kind = iota // CDC-ACM serial over USB
	KindRing               // In-memory ring read by a debugger
)

// String returns the kind name used in configuration files.
func (k Kind) String() string {
	switch k {
	case KindSerial:
		return "serial"
	case KindRing:
		return "ring"
	default:
		return "unknown"
	}
}

// ParseKind parses a configuration name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "serial":
		return KindSerial, nil
	case "ring":
		return KindRing, nil
	default:
		return 0, fmt.Errorf("transport kind %q: %w", s, pkg.ErrInvalidConfig)
	}
}

// Transport is the write contract shared by diagnostic backends. Write
// never fails and reports len(p) consumed. The set of implementations is
// closed: SerialTransport and RingTransport.
type Transport interface {
	Write(p []byte) int
	Kind() Kind

	transport()
}

// sink adapts a Transport to io.Writer.
type sink struct {
	t Transport
}

func (s sink) Write(p []byte) (int, error) {
	return s.t.Write(p), nil
}

// NewWriter returns an io.Writer that feeds t.
func NewWriter(t Transport) io.Writer {
	return sink{t: t}
}
