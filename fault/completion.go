package fault

import "github.com/ardnew/panicusb/device/hal"

// Signal reports whether an awaited event has happened.
type Signal interface {
	Fired() bool
}

// completion is installed as both clients of the transport for the
// duration of a diagnostic write. It only records that the transmission
// ended; whether it succeeded does not matter to a best-effort path.
type completion struct {
	fired bool
}

// TransmittedBuffer marks the transmission finished.
func (c *completion) TransmittedBuffer(_ []byte, _ int, _ error) {
	c.fired = true
}

// ReceivedBuffer ignores receptions; the fault path only transmits.
func (c *completion) ReceivedBuffer(_ []byte, _ int, _ error) {}

// Fired reports whether a transmit completion arrived.
func (c *completion) Fired() bool {
	return c.fired
}

func (c *completion) reset() {
	c.fired = false
}

var (
	_ hal.TransmitClient = (*completion)(nil)
	_ hal.ReceiveClient  = (*completion)(nil)
	_ Signal             = (*completion)(nil)
)
