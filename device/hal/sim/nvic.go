package sim

import (
	"math/bits"

	"github.com/ardnew/panicusb/device/hal"
	"github.com/ardnew/panicusb/pkg"
)

// MaxLines is the number of interrupt lines modeled by NVIC.
const MaxLines = 64

// Op identifies a recorded controller operation.
type Op uint8

// Controller operations.
const (
	OpRaise Op = iota + 1
	OpClearPending
	OpEnable
	OpDisable
	OpDisableAll
	OpClearAllPending
	OpNextPending
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpRaise:
		return "raise"
	case OpClearPending:
		return "clear-pending"
	case OpEnable:
		return "enable"
	case OpDisable:
		return "disable"
	case OpDisableAll:
		return "disable-all"
	case OpClearAllPending:
		return "clear-all-pending"
	case OpNextPending:
		return "next-pending"
	default:
		return "unknown"
	}
}

// Event is one recorded controller operation. Line is zero for operations
// that do not name a line.
type Event struct {
	Op   Op
	Line hal.Line
}

// NVIC simulates a nested vectored interrupt controller with pending and
// enable bitmaps. Every operation is recorded so tests can assert ordering.
type NVIC struct {
	pending uint64
	enabled uint64
	events  []Event
}

// NewNVIC returns a controller with every line enabled and none pending,
// which is how a running kernel leaves it.
func NewNVIC() *NVIC {
	return &NVIC{enabled: ^uint64(0)}
}

func (n *NVIC) record(op Op, line hal.Line) {
	n.events = append(n.events, Event{Op: op, Line: line})
}

// Raise marks line pending, as hardware would.
func (n *NVIC) Raise(line hal.Line) error {
	if line >= MaxLines {
		return pkg.ErrInvalidLine
	}
	n.pending |= 1 << line
	n.record(OpRaise, line)
	return nil
}

// NextPending returns the lowest-numbered pending line. Pending lines are
// reported whether or not they are enabled.
func (n *NVIC) NextPending() (hal.Line, bool) {
	n.record(OpNextPending, 0)
	if n.pending == 0 {
		return 0, false
	}
	return hal.Line(bits.TrailingZeros64(n.pending)), true
}

// ClearPending clears the pending flag of line.
func (n *NVIC) ClearPending(line hal.Line) {
	if line < MaxLines {
		n.pending &^= 1 << line
	}
	n.record(OpClearPending, line)
}

// Enable enables line.
func (n *NVIC) Enable(line hal.Line) {
	if line < MaxLines {
		n.enabled |= 1 << line
	}
	n.record(OpEnable, line)
}

// Disable disables line.
func (n *NVIC) Disable(line hal.Line) {
	if line < MaxLines {
		n.enabled &^= 1 << line
	}
	n.record(OpDisable, line)
}

// DisableAll disables every line.
func (n *NVIC) DisableAll() {
	n.enabled = 0
	n.record(OpDisableAll, 0)
}

// ClearAllPending clears every pending flag.
func (n *NVIC) ClearAllPending() {
	n.pending = 0
	n.record(OpClearAllPending, 0)
}

// Pending reports whether line is pending.
func (n *NVIC) Pending(line hal.Line) bool {
	return line < MaxLines && n.pending&(1<<line) != 0
}

// AnyPending reports whether any line is pending.
func (n *NVIC) AnyPending() bool {
	return n.pending != 0
}

// Enabled reports whether line is enabled.
func (n *NVIC) Enabled(line hal.Line) bool {
	return line < MaxLines && n.enabled&(1<<line) != 0
}

// Events returns the recorded operations in order.
func (n *NVIC) Events() []Event {
	return n.events
}

// Count returns how many times op was recorded for line.
func (n *NVIC) Count(op Op, line hal.Line) int {
	c := 0
	for _, e := range n.events {
		if e.Op == op && e.Line == line {
			c++
		}
	}
	return c
}

// CountOp returns how many times op was recorded for any line.
func (n *NVIC) CountOp(op Op) int {
	c := 0
	for _, e := range n.events {
		if e.Op == op {
			c++
		}
	}
	return c
}

// ResetEvents discards the recorded operations.
func (n *NVIC) ResetEvents() {
	n.events = n.events[:0]
}

var _ hal.InterruptController = (*NVIC)(nil)
