package sim

import (
	"io"

	"github.com/ardnew/panicusb/device/hal"
	"github.com/ardnew/panicusb/pkg"
)

// MaxEndpoints is the number of endpoint numbers per direction.
const MaxEndpoints = 16

// DefaultLatency is the number of ticks an IN transfer stays in flight.
const DefaultLatency = 2

type inTransfer struct {
	data      []byte
	countdown int
	active    bool
}

type outTransfer struct {
	buf    []byte
	active bool
}

// USBD simulates an interrupt-driven USB device controller. IN transfers
// complete after a fixed number of ticks; their payload is then copied to
// the host writer and the controller raises its interrupt line.
type USBD struct {
	nvic    *NVIC
	line    hal.Line
	host    io.Writer
	latency int

	in      [MaxEndpoints]inTransfer
	out     [MaxEndpoints]outTransfer
	events  []hal.EndpointEvent
	rejects []error

	started   int
	completed int
	bytes     int
}

// NewUSBD returns a controller that signals completions on line and
// delivers IN payloads to host. A nil host discards them.
func NewUSBD(nvic *NVIC, line hal.Line, host io.Writer) *USBD {
	if host == nil {
		host = io.Discard
	}
	return &USBD{
		nvic:    nvic,
		line:    line,
		host:    host,
		latency: DefaultLatency,
	}
}

// Line returns the interrupt line the controller raises.
func (u *USBD) Line() hal.Line { return u.line }

// SetLatency sets the number of ticks before an IN transfer completes.
func (u *USBD) SetLatency(ticks int) {
	if ticks < 1 {
		ticks = 1
	}
	u.latency = ticks
}

// RejectNext makes the next StartIn call fail with err. Calls queue.
func (u *USBD) RejectNext(err error) {
	u.rejects = append(u.rejects, err)
}

// StartIn begins an IN transfer on address.
func (u *USBD) StartIn(address uint8, data []byte) error {
	if len(u.rejects) > 0 {
		err := u.rejects[0]
		u.rejects = u.rejects[1:]
		pkg.LogDebug(pkg.ComponentSim, "IN transfer rejected", "ep", address, "error", err)
		return err
	}
	num := address & 0x0F
	if u.in[num].active {
		return pkg.ErrBusy
	}
	u.in[num] = inTransfer{data: data, countdown: u.latency, active: true}
	u.started++
	return nil
}

// StartOut arms an OUT transfer into buf on address.
func (u *USBD) StartOut(address uint8, buf []byte) error {
	num := address & 0x0F
	if u.out[num].active {
		return pkg.ErrBusy
	}
	u.out[num] = outTransfer{buf: buf, active: true}
	return nil
}

// NextEvent pops the oldest pending event.
func (u *USBD) NextEvent(out *hal.EndpointEvent) bool {
	if len(u.events) == 0 {
		return false
	}
	*out = u.events[0]
	u.events = u.events[1:]
	return true
}

// Tick advances in-flight IN transfers by one step.
func (u *USBD) Tick() {
	for num := range u.in {
		t := &u.in[num]
		if !t.active {
			continue
		}
		t.countdown--
		if t.countdown > 0 {
			continue
		}
		ev := hal.EndpointEvent{
			Kind:    hal.EventTransferComplete,
			Address: uint8(num) | 0x80,
		}
		n, err := u.host.Write(t.data)
		ev.Length = n
		if err != nil {
			ev.Err = pkg.ErrHardware
		}
		*t = inTransfer{}
		u.completed++
		u.bytes += n
		u.post(ev)
	}
}

// Deliver completes the armed OUT transfer on address with data from the
// host.
func (u *USBD) Deliver(address uint8, data []byte) error {
	num := address & 0x0F
	t := &u.out[num]
	if !t.active {
		return pkg.ErrNotConfigured
	}
	n := copy(t.buf, data)
	*t = outTransfer{}
	u.post(hal.EndpointEvent{
		Kind:    hal.EventTransferComplete,
		Address: num,
		Length:  n,
	})
	return nil
}

// Setup posts a SETUP packet received from the host along with its data
// stage, if any.
func (u *USBD) Setup(setup hal.SetupPacket, data []byte) {
	u.post(hal.EndpointEvent{Kind: hal.EventSetup, Setup: setup, Data: data})
}

// BusReset aborts every transfer and posts a reset event.
func (u *USBD) BusReset() {
	u.in = [MaxEndpoints]inTransfer{}
	u.out = [MaxEndpoints]outTransfer{}
	u.post(hal.EndpointEvent{Kind: hal.EventBusReset})
}

func (u *USBD) post(ev hal.EndpointEvent) {
	u.events = append(u.events, ev)
	if err := u.nvic.Raise(u.line); err != nil {
		pkg.LogWarn(pkg.ComponentSim, "cannot raise controller interrupt",
			"line", u.line, "error", err)
	}
}

// InFlight reports whether an IN transfer is active on address.
func (u *USBD) InFlight(address uint8) bool {
	return u.in[address&0x0F].active
}

// Started returns the number of IN transfers accepted.
func (u *USBD) Started() int { return u.started }

// Completed returns the number of IN transfers completed.
func (u *USBD) Completed() int { return u.completed }

// Bytes returns the number of IN bytes delivered to the host.
func (u *USBD) Bytes() int { return u.bytes }

var (
	_ hal.USBController = (*USBD)(nil)
	_ Ticker            = (*USBD)(nil)
)
