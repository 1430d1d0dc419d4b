package fault

import "github.com/ardnew/panicusb/device/hal"

// PumpState is the state of a Pump.
type PumpState uint8

// Pump states.
const (
	StateIdle               PumpState = iota // No transmission outstanding
	StateAwaitingCompletion                  // Submission accepted, completion pending
)

// String returns the state name.
func (s PumpState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCompletion:
		return "awaiting-completion"
	default:
		return "unknown"
	}
}

// PumpStats counts what a Pump has done.
type PumpStats struct {
	Runs     int // Completed Run calls that were armed
	Serviced int // Target-line interrupts forwarded to the driver
	Ignored  int // Other lines cleared and re-enabled
	Waits    int // Wait-for-interrupt entries
}

// Pump is the fault-time interrupt dispatcher. It services exactly one
// line, the transport's, by calling the driver's handler synchronously, and
// defuses every other line by clearing and re-enabling it.
//
// The ordinary interrupt path depends on the scheduler, which cannot be
// trusted after a fault. Pump has no timeout: an unresponsive transport
// hangs it, which is acceptable on a system that is already terminal.
type Pump struct {
	ic       hal.InterruptController
	cpu      hal.Processor
	target   hal.Line
	activity hal.Indicator
	state    PumpState
	stats    PumpStats
}

// NewPump returns an idle pump servicing target.
func NewPump(ic hal.InterruptController, cpu hal.Processor, target hal.Line) *Pump {
	return &Pump{ic: ic, cpu: cpu, target: target}
}

// SetActivityIndicator sets an indicator turned off each time the target
// line is serviced.
func (p *Pump) SetActivityIndicator(i hal.Indicator) {
	p.activity = i
}

// Target returns the serviced line.
func (p *Pump) Target() hal.Line { return p.target }

// State returns the current state.
func (p *Pump) State() PumpState { return p.state }

// Stats returns the counters accumulated so far.
func (p *Pump) Stats() PumpStats { return p.stats }

// Arm moves the pump to StateAwaitingCompletion. Call it once the
// transport has accepted a submission.
func (p *Pump) Arm() {
	p.state = StateAwaitingCompletion
}

// Run dispatches interrupts until sig fires, then returns the pump to
// StateIdle. An idle pump returns immediately.
func (p *Pump) Run(h hal.InterruptHandler, sig Signal) {
	if p.state != StateAwaitingCompletion {
		return
	}
	for !sig.Fired() {
		p.step(h)
	}
	p.state = StateIdle
	p.stats.Runs++
}

// step handles at most one pending interrupt, or sleeps if none is pending.
func (p *Pump) step(h hal.InterruptHandler) {
	line, ok := p.ic.NextPending()
	switch {
	case !ok:
		p.stats.Waits++
		p.cpu.WaitForInterrupt()

	case line == p.target:
		p.ic.ClearPending(line)
		p.ic.Enable(line)
		if p.activity != nil {
			p.activity.Off()
		}
		p.stats.Serviced++
		h.HandleInterrupt()

	default:
		// Cleared and re-enabled once per observation, never serviced.
		p.ic.ClearPending(line)
		p.ic.Enable(line)
		p.stats.Ignored++
	}
}
