package sim

import (
	"errors"

	"github.com/ardnew/panicusb/device/hal"
)

// DefaultIdleLimit is the number of idle ticks WaitForInterrupt tolerates
// before declaring the simulation stalled.
const DefaultIdleLimit = 10000

// ErrStalled is the panic value raised by WaitForInterrupt when no
// interrupt arrives within the idle limit. Real hardware would sleep
// forever; a simulation must not.
var ErrStalled = errors.New("sim: processor stalled waiting for interrupt")

// Ticker is simulated hardware advanced by one step per idle cycle.
type Ticker interface {
	Tick()
}

// CPU simulates a core that sleeps in WaitForInterrupt. Each idle cycle
// advances every registered Ticker until the NVIC reports a pending line.
type CPU struct {
	nvic      *NVIC
	tickers   []Ticker
	idleLimit int

	waits int
	ticks int
	nops  int
}

// NewCPU returns a processor that wakes on lines pending in nvic.
func NewCPU(nvic *NVIC) *CPU {
	return &CPU{nvic: nvic, idleLimit: DefaultIdleLimit}
}

// Attach registers hardware advanced while the core sleeps.
func (c *CPU) Attach(t Ticker) {
	c.tickers = append(c.tickers, t)
}

// SetIdleLimit overrides DefaultIdleLimit.
func (c *CPU) SetIdleLimit(n int) {
	c.idleLimit = n
}

// WaitForInterrupt ticks hardware until a line is pending. It panics with
// ErrStalled once the idle limit is exceeded.
func (c *CPU) WaitForInterrupt() {
	c.waits++
	for idle := 0; !c.nvic.AnyPending(); idle++ {
		if idle >= c.idleLimit {
			panic(ErrStalled)
		}
		c.Tick()
	}
}

// Tick advances attached hardware by one step.
func (c *CPU) Tick() {
	c.ticks++
	for _, t := range c.tickers {
		t.Tick()
	}
}

// Nop counts a no-operation instruction.
func (c *CPU) Nop() {
	c.nops++
}

// Waits returns how many times WaitForInterrupt was entered.
func (c *CPU) Waits() int { return c.waits }

// Ticks returns how many hardware steps have elapsed.
func (c *CPU) Ticks() int { return c.ticks }

// Nops returns how many no-operation instructions executed.
func (c *CPU) Nops() int { return c.nops }

var _ hal.Processor = (*CPU)(nil)
