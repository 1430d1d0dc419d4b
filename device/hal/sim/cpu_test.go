package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countdown raises line after a number of ticks.
type countdown struct {
	nvic  *NVIC
	ticks int
	seen  int
}

func (c *countdown) Tick() {
	c.seen++
	if c.seen == c.ticks {
		_ = c.nvic.Raise(7)
	}
}

func TestCPU_WaitForInterrupt(t *testing.T) {
	nvic := NewNVIC()
	cpu := NewCPU(nvic)
	hw := &countdown{nvic: nvic, ticks: 5}
	cpu.Attach(hw)

	cpu.WaitForInterrupt()

	assert.True(t, nvic.Pending(7))
	assert.Equal(t, 5, cpu.Ticks())
	assert.Equal(t, 1, cpu.Waits())

	// Already pending: no hardware steps.
	cpu.WaitForInterrupt()
	assert.Equal(t, 5, cpu.Ticks())
	assert.Equal(t, 2, cpu.Waits())
}

func TestCPU_Stalls(t *testing.T) {
	cpu := NewCPU(NewNVIC())
	cpu.SetIdleLimit(10)

	require.PanicsWithValue(t, ErrStalled, cpu.WaitForInterrupt)
	assert.Equal(t, 10, cpu.Ticks())
}

func TestCPU_Nop(t *testing.T) {
	cpu := NewCPU(NewNVIC())
	for i := 0; i < 3; i++ {
		cpu.Nop()
	}
	assert.Equal(t, 3, cpu.Nops())
	assert.Zero(t, cpu.Ticks())
}
