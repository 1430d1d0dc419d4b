package sim

import (
	"io"

	"github.com/ardnew/panicusb/device/hal"
)

// USBDLine is the nRF52840 USBD interrupt number.
const USBDLine hal.Line = 39

// BoardConfig describes a simulated board.
type BoardConfig struct {
	Line      *hal.Line // Controller interrupt line (nil means USBDLine)
	Latency   int       // IN transfer latency in ticks (default DefaultLatency)
	IdleLimit int       // Idle ticks before ErrStalled (default DefaultIdleLimit)
	Host      io.Writer // Receives IN payloads (default io.Discard)
	LEDs      []string  // Indicator names (default "led1", "led2")
}

// Board bundles the simulated peripherals of a development kit.
type Board struct {
	NVIC *NVIC
	CPU  *CPU
	USBD *USBD
	LEDs []*LED
}

// NewBoard wires a controller, core, USB device controller and LEDs.
func NewBoard(cfg BoardConfig) *Board {
	line := USBDLine
	if cfg.Line != nil {
		line = *cfg.Line
	}
	names := cfg.LEDs
	if len(names) == 0 {
		names = []string{"led1", "led2"}
	}

	nvic := NewNVIC()
	cpu := NewCPU(nvic)
	if cfg.IdleLimit > 0 {
		cpu.SetIdleLimit(cfg.IdleLimit)
	}
	usbd := NewUSBD(nvic, line, cfg.Host)
	if cfg.Latency > 0 {
		usbd.SetLatency(cfg.Latency)
	}
	cpu.Attach(usbd)

	b := &Board{NVIC: nvic, CPU: cpu, USBD: usbd}
	for _, name := range names {
		b.LEDs = append(b.LEDs, NewLED(name))
	}
	return b
}

// Indicator returns LED i as a hal.Indicator, or nil if out of range.
func (b *Board) Indicator(i int) hal.Indicator {
	if i < 0 || i >= len(b.LEDs) {
		return nil
	}
	return b.LEDs[i]
}
