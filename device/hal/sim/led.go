package sim

import "github.com/ardnew/panicusb/device/hal"

// LED simulates an indicator and records every transition.
type LED struct {
	Name string

	initialized bool
	lit         bool
	history     []bool
}

// NewLED returns an uninitialized, unlit LED.
func NewLED(name string) *LED {
	return &LED{Name: name}
}

// Init marks the LED as configured.
func (l *LED) Init() { l.initialized = true }

// On lights the LED.
func (l *LED) On() { l.set(true) }

// Off extinguishes the LED.
func (l *LED) Off() { l.set(false) }

func (l *LED) set(lit bool) {
	l.lit = lit
	l.history = append(l.history, lit)
}

// Initialized reports whether Init was called.
func (l *LED) Initialized() bool { return l.initialized }

// Lit reports the current state.
func (l *LED) Lit() bool { return l.lit }

// History returns every state set, in order.
func (l *LED) History() []bool { return l.history }

// Pin simulates a digital output pin.
type Pin struct {
	output bool
	high   bool
}

// ConfigureOutput configures the pin as an output.
func (p *Pin) ConfigureOutput() { p.output = true }

// Set drives the pin.
func (p *Pin) Set(high bool) { p.high = high }

// High reports the driven level.
func (p *Pin) High() bool { return p.high }

// Output reports whether the pin was configured as an output.
func (p *Pin) Output() bool { return p.output }

var (
	_ hal.Indicator = (*LED)(nil)
	_ hal.Pin       = (*Pin)(nil)
)
