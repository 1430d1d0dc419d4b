package fault

import (
	"fmt"

	"github.com/ardnew/panicusb/device/hal"
	"github.com/ardnew/panicusb/pkg"
)

// MaxIndicators is the number of indicators a Handler manages.
const MaxIndicators = 4

// Indicator roles.
const (
	IndicatorKernel  = 0 // Lit while a transmission is in flight; blinks on halt
	IndicatorFailure = 1 // Lit when a submission is rejected
)

// Panic blink pattern: two short flashes, then a pause.
var blinkPattern = [...]bool{true, false, true, false, false, false, false, false}

// blinkStepNops is the length of one pattern step in no-op instructions.
const blinkStepNops = 250000

// haltFn ends fault handling. Tests replace it so Fault returns.
var haltFn = (*Handler).blinkForever

// Config describes the board resources available to a Handler.
type Config struct {
	Controller hal.InterruptController
	Processor  hal.Processor
	Target     hal.Line        // Interrupt line of the serial transport
	Indicators []hal.Indicator // See IndicatorKernel and IndicatorFailure
	Kind       Kind            // Transport backend

	// Halt, if set, replaces the blink loop entered after reporting. On
	// hardware it must not return; a simulator may end the goroutine with
	// runtime.Goexit.
	Halt func()
}

// Handler is the terminal fault handler. It is constructed once at process
// start and entered at most once, after which it owns the processor.
//
// Fault handling assumes a single execution context: once Fault disables
// interrupts, only the target line can fire, and its handler is called
// from the pump rather than from an exception vector. Nothing in this
// package takes locks.
type Handler struct {
	ic         hal.InterruptController
	cpu        hal.Processor
	target     hal.Line
	indicators [MaxIndicators]hal.Indicator
	count      int

	pump      *Pump
	serial    *SerialTransport
	ring      *RingTransport
	transport Transport
	reporter  Reporter
	halt      func()

	entered bool
}

// NewHandler validates cfg and allocates every resource the fault path
// will need.
func NewHandler(cfg Config) (*Handler, error) {
	switch {
	case cfg.Controller == nil:
		return nil, fmt.Errorf("fault: interrupt controller: %w", pkg.ErrInvalidParameter)
	case cfg.Processor == nil:
		return nil, fmt.Errorf("fault: processor: %w", pkg.ErrInvalidParameter)
	case len(cfg.Indicators) > MaxIndicators:
		return nil, fmt.Errorf("fault: %d indicators, max %d: %w",
			len(cfg.Indicators), MaxIndicators, pkg.ErrInvalidParameter)
	}

	h := &Handler{
		ic:     cfg.Controller,
		cpu:    cfg.Processor,
		target: cfg.Target,
		halt:   cfg.Halt,
	}
	h.count = copy(h.indicators[:], cfg.Indicators)

	h.pump = NewPump(h.ic, h.cpu, h.target)
	h.pump.SetActivityIndicator(h.indicator(IndicatorKernel))

	switch cfg.Kind {
	case KindSerial:
		h.serial = NewSerialTransport(h.pump,
			h.indicator(IndicatorKernel), h.indicator(IndicatorFailure))
		h.transport = h.serial
	case KindRing:
		h.ring = NewRingTransport()
		h.transport = h.ring
	default:
		return nil, fmt.Errorf("fault: transport %v: %w", cfg.Kind, pkg.ErrInvalidParameter)
	}

	pkg.LogDebug(pkg.ComponentFault, "fault handler ready",
		"transport", cfg.Kind,
		"target", h.target,
		"indicators", h.count)
	return h, nil
}

// indicator returns indicator i, or nil if the board has fewer.
func (h *Handler) indicator(i int) hal.Indicator {
	if i >= h.count {
		return nil
	}
	return h.indicators[i]
}

// Attach hands the serial transmitter to the fault path once the device
// has been brought up. It has no effect on a ring transport.
func (h *Handler) Attach(tx hal.Transmitter) {
	if h.serial != nil {
		h.serial.Attach(tx)
	}
}

// Transport returns the selected backend.
func (h *Handler) Transport() Transport { return h.transport }

// Serial returns the serial backend, or nil.
func (h *Handler) Serial() *SerialTransport { return h.serial }

// Ring returns the ring backend, or nil.
func (h *Handler) Ring() *RingTransport { return h.ring }

// Pump returns the interrupt pump.
func (h *Handler) Pump() *Pump { return h.pump }

// Entered reports whether Fault has been called.
func (h *Handler) Entered() bool { return h.entered }

// Fault reports rec over the configured transport and halts. It does not
// return unless Config.Halt does.
//
// Before reporting it disables and clears every interrupt, re-enables the
// transport's line alone, and initializes every indicator dark. A fault
// raised while reporting goes straight to the halt.
func (h *Handler) Fault(rec *Record) {
	if h.entered {
		h.stop()
		return
	}
	h.entered = true

	h.ic.DisableAll()
	h.ic.ClearAllPending()
	h.ic.Enable(h.target)

	for _, ind := range h.indicators[:h.count] {
		ind.Init()
		ind.Off()
	}

	h.report(rec)
	h.stop()
}

func (h *Handler) stop() {
	if h.halt != nil {
		h.halt()
		return
	}
	haltFn(h)
}

// report renders rec, absorbing any panic raised underneath.
func (h *Handler) report(rec *Record) {
	defer func() {
		_ = recover()
	}()
	if rec == nil {
		rec = &Record{}
	}
	h.reporter.Report(NewWriter(h.transport), rec)
}

func (h *Handler) blinkForever() {
	for {
		h.blinkOnce()
	}
}

// blinkOnce plays the panic pattern once on the kernel indicator.
func (h *Handler) blinkOnce() {
	led := h.indicator(IndicatorKernel)
	for _, lit := range blinkPattern {
		if led != nil {
			if lit {
				led.On()
			} else {
				led.Off()
			}
		}
		for i := 0; i < blinkStepNops; i++ {
			h.cpu.Nop()
		}
	}
}
