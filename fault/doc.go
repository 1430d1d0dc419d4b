// Package fault implements the fault-time diagnostic output path.
//
// When the system hits an unrecoverable error, [Handler.Fault] emits a
// short text report over an already-running transport and then halts. It
// cannot rely on the scheduler, the asynchronous driver stack or the heap,
// any of which may be what failed.
//
// # Components
//
//   - [Handler]: the terminal entry point. Disables and clears every
//     interrupt, re-enables only the transport's line, darkens the
//     indicators, runs the [Reporter] and halts.
//   - [Reporter]: renders a [Record] in bounded writes from a fixed buffer.
//   - [SerialTransport]: a synchronous Write built from one asynchronous
//     submission and a [Pump] run.
//   - [Pump]: services exactly the transport's interrupt line, clears and
//     re-enables every other line, and sleeps when nothing is pending.
//   - [RingTransport]: an in-memory alternative for targets inspected with
//     a debugger.
//
// # Execution Model
//
// After Fault disables interrupts there is one execution context. The only
// asynchrony left is the transport's completion interrupt, and the pump
// calls the driver's handler directly instead of letting the exception
// vector run it. The diagnostic buffer and completion flag are therefore
// only ever touched by that context, so the package uses no locks or atomic
// operations. Code here must not be used outside a fault.
//
// # Return Values
//
// [SerialTransport.Write] reports len(p) even when bytes were truncated,
// dropped because no transmitter is attached, or rejected at submission.
// Callers use the count only for formatting bookkeeping. The true outcome of
// each write is available from [SerialTransport.Stats] and the trace hook.
//
// # Usage
//
//	h, err := fault.NewHandler(fault.Config{
//	    Controller: nvic,
//	    Processor:  cpu,
//	    Target:     39,
//	    Indicators: []hal.Indicator{led1, led2},
//	})
//	fault.Install(h)
//
//	// after USB bring-up
//	h.Attach(acm)
//
//	defer fault.Recover()
package fault
