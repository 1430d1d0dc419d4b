// Package hal defines the hardware contracts used by the fault path and
// the transport drivers beneath it.
//
// The interfaces are deliberately small. A board provides:
//
//   - An [InterruptController] and a [Processor] for manual interrupt
//     servicing once the scheduler can no longer be trusted
//   - [Indicator] outputs (LEDs) for coarse status
//   - A [USBController] for the CDC-ACM class driver, which in turn is a
//     [Transmitter]
//
// # Buffer Borrowing
//
// Asynchronous operations borrow the caller's buffer. A [Transmitter]
// holds the slice passed to TransmitBuffer until it returns it through
// [TransmitClient.TransmittedBuffer]. Callers must not touch the buffer in
// between.
//
// # Zero-Allocation Design
//
// Implementations must not allocate in interrupt handling or transfer
// paths. They may run after a fault, when the allocator state is unknown.
//
// A deterministic simulation of these contracts for tests and tools lives in
// [github.com/ardnew/panicusb/device/hal/sim].
package hal
