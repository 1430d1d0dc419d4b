// Package sim implements the hal contracts in memory for testing and
// simulation.
//
// Nothing here runs concurrently. Time advances only when the simulated
// core sleeps: each idle cycle inside [CPU.WaitForInterrupt] ticks every
// attached peripheral, and the core wakes once the [NVIC] reports a pending
// line. This keeps fault-path tests deterministic without goroutines or
// timeouts.
//
// # Peripherals
//
//   - [NVIC]: pending and enable bitmaps over [MaxLines] lines, recording
//     every operation for ordering assertions
//   - [CPU]: wait-for-interrupt and nop, with an idle limit that turns a
//     hung wait into an [ErrStalled] panic
//   - [USBD]: a device controller whose IN transfers complete after a
//     configurable latency, writing their payload to a host [io.Writer]
//   - [LED] and [Pin]: indicator outputs with transition history
//
// # Usage
//
//	var host bytes.Buffer
//	board := sim.NewBoard(sim.BoardConfig{Host: &host})
//	acm := cdc.NewACM(board.USBD, 0x82, 0x02)
//
//	board.USBD.RejectNext(pkg.ErrBusy) // force the next submission to fail
package sim
