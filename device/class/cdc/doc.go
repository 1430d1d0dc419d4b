// Package cdc implements an interrupt-driven USB Communications Device
// Class (CDC) serial port.
//
// [ACM] sits on a [hal.USBController] and exposes the asynchronous
// [hal.Transmitter] contract: TransmitBuffer starts a transfer and returns
// at once; completion is reported later, from the driver's interrupt
// service routine, through a [hal.TransmitClient].
//
// # Packetization
//
// Transmissions are split into [MaxPacketSize] bulk IN packets. Each packet
// completion raises the controller interrupt, and the final one invokes the
// transmit client. A transfer whose last packet is full is terminated with
// a zero-length packet.
//
// # Control Requests
//
// SET_LINE_CODING and SET_CONTROL_LINE_STATE are decoded from SETUP events
// and surfaced through optional callbacks. A bus reset aborts any transfer
// in flight and hands the borrowed buffers back with [pkg.ErrReset].
//
// # Usage
//
//	acm := cdc.NewACM(usbd, cdc.DefaultDataInEP, cdc.DefaultDataOutEP)
//	acm.Configure()
//	acm.SetTransmitClient(client)
//	if err := acm.TransmitBuffer(buf, n); err != nil {
//	    // busy, unconfigured or rejected by the controller
//	}
//
//	// from the USBD interrupt vector
//	acm.HandleInterrupt()
package cdc
