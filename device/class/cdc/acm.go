package cdc

import (
	"github.com/ardnew/panicusb/device/hal"
	"github.com/ardnew/panicusb/pkg"
)

// txState tracks the transmission currently borrowing a caller's buffer.
type txState struct {
	buf     []byte
	length  int
	offset  int
	active  bool
	lastLen int
}

// rxState tracks the armed reception.
type rxState struct {
	buf    []byte
	length int
	active bool
}

// ACM implements an interrupt-driven CDC-ACM (Abstract Control Model)
// serial port over a hal.USBController.
//
// ACM is not safe for concurrent use. Every method, including
// HandleInterrupt, runs on the kernel's single thread of control; a
// fault handler that takes over that thread may call it directly.
type ACM struct {
	ctrl      hal.USBController
	dataInEP  uint8
	dataOutEP uint8

	lineCoding   LineCoding
	controlState uint16
	configured   bool

	txClient hal.TransmitClient
	rxClient hal.ReceiveClient

	tx txState
	rx rxState

	onLineCodingChange   func(*LineCoding)
	onControlStateChange func(dtr, rts bool)

	// scratch event reused by HandleInterrupt
	event hal.EndpointEvent
}

// NewACM creates a CDC-ACM driver on the given bulk endpoints.
func NewACM(ctrl hal.USBController, dataInEP, dataOutEP uint8) *ACM {
	return &ACM{
		ctrl:       ctrl,
		dataInEP:   dataInEP | 0x80,
		dataOutEP:  dataOutEP & 0x0F,
		lineCoding: DefaultLineCoding,
	}
}

// Configure marks the data interface configured, as the device stack does
// once the host selects a configuration.
func (a *ACM) Configure() {
	a.configured = true
	pkg.LogDebug(pkg.ComponentTransport, "CDC-ACM configured",
		"dataIn", a.dataInEP,
		"dataOut", a.dataOutEP)
}

// Configured reports whether the data interface is configured.
func (a *ACM) Configured() bool {
	return a.configured
}

// SetOnLineCodingChange sets the callback for line coding changes.
func (a *ACM) SetOnLineCodingChange(cb func(*LineCoding)) {
	a.onLineCodingChange = cb
}

// SetOnControlStateChange sets the callback for control line state changes.
func (a *ACM) SetOnControlStateChange(cb func(dtr, rts bool)) {
	a.onControlStateChange = cb
}

// LineCoding returns the current line coding configuration.
func (a *ACM) LineCoding() LineCoding {
	return a.lineCoding
}

// DTR returns the current DTR (Data Terminal Ready) state.
func (a *ACM) DTR() bool {
	return a.controlState&ControlLineDTR != 0
}

// RTS returns the current RTS (Request To Send) state.
func (a *ACM) RTS() bool {
	return a.controlState&ControlLineRTS != 0
}

// SetTransmitClient replaces the transmit client.
func (a *ACM) SetTransmitClient(c hal.TransmitClient) {
	a.txClient = c
}

// SetReceiveClient replaces the receive client.
func (a *ACM) SetReceiveClient(c hal.ReceiveClient) {
	a.rxClient = c
}

// Transmitting reports whether a transmission is in flight.
func (a *ACM) Transmitting() bool {
	return a.tx.active
}

// TransmitBuffer starts sending buf[:n] to the host in MaxPacketSize
// packets. The transfer ends with a zero-length packet when n is a
// multiple of MaxPacketSize.
func (a *ACM) TransmitBuffer(buf []byte, n int) error {
	switch {
	case !a.configured:
		return pkg.ErrNotConfigured
	case n <= 0 || n > len(buf):
		return pkg.ErrInvalidParameter
	case a.tx.active:
		return pkg.ErrBusy
	}

	a.tx = txState{buf: buf, length: n, active: true}
	if err := a.startPacket(); err != nil {
		a.tx = txState{}
		return err
	}
	return nil
}

// startPacket submits the next packet of the active transmission.
func (a *ACM) startPacket() error {
	remaining := a.tx.length - a.tx.offset
	chunk := remaining
	if chunk > MaxPacketSize {
		chunk = MaxPacketSize
	}
	a.tx.lastLen = chunk
	return a.ctrl.StartIn(a.dataInEP, a.tx.buf[a.tx.offset:a.tx.offset+chunk])
}

// ReceiveBuffer arms reception of up to n bytes into buf.
func (a *ACM) ReceiveBuffer(buf []byte, n int) error {
	switch {
	case !a.configured:
		return pkg.ErrNotConfigured
	case n <= 0 || n > len(buf):
		return pkg.ErrInvalidParameter
	case a.rx.active:
		return pkg.ErrBusy
	}

	chunk := n
	if chunk > MaxPacketSize {
		chunk = MaxPacketSize
	}
	if err := a.ctrl.StartOut(a.dataOutEP, buf[:chunk]); err != nil {
		return err
	}
	a.rx = rxState{buf: buf, length: n, active: true}
	return nil
}

// HandleInterrupt drains controller events and advances transfers. It is
// the driver's interrupt service routine.
func (a *ACM) HandleInterrupt() {
	for a.ctrl.NextEvent(&a.event) {
		switch a.event.Kind {
		case hal.EventTransferComplete:
			switch a.event.Address {
			case a.dataInEP:
				a.transmitted(a.event.Length, a.event.Err)
			case a.dataOutEP:
				a.received(a.event.Length, a.event.Err)
			}
		case hal.EventSetup:
			a.handleSetup(&a.event.Setup, a.event.Data)
		case hal.EventBusReset:
			a.reset()
		}
	}
}

// transmitted advances the active transmission after one IN packet.
func (a *ACM) transmitted(n int, err error) {
	if !a.tx.active {
		return
	}
	a.tx.offset += n
	switch {
	case err != nil:
	case a.tx.offset < a.tx.length:
		if err = a.startPacket(); err == nil {
			return
		}
	case a.tx.lastLen == MaxPacketSize:
		// A full final packet needs a ZLP before the host sees the end.
		if err = a.startPacket(); err == nil {
			return
		}
	}
	a.finishTransmit(err)
}

func (a *ACM) finishTransmit(err error) {
	buf, sent := a.tx.buf, a.tx.offset
	a.tx = txState{}
	if a.txClient != nil {
		a.txClient.TransmittedBuffer(buf, sent, err)
	}
}

func (a *ACM) received(n int, err error) {
	if !a.rx.active {
		return
	}
	buf := a.rx.buf
	a.rx = rxState{}
	if a.rxClient != nil {
		a.rxClient.ReceivedBuffer(buf, n, err)
	}
}

// reset aborts transfers in flight. Clients still get their buffers back.
func (a *ACM) reset() {
	a.controlState = 0
	if a.tx.active {
		a.finishTransmit(pkg.ErrReset)
	}
	if a.rx.active {
		buf := a.rx.buf
		a.rx = rxState{}
		if a.rxClient != nil {
			a.rxClient.ReceivedBuffer(buf, 0, pkg.ErrReset)
		}
	}
}

// handleSetup processes class-specific requests. It reports whether the
// request was recognized.
func (a *ACM) handleSetup(setup *hal.SetupPacket, data []byte) bool {
	if !setup.IsClass() {
		return false
	}

	switch setup.Request {
	case RequestSetLineCoding:
		if !ParseLineCoding(data, &a.lineCoding) {
			return true
		}
		pkg.LogDebug(pkg.ComponentTransport, "line coding set",
			"baud", a.lineCoding.DTERate,
			"dataBits", a.lineCoding.DataBits,
			"parity", a.lineCoding.ParityType,
			"stopBits", a.lineCoding.CharFormat)
		if a.onLineCodingChange != nil {
			lc := a.lineCoding
			a.onLineCodingChange(&lc)
		}
		return true

	case RequestSetControlLineState:
		a.controlState = setup.Value
		dtr, rts := a.DTR(), a.RTS()
		pkg.LogDebug(pkg.ComponentTransport, "control line state set",
			"dtr", dtr,
			"rts", rts)
		if a.onControlStateChange != nil {
			a.onControlStateChange(dtr, rts)
		}
		return true

	case RequestGetLineCoding, RequestSendBreak:
		return true

	default:
		return false
	}
}

// Compile-time interface checks
var (
	_ hal.Transmitter = (*ACM)(nil)
	_ hal.Receiver    = (*ACM)(nil)
)
