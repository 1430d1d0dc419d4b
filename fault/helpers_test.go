package fault

import (
	"bytes"
	"testing"

	"github.com/ardnew/panicusb/device/class/cdc"
	"github.com/ardnew/panicusb/device/hal"
	"github.com/ardnew/panicusb/device/hal/sim"
)

// rig is a serial transport on a simulated nRF52840 with a CDC-ACM port.
type rig struct {
	board  *sim.Board
	host   *bytes.Buffer
	acm    *cdc.ACM
	pump   *Pump
	serial *SerialTransport
}

func newRig(t *testing.T) *rig {
	t.Helper()
	host := &bytes.Buffer{}
	board := sim.NewBoard(sim.BoardConfig{Host: host})
	acm := cdc.NewACM(board.USBD, cdc.DefaultDataInEP, cdc.DefaultDataOutEP)
	acm.Configure()

	pump := NewPump(board.NVIC, board.CPU, sim.USBDLine)
	pump.SetActivityIndicator(board.LEDs[IndicatorKernel])
	serial := NewSerialTransport(pump, board.LEDs[IndicatorKernel], board.LEDs[IndicatorFailure])
	serial.Attach(acm)

	return &rig{board: board, host: host, acm: acm, pump: pump, serial: serial}
}

// fakeTransmitter accepts a submission by raising its line at once and
// completes it from HandleInterrupt.
type fakeTransmitter struct {
	nvic *sim.NVIC
	line hal.Line

	reject   error
	silent   bool // accept but never raise the line
	submits  [][]byte
	handled  int
	txClient hal.TransmitClient
	rxClient hal.ReceiveClient
	pending  []byte
}

func (f *fakeTransmitter) SetTransmitClient(c hal.TransmitClient) { f.txClient = c }
func (f *fakeTransmitter) SetReceiveClient(c hal.ReceiveClient)   { f.rxClient = c }

func (f *fakeTransmitter) TransmitBuffer(buf []byte, n int) error {
	f.submits = append(f.submits, append([]byte(nil), buf[:n]...))
	if f.reject != nil {
		return f.reject
	}
	f.pending = buf[:n]
	if f.silent {
		return nil
	}
	return f.nvic.Raise(f.line)
}

func (f *fakeTransmitter) HandleInterrupt() {
	f.handled++
	if f.pending == nil {
		return
	}
	buf := f.pending
	f.pending = nil
	f.txClient.TransmittedBuffer(buf, len(buf), nil)
}

// newFakeRig returns a serial transport over a fakeTransmitter.
func newFakeRig(t *testing.T) (*sim.Board, *fakeTransmitter, *SerialTransport) {
	t.Helper()
	board := sim.NewBoard(sim.BoardConfig{IdleLimit: 100})
	tx := &fakeTransmitter{nvic: board.NVIC, line: sim.USBDLine}
	pump := NewPump(board.NVIC, board.CPU, sim.USBDLine)
	serial := NewSerialTransport(pump, board.LEDs[IndicatorKernel], board.LEDs[IndicatorFailure])
	serial.Attach(tx)
	return board, tx, serial
}

// tickFunc adapts a function to sim.Ticker.
type tickFunc func()

func (f tickFunc) Tick() { f() }

// stubHalt replaces haltFn for the duration of the test and counts calls.
func stubHalt(t *testing.T) *int {
	t.Helper()
	calls := new(int)
	orig := haltFn
	haltFn = func(*Handler) { *calls++ }
	t.Cleanup(func() { haltFn = orig })
	return calls
}

// recordingWriter keeps every write separately.
type recordingWriter struct {
	writes [][]byte
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.writes = append(w.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (w *recordingWriter) String() string {
	return string(bytes.Join(w.writes, nil))
}
