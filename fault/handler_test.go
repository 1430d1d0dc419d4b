package fault

import (
	"bytes"
	"io"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/panicusb/device/class/cdc"
	"github.com/ardnew/panicusb/device/hal"
	"github.com/ardnew/panicusb/device/hal/sim"
	"github.com/ardnew/panicusb/pkg"
)

func newTestHandler(t *testing.T, kind Kind) (*Handler, *sim.Board, *bytes.Buffer) {
	t.Helper()
	host := &bytes.Buffer{}
	board := sim.NewBoard(sim.BoardConfig{Host: host})
	h, err := NewHandler(Config{
		Controller: board.NVIC,
		Processor:  board.CPU,
		Target:     sim.USBDLine,
		Indicators: []hal.Indicator{board.LEDs[0], board.LEDs[1]},
		Kind:       kind,
	})
	require.NoError(t, err)
	return h, board, host
}

func attachACM(h *Handler, board *sim.Board) *cdc.ACM {
	acm := cdc.NewACM(board.USBD, cdc.DefaultDataInEP, cdc.DefaultDataOutEP)
	acm.Configure()
	h.Attach(acm)
	return acm
}

var testRecord = Record{
	Cause:    "assertion failed",
	Location: Location{File: "kernel/process.go", Line: 88},
	Address:  0x20001000,
	Processes: []Process{
		{ID: 0, Name: "blink", State: "Yielded"},
		{ID: 1, Name: "console", State: "Faulted", Restarts: 1},
	},
}

func TestHandler_Fault(t *testing.T) {
	halts := stubHalt(t)
	h, board, host := newTestHandler(t, KindSerial)
	attachACM(h, board)

	// A line left pending by the interrupted kernel.
	require.NoError(t, board.NVIC.Raise(5))

	rec := testRecord
	h.Fault(&rec)

	events := board.NVIC.Events()
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, []sim.Event{
		{Op: sim.OpRaise, Line: 5},
		{Op: sim.OpDisableAll},
		{Op: sim.OpClearAllPending},
		{Op: sim.OpEnable, Line: sim.USBDLine},
	}, events[:4])

	assert.True(t, board.NVIC.Enabled(sim.USBDLine))
	assert.False(t, board.NVIC.Enabled(5), "stale line is discarded, not re-enabled")

	for _, led := range board.LEDs {
		assert.True(t, led.Initialized(), led.Name)
		require.NotEmpty(t, led.History(), led.Name)
		assert.False(t, led.History()[0], "%s starts dark", led.Name)
	}
	assert.False(t, board.LEDs[IndicatorFailure].Lit())

	var want recordingWriter
	Report(&want, &rec)
	assert.Equal(t, want.String(), host.String())
	assert.Equal(t, len(want.writes), h.Serial().Stats().Delivered)

	assert.True(t, h.Entered())
	assert.Equal(t, 1, *halts)
}

func TestHandler_FaultWithoutTransmitter(t *testing.T) {
	halts := stubHalt(t)
	h, board, host := newTestHandler(t, KindSerial)

	h.Fault(&Record{Cause: "early"})

	assert.Zero(t, host.Len())
	assert.Zero(t, board.USBD.Started())
	stats := h.Serial().Stats()
	assert.Equal(t, stats.Writes, stats.Unavailable)
	assert.Positive(t, stats.Unavailable)
	assert.Equal(t, 1, *halts)
}

func TestHandler_FaultNilRecord(t *testing.T) {
	halts := stubHalt(t)
	h, board, host := newTestHandler(t, KindSerial)
	attachACM(h, board)

	h.Fault(nil)

	assert.Contains(t, host.String(), "unknown cause")
	assert.Equal(t, 1, *halts)
}

func TestHandler_Reentry(t *testing.T) {
	halts := stubHalt(t)
	h, board, host := newTestHandler(t, KindSerial)
	attachACM(h, board)

	h.Fault(&Record{Cause: "first"})
	written := host.Len()
	disables := board.NVIC.CountOp(sim.OpDisableAll)

	h.Fault(&Record{Cause: "second"})

	assert.Equal(t, written, host.Len(), "second fault reports nothing")
	assert.Equal(t, disables, board.NVIC.CountOp(sim.OpDisableAll))
	assert.NotContains(t, host.String(), "second")
	assert.Equal(t, 2, *halts)
}

func TestHandler_RingTransport(t *testing.T) {
	halts := stubHalt(t)
	h, board, host := newTestHandler(t, KindRing)
	attachACM(h, board)
	require.Nil(t, h.Serial())
	require.NotNil(t, h.Ring())
	assert.Equal(t, KindRing, h.Transport().Kind())

	rec := testRecord
	h.Fault(&rec)

	var want recordingWriter
	Report(&want, &rec)
	got, err := io.ReadAll(h.Ring())
	require.NoError(t, err)
	assert.Equal(t, want.String(), string(got))
	assert.Zero(t, host.Len(), "ring does not touch the USB controller")
	assert.Equal(t, 1, *halts)
}

// panicTransmitter faults inside the transport driver.
type panicTransmitter struct{}

func (panicTransmitter) SetTransmitClient(hal.TransmitClient) {}
func (panicTransmitter) SetReceiveClient(hal.ReceiveClient)   {}
func (panicTransmitter) HandleInterrupt()                     {}
func (panicTransmitter) TransmitBuffer([]byte, int) error {
	panic("driver state corrupted")
}

func TestHandler_PanicWhileReporting(t *testing.T) {
	halts := stubHalt(t)
	h, _, _ := newTestHandler(t, KindSerial)
	h.Attach(panicTransmitter{})

	assert.NotPanics(t, func() {
		h.Fault(&Record{Cause: "first"})
	})
	assert.True(t, h.Entered())
	assert.Equal(t, 1, *halts)
}

func TestHandler_FewerIndicators(t *testing.T) {
	halts := stubHalt(t)
	board := sim.NewBoard(sim.BoardConfig{})
	h, err := NewHandler(Config{
		Controller: board.NVIC,
		Processor:  board.CPU,
		Target:     sim.USBDLine,
	})
	require.NoError(t, err)
	acm := cdc.NewACM(board.USBD, cdc.DefaultDataInEP, cdc.DefaultDataOutEP)
	h.Attach(acm)

	// Unconfigured port rejects every submission, with no failure LED to light.
	h.Fault(&Record{Cause: "x"})

	assert.Equal(t, h.Serial().Stats().Writes, h.Serial().Stats().Rejected)
	assert.Equal(t, 1, *halts)
	h.blinkOnce()
}

func TestNewHandler_Errors(t *testing.T) {
	board := sim.NewBoard(sim.BoardConfig{})
	five := make([]hal.Indicator, MaxIndicators+1)
	for i := range five {
		five[i] = sim.NewLED("x")
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"no controller", Config{Processor: board.CPU}},
		{"no processor", Config{Controller: board.NVIC}},
		{"too many indicators", Config{Controller: board.NVIC, Processor: board.CPU, Indicators: five}},
		{"bad kind", Config{Controller: board.NVIC, Processor: board.CPU, Kind: Kind(9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandler(tt.cfg)
			assert.Nil(t, h)
			assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
		})
	}
}

func TestHandler_BlinkOnce(t *testing.T) {
	h, board, _ := newTestHandler(t, KindSerial)

	h.blinkOnce()

	assert.Equal(t, len(blinkPattern)*blinkStepNops, board.CPU.Nops())
	assert.Equal(t, blinkPattern[:], board.LEDs[IndicatorKernel].History())
	assert.Empty(t, board.LEDs[IndicatorFailure].History())
}

func TestHandler_HaltHook(t *testing.T) {
	board := sim.NewBoard(sim.BoardConfig{})
	done := make(chan struct{})
	halted := false
	h, err := NewHandler(Config{
		Controller: board.NVIC,
		Processor:  board.CPU,
		Target:     sim.USBDLine,
		Halt: func() {
			halted = true
			runtime.Goexit()
		},
	})
	require.NoError(t, err)

	returned := false
	go func() {
		defer close(done)
		h.Fault(&Record{Cause: "sim"})
		returned = true
	}()
	<-done

	assert.True(t, halted)
	assert.False(t, returned, "Fault does not return past a halt that exits")
	assert.Zero(t, board.CPU.Nops(), "blink loop is replaced")
}
