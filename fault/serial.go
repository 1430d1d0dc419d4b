package fault

import (
	"reflect"

	"github.com/ardnew/panicusb/device/hal"
	"github.com/ardnew/panicusb/pkg"
)

// BufferSize is the capacity of the diagnostic buffer. Longer writes are
// truncated.
const BufferSize = 512

// WriteResult describes one diagnostic write.
type WriteResult struct {
	Requested int         // len of the caller's slice
	Copied    int         // bytes staged in the diagnostic buffer
	Outcome   pkg.Outcome // what happened to the staged bytes
	Err       error       // submission error when Outcome is OutcomeRejected
}

// Truncated reports whether the write exceeded BufferSize.
func (r WriteResult) Truncated() bool {
	return r.Copied < r.Requested
}

// Stats accumulates the results of every write.
type Stats struct {
	Writes      int
	Delivered   int
	Rejected    int
	Unavailable int
	Truncated   int

	BytesRequested int
	BytesCopied    int
	BytesDelivered int
}

// SerialTransport turns an asynchronous transmitter into a synchronous
// writer: it submits one transmission and runs the Pump until the
// transmitter reports completion.
//
// The diagnostic buffer is part of the value and is never reallocated.
// While a transmission is in flight the transmitter borrows it; it is not
// touched again until the completion callback hands it back.
type SerialTransport struct {
	tx       hal.Transmitter
	pump     *Pump
	signal   completion
	inflight hal.Indicator
	failure  hal.Indicator
	trace    func(WriteResult)

	buf    [BufferSize]byte
	staged int
	stats  Stats
}

// NewSerialTransport returns a transport with no transmitter attached.
// inflight is lit while a transmission is outstanding and failure when a
// submission is rejected; either may be nil.
func NewSerialTransport(pump *Pump, inflight, failure hal.Indicator) *SerialTransport {
	return &SerialTransport{pump: pump, inflight: inflight, failure: failure}
}

// Attach sets the transmitter once the device has been brought up. Until
// then, writes are accepted and dropped. A nil pointer wrapped in tx
// counts as no transmitter.
func (s *SerialTransport) Attach(tx hal.Transmitter) {
	if isNil(tx) {
		tx = nil
	}
	s.tx = tx
}

func isNil(tx hal.Transmitter) bool {
	if tx == nil {
		return true
	}
	switch v := reflect.ValueOf(tx); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Available reports whether a transmitter is attached.
func (s *SerialTransport) Available() bool {
	return s.tx != nil
}

// SetTrace installs a hook called with the result of every write.
func (s *SerialTransport) SetTrace(fn func(WriteResult)) {
	s.trace = fn
}

// Kind returns KindSerial.
func (s *SerialTransport) Kind() Kind { return KindSerial }

func (s *SerialTransport) transport() {}

// Write stages min(len(p), BufferSize) bytes and transmits them, returning
// only after the transmission completes or the submission is rejected. It
// always reports len(p), whether the bytes were delivered, truncated or
// dropped.
func (s *SerialTransport) Write(p []byte) int {
	n := copy(s.buf[:], p)
	s.staged = n
	res := WriteResult{Requested: len(p), Copied: n}

	switch {
	case n == 0:
		res.Outcome = pkg.OutcomeEmpty
	case s.tx == nil:
		res.Outcome = pkg.OutcomeUnavailable
	default:
		res.Outcome, res.Err = s.transmit(n)
	}

	s.record(res)
	return len(p)
}

// transmit submits buf[:n] and waits for the completion callback.
func (s *SerialTransport) transmit(n int) (pkg.Outcome, error) {
	// Whatever client was registered before is abandoned.
	s.tx.SetTransmitClient(&s.signal)
	s.tx.SetReceiveClient(&s.signal)

	if err := s.tx.TransmitBuffer(s.buf[:n], n); err != nil {
		if s.failure != nil {
			s.failure.On()
		}
		return pkg.OutcomeRejected, err
	}

	if s.inflight != nil {
		s.inflight.On()
	}
	s.pump.Arm()
	s.pump.Run(s.tx, &s.signal)
	s.signal.reset()
	return pkg.OutcomeDelivered, nil
}

func (s *SerialTransport) record(res WriteResult) {
	s.stats.Writes++
	s.stats.BytesRequested += res.Requested
	s.stats.BytesCopied += res.Copied
	if res.Truncated() {
		s.stats.Truncated++
	}
	switch res.Outcome {
	case pkg.OutcomeDelivered:
		s.stats.Delivered++
		s.stats.BytesDelivered += res.Copied
	case pkg.OutcomeRejected:
		s.stats.Rejected++
	case pkg.OutcomeUnavailable:
		s.stats.Unavailable++
	}
	if s.trace != nil {
		s.trace(res)
	}
}

// Staged returns the bytes copied by the most recent write.
func (s *SerialTransport) Staged() []byte {
	return s.buf[:s.staged]
}

// Completed reports the completion flag. It is false outside Write.
func (s *SerialTransport) Completed() bool {
	return s.signal.Fired()
}

// Stats returns the accumulated write statistics.
func (s *SerialTransport) Stats() Stats {
	return s.stats
}

// Pump returns the interrupt pump used while waiting.
func (s *SerialTransport) Pump() *Pump {
	return s.pump
}

var _ Transport = (*SerialTransport)(nil)
