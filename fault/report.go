package fault

import (
	"io"
	"strconv"
)

// LineSize bounds a single write issued by a Reporter.
const LineSize = 128

// Location is a source position.
type Location struct {
	File   string
	Line   int
	Column int
}

// Process is one row of a process-table snapshot.
type Process struct {
	ID       int
	Name     string
	State    string
	Restarts int
}

// Record describes the failure that triggered the fault handler.
type Record struct {
	Cause     string
	Location  Location
	Address   uintptr   // faulting address, zero when not applicable
	Processes []Process // snapshot, nil when unavailable
}

// Reporter renders a Record as text. Output is staged in a fixed line
// buffer and issued in writes of at most LineSize bytes; nothing is
// allocated.
type Reporter struct {
	w   io.Writer
	buf [LineSize]byte
	n   int
}

// Report renders rec to w using a temporary Reporter.
func Report(w io.Writer, rec *Record) {
	var r Reporter
	r.Report(w, rec)
}

// Report renders rec to w. Write errors and short writes are ignored.
func (r *Reporter) Report(w io.Writer, rec *Record) {
	r.w, r.n = w, 0

	r.str("\r\n\nKernel panic")
	if loc := rec.Location; loc.File != "" {
		r.str(" at ")
		r.str(loc.File)
		r.str(":")
		r.dec(loc.Line)
		if loc.Column > 0 {
			r.str(":")
			r.dec(loc.Column)
		}
	}
	r.str(":\r\n")
	r.flush()

	cause := rec.Cause
	if cause == "" {
		cause = "unknown cause"
	}
	r.str("\t\"")
	r.str(cause)
	r.str("\"\r\n")
	r.flush()

	if rec.Address != 0 {
		r.str("\tFault address: 0x")
		r.hex(uint64(rec.Address), 8)
		r.str("\r\n")
		r.flush()
	}

	if len(rec.Processes) > 0 {
		r.str("\r\n---| Process Table |---\r\n")
		r.flush()
		for i := range rec.Processes {
			r.process(&rec.Processes[i])
		}
	}

	r.str("\r\n*** kernel halted ***\r\n")
	r.flush()
	r.w = nil
}

func (r *Reporter) process(p *Process) {
	r.pad(p.ID, 3)
	r.str(" ")
	r.str(p.Name)
	r.str(" ")
	if p.State != "" {
		r.str(p.State)
	} else {
		r.str("Unknown")
	}
	r.str(" restarts=")
	r.dec(p.Restarts)
	r.str("\r\n")
	r.flush()
}

// str appends s, flushing whenever the line buffer fills.
func (r *Reporter) str(s string) {
	for len(s) > 0 {
		if r.n == LineSize {
			r.flush()
		}
		c := copy(r.buf[r.n:], s)
		r.n += c
		s = s[c:]
	}
}

func (r *Reporter) bytes(b []byte) {
	for len(b) > 0 {
		if r.n == LineSize {
			r.flush()
		}
		c := copy(r.buf[r.n:], b)
		r.n += c
		b = b[c:]
	}
}

func (r *Reporter) dec(v int) {
	var tmp [20]byte
	r.bytes(strconv.AppendInt(tmp[:0], int64(v), 10))
}

// pad writes v right-aligned in width columns.
func (r *Reporter) pad(v, width int) {
	var tmp [20]byte
	digits := strconv.AppendInt(tmp[:0], int64(v), 10)
	for i := len(digits); i < width; i++ {
		r.str(" ")
	}
	r.bytes(digits)
}

// hex writes v in lower-case hex, zero-padded to width digits.
func (r *Reporter) hex(v uint64, width int) {
	var tmp [16]byte
	digits := strconv.AppendUint(tmp[:0], v, 16)
	for i := len(digits); i < width; i++ {
		r.str("0")
	}
	r.bytes(digits)
}

func (r *Reporter) flush() {
	if r.n == 0 {
		return
	}
	_, _ = r.w.Write(r.buf[:r.n])
	r.n = 0
}
