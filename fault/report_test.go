package fault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	tests := []struct {
		name   string
		rec    Record
		want   string
		writes int
	}{
		{
			name: "full record",
			rec: Record{
				Cause:    "index out of range",
				Location: Location{File: "main.go", Line: 12, Column: 5},
				Address:  0xbeef,
				Processes: []Process{
					{ID: 0, Name: "blink", State: "Running"},
					{ID: 1, Name: "console", State: "Faulted", Restarts: 2},
				},
			},
			want: "\r\n\nKernel panic at main.go:12:5:\r\n" +
				"\t\"index out of range\"\r\n" +
				"\tFault address: 0x0000beef\r\n" +
				"\r\n---| Process Table |---\r\n" +
				"  0 blink Running restarts=0\r\n" +
				"  1 console Faulted restarts=2\r\n" +
				"\r\n*** kernel halted ***\r\n",
			writes: 7,
		},
		{
			name: "empty record",
			rec:  Record{},
			want: "\r\n\nKernel panic:\r\n" +
				"\t\"unknown cause\"\r\n" +
				"\r\n*** kernel halted ***\r\n",
			writes: 3,
		},
		{
			name: "location without column",
			rec: Record{
				Cause:     "stack overflow",
				Location:  Location{File: "kernel/sched.go", Line: 301},
				Processes: []Process{{ID: 12, Name: "app"}},
			},
			want: "\r\n\nKernel panic at kernel/sched.go:301:\r\n" +
				"\t\"stack overflow\"\r\n" +
				"\r\n---| Process Table |---\r\n" +
				" 12 app Unknown restarts=0\r\n" +
				"\r\n*** kernel halted ***\r\n",
			writes: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w recordingWriter
			Report(&w, &tt.rec)
			assert.Equal(t, tt.want, w.String())
			assert.Len(t, w.writes, tt.writes)
		})
	}
}

func TestReport_BoundedWrites(t *testing.T) {
	cause := strings.Repeat("abcdefgh", 50)
	var w recordingWriter

	var r Reporter
	r.Report(&w, &Record{Cause: cause})

	for i, p := range w.writes {
		assert.LessOrEqual(t, len(p), LineSize, "write %d", i)
	}
	assert.Contains(t, w.String(), "\t\""+cause+"\"\r\n")
}

func TestReport_ReusesReporter(t *testing.T) {
	var r Reporter
	var first, second recordingWriter

	r.Report(&first, &Record{Cause: "one"})
	r.Report(&second, &Record{Cause: "two"})

	require.NotEmpty(t, second.writes)
	assert.NotContains(t, second.String(), "one")
	assert.Contains(t, second.String(), "\"two\"")
}

func TestReport_OverSerialTransport(t *testing.T) {
	r := newRig(t)
	rec := &Record{Cause: "boom", Location: Location{File: "a.go", Line: 1}}

	Report(NewWriter(r.serial), rec)

	var want recordingWriter
	Report(&want, rec)
	assert.Equal(t, want.String(), r.host.String())
	assert.Equal(t, len(want.writes), r.serial.Stats().Delivered)
}
