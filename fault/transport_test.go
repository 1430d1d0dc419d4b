package fault

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/panicusb/pkg"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindSerial, false},
		{"serial", KindSerial, false},
		{"ring", KindRing, false},
		{"rtt", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, pkg.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				assert.Equal(t, tt.in, got.String())
			}
		})
	}
	assert.Equal(t, "unknown", Kind(7).String())
}

func TestNewWriter(t *testing.T) {
	ring := NewRingTransport()
	w := NewWriter(ring)

	n, err := fmt.Fprintf(w, "pid=%d", 3)

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, ring.Len())
}

func TestNewWriter_ReportsFullLengthOnLoss(t *testing.T) {
	_, tx, serial := newFakeRig(t)
	tx.reject = pkg.ErrBusy

	n, err := NewWriter(serial).Write([]byte("lost"))

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 1, serial.Stats().Rejected)
}
