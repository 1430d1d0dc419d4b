package pkg

import "errors"

// Transport and hardware errors.
var (
	// ErrTransportUnavailable indicates the fault path has no initialized
	// transport, typically because the fault happened before device bring-up.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrSubmitRejected indicates the transport refused a transmission.
	ErrSubmitRejected = errors.New("submit rejected")

	// ErrBusy indicates the transport already has a transmission in flight.
	ErrBusy = errors.New("resource busy")

	// ErrHardware indicates the controller reported a hardware error.
	ErrHardware = errors.New("hardware error")

	// ErrNotConfigured indicates the device is not configured.
	ErrNotConfigured = errors.New("device not configured")

	// ErrInvalidLine indicates an interrupt line outside the controller's range.
	ErrInvalidLine = errors.New("invalid interrupt line")

	// ErrInvalidConfig indicates a configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrReset indicates a bus reset aborted a transfer.
	ErrReset = errors.New("bus reset")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Outcome classifies what happened to one diagnostic write.
type Outcome int

// Write outcomes.
const (
	OutcomeDelivered   Outcome = iota // Transmission completed
	OutcomeUnavailable                // No transport; nothing transmitted
	OutcomeRejected                   // Transport refused the submission
	OutcomeEmpty                      // Zero-length write; nothing submitted
)

// String returns a string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeRejected:
		return "rejected"
	case OutcomeEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Error returns the error corresponding to the outcome, or nil.
func (o Outcome) Error() error {
	switch o {
	case OutcomeDelivered, OutcomeEmpty:
		return nil
	case OutcomeUnavailable:
		return ErrTransportUnavailable
	case OutcomeRejected:
		return ErrSubmitRejected
	default:
		return ErrInvalidParameter
	}
}
