package hal

// Line identifies a hardware interrupt source (an NVIC IRQ number on
// Cortex-M parts).
type Line uint8

// InterruptController is the subset of an interrupt controller the fault
// path needs. Implementations operate on hardware registers and must not
// allocate or block.
type InterruptController interface {
	// NextPending returns the lowest-numbered pending line, if any.
	NextPending() (Line, bool)

	// ClearPending clears the pending flag of line.
	ClearPending(line Line)

	// Enable enables line.
	Enable(line Line)

	// Disable disables line.
	Disable(line Line)

	// DisableAll disables every line.
	DisableAll()

	// ClearAllPending clears the pending flag of every line.
	ClearAllPending()
}

// Processor exposes the core instructions used while interrupts are
// serviced by hand.
type Processor interface {
	// WaitForInterrupt suspends the core until an interrupt becomes pending.
	WaitForInterrupt()

	// Nop executes a single no-operation instruction.
	Nop()
}

// Indicator is a binary output such as an LED.
type Indicator interface {
	Init()
	On()
	Off()
}

// Pin is a digital output pin.
type Pin interface {
	ConfigureOutput()
	Set(high bool)
}

// ActiveLow adapts a pin whose indicator lights when driven low.
type ActiveLow struct {
	Pin Pin
}

// Init configures the pin as an output.
func (l ActiveLow) Init() { l.Pin.ConfigureOutput() }

// On drives the pin low.
func (l ActiveLow) On() { l.Pin.Set(false) }

// Off drives the pin high.
func (l ActiveLow) Off() { l.Pin.Set(true) }

// ActiveHigh adapts a pin whose indicator lights when driven high.
type ActiveHigh struct {
	Pin Pin
}

// Init configures the pin as an output.
func (l ActiveHigh) Init() { l.Pin.ConfigureOutput() }

// On drives the pin high.
func (l ActiveHigh) On() { l.Pin.Set(true) }

// Off drives the pin low.
func (l ActiveHigh) Off() { l.Pin.Set(false) }

// InterruptHandler is implemented by drivers that service their own line.
type InterruptHandler interface {
	HandleInterrupt()
}

// TransmitClient receives transmit completions.
//
// The buffer passed to TransmitBuffer is returned through buf; the
// transmitter does not touch it again after the call.
type TransmitClient interface {
	TransmittedBuffer(buf []byte, n int, err error)
}

// ReceiveClient receives receive completions.
type ReceiveClient interface {
	ReceivedBuffer(buf []byte, n int, err error)
}

// Transmitter is an asynchronous, callback-driven byte transport.
type Transmitter interface {
	InterruptHandler

	// SetTransmitClient replaces the transmit client.
	SetTransmitClient(c TransmitClient)

	// SetReceiveClient replaces the receive client.
	SetReceiveClient(c ReceiveClient)

	// TransmitBuffer starts transmitting buf[:n]. On success the transmitter
	// borrows buf until it hands it back through TransmittedBuffer. On error
	// no callback is made and buf is not retained.
	TransmitBuffer(buf []byte, n int) error
}

// Receiver is an asynchronous byte source.
type Receiver interface {
	// ReceiveBuffer arms reception into buf[:n], borrowing buf until it is
	// handed back through ReceivedBuffer.
	ReceiveBuffer(buf []byte, n int) error
}

// EventKind classifies a USB controller event.
type EventKind uint8

// Controller event kinds.
const (
	EventTransferComplete EventKind = iota + 1 // Endpoint transfer finished
	EventSetup                                 // SETUP packet received on EP0
	EventBusReset                              // Host reset the bus
)

// String returns a human-readable event name.
func (k EventKind) String() string {
	switch k {
	case EventTransferComplete:
		return "transfer-complete"
	case EventSetup:
		return "setup"
	case EventBusReset:
		return "bus-reset"
	default:
		return "unknown"
	}
}

// EndpointEvent describes one controller event.
type EndpointEvent struct {
	Kind    EventKind
	Address uint8       // Endpoint address including direction bit
	Length  int         // Bytes moved by the transfer
	Err     error       // Transfer error, if any
	Setup   SetupPacket // Valid when Kind is EventSetup
	Data    []byte      // SETUP data stage, when present
}

// USBController is the interrupt-driven device controller beneath a class
// driver. Transfers complete asynchronously: the controller raises its
// interrupt line and reports the completion from NextEvent.
type USBController interface {
	// StartIn begins an IN (device to host) transfer of data on address.
	// data is borrowed until the matching completion event.
	StartIn(address uint8, data []byte) error

	// StartOut arms an OUT (host to device) transfer into buf on address.
	StartOut(address uint8, buf []byte) error

	// NextEvent pops the next pending event into out.
	NextEvent(out *EndpointEvent) bool
}

// SetupPacket represents a USB SETUP packet in the HAL layer.
// This is a fixed-size, zero-allocation structure for SETUP transactions.
type SetupPacket struct {
	RequestType uint8  // Request characteristics
	Request     uint8  // Specific request
	Value       uint16 // Request-specific value
	Index       uint16 // Request-specific index
	Length      uint16 // Number of bytes to transfer
}

// SetupPacketSize is the size of a USB SETUP packet in bytes.
const SetupPacketSize = 8

// Request type bits.
const (
	RequestTypeMask     = 0x60
	RequestTypeStandard = 0x00
	RequestTypeClass    = 0x20
	RequestTypeVendor   = 0x40
)

// IsClass returns true for class-specific requests.
func (s *SetupPacket) IsClass() bool {
	return s.RequestType&RequestTypeMask == RequestTypeClass
}

// ParseSetupPacket parses raw bytes into a SetupPacket.
// Returns false if data is too short.
func ParseSetupPacket(data []byte, out *SetupPacket) bool {
	if len(data) < SetupPacketSize {
		return false
	}
	out.RequestType = data[0]
	out.Request = data[1]
	out.Value = uint16(data[2]) | uint16(data[3])<<8
	out.Index = uint16(data[4]) | uint16(data[5])<<8
	out.Length = uint16(data[6]) | uint16(data[7])<<8
	return true
}

// MarshalTo writes the setup packet to buf.
// Returns the number of bytes written (8), or 0 if buf is too small.
func (s *SetupPacket) MarshalTo(buf []byte) int {
	if len(buf) < SetupPacketSize {
		return 0
	}
	buf[0] = s.RequestType
	buf[1] = s.Request
	buf[2] = byte(s.Value)
	buf[3] = byte(s.Value >> 8)
	buf[4] = byte(s.Index)
	buf[5] = byte(s.Index >> 8)
	buf[6] = byte(s.Length)
	buf[7] = byte(s.Length >> 8)
	return SetupPacketSize
}
