package probe

import (
	"errors"
	"fmt"
)

// ErrUnimplemented indicates a configuration that is valid in the type
// model but unsupported on IPv6: PortDirection FixedBoth/None, and TCP
// probing in general.
var ErrUnimplemented = errors.New("probe: unimplemented on IPv6")

// invalidPacketSizeError carries the offending size so callers can report
// "packet_size=2048 exceeds MaxPacketSize" without string-matching.
type invalidPacketSizeError struct {
	size int
}

func (e *invalidPacketSizeError) Error() string {
	return fmt.Sprintf("probe: invalid packet size %d (max %d)", e.size, MaxPacketSize)
}

// ErrInvalidPacketSize is the sentinel errors.Is matches against; use
// NewInvalidPacketSizeError to build the carrying instance.
var ErrInvalidPacketSize = errors.New("probe: invalid packet size")

func (e *invalidPacketSizeError) Unwrap() error { return ErrInvalidPacketSize }

// NewInvalidPacketSizeError builds the error DispatchICMPProbe/DispatchUDPProbe
// return when packet_size exceeds MaxPacketSize.
func NewInvalidPacketSizeError(size int) error {
	return &invalidPacketSizeError{size: size}
}

// IsInvalidPacketSize reports whether err is (or wraps) an invalid-packet-size
// failure.
func IsInvalidPacketSize(err error) bool {
	return errors.Is(err, ErrInvalidPacketSize)
}
