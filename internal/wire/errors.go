package wire

import "errors"

// ErrPacketTooShort indicates a buffer passed to one of the view
// constructors is shorter than that packet type's minimum size.
var ErrPacketTooShort = errors.New("wire: packet shorter than minimum header size")
