package rawsock

import "errors"

// ErrUnknownInterface indicates LookupInterfaceAddr was given an interface
// name that does not exist, or that has no IPv6 address assigned.
var ErrUnknownInterface = errors.New("rawsock: unknown interface")
