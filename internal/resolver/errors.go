package resolver

import "errors"

// ErrInvalidTimeout is returned by Start when Config.Timeout is non-positive.
var ErrInvalidTimeout = errors.New("resolver: timeout must be positive")

// ErrClosed is returned by LazyReverseLookup/LazyReverseLookupWithASInfo
// once the Resolver has been shut down.
var ErrClosed = errors.New("resolver: closed")
