package hook

import "errors"

// ErrInvalidTarget is returned when a hook target is nil or not a usable receiver.
var ErrInvalidTarget = errors.New("invalid hook target")

// ErrNotCallable is returned when the named method does not resolve to a callable.
var ErrNotCallable = errors.New("named attribute is not callable")
