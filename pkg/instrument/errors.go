package instrument

import "errors"

// ErrInvalidNamespace is returned when a probe namespace is not a valid identifier.
var ErrInvalidNamespace = errors.New("invalid probe namespace")

// ErrMalformedArgumentPath is returned when an argument path cannot be parsed.
var ErrMalformedArgumentPath = errors.New("malformed argument path")
