package shared

import "errors"

// ErrMalformedIdentity occurs when the identity header is not a user id.
var ErrMalformedIdentity = errors.New("identity malformed")
