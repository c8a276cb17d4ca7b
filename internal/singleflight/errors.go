package singleflight

import "errors"

// ErrCallPanicked is returned to waiters when the shared call panicked. The
// caller that ran the function gets the panic itself.
var ErrCallPanicked = errors.New("singleflight: call panicked")
