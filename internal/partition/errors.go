package partition

import "errors"

// ErrInvalidInput is returned when the partition request cannot be served,
// currently only when fewer than one bin is requested.
var ErrInvalidInput = errors.New("bin count must be a positive integer")
