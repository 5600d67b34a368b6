package fleet

import "errors"

// ErrNotFound indicates a missing fleet record.
var ErrNotFound = errors.New("fleet: not found")

// ErrConflict indicates a uniqueness violation, e.g. connecting a device to
// a module it is already connected to.
var ErrConflict = errors.New("fleet: conflict")

// ErrInvalid indicates a payload that fails validation.
var ErrInvalid = errors.New("fleet: invalid")
