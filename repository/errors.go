package repository

import "errors"

// ErrVersionConflict is returned when a versioned update matched no row,
// meaning another request modified the record first. Callers retry or
// surface the conflict.
var ErrVersionConflict = errors.New("record was modified concurrently")
