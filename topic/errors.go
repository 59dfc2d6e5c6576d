package topic

import "errors"

// Sentinel errors for registry operations.
var (
	ErrNilObserver          = errors.New("observer is nil")
	ErrUncomparableObserver = errors.New("observer is not comparable")
)
