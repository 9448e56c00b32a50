package memory

import (
	"errors"

	"github.com/fyrsmithlabs/contextmem/internal/vectorindex"
)

// Error taxonomy surfaced to callers. Collaborator failures are translated
// into these at the facade boundary; internal structural errors never leak.
var (
	// ErrValidation indicates malformed input (unknown level, negative
	// priority, empty text). Rejected before any collaborator call.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a get/delete referencing an absent id, or an id
	// present in a different level than specified.
	ErrNotFound = errors.New("context item not found")

	// ErrDimensionMismatch is the programmer-error class for a misconfigured
	// embedding dimension. Fatal for the operation, never coerced.
	ErrDimensionMismatch = vectorindex.ErrDimensionMismatch

	// ErrCapacityExceeded is reserved for a level whose eviction cannot free
	// space fast enough under pathological load. Transient; callers retry
	// with backoff.
	ErrCapacityExceeded = errors.New("level capacity temporarily exceeded")
)
