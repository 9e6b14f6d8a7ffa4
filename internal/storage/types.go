package storage

import (
	"errors"

	"github.com/vigil-app/vigil/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indicates that the storage backend is unreachable.
	// Monitoring runs log and skip on this error; only explicit save actions
	// surface it to the caller.
	ErrUnavailable = errors.New("storage unavailable")
)

// ScoredFragment pairs a memory fragment with its similarity to a query
// vector. Similarity is exact cosine similarity in [-1, 1]; a zero query or
// zero fragment vector scores 0.
type ScoredFragment struct {
	Fragment   types.MemoryFragment
	Similarity float64
}
