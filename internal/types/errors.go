package types

import "errors"

var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation indicates invalid or missing caller input.
	ErrValidation = errors.New("invalid input")

	// ErrNoResolvableLocations is returned when no member of a group has a
	// geocodable home location, so no recommendations can be generated.
	ErrNoResolvableLocations = errors.New("no member locations could be resolved")

	// ErrUpstreamParse indicates an external response that did not match the
	// expected shape. Callers recover locally (empty candidate list), it is
	// never surfaced to API clients.
	ErrUpstreamParse = errors.New("upstream response did not parse")

	// ErrStoreConflict wraps a transient storage conflict that survived the
	// bounded retry budget.
	ErrStoreConflict = errors.New("storage conflict after retries")
)
