package sentinel

import "errors"

// Sentinel errors shared by the registry and provenance services. Services
// wrap these with context via fmt.Errorf("%w: ..."); the HTTP layer maps
// them to status codes with errors.Is.
//
// - ErrUnauthorized: caller role/ownership/authorization precondition failed
// - ErrNotFound: product or claim key does not exist
// - ErrAlreadyExists: duplicate product registration
// - ErrInvalidArgument: malformed input (empty id, non-positive duration)
// - ErrInvalidState: operation not valid in the current lifecycle state
// - ErrConflict: optimistic-lock retries exhausted; caller may retry whole op
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("concurrency conflict")
)
