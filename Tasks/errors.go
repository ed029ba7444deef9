package Tasks

import "errors"

// Error taxonomy surfaced to controllers. NotFound covers records that do not
// exist or belong to another company. Validation covers illegal transitions
// and rejected preconditions; the caller must change state before retrying.
// Conflict covers duplicate bindings and can be treated as a no-op by callers.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)
