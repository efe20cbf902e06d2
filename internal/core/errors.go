package core

import "errors"

// Every failure of a core operation is one of these kinds. Handlers map
// them to HTTP status codes with errors.Is; nothing else leaks out.
var (
	ErrInvalidPath        = errors.New("invalid path")
	ErrNotFound           = errors.New("file or directory not found")
	ErrConflict           = errors.New("destination already exists")
	ErrForbidden          = errors.New("write not permitted on a read-only share")
	ErrBadDigest          = errors.New("content digest mismatch")
	ErrBadRequest         = errors.New("missing required field")
	ErrInvalidBeneficiary = errors.New("beneficiary user not found")
	ErrBadCode            = errors.New("unknown user or wrong activation code")
	ErrUnauthorized       = errors.New("invalid credentials")

	// ErrStorage wraps failures of the byte-storage collaborator. The core
	// never retries; the caller sees an internal error.
	ErrStorage = errors.New("storage operation failed")
)
