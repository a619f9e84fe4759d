package domain

import "errors"

// =============================================================================
// Deployment Errors
// =============================================================================

var (
	// ErrInvalidVersionFormat is returned when an artifact's version
	// string does not follow the "X.Y.Z-Name" convention.
	ErrInvalidVersionFormat = errors.New("invalid artifact version format")

	// ErrVerificationMismatch is returned when freshly generated
	// verification content differs from the previously published record
	// and the override flag is not set. This is the central safety
	// guard: it always fires before any broadcast.
	ErrVerificationMismatch = errors.New("verification content differs from published record")

	// ErrAddressMismatch is returned when the address reported after a
	// broadcast does not equal the precomputed address. It signals an
	// inconsistency between the factory and the salt derivation and is
	// never retried.
	ErrAddressMismatch = errors.New("broadcast address differs from precomputed address")

	// ErrInvalidTransition is returned for a deployment state
	// transition outside the allowed table.
	ErrInvalidTransition = errors.New("invalid deployment state transition")

	// ErrInvalidAddress is returned when parsing a malformed address.
	ErrInvalidAddress = errors.New("invalid address")
)
