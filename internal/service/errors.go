package service

import "errors"

// Validation errors (user-correctable).
var (
	ErrMissingField      = errors.New("required field missing")
	ErrInvalidCode       = errors.New("malformed company code")
	ErrNoUpdatableFields = errors.New("no updatable fields supplied")
	ErrMissingQuery      = errors.New("search query is required")
)

// Conflict errors.
var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrCodeCollision  = errors.New("company code already exists")
	// ErrCodeGenerationExhausted is returned when the generator runs out of
	// attempts. The retry cap is a hardening addition; collisions in the
	// five-character suffix space are expected to be rare.
	ErrCodeGenerationExhausted = errors.New("company code generation exhausted")
)

// Authentication errors. Deliberately uninformative on the wire so callers
// cannot enumerate identifiers.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrOTPNotFound        = errors.New("no otp issued for this number")
	ErrOTPMismatch        = errors.New("otp does not match")
	ErrOTPConsumed        = errors.New("otp already used")
	ErrOTPExpired         = errors.New("otp expired")
)

// ErrNotFound covers unknown ids, codes and emails on read paths.
var ErrNotFound = errors.New("company not found")
