package repository

import (
	"context"
	"errors"

	"company-service/internal/model"
)

// Store-level errors. The gorm implementations translate driver errors into
// these so the services never see gorm types.
var (
	// ErrNotFound means no row matched.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate means an insert or update lost to a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrTimeout means the store call exceeded its deadline. Kept distinct
	// from ErrNotFound so callers can surface it as a transient failure.
	ErrTimeout = errors.New("store operation timed out")
)

// SearchFilter describes a paginated directory search. Query matches
// case-insensitive substrings over name, code, email and role; City narrows
// by city. Empty fields are wildcards.
type SearchFilter struct {
	Query  string
	City   string
	Limit  int
	Offset int
}

// CompanyRepository exposes persistence for company records.
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	GetByID(ctx context.Context, id uint) (*model.Company, error)
	GetByCode(ctx context.Context, code string) (*model.Company, error)
	GetByEmail(ctx context.Context, email string) (*model.Company, error)
	// GetByIdentifier matches either the email or the company code.
	GetByIdentifier(ctx context.Context, identifier string) (*model.Company, error)
	GetByContactNumber(ctx context.Context, mobile string) (*model.Company, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]model.Company, error)
	Search(ctx context.Context, filter SearchFilter) ([]model.Company, int64, error)
	// UpdateFields applies the given column values in a single UPDATE.
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	UpdatePassword(ctx context.Context, email, hash string) error
	Count(ctx context.Context) (int64, error)
}

// OTPRepository exposes persistence for one-time passwords.
type OTPRepository interface {
	Create(ctx context.Context, otp *model.OTPRequest) error
	// Latest returns the most recently issued OTP for the mobile number,
	// which is the only one eligible for verification.
	Latest(ctx context.Context, mobile string) (*model.OTPRequest, error)
	MarkVerified(ctx context.Context, id uint) error
}
