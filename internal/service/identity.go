package service

import (
	"context"
	"errors"
	"fmt"

	"company-service/internal/model"
	"company-service/internal/password"
	"company-service/internal/repository"

	"go.uber.org/zap"
)

// RegisterInput carries a registration request into the identity core.
// CompanyCode is optional; when absent a code is generated.
type RegisterInput struct {
	CompanyName   string
	CompanyCode   string
	Email         string
	ContactNumber string
	Address       string
	City          string
	State         string
	Country       string
	Role          string
	Description   string
	PhotoURL      string
	Password      string
}

// updatableFields is the allow-list for profile updates. Identity fields
// (id, company_code), credentials and the login email are never updatable
// through this path regardless of what the caller sends.
var updatableFields = map[string]bool{
	"company_name":   true,
	"contact_number": true,
	"address":        true,
	"city":           true,
	"state":          true,
	"country":        true,
	"role":           true,
	"description":    true,
	"photo_url":      true,
}

// IdentityService orchestrates registration and authentication.
type IdentityService struct {
	companies repository.CompanyRepository
	otps      *OTPService
	hasher    password.Hasher
	codes     *CodeGenerator
	log       *zap.Logger
}

// NewIdentityService constructs the identity core with its collaborators.
func NewIdentityService(
	companies repository.CompanyRepository,
	otps *OTPService,
	hasher password.Hasher,
	codes *CodeGenerator,
	log *zap.Logger,
) *IdentityService {
	return &IdentityService{
		companies: companies,
		otps:      otps,
		hasher:    hasher,
		codes:     codes,
		log:       log,
	}
}

// Register validates the input, assigns a unique company code, hashes the
// password and inserts the record. The unique indexes on email and
// company_code are the authoritative duplicate guards; the pre-checks only
// produce friendlier errors on the common path.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*model.Company, error) {
	for field, value := range map[string]string{
		"company_name":   input.CompanyName,
		"email":          input.Email,
		"contact_number": input.ContactNumber,
		"address":        input.Address,
		"password":       input.Password,
	} {
		if value == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}

	if exists, err := s.companies.EmailExists(ctx, input.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicateEmail
	}

	clientCode := input.CompanyCode != ""
	code := input.CompanyCode
	if clientCode {
		if !CodeFormat.MatchString(code) {
			return nil, ErrInvalidCode
		}
		if exists, err := s.companies.CodeExists(ctx, code); err != nil {
			return nil, err
		} else if exists {
			return nil, ErrCodeCollision
		}
	} else {
		var err error
		if code, err = s.codes.Generate(ctx); err != nil {
			return nil, err
		}
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	email := input.Email
	company := &model.Company{
		CompanyName:   input.CompanyName,
		CompanyCode:   code,
		Email:         &email,
		Password:      hash,
		ContactNumber: input.ContactNumber,
		Address:       input.Address,
		City:          input.City,
		State:         input.State,
		Country:       input.Country,
		Role:          input.Role,
		Description:   input.Description,
		PhotoURL:      input.PhotoURL,
		Status:        model.StatusActive,
	}

	if err := s.companies.Create(ctx, company); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		// Lost a race on one of the unique indexes. A duplicate email is
		// terminal; a code collision gets one retry with a fresh code.
		if exists, checkErr := s.companies.EmailExists(ctx, input.Email); checkErr == nil && exists {
			return nil, ErrDuplicateEmail
		}
		if clientCode {
			return nil, ErrCodeCollision
		}
		if company.CompanyCode, err = s.codes.Generate(ctx); err != nil {
			return nil, err
		}
		if err := s.companies.Create(ctx, company); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				if exists, checkErr := s.companies.EmailExists(ctx, input.Email); checkErr == nil && exists {
					return nil, ErrDuplicateEmail
				}
				return nil, ErrCodeCollision
			}
			return nil, err
		}
	}

	s.log.Info("Company registered",
		zap.Uint("id", company.ID),
		zap.String("company_code", company.CompanyCode))
	return company.Sanitized(), nil
}

// LoginWithPassword authenticates by email or company code. Unknown
// identifiers and wrong passwords are indistinguishable to the caller.
func (s *IdentityService) LoginWithPassword(ctx context.Context, identifier, plain string) (*model.Company, error) {
	if identifier == "" || plain == "" {
		return nil, fmt.Errorf("%w: identifier and password", ErrMissingField)
	}

	company, err := s.companies.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Status gates login before any credential work.
	if company.Status == model.StatusInactive {
		return nil, ErrAccountInactive
	}

	if !s.hasher.Verify(plain, company.Password) {
		return nil, ErrInvalidCredentials
	}

	return company.Sanitized(), nil
}

// LoginWithOTP authenticates via a previously issued OTP. On first contact
// from an unknown mobile number a minimal active record is created.
func (s *IdentityService) LoginWithOTP(ctx context.Context, mobile, otp string) (*model.Company, error) {
	if mobile == "" || otp == "" {
		return nil, fmt.Errorf("%w: mobile and otp", ErrMissingField)
	}

	if err := s.otps.Verify(ctx, mobile, otp); err != nil {
		return nil, err
	}

	company, err := s.companies.GetByContactNumber(ctx, mobile)
	if err == nil {
		return company.Sanitized(), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	code, err := s.codes.Generate(ctx)
	if err != nil {
		return nil, err
	}
	company = &model.Company{
		CompanyCode:   code,
		ContactNumber: mobile,
		Status:        model.StatusActive,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, err
	}

	s.log.Info("Company created via OTP login", zap.Uint("id", company.ID))
	return company.Sanitized(), nil
}

// UpdateProfile applies a partial update. Keys outside the allow-list are
// dropped; identity fields and credentials can never change here.
func (s *IdentityService) UpdateProfile(ctx context.Context, id uint, fields map[string]interface{}) error {
	filtered := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		if !updatableFields[key] {
			continue
		}
		if str, ok := value.(string); ok && str == "" {
			continue
		}
		filtered[key] = value
	}
	if len(filtered) == 0 {
		return ErrNoUpdatableFields
	}

	if _, err := s.companies.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.companies.UpdateFields(ctx, id, filtered); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.log.Info("Company profile updated", zap.Uint("id", id))
	return nil
}

// VerifyEmail reports whether the email belongs to a registered company.
func (s *IdentityService) VerifyEmail(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	if _, err := s.companies.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ResetPassword replaces the stored hash for the given email.
func (s *IdentityService) ResetPassword(ctx context.Context, email, plain string) error {
	if email == "" || plain == "" {
		return fmt.Errorf("%w: email and password", ErrMissingField)
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return err
	}

	if err := s.companies.UpdatePassword(ctx, email, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.log.Info("Password reset", zap.String("email", email))
	return nil
}
