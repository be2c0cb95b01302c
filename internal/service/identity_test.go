package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"company-service/internal/model"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIdentityService(repo *memoryCompanyRepo, hasher *spyHasher) *IdentityService {
	otps := NewOTPService(&memoryOTPRepo{}, 5*time.Minute, zap.NewNop())
	return NewIdentityService(repo, otps, hasher, NewCodeGenerator(repo), zap.NewNop())
}

func validInput() RegisterInput {
	return RegisterInput{
		CompanyName:   "Acme Logistics",
		Email:         "a@x.com",
		ContactNumber: "9876543210",
		Address:       "1 Dock Road",
		Password:      "pw1",
	}
}

func TestRegisterHashesPasswordAndAssignsCode(t *testing.T) {
	repo := newMemoryCompanyRepo()
	hasher := &spyHasher{}
	svc := newIdentityService(repo, hasher)

	company, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	require.NotZero(t, company.ID)
	require.Regexp(t, CodeFormat, company.CompanyCode)
	require.Empty(t, company.Password)

	stored, err := repo.GetByID(context.Background(), company.ID)
	require.NoError(t, err)
	require.NotEqual(t, "pw1", stored.Password)
	require.True(t, hasher.Verify("pw1", stored.Password))
}

func TestRegisterRequiredFields(t *testing.T) {
	svc := newIdentityService(newMemoryCompanyRepo(), &spyHasher{})

	for _, mutate := range []func(*RegisterInput){
		func(in *RegisterInput) { in.CompanyName = "" },
		func(in *RegisterInput) { in.Email = "" },
		func(in *RegisterInput) { in.ContactNumber = "" },
		func(in *RegisterInput) { in.Address = "" },
		func(in *RegisterInput) { in.Password = "" },
	} {
		input := validInput()
		mutate(&input)
		_, err := svc.Register(context.Background(), input)
		require.ErrorIs(t, err, ErrMissingField)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newIdentityService(newMemoryCompanyRepo(), &spyHasher{})

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validInput())
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	svc := newIdentityService(newMemoryCompanyRepo(), &spyHasher{})

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), validInput())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, ErrDuplicateEmail)
		}
	}
	require.Equal(t, 1, winners)
}

func TestRegisterClientSuppliedCode(t *testing.T) {
	svc := newIdentityService(newMemoryCompanyRepo(), &spyHasher{})

	input := validInput()
	input.CompanyCode = "CMP-2026-AAAAA"
	company, err := svc.Register(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, "CMP-2026-AAAAA", company.CompanyCode)

	// Same code, different email: collision.
	input.Email = "b@x.com"
	_, err = svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrCodeCollision)

	// Malformed code: rejected before any store work.
	input.CompanyCode = "ACME-1"
	_, err = svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestLoginWithPassword(t *testing.T) {
	repo := newMemoryCompanyRepo()
	hasher := &spyHasher{}
	svc := newIdentityService(repo, hasher)

	registered, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	// By email.
	company, err := svc.LoginWithPassword(context.Background(), "a@x.com", "pw1")
	require.NoError(t, err)
	require.Equal(t, registered.ID, company.ID)
	require.Empty(t, company.Password)

	// By company code.
	company, err = svc.LoginWithPassword(context.Background(), registered.CompanyCode, "pw1")
	require.NoError(t, err)
	require.Equal(t, registered.ID, company.ID)

	// Wrong password and unknown identifier are indistinguishable.
	_, err = svc.LoginWithPassword(context.Background(), "a@x.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.LoginWithPassword(context.Background(), "nobody@x.com", "pw1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveSkipsPasswordCheck(t *testing.T) {
	repo := newMemoryCompanyRepo()
	hasher := &spyHasher{}
	svc := newIdentityService(repo, hasher)

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	stored, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	repo.mu.Lock()
	c := repo.companies[stored.ID]
	c.Status = model.StatusInactive
	repo.companies[stored.ID] = c
	repo.mu.Unlock()

	verifyCallsBefore := hasher.verifyCalls
	_, err = svc.LoginWithPassword(context.Background(), "a@x.com", "pw1")
	require.ErrorIs(t, err, ErrAccountInactive)
	require.Equal(t, verifyCallsBefore, hasher.verifyCalls, "hasher must not run for inactive accounts")
}

func TestLoginWithOTPCreatesCompanyOnFirstContact(t *testing.T) {
	repo := newMemoryCompanyRepo()
	otps := NewOTPService(&memoryOTPRepo{}, 5*time.Minute, zap.NewNop())
	svc := NewIdentityService(repo, otps, &spyHasher{}, NewCodeGenerator(repo), zap.NewNop())

	code, err := otps.Issue(context.Background(), "9999999999")
	require.NoError(t, err)

	company, err := svc.LoginWithOTP(context.Background(), "9999999999", code)
	require.NoError(t, err)
	require.NotZero(t, company.ID)
	require.Equal(t, "9999999999", company.ContactNumber)
	require.Equal(t, model.StatusActive, company.Status)
	require.Regexp(t, CodeFormat, company.CompanyCode)

	// A second login resolves the same record instead of creating another.
	code, err = otps.Issue(context.Background(), "9999999999")
	require.NoError(t, err)
	again, err := svc.LoginWithOTP(context.Background(), "9999999999", code)
	require.NoError(t, err)
	require.Equal(t, company.ID, again.ID)
}

func TestUpdateProfileAllowList(t *testing.T) {
	repo := newMemoryCompanyRepo()
	svc := newIdentityService(repo, &spyHasher{})

	registered, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	stored, _ := repo.GetByID(context.Background(), registered.ID)

	err = svc.UpdateProfile(context.Background(), registered.ID, map[string]interface{}{
		"id":           999,
		"company_code": "CMP-2026-ZZZZZ",
		"password":     "sneaky",
		"email":        "evil@x.com",
		"city":         "Pune",
	})
	require.NoError(t, err)

	updated, err := repo.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	require.Equal(t, "Pune", updated.City)
	require.Equal(t, stored.CompanyCode, updated.CompanyCode)
	require.Equal(t, stored.Password, updated.Password)
	require.Equal(t, *stored.Email, *updated.Email)
}

func TestUpdateProfileNoFields(t *testing.T) {
	repo := newMemoryCompanyRepo()
	svc := newIdentityService(repo, &spyHasher{})

	registered, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	err = svc.UpdateProfile(context.Background(), registered.ID, map[string]interface{}{
		"id":       1,
		"password": "x",
	})
	require.ErrorIs(t, err, ErrNoUpdatableFields)

	err = svc.UpdateProfile(context.Background(), 12345, map[string]interface{}{"city": "Pune"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyEmailAndResetPassword(t *testing.T) {
	repo := newMemoryCompanyRepo()
	hasher := &spyHasher{}
	svc := newIdentityService(repo, hasher)

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, svc.VerifyEmail(context.Background(), "a@x.com"))
	require.ErrorIs(t, svc.VerifyEmail(context.Background(), "nobody@x.com"), ErrNotFound)

	require.NoError(t, svc.ResetPassword(context.Background(), "a@x.com", "pw2"))
	_, err = svc.LoginWithPassword(context.Background(), "a@x.com", "pw1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.LoginWithPassword(context.Background(), "a@x.com", "pw2")
	require.NoError(t, err)

	require.ErrorIs(t, svc.ResetPassword(context.Background(), "nobody@x.com", "pw2"), ErrNotFound)
}
