package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"company-service/internal/model"
	"company-service/internal/repository"

	"go.uber.org/zap"
)

// OTPService issues and verifies one-time passwords. Codes are six decimal
// digits, valid for a configurable window (five minutes by default), single
// use, and superseded by reissue: only the most recent record per mobile is
// consulted at verify time. Delivery is the caller's concern; issuance never
// rolls back on delivery failure.
type OTPService struct {
	otps repository.OTPRepository
	ttl  time.Duration
	now  func() time.Time
	log  *zap.Logger
}

// NewOTPService constructs the OTP engine.
func NewOTPService(otps repository.OTPRepository, ttl time.Duration, log *zap.Logger) *OTPService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OTPService{otps: otps, ttl: ttl, now: time.Now, log: log}
}

// Issue generates and persists a new OTP for the mobile number, returning
// the code for delivery. Any previously issued, unverified code for the same
// number is superseded.
func (s *OTPService) Issue(ctx context.Context, mobile string) (string, error) {
	code, err := randomOTP()
	if err != nil {
		return "", err
	}

	issuedAt := s.now()
	otp := &model.OTPRequest{
		Mobile:    mobile,
		Code:      code,
		ExpiresAt: issuedAt.Add(s.ttl),
		CreatedAt: issuedAt,
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	s.log.Info("OTP issued", zap.String("mobile", mobile))
	return code, nil
}

// Verify checks the candidate against the most recent OTP issued for the
// mobile number and consumes it on success.
func (s *OTPService) Verify(ctx context.Context, mobile, candidate string) error {
	otp, err := s.otps.Latest(ctx, mobile)
	if err != nil {
		if err == repository.ErrNotFound {
			return ErrOTPNotFound
		}
		return err
	}

	// A consumed code may never be verified again, even within its window.
	if otp.VerifiedAt != nil {
		return ErrOTPConsumed
	}
	if otp.Code != candidate {
		return ErrOTPMismatch
	}
	if s.now().After(otp.ExpiresAt) {
		return ErrOTPExpired
	}

	if err := s.otps.MarkVerified(ctx, otp.ID); err != nil {
		// Lost the race to a concurrent verify of the same code.
		if err == repository.ErrNotFound {
			return ErrOTPConsumed
		}
		return err
	}

	s.log.Info("OTP verified", zap.String("mobile", mobile))
	return nil
}

// randomOTP returns a uniformly distributed six-digit code.
func randomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
