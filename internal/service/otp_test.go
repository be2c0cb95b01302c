package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOTPServiceAt(t *testing.T, start time.Time) (*OTPService, *time.Time) {
	t.Helper()
	now := start
	svc := NewOTPService(&memoryOTPRepo{}, 5*time.Minute, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestOTPIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOTPServiceAt(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	code, err := svc.Issue(ctx, "9999999999")
	require.NoError(t, err)
	require.Regexp(t, `^\d{6}$`, code)

	require.NoError(t, svc.Verify(ctx, "9999999999", code))
}

func TestOTPIsSingleUse(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOTPServiceAt(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	code, err := svc.Issue(ctx, "9999999999")
	require.NoError(t, err)

	require.NoError(t, svc.Verify(ctx, "9999999999", code))
	require.ErrorIs(t, svc.Verify(ctx, "9999999999", code), ErrOTPConsumed)
}

func TestOTPExpiresAfterWindow(t *testing.T) {
	ctx := context.Background()
	svc, now := newOTPServiceAt(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	code, err := svc.Issue(ctx, "9999999999")
	require.NoError(t, err)

	// Still live at exactly five minutes: a wrong code is a mismatch, not expiry.
	*now = now.Add(5 * time.Minute)
	require.ErrorIs(t, svc.Verify(ctx, "9999999999", "000000"), ErrOTPMismatch)

	*now = now.Add(time.Second)
	require.ErrorIs(t, svc.Verify(ctx, "9999999999", code), ErrOTPExpired)
}

func TestOTPReissueSupersedesPrevious(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOTPServiceAt(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	first, err := svc.Issue(ctx, "9999999999")
	require.NoError(t, err)
	second, err := svc.Issue(ctx, "9999999999")
	require.NoError(t, err)

	if first != second {
		require.ErrorIs(t, svc.Verify(ctx, "9999999999", first), ErrOTPMismatch)
	}
	require.NoError(t, svc.Verify(ctx, "9999999999", second))
}

func TestOTPUnknownMobile(t *testing.T) {
	svc, _ := newOTPServiceAt(t, time.Now())
	require.ErrorIs(t, svc.Verify(context.Background(), "0000000000", "123456"), ErrOTPNotFound)
}
