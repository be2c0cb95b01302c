package repository

import (
	"context"
	"time"

	"company-service/internal/model"
	"company-service/prometheus"

	"gorm.io/gorm"
)

type otpRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewOTPRepository returns an OTPRepository backed by the given database
// handle.
func NewOTPRepository(db *gorm.DB, timeout time.Duration) OTPRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &otpRepository{db: db, timeout: timeout}
}

func (r *otpRepository) Create(ctx context.Context, otp *model.OTPRequest) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	defer prometheus.TrackDBOperation("insert")(time.Now())

	return translate(r.db.WithContext(ctx).Create(otp).Error)
}

func (r *otpRepository) Latest(ctx context.Context, mobile string) (*model.OTPRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	defer prometheus.TrackDBOperation("query")(time.Now())

	var otp model.OTPRequest
	err := r.db.WithContext(ctx).
		Where("mobile = ?", mobile).
		Order("created_at desc").
		First(&otp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

func (r *otpRepository) MarkVerified(ctx context.Context, id uint) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	defer prometheus.TrackDBOperation("update")(time.Now())

	result := r.db.WithContext(ctx).
		Model(&model.OTPRequest{}).
		Where("id = ? AND verified_at IS NULL", id).
		Update("verified_at", gorm.Expr("NOW()"))
	if result.Error != nil {
		return translate(result.Error)
	}
	// A zero row count means another verify got there first.
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
