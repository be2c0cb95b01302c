package model

import (
	"time"
)

// OTPRequest is a single issued one-time password, keyed by mobile number.
// Only the most recent row per mobile is valid for verification; older rows
// are superseded by reissue and consumed rows keep their VerifiedAt stamp so
// a code can never be verified twice. Stale rows are rejected at verify time
// rather than purged.
type OTPRequest struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Mobile     string     `json:"mobile" gorm:"type:varchar(20);index;not null"`
	Code       string     `json:"-" gorm:"type:varchar(6);not null"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
