package model

import (
	"time"
)

// Company status values. Inactive companies are blocked from login.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Company represents a registered business account stored in the database
type Company struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	CompanyName string `json:"company_name" gorm:"type:varchar(100);not null"`
	// CompanyCode is the human-readable unique identifier (CMP-<year>-<suffix>),
	// assigned once at registration and immutable afterwards.
	CompanyCode string `json:"company_code" gorm:"type:varchar(20);uniqueIndex;not null"`
	// Email is nullable: companies created through OTP login have no email
	// until they complete their profile. Unique whenever present.
	Email         *string   `json:"email,omitempty" gorm:"type:varchar(100);uniqueIndex"`
	Password      string    `json:"-" gorm:"type:varchar(255)"`
	ContactNumber string    `json:"contact_number" gorm:"type:varchar(20);index"`
	Address       string    `json:"address" gorm:"type:text"`
	City          string    `json:"city" gorm:"type:varchar(50)"`
	State         string    `json:"state" gorm:"type:varchar(50)"`
	Country       string    `json:"country" gorm:"type:varchar(50)"`
	Role          string    `json:"role" gorm:"type:varchar(50)"`
	Description   string    `json:"description" gorm:"type:text"`
	PhotoURL      string    `json:"photo_url" gorm:"type:varchar(255)"`
	Status        string    `json:"status" gorm:"type:varchar(10);default:'active'"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Sanitized returns a copy safe to hand to the transport layer. The JSON tag
// already hides the password; clearing it as well keeps the hash out of any
// non-JSON path.
func (c Company) Sanitized() *Company {
	c.Password = ""
	return &c
}
