package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID       string          `gorm:"primaryKey;size:64;not null"` // product sku
	Name     string          `gorm:"size:128;not null"`
	Price    decimal.Decimal `gorm:"type:numeric;not null"`
	Currency string          `gorm:"size:8;not null"`
}

const (
	SessionPending    = "PENDING"
	SessionProcessing = "PROCESSING"
	SessionCompleted  = "COMPLETED"
	SessionExpired    = "EXPIRED"
)

type CheckoutSession struct {
	ID            string `gorm:"primaryKey;size:64;not null"`
	SecurityToken string `gorm:"size:64;index"`

	// FK → product.id; name and price are denormalized so the session stays
	// immutable even if the catalog changes mid-flow.
	ProductID    string          `gorm:"size:64;index;not null"`
	ProductName  string          `gorm:"size:128;not null"`
	ProductPrice decimal.Decimal `gorm:"type:numeric;not null"`
	Currency     string          `gorm:"size:8;not null"`

	OriginURL string `gorm:"size:512"`

	Status string `gorm:"size:32;index;not null"` // PENDING, PROCESSING, COMPLETED, EXPIRED

	// One-shot notification markers; persisted so "fires at most once" holds
	// across repeated timer ticks and restarts.
	WarningNotified bool `gorm:"not null;default:false"`
	ExpiryNotified  bool `gorm:"not null;default:false"`

	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Live reports whether the session still accepts mutation at instant now.
func (s *CheckoutSession) Live(now time.Time) bool {
	if s.Status == SessionCompleted || s.Status == SessionExpired {
		return false
	}
	return now.Before(s.ExpiresAt)
}

// Remaining is the number of whole seconds until expiry, floored at zero.
func (s *CheckoutSession) Remaining(now time.Time) int64 {
	left := s.ExpiresAt.Sub(now)
	if left < 0 {
		return 0
	}
	return int64(left / time.Second)
}
