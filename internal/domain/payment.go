package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

// PaymentSucceeded is the single terminal-success label. Legacy rows and
// filters using "COMPLETED" are mapped onto it by ParsePaymentStatus.
const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentSucceeded PaymentStatus = "SUCCEEDED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"

	legacyPaymentCompleted = "COMPLETED"
)

func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == legacyPaymentCompleted {
		return PaymentSucceeded, true
	}
	switch PaymentStatus(s) {
	case PaymentPending, PaymentSucceeded, PaymentFailed, PaymentRefunded:
		return PaymentStatus(s), true
	}
	return "", false
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentSucceeded || s == PaymentRefunded
}

type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
)

type Payment struct {
	ID                    int64             `json:"id" gorm:"primaryKey"`
	StudioID              int64             `json:"studio_id" gorm:"not null;index"`
	EnrollmentID          int64             `json:"enrollment_id" gorm:"not null;index"`
	StudentID             int64             `json:"student_id" gorm:"not null;index"`
	Amount                decimal.Decimal   `json:"amount" gorm:"type:numeric(10,2);not null"`
	Currency              string            `json:"currency" gorm:"type:varchar(3);not null"`
	Method                PaymentMethod     `json:"method" gorm:"type:varchar(16);not null;default:'CARD'"`
	Status                PaymentStatus     `json:"status" gorm:"type:varchar(16);not null;index"`
	StripePaymentIntentID *string           `json:"stripe_payment_intent_id,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	Description           string            `json:"description,omitempty" gorm:"type:text"`
	Metadata              datatypes.JSONMap `json:"metadata,omitempty"`
	FailureReason         string            `json:"failure_reason,omitempty" gorm:"type:text"`
	PaidAt                *time.Time        `json:"paid_at,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }
