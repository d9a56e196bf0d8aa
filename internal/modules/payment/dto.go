package payment

import (
	"github.com/shopspring/decimal"

	"studiohub/internal/domain"
)

type Actor struct {
	UserID int64
	Role   domain.UserRole
}

func (a Actor) isStudent() bool { return a.Role == domain.RoleStudent }

type Config struct {
	Currency string
}

type CreateIntentRequest struct {
	EnrollmentID int64 `json:"enrollment_id" binding:"required,gt=0"`
}

type ConfirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

type ManualPaymentRequest struct {
	EnrollmentID int64                `json:"enrollment_id" binding:"required,gt=0"`
	Amount       decimal.Decimal      `json:"amount"`
	Method       domain.PaymentMethod `json:"method" binding:"required"`
	Description  string               `json:"description" binding:"omitempty,max=500"`
}

// PaymentRecord describes a payment row to insert. IntentID is empty for
// payments taken outside the processor.
type PaymentRecord struct {
	StudioID     int64
	EnrollmentID int64
	StudentID    int64
	Amount       decimal.Decimal
	Currency     string
	Method       domain.PaymentMethod
	IntentID     string
	Description  string
	Metadata     map[string]string
}

type IntentResult struct {
	Payment      *domain.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret"`
}

type ListQuery struct {
	Status       string
	StudentID    int64
	EnrollmentID int64
}

type ReconcileReport struct {
	Checked   int `json:"checked"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Errors    int `json:"errors"`
}
