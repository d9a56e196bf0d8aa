package enrollment

import (
	"github.com/shopspring/decimal"

	"studiohub/internal/domain"
)

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	UserID int64
	Role   domain.UserRole
}

func (a Actor) isStudent() bool { return a.Role == domain.RoleStudent }

type EnrollRequest struct {
	StudentID     int64                          `json:"student_id" binding:"required,gt=0"`
	ClassID       int64                          `json:"class_id" binding:"required,gt=0"`
	Status        domain.EnrollmentStatus        `json:"status,omitempty"`
	PaymentStatus domain.EnrollmentPaymentStatus `json:"payment_status,omitempty"`
}

// CheckoutRequest enrolls the caller. Admins may check out on behalf of a
// student by setting StudentID.
type CheckoutRequest struct {
	ClassID   int64 `json:"class_id" binding:"required,gt=0"`
	StudentID int64 `json:"student_id,omitempty" binding:"omitempty,gt=0"`
}

type UpdateStatusRequest struct {
	Status domain.EnrollmentStatus `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus domain.EnrollmentPaymentStatus `json:"payment_status" binding:"required"`
}

type ListQuery struct {
	ClassID   int64
	StudentID int64
	Status    domain.EnrollmentStatus
}

type EnrollResult struct {
	Enrollment *domain.Enrollment `json:"enrollment"`
	ClassName  string             `json:"class_name"`
	Price      decimal.Decimal    `json:"price_ils"`
}

type CheckoutResult struct {
	EnrollResult
	RequiresPayment bool            `json:"requires_payment"`
	Payment         *domain.Payment `json:"payment,omitempty"`
	ClientSecret    string          `json:"client_secret,omitempty"`
}
