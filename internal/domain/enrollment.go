package domain

import "time"

type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "PENDING"
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentCancelled EnrollmentStatus = "CANCELLED"
)

func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentPending, EnrollmentActive, EnrollmentCompleted, EnrollmentCancelled:
		return true
	}
	return false
}

// EnrollmentPaymentStatus is independent of EnrollmentStatus.
type EnrollmentPaymentStatus string

const (
	EnrollmentPaymentPending EnrollmentPaymentStatus = "PENDING"
	EnrollmentPaymentPaid    EnrollmentPaymentStatus = "PAID"
	EnrollmentPaymentOverdue EnrollmentPaymentStatus = "OVERDUE"
)

func (s EnrollmentPaymentStatus) Valid() bool {
	switch s {
	case EnrollmentPaymentPending, EnrollmentPaymentPaid, EnrollmentPaymentOverdue:
		return true
	}
	return false
}

type Enrollment struct {
	ID            int64                   `json:"id" gorm:"primaryKey"`
	StudioID      int64                   `json:"studio_id" gorm:"not null;index"`
	StudentID     int64                   `json:"student_id" gorm:"not null;index"`
	ClassID       int64                   `json:"class_id" gorm:"not null;index"`
	Status        EnrollmentStatus        `json:"status" gorm:"type:varchar(16);not null;index"`
	PaymentStatus EnrollmentPaymentStatus `json:"payment_status" gorm:"type:varchar(16);not null;index"`
	EnrolledAt    time.Time               `json:"enrolled_at" gorm:"not null"`
	CancelledAt   *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`

	Class *Class `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

func (Enrollment) TableName() string { return "enrollments" }
