package enrollment

import (
	"context"
	"time"

	"studiohub/internal/domain"
	"studiohub/internal/repository"
)

type enrollmentStore interface {
	CreateWithSeat(ctx context.Context, e *domain.Enrollment) error
	CancelWithRelease(ctx context.Context, e *domain.Enrollment, at time.Time) error
	Get(ctx context.Context, studioID, id int64) (*domain.Enrollment, error)
	ExistsActive(ctx context.Context, studentID, classID int64) (bool, error)
	List(ctx context.Context, f repository.EnrollmentFilter) ([]domain.Enrollment, error)
	TransitionStatus(ctx context.Context, id int64, from, to domain.EnrollmentStatus) (bool, error)
	SetStates(ctx context.Context, id int64, status domain.EnrollmentStatus, payment domain.EnrollmentPaymentStatus) error
	UpdatePaymentStatus(ctx context.Context, studioID, id int64, status domain.EnrollmentPaymentStatus) error
	MarkOverdue(ctx context.Context, before time.Time) (int64, error)
}

type classReader interface {
	Get(ctx context.Context, studioID, id int64) (*domain.Class, error)
}

type memberReader interface {
	GetInStudio(ctx context.Context, studioID, id int64) (*domain.User, error)
}

// cardPayments starts a card payment for a freshly created enrollment and
// returns the pending payment row plus the client secret for the browser.
type cardPayments interface {
	StartCardPayment(ctx context.Context, e *domain.Enrollment, class *domain.Class) (*domain.Payment, string, error)
}
