package dashboard

import (
	"context"

	"github.com/shopspring/decimal"

	"studiohub/internal/domain"
	"studiohub/internal/repository"
)

type userCounter interface {
	CountByRole(ctx context.Context, studioID int64, role domain.UserRole) (int64, error)
}

type classReader interface {
	CountActive(ctx context.Context, studioID int64) (int64, error)
	List(ctx context.Context, f repository.ClassFilter) ([]domain.Class, error)
}

type enrollmentReader interface {
	CountByStatus(ctx context.Context, studioID int64, status domain.EnrollmentStatus) (int64, error)
	List(ctx context.Context, f repository.EnrollmentFilter) ([]domain.Enrollment, error)
}

type paymentReader interface {
	CountByStatus(ctx context.Context, f repository.PaymentFilter) (int64, error)
	SumSucceeded(ctx context.Context, studioID int64) (decimal.Decimal, error)
	List(ctx context.Context, f repository.PaymentFilter) ([]domain.Payment, error)
}
