package user

import (
	"context"

	"studiohub/internal/domain"
	"studiohub/internal/repository"
)

type userStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetInStudio(ctx context.Context, studioID, id int64) (*domain.User, error)
	List(ctx context.Context, f repository.UserFilter) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id int64, fullName, phone string) error
	UpdateRoleAndStudio(ctx context.Context, id int64, role domain.UserRole, studioID *int64) error
}

type studioReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Studio, error)
}

type enrollmentLister interface {
	List(ctx context.Context, f repository.EnrollmentFilter) ([]domain.Enrollment, error)
}

type metadataSyncer interface {
	SyncAppMetadata(ctx context.Context, userID int64, role domain.UserRole, studioID *int64) error
}
