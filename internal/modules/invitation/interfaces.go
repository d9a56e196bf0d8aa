package invitation

import (
	"context"

	"studiohub/internal/domain"
)

type userStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateRoleAndStudio(ctx context.Context, id int64, role domain.UserRole, studioID *int64) error
}

type studioReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Studio, error)
}

type metadataSyncer interface {
	SyncAppMetadata(ctx context.Context, userID int64, role domain.UserRole, studioID *int64) error
}

type tokenIssuer interface {
	GenerateToken(userID int64, role string, studioID *int64) (string, error)
}
