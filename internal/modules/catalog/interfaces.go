package catalog

import (
	"context"

	"studiohub/internal/domain"
)

type studioStore interface {
	CreateForAdmin(ctx context.Context, s *domain.Studio) error
	GetByID(ctx context.Context, id int64) (*domain.Studio, error)
	GetByAdminID(ctx context.Context, adminID int64) (*domain.Studio, error)
	GetBySerial(ctx context.Context, serial string) (*domain.Studio, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
}

type branchStore interface {
	Create(ctx context.Context, b *domain.Branch) error
	Get(ctx context.Context, studioID, id int64) (*domain.Branch, error)
	List(ctx context.Context, studioID int64) ([]domain.Branch, error)
	Update(ctx context.Context, studioID, id int64, updates map[string]any) error
	Delete(ctx context.Context, studioID, id int64) error
}

type roomStore interface {
	Create(ctx context.Context, r *domain.Room) error
	Get(ctx context.Context, studioID, id int64) (*domain.Room, error)
	List(ctx context.Context, studioID, branchID int64) ([]domain.Room, error)
	Update(ctx context.Context, studioID, id int64, updates map[string]any) error
	Delete(ctx context.Context, studioID, id int64) error
}

type userStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	JoinStudio(ctx context.Context, id, studioID int64) (bool, error)
}

type metadataSyncer interface {
	SyncAppMetadata(ctx context.Context, userID int64, role domain.UserRole, studioID *int64) error
}

type tokenIssuer interface {
	GenerateToken(userID int64, role string, studioID *int64) (string, error)
}
