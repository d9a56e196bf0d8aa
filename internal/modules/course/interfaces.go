package course

import (
	"context"

	"studiohub/internal/domain"
	"studiohub/internal/repository"
)

type classStore interface {
	Create(ctx context.Context, c *domain.Class) error
	Get(ctx context.Context, studioID, id int64) (*domain.Class, error)
	List(ctx context.Context, f repository.ClassFilter) ([]domain.Class, error)
	Update(ctx context.Context, studioID, id int64, updates map[string]any) error
	Deactivate(ctx context.Context, studioID, id int64) error
	Delete(ctx context.Context, studioID, id int64) error
	HasEnrollments(ctx context.Context, id int64) (bool, error)
}

type memberReader interface {
	GetInStudio(ctx context.Context, studioID, id int64) (*domain.User, error)
}

type roomReader interface {
	Get(ctx context.Context, studioID, id int64) (*domain.Room, error)
}
