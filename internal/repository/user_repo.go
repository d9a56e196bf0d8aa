package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"studiohub/internal/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type UserFilter struct {
	StudioID int64
	Role     domain.UserRole
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetInStudio returns the user only when they belong to studioID.
func (r *UserRepository) GetInStudio(ctx context.Context, studioID, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("id = ? AND studio_id = ?", id, studioID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]domain.User, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{}).Where("studio_id = ?", f.StudioID)
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}

	var users []domain.User
	if err := q.Order("full_name ASC, id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, fullName, phone string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"full_name":  fullName,
			"phone":      phone,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateRoleAndStudio writes the authoritative role/studio assignment.
func (r *UserRepository) UpdateRoleAndStudio(ctx context.Context, id int64, role domain.UserRole, studioID *int64) error {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"role":       role,
			"studio_id":  studioID,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// JoinStudio assigns a studio to a user that has none yet. It reports false
// when the user already belongs to a studio.
func (r *UserRepository) JoinStudio(ctx context.Context, id, studioID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND studio_id IS NULL", id).
		Updates(map[string]any{
			"studio_id":  studioID,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *UserRepository) CountByRole(ctx context.Context, studioID int64, role domain.UserRole) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("studio_id = ? AND role = ?", studioID, role).
		Count(&n).Error
	return n, err
}
