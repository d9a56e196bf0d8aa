package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"studiohub/internal/domain"
)

type BranchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) *BranchRepository {
	return &BranchRepository{db: db}
}

func (r *BranchRepository) Create(ctx context.Context, b *domain.Branch) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BranchRepository) Get(ctx context.Context, studioID, id int64) (*domain.Branch, error) {
	var b domain.Branch
	if err := r.db.WithContext(ctx).Where("id = ? AND studio_id = ?", id, studioID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BranchRepository) List(ctx context.Context, studioID int64) ([]domain.Branch, error) {
	var out []domain.Branch
	err := r.db.WithContext(ctx).Where("studio_id = ?", studioID).Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *BranchRepository) Update(ctx context.Context, studioID, id int64, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.Branch{}).Where("id = ? AND studio_id = ?", id, studioID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the branch together with its rooms.
func (r *BranchRepository) Delete(ctx context.Context, studioID, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("branch_id = ? AND studio_id = ?", id, studioID).Delete(&domain.Room{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND studio_id = ?", id, studioID).Delete(&domain.Branch{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
