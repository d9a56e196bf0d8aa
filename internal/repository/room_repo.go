package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"studiohub/internal/domain"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *RoomRepository) Get(ctx context.Context, studioID, id int64) (*domain.Room, error) {
	var room domain.Room
	if err := r.db.WithContext(ctx).Where("id = ? AND studio_id = ?", id, studioID).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// List returns the studio's rooms, optionally only those of one branch.
func (r *RoomRepository) List(ctx context.Context, studioID, branchID int64) ([]domain.Room, error) {
	q := r.db.WithContext(ctx).Where("studio_id = ?", studioID)
	if branchID > 0 {
		q = q.Where("branch_id = ?", branchID)
	}
	var out []domain.Room
	err := q.Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *RoomRepository) Update(ctx context.Context, studioID, id int64, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.Room{}).Where("id = ? AND studio_id = ?", id, studioID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, studioID, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ? AND studio_id = ?", id, studioID).Delete(&domain.Room{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
