package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"studiohub/internal/domain"
)

type ClassRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

type ClassFilter struct {
	StudioID     int64
	InstructorID int64
	DayOfWeek    *int
	ActiveOnly   bool
}

func (r *ClassRepository) Create(ctx context.Context, c *domain.Class) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Get returns the class only when it belongs to studioID.
func (r *ClassRepository) Get(ctx context.Context, studioID, id int64) (*domain.Class, error) {
	var c domain.Class
	if err := r.db.WithContext(ctx).Where("id = ? AND studio_id = ?", id, studioID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClassRepository) List(ctx context.Context, f ClassFilter) ([]domain.Class, error) {
	q := r.db.WithContext(ctx).Where("studio_id = ?", f.StudioID)
	if f.InstructorID > 0 {
		q = q.Where("instructor_id = ?", f.InstructorID)
	}
	if f.DayOfWeek != nil {
		q = q.Where("day_of_week = ?", *f.DayOfWeek)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var out []domain.Class
	err := q.Order("day_of_week ASC, start_time ASC, id ASC").Find(&out).Error
	return out, err
}

// Update applies field updates. A max_capacity change is only applied when
// it stays at or above the live enrollment counter; otherwise it reports
// ErrCapacityExceeded.
func (r *ClassRepository) Update(ctx context.Context, studioID, id int64, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()

	q := r.db.WithContext(ctx).Model(&domain.Class{}).Where("id = ? AND studio_id = ?", id, studioID)
	if capacity, ok := updates["max_capacity"]; ok {
		q = q.Where("current_enrollment <= ?", capacity)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, studioID, id); err != nil {
			return err
		}
		return ErrCapacityExceeded
	}
	return nil
}

func (r *ClassRepository) Deactivate(ctx context.Context, studioID, id int64) error {
	return r.Update(ctx, studioID, id, map[string]any{"is_active": false})
}

// Delete hard-deletes a class that never had enrollments.
func (r *ClassRepository) Delete(ctx context.Context, studioID, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ? AND studio_id = ?", id, studioID).Delete(&domain.Class{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ClassRepository) HasEnrollments(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).Where("class_id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *ClassRepository) CountActive(ctx context.Context, studioID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Class{}).
		Where("studio_id = ? AND is_active = ?", studioID, true).
		Count(&n).Error
	return n, err
}
