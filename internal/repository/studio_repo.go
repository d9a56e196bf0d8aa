package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"studiohub/internal/database"
	"studiohub/internal/domain"
)

type StudioRepository struct {
	db *gorm.DB
}

func NewStudioRepository(db *gorm.DB) *StudioRepository {
	return &StudioRepository{db: db}
}

// CreateForAdmin inserts the studio and makes its creator the studio admin
// in the primary user record. The unique admin_id index backs the
// one-studio-per-admin rule when two requests race past the service-level
// lookup.
func (r *StudioRepository) CreateForAdmin(ctx context.Context, s *domain.Studio) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			if database.IsUniqueViolation(err, "") {
				if strings.Contains(err.Error(), "admin_id") {
					return ErrStudioExists
				}
				return ErrSerialTaken
			}
			return err
		}

		res := tx.Model(&domain.User{}).
			Where("id = ?", s.AdminID).
			Updates(map[string]any{
				"studio_id":  s.ID,
				"role":       domain.RoleAdmin,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *StudioRepository) GetByID(ctx context.Context, id int64) (*domain.Studio, error) {
	var s domain.Studio
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudioRepository) GetByAdminID(ctx context.Context, adminID int64) (*domain.Studio, error) {
	var s domain.Studio
	if err := r.db.WithContext(ctx).Where("admin_id = ?", adminID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudioRepository) GetBySerial(ctx context.Context, serial string) (*domain.Studio, error) {
	var s domain.Studio
	err := r.db.WithContext(ctx).
		Where("serial_number = ?", strings.ToUpper(strings.TrimSpace(serial))).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudioRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.Studio{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
