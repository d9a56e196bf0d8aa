package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"studiohub/internal/database"
	"studiohub/internal/domain"
)

// IdentityRepository stores identity-provider accounts: credentials and the
// app metadata copied into session tokens.
type IdentityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Register creates the identity account and the primary user record in one
// transaction. The user shares the account id.
func (r *IdentityRepository) Register(ctx context.Context, acct *domain.IdentityAccount, user *domain.User) error {
	acct.Email = normalizeEmail(acct.Email)
	user.Email = acct.Email

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(acct).Error; err != nil {
			if database.IsUniqueViolation(err, "") {
				return ErrEmailTaken
			}
			return err
		}
		user.ID = acct.ID
		if err := tx.Create(user).Error; err != nil {
			if database.IsUniqueViolation(err, "") {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
}

func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*domain.IdentityAccount, error) {
	var acct domain.IdentityAccount
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&acct).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, id int64) (*domain.IdentityAccount, error) {
	var acct domain.IdentityAccount
	if err := r.db.WithContext(ctx).First(&acct, id).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

func (r *IdentityRepository) UpdateAppMetadata(ctx context.Context, id int64, md datatypes.JSONMap) error {
	res := r.db.WithContext(ctx).
		Model(&domain.IdentityAccount{}).
		Where("id = ?", id).
		Updates(map[string]any{"app_metadata": md, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *IdentityRepository) TouchSignIn(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.IdentityAccount{}).
		Where("id = ?", id).
		UpdateColumn("last_sign_in_at", at).Error
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
