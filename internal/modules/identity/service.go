// Package identity writes the app metadata (role and studio) kept on the
// identity-provider account. The primary user record stays authoritative;
// this copy only feeds session tokens.
package identity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"studiohub/internal/domain"
)

var ErrAccountNotFound = errors.New("identity account not found")

type accountStore interface {
	GetByID(ctx context.Context, id int64) (*domain.IdentityAccount, error)
	UpdateAppMetadata(ctx context.Context, id int64, md datatypes.JSONMap) error
}

type Service struct {
	accounts accountStore
	log      *zap.Logger
}

func NewService(accounts accountStore, log *zap.Logger) *Service {
	return &Service{accounts: accounts, log: log}
}

func (s *Service) SyncAppMetadata(ctx context.Context, userID int64, role domain.UserRole, studioID *int64) error {
	md := domain.AppMetadata{Role: role, StudioID: studioID}
	if err := s.accounts.UpdateAppMetadata(ctx, userID, md.ToJSONMap()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("update identity metadata: %w", err)
	}
	s.log.Debug("identity metadata synced", zap.Int64("user_id", userID), zap.String("role", string(role)))
	return nil
}

func (s *Service) Metadata(ctx context.Context, userID int64) (domain.AppMetadata, error) {
	acct, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AppMetadata{}, ErrAccountNotFound
		}
		return domain.AppMetadata{}, err
	}
	return domain.AppMetadataFromJSONMap(acct.AppMetadata), nil
}

// Reconcile copies the primary record's role and studio onto the identity
// account when they differ. It reports whether a write was needed.
func (s *Service) Reconcile(ctx context.Context, user *domain.User) (bool, error) {
	md, err := s.Metadata(ctx, user.ID)
	if err != nil {
		return false, err
	}
	if md.Matches(user) {
		return false, nil
	}
	s.log.Info("repairing drifted identity metadata",
		zap.Int64("user_id", user.ID),
		zap.String("identity_role", string(md.Role)),
		zap.String("user_role", string(user.Role)),
	)
	return true, s.SyncAppMetadata(ctx, user.ID, user.Role, user.StudioID)
}
