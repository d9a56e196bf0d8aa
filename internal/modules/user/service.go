package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiohub/internal/domain"
	"studiohub/internal/repository"
)

type Service struct {
	users       userStore
	studios     studioReader
	enrollments enrollmentLister
	identity    metadataSyncer
	log         *zap.Logger
}

func NewService(users userStore, studios studioReader, enrollments enrollmentLister, identity metadataSyncer, log *zap.Logger) *Service {
	return &Service{users: users, studios: studios, enrollments: enrollments, identity: identity, log: log}
}

func (s *Service) Me(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}

	p := &Profile{User: u}
	if u.StudioID != nil {
		studio, err := s.studios.GetByID(ctx, *u.StudioID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load studio: %w", err)
		}
		p.Studio = studio
	}
	return p, nil
}

func (s *Service) UpdateMe(ctx context.Context, userID int64, req UpdateProfileRequest) (*domain.User, error) {
	if err := s.users.UpdateProfile(ctx, userID, strings.TrimSpace(req.FullName), strings.TrimSpace(req.Phone)); err != nil {
		return nil, notFound(err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, studioID int64, role domain.UserRole) ([]domain.User, error) {
	if role != "" && !role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.users.List(ctx, repository.UserFilter{StudioID: studioID, Role: role})
}

// ChangeRole updates a studio member's role. The primary record is written
// first and the identity metadata sync is best effort.
func (s *Service) ChangeRole(ctx context.Context, studioID, callerID, targetID int64, role domain.UserRole) (*RoleChangeResult, error) {
	role = domain.UserRole(strings.ToUpper(string(role)))
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if callerID == targetID {
		return nil, ErrSelfDemotion
	}

	u, err := s.users.GetInStudio(ctx, studioID, targetID)
	if err != nil {
		return nil, notFound(err)
	}

	if err := s.users.UpdateRoleAndStudio(ctx, u.ID, role, u.StudioID); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	u.Role = role

	res := &RoleChangeResult{User: u, IdentitySynced: true}
	if err := s.identity.SyncAppMetadata(ctx, u.ID, role, u.StudioID); err != nil {
		res.IdentitySynced = false
		s.log.Error("identity metadata sync failed after role change", zap.Int64("user_id", u.ID), zap.Error(err))
	}

	s.log.Info("user role changed", zap.Int64("user_id", u.ID), zap.String("role", string(role)), zap.Int64("by", callerID))
	return res, nil
}

func (s *Service) Student(ctx context.Context, studioID, id int64) (*StudentDetail, error) {
	u, err := s.users.GetInStudio(ctx, studioID, id)
	if err != nil {
		return nil, notFound(err)
	}
	if u.Role != domain.RoleStudent {
		return nil, ErrNotFound
	}

	enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{StudioID: studioID, StudentID: id})
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return &StudentDetail{User: u, Enrollments: enrollments}, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
