package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiohub/internal/domain"
	"studiohub/internal/repository"
)

const (
	serialLength   = 8
	serialAttempts = 5
)

type Service struct {
	studios  studioStore
	branches branchStore
	rooms    roomStore
	users    userStore
	identity metadataSyncer
	tokens   tokenIssuer
	log      *zap.Logger
}

func NewService(
	studios studioStore,
	branches branchStore,
	rooms roomStore,
	users userStore,
	identity metadataSyncer,
	tokens tokenIssuer,
	log *zap.Logger,
) *Service {
	return &Service{
		studios:  studios,
		branches: branches,
		rooms:    rooms,
		users:    users,
		identity: identity,
		tokens:   tokens,
		log:      log,
	}
}

/* ---------- STUDIO ---------- */

// CreateStudio creates a studio owned by the caller, who becomes its admin.
// Callers that already belong to a studio are rejected.
func (s *Service) CreateStudio(ctx context.Context, userID int64, req CreateStudioRequest) (*MembershipResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, ErrNotFound)
	}
	if user.StudioID != nil {
		return nil, ErrAlreadyHasStudio
	}
	if user.Role == domain.RoleInstructor {
		return nil, ErrForbidden
	}
	if _, err := s.studios.GetByAdminID(ctx, userID); err == nil {
		return nil, ErrAlreadyHasStudio
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup existing studio: %w", err)
	}

	studio := &domain.Studio{
		Name:    strings.TrimSpace(req.Name),
		AdminID: userID,
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
		Website: strings.TrimSpace(req.Website),
	}

	for attempt := 1; ; attempt++ {
		studio.ID = 0
		studio.SerialNumber = newSerial()
		err = s.studios.CreateForAdmin(ctx, studio)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrStudioExists) {
			return nil, ErrAlreadyHasStudio
		}
		if !errors.Is(err, repository.ErrSerialTaken) || attempt == serialAttempts {
			return nil, fmt.Errorf("create studio: %w", err)
		}
	}

	s.log.Info("studio created", zap.Int64("studio_id", studio.ID), zap.Int64("admin_id", userID), zap.String("serial", studio.SerialNumber))
	return s.membership(ctx, userID, domain.RoleAdmin, studio), nil
}

func (s *Service) GetStudio(ctx context.Context, studioID int64) (*domain.Studio, error) {
	studio, err := s.studios.GetByID(ctx, studioID)
	if err != nil {
		return nil, mapNotFound(err, ErrStudioNotFound)
	}
	return studio, nil
}

func (s *Service) UpdateStudio(ctx context.Context, studioID int64, req UpdateStudioRequest) (*domain.Studio, error) {
	updates := map[string]any{}
	setString(updates, "name", req.Name)
	setString(updates, "email", req.Email)
	setString(updates, "phone", req.Phone)
	setString(updates, "address", req.Address)
	setString(updates, "website", req.Website)

	if len(updates) > 0 {
		if err := s.studios.Update(ctx, studioID, updates); err != nil {
			return nil, mapNotFound(err, ErrStudioNotFound)
		}
	}
	return s.GetStudio(ctx, studioID)
}

// LookupBySerial exposes only the name so a serial number cannot be used to
// enumerate studio details.
func (s *Service) LookupBySerial(ctx context.Context, serial string) (*StudioLookup, error) {
	studio, err := s.studios.GetBySerial(ctx, serial)
	if err != nil {
		return nil, mapNotFound(err, ErrStudioNotFound)
	}
	return &StudioLookup{ID: studio.ID, Name: studio.Name}, nil
}

// JoinStudio assigns a studio-less user to the studio with the serial.
func (s *Service) JoinStudio(ctx context.Context, userID int64, serial string) (*MembershipResult, error) {
	studio, err := s.studios.GetBySerial(ctx, serial)
	if err != nil {
		return nil, mapNotFound(err, ErrStudioNotFound)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, ErrNotFound)
	}

	joined, err := s.users.JoinStudio(ctx, userID, studio.ID)
	if err != nil {
		return nil, fmt.Errorf("join studio: %w", err)
	}
	if !joined {
		return nil, ErrAlreadyHasStudio
	}

	s.log.Info("user joined studio", zap.Int64("user_id", userID), zap.Int64("studio_id", studio.ID))
	return s.membership(ctx, userID, user.Role, studio), nil
}

// membership syncs the identity metadata after the primary record changed
// and issues a token with the new claims.
func (s *Service) membership(ctx context.Context, userID int64, role domain.UserRole, studio *domain.Studio) *MembershipResult {
	res := &MembershipResult{Studio: studio, IdentitySynced: true}
	if err := s.identity.SyncAppMetadata(ctx, userID, role, &studio.ID); err != nil {
		res.IdentitySynced = false
		s.log.Error("identity metadata sync failed after studio membership change", zap.Int64("user_id", userID), zap.Error(err))
	}

	token, err := s.tokens.GenerateToken(userID, string(role), &studio.ID)
	if err != nil {
		s.log.Error("issue access token", zap.Int64("user_id", userID), zap.Error(err))
		return res
	}
	res.AccessToken = token
	return res
}

/* ---------- BRANCHES ---------- */

func (s *Service) ListBranches(ctx context.Context, studioID int64) ([]domain.Branch, error) {
	return s.branches.List(ctx, studioID)
}

func (s *Service) CreateBranch(ctx context.Context, studioID int64, req BranchRequest) (*domain.Branch, error) {
	b := &domain.Branch{
		StudioID: studioID,
		Name:     strings.TrimSpace(req.Name),
		Address:  strings.TrimSpace(req.Address),
		Phone:    strings.TrimSpace(req.Phone),
	}
	if err := s.branches.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}
	return b, nil
}

func (s *Service) UpdateBranch(ctx context.Context, studioID, id int64, req BranchRequest) (*domain.Branch, error) {
	err := s.branches.Update(ctx, studioID, id, map[string]any{
		"name":    strings.TrimSpace(req.Name),
		"address": strings.TrimSpace(req.Address),
		"phone":   strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return nil, mapNotFound(err, ErrNotFound)
	}
	b, err := s.branches.Get(ctx, studioID, id)
	if err != nil {
		return nil, mapNotFound(err, ErrNotFound)
	}
	return b, nil
}

func (s *Service) DeleteBranch(ctx context.Context, studioID, id int64) error {
	return mapNotFound(s.branches.Delete(ctx, studioID, id), ErrNotFound)
}

/* ---------- ROOMS ---------- */

func (s *Service) ListRooms(ctx context.Context, studioID, branchID int64) ([]domain.Room, error) {
	return s.rooms.List(ctx, studioID, branchID)
}

func (s *Service) CreateRoom(ctx context.Context, studioID int64, req CreateRoomRequest) (*domain.Room, error) {
	if _, err := s.branches.Get(ctx, studioID, req.BranchID); err != nil {
		return nil, mapNotFound(err, ErrBranchNotFound)
	}

	room := &domain.Room{
		BranchID: req.BranchID,
		StudioID: studioID,
		Name:     strings.TrimSpace(req.Name),
		Capacity: req.Capacity,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

func (s *Service) UpdateRoom(ctx context.Context, studioID, id int64, req UpdateRoomRequest) (*domain.Room, error) {
	updates := map[string]any{}
	if req.BranchID != nil {
		if _, err := s.branches.Get(ctx, studioID, *req.BranchID); err != nil {
			return nil, mapNotFound(err, ErrBranchNotFound)
		}
		updates["branch_id"] = *req.BranchID
	}
	setString(updates, "name", req.Name)
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}

	if len(updates) > 0 {
		if err := s.rooms.Update(ctx, studioID, id, updates); err != nil {
			return nil, mapNotFound(err, ErrNotFound)
		}
	}
	room, err := s.rooms.Get(ctx, studioID, id)
	if err != nil {
		return nil, mapNotFound(err, ErrNotFound)
	}
	return room, nil
}

func (s *Service) DeleteRoom(ctx context.Context, studioID, id int64) error {
	return mapNotFound(s.rooms.Delete(ctx, studioID, id), ErrNotFound)
}

func newSerial() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:serialLength]
}

func setString(updates map[string]any, column string, v *string) {
	if v != nil {
		updates[column] = strings.TrimSpace(*v)
	}
}

func mapNotFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
