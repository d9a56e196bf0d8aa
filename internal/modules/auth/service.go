package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"studiohub/internal/domain"
	"studiohub/internal/repository"
)

// Service registers identity accounts and issues session tokens.
type Service struct {
	identities identityStore
	users      userReader
	studios    studioFinder
	identity   metadataSyncer
	tokens     tokenIssuer
	invites    invitationAcceptor
	log        *zap.Logger
}

func NewService(
	identities identityStore,
	users userReader,
	studios studioFinder,
	identity metadataSyncer,
	tokens tokenIssuer,
	invites invitationAcceptor,
	log *zap.Logger,
) *Service {
	return &Service{
		identities: identities,
		users:      users,
		studios:    studios,
		identity:   identity,
		tokens:     tokens,
		invites:    invites,
		log:        log,
	}
}

// Register creates a STUDENT account. A studio serial joins the student to
// that studio; an invite token is redeemed afterwards for role elevation.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Result, error) {
	var studioID *int64
	if serial := strings.TrimSpace(req.StudioSerial); serial != "" {
		studio, err := s.studios.GetBySerial(ctx, serial)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStudioNotFound
			}
			return nil, fmt.Errorf("lookup studio: %w", err)
		}
		studioID = &studio.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	md := domain.AppMetadata{Role: domain.RoleStudent, StudioID: studioID}
	acct := &domain.IdentityAccount{
		Email:        req.Email,
		PasswordHash: string(hash),
		AppMetadata:  md.ToJSONMap(),
	}
	user := &domain.User{
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     domain.RoleStudent,
		StudioID: studioID,
	}

	if err := s.identities.Register(ctx, acct, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("register account: %w", err)
	}
	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.Any("studio_id", studioID))

	result := &Result{}
	if token := strings.TrimSpace(req.InviteToken); token != "" && s.invites != nil {
		if err := s.invites.AcceptForUser(ctx, token, user.ID); err != nil {
			s.log.Warn("invitation not redeemed at registration", zap.Int64("user_id", user.ID), zap.Error(err))
			result.InvitationError = err.Error()
		} else {
			reloaded, err := s.users.GetByID(ctx, user.ID)
			if err != nil {
				return nil, fmt.Errorf("reload user: %w", err)
			}
			user = reloaded
		}
	}

	if err := s.issue(result, user); err != nil {
		return nil, err
	}
	return result, nil
}

// Login verifies the password and issues a token built from the primary
// user record. Identity metadata that drifted from it (an earlier failed
// sync) is repaired here.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Result, error) {
	acct, err := s.identities.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if md := domain.AppMetadataFromJSONMap(acct.AppMetadata); !md.Matches(user) {
		if err := s.identity.SyncAppMetadata(ctx, user.ID, user.Role, user.StudioID); err != nil {
			s.log.Error("identity metadata repair failed", zap.Int64("user_id", user.ID), zap.Error(err))
		} else {
			s.log.Info("identity metadata repaired at login",
				zap.Int64("user_id", user.ID),
				zap.String("from_role", string(md.Role)),
				zap.String("to_role", string(user.Role)),
			)
		}
	}

	if err := s.identities.TouchSignIn(ctx, acct.ID, time.Now().UTC()); err != nil {
		s.log.Warn("record sign-in time", zap.Int64("user_id", acct.ID), zap.Error(err))
	}

	result := &Result{}
	if err := s.issue(result, user); err != nil {
		return nil, err
	}
	return result, nil
}

// IssueFor returns a fresh access token for the user's current record.
func (s *Service) IssueFor(ctx context.Context, userID int64) (*Result, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	result := &Result{}
	if err := s.issue(result, user); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) issue(result *Result, user *domain.User) error {
	token, err := s.tokens.GenerateToken(user.ID, string(user.Role), user.StudioID)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	result.User = user
	result.AccessToken = token
	result.ExpiresIn = int64(s.tokens.TTL().Seconds())
	return nil
}
