package invitation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiohub/internal/domain"
	"studiohub/internal/pkg/events"
)

type Config struct {
	Secret      string
	Issuer      string
	Audience    string
	TTL         time.Duration
	FrontendURL string
}

// Service issues and redeems stateless invitation tokens. A token stays
// valid until it expires and may be validated or accepted repeatedly.
type Service struct {
	signer      signer
	frontendURL string
	users       userStore
	studios     studioReader
	identity    metadataSyncer
	tokens      tokenIssuer
	publisher   events.Publisher
	log         *zap.Logger
	now         func() time.Time
}

func NewService(
	cfg Config,
	users userStore,
	studios studioReader,
	identity metadataSyncer,
	tokens tokenIssuer,
	publisher events.Publisher,
	log *zap.Logger,
) *Service {
	return &Service{
		signer: signer{
			secret:   []byte(cfg.Secret),
			issuer:   cfg.Issuer,
			audience: cfg.Audience,
			ttl:      cfg.TTL,
		},
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		users:       users,
		studios:     studios,
		identity:    identity,
		tokens:      tokens,
		publisher:   publisher,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, creatorID int64, req CreateRequest) (*CreateResult, error) {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load creator: %w", err)
	}
	if creator.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}

	role := domain.UserRole(strings.ToUpper(string(req.Role)))
	if role != domain.RoleAdmin && role != domain.RoleInstructor {
		return nil, ErrInvalidRole
	}

	studioID := creator.StudioID
	if req.StudioID != nil {
		if creator.StudioID == nil || *creator.StudioID != *req.StudioID {
			return nil, ErrStudioMismatch
		}
		studioID = req.StudioID
	}

	token, expiresAt, err := s.signer.sign(claims{
		Role:      string(role),
		StudioID:  studioID,
		InviterID: creator.ID,
	}, s.now())
	if err != nil {
		return nil, fmt.Errorf("sign invitation: %w", err)
	}

	s.log.Info("invitation created",
		zap.Int64("creator_id", creator.ID),
		zap.String("role", string(role)),
		zap.Any("studio_id", studioID),
		zap.Time("expires_at", expiresAt),
	)

	return &CreateResult{
		Token:      token,
		InviteLink: s.frontendURL + "/register?token=" + url.QueryEscape(token),
		Role:       role,
		StudioID:   studioID,
		ExpiresAt:  expiresAt,
	}, nil
}

// Validate checks signature, issuer, audience and expiry and resolves the
// target studio's display name.
func (s *Service) Validate(ctx context.Context, token string) (*Info, error) {
	c, err := s.signer.parse(strings.TrimSpace(token), s.now())
	if err != nil {
		return nil, err
	}

	role := domain.UserRole(c.Role)
	if role != domain.RoleAdmin && role != domain.RoleInstructor {
		return nil, ErrInvalidInvitation
	}

	info := &Info{
		Role:      role,
		StudioID:  c.StudioID,
		InviterID: c.InviterID,
		ExpiresAt: c.ExpiresAt.Time,
	}
	if c.StudioID != nil {
		studio, err := s.studios.GetByID(ctx, *c.StudioID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidInvitation
			}
			return nil, fmt.Errorf("resolve studio: %w", err)
		}
		info.StudioName = studio.Name
	}
	return info, nil
}

// Accept promotes the user to the invited role and studio. The primary user
// record is written first; the identity metadata sync is best effort and a
// failure leaves IdentitySynced false for the next login to repair.
func (s *Service) Accept(ctx context.Context, token string, userID int64) (*AcceptResult, error) {
	info, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	studioID := info.StudioID
	if studioID == nil {
		studioID = user.StudioID
	} else if user.StudioID != nil && *user.StudioID != *studioID {
		return nil, ErrStudioConflict
	}

	role := info.Role
	// An admin redeeming an instructor invite for their own studio keeps admin.
	if user.Role == domain.RoleAdmin && role == domain.RoleInstructor {
		role = domain.RoleAdmin
	}

	if err := s.users.UpdateRoleAndStudio(ctx, user.ID, role, studioID); err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}
	user.Role = role
	user.StudioID = studioID

	result := &AcceptResult{User: user, IdentitySynced: true}
	if err := s.identity.SyncAppMetadata(ctx, user.ID, role, studioID); err != nil {
		result.IdentitySynced = false
		s.log.Error("identity metadata sync failed after invitation accept; will repair on next login",
			zap.Int64("user_id", user.ID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
	}

	if s.tokens != nil {
		access, err := s.tokens.GenerateToken(user.ID, string(role), studioID)
		if err != nil {
			s.log.Error("issue access token after invitation accept", zap.Int64("user_id", user.ID), zap.Error(err))
		} else {
			result.AccessToken = access
		}
	}

	events.PublishSafe(ctx, s.publisher, s.log, events.InvitationAccepted, map[string]any{
		"user_id":    user.ID,
		"role":       role,
		"studio_id":  studioID,
		"inviter_id": info.InviterID,
	})

	s.log.Info("invitation accepted",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(role)),
		zap.Bool("identity_synced", result.IdentitySynced),
	)
	return result, nil
}

// AcceptForUser is Accept without the result, for callers that only need
// to know whether the promotion happened.
func (s *Service) AcceptForUser(ctx context.Context, token string, userID int64) error {
	_, err := s.Accept(ctx, token, userID)
	return err
}
