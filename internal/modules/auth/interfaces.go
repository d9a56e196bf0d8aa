package auth

import (
	"context"
	"time"

	"studiohub/internal/domain"
)

type identityStore interface {
	Register(ctx context.Context, acct *domain.IdentityAccount, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.IdentityAccount, error)
	TouchSignIn(ctx context.Context, id int64, at time.Time) error
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type studioFinder interface {
	GetBySerial(ctx context.Context, serial string) (*domain.Studio, error)
}

type metadataSyncer interface {
	SyncAppMetadata(ctx context.Context, userID int64, role domain.UserRole, studioID *int64) error
}

type tokenIssuer interface {
	GenerateToken(userID int64, role string, studioID *int64) (string, error)
	TTL() time.Duration
}

// invitationAcceptor redeems an invitation right after registration.
type invitationAcceptor interface {
	AcceptForUser(ctx context.Context, token string, userID int64) error
}
