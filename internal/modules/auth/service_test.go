package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"studiohub/internal/database/dbtest"
	"studiohub/internal/domain"
	"studiohub/internal/modules/identity"
	"studiohub/internal/pkg/jwt"
	"studiohub/internal/repository"
)

type stubInvites struct {
	err    error
	accept func(userID int64)
	calls  int
}

func (s *stubInvites) AcceptForUser(_ context.Context, _ string, userID int64) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	if s.accept != nil {
		s.accept(userID)
	}
	return nil
}

// failingSyncer simulates an unavailable identity provider.
type failingSyncer struct{}

func (failingSyncer) SyncAppMetadata(context.Context, int64, domain.UserRole, *int64) error {
	return errors.New("identity provider unavailable")
}

type env struct {
	db         *gorm.DB
	svc        *Service
	jwt        *jwt.Service
	identities *repository.IdentityRepository
	users      *repository.UserRepository
	invites    *stubInvites
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	e := &env{
		db:         db,
		jwt:        jwt.New("test-secret", time.Hour),
		identities: repository.NewIdentityRepository(db),
		users:      repository.NewUserRepository(db),
		invites:    &stubInvites{},
	}
	e.svc = NewService(
		e.identities,
		e.users,
		repository.NewStudioRepository(db),
		identity.NewService(e.identities, zap.NewNop()),
		e.jwt,
		e.invites,
		zap.NewNop(),
	)
	return e
}

func (e *env) seedStudio(t *testing.T) *domain.Studio {
	t.Helper()
	admin := &domain.User{ID: 900, Email: "owner@studio.test", FullName: "Owner", Role: domain.RoleAdmin}
	require.NoError(t, e.db.Create(admin).Error)
	studio := &domain.Studio{Name: "Move", SerialNumber: "MOVE0001", AdminID: admin.ID}
	require.NoError(t, repository.NewStudioRepository(e.db).CreateForAdmin(context.Background(), studio))
	return studio
}

func TestRegisterCreatesStudent(t *testing.T) {
	e := newEnv(t)

	res, err := e.svc.Register(context.Background(), RegisterRequest{
		Email:    "  Dana@Example.com ",
		Password: "supersecret",
		FullName: "Dana",
	})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", res.User.Email)
	assert.Equal(t, domain.RoleStudent, res.User.Role)
	assert.Nil(t, res.User.StudioID)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)

	claims, err := e.jwt.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, "STUDENT", claims.Role)

	acct, err := e.identities.GetByEmail(context.Background(), "dana@example.com")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, acct.ID)
	assert.NotEqual(t, "supersecret", acct.PasswordHash)
	assert.True(t, domain.AppMetadataFromJSONMap(acct.AppMetadata).Matches(res.User))
	assert.Equal(t, 0, e.invites.calls)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	req := RegisterRequest{Email: "dana@example.com", Password: "supersecret", FullName: "Dana"}

	_, err := e.svc.Register(context.Background(), req)
	require.NoError(t, err)

	req.Email = "DANA@example.com"
	_, err = e.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestRegisterWithStudioSerial(t *testing.T) {
	e := newEnv(t)
	studio := e.seedStudio(t)

	res, err := e.svc.Register(context.Background(), RegisterRequest{
		Email:        "kid@example.com",
		Password:     "supersecret",
		FullName:     "Kid",
		StudioSerial: "move0001",
	})
	require.NoError(t, err)
	require.NotNil(t, res.User.StudioID)
	assert.Equal(t, studio.ID, *res.User.StudioID)

	_, err = e.svc.Register(context.Background(), RegisterRequest{
		Email:        "lost@example.com",
		Password:     "supersecret",
		FullName:     "Lost",
		StudioSerial: "NOPE0000",
	})
	assert.ErrorIs(t, err, ErrStudioNotFound)
}

func TestRegisterRedeemsInvitation(t *testing.T) {
	e := newEnv(t)
	studio := e.seedStudio(t)
	e.invites.accept = func(userID int64) {
		require.NoError(t, e.users.UpdateRoleAndStudio(context.Background(), userID, domain.RoleInstructor, &studio.ID))
	}

	res, err := e.svc.Register(context.Background(), RegisterRequest{
		Email:       "coach@example.com",
		Password:    "supersecret",
		FullName:    "Coach",
		InviteToken: "invite-token",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, e.invites.calls)
	assert.Equal(t, domain.RoleInstructor, res.User.Role)
	assert.Empty(t, res.InvitationError)

	claims, err := e.jwt.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "INSTRUCTOR", claims.Role)
	require.NotNil(t, claims.StudioID)
	assert.Equal(t, studio.ID, *claims.StudioID)
}

func TestRegisterKeepsAccountWhenInvitationFails(t *testing.T) {
	e := newEnv(t)
	e.invites.err = errors.New("invitation token expired")

	res, err := e.svc.Register(context.Background(), RegisterRequest{
		Email:       "late@example.com",
		Password:    "supersecret",
		FullName:    "Late",
		InviteToken: "expired",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, res.User.Role)
	assert.Equal(t, "invitation token expired", res.InvitationError)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Register(context.Background(), RegisterRequest{Email: "dana@example.com", Password: "supersecret", FullName: "Dana"})
	require.NoError(t, err)

	res, err := e.svc.Login(context.Background(), LoginRequest{Email: "DANA@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	acct, err := e.identities.GetByEmail(context.Background(), "dana@example.com")
	require.NoError(t, err)
	assert.NotNil(t, acct.LastSignInAt)

	_, err = e.svc.Login(context.Background(), LoginRequest{Email: "dana@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = e.svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRepairsDriftedIdentityMetadata(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	studio := e.seedStudio(t)

	reg, err := e.svc.Register(ctx, RegisterRequest{Email: "coach@example.com", Password: "supersecret", FullName: "Coach"})
	require.NoError(t, err)

	// Primary write succeeded but the identity sync did not.
	require.NoError(t, e.users.UpdateRoleAndStudio(ctx, reg.User.ID, domain.RoleInstructor, &studio.ID))
	require.NoError(t, e.identities.UpdateAppMetadata(ctx, reg.User.ID, datatypes.JSONMap{"role": "STUDENT", "studio_id": nil}))

	res, err := e.svc.Login(ctx, LoginRequest{Email: "coach@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInstructor, res.User.Role)

	claims, err := e.jwt.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "INSTRUCTOR", claims.Role)

	acct, err := e.identities.GetByEmail(ctx, "coach@example.com")
	require.NoError(t, err)
	md := domain.AppMetadataFromJSONMap(acct.AppMetadata)
	assert.Equal(t, domain.RoleInstructor, md.Role)
	require.NotNil(t, md.StudioID)
	assert.Equal(t, studio.ID, *md.StudioID)
}

func TestLoginSucceedsWhenRepairFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	reg, err := e.svc.Register(ctx, RegisterRequest{Email: "coach@example.com", Password: "supersecret", FullName: "Coach"})
	require.NoError(t, err)
	require.NoError(t, e.users.UpdateRoleAndStudio(ctx, reg.User.ID, domain.RoleInstructor, nil))

	e.svc.identity = failingSyncer{}
	res, err := e.svc.Login(ctx, LoginRequest{Email: "coach@example.com", Password: "supersecret"})
	require.NoError(t, err)

	claims, err := e.jwt.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "INSTRUCTOR", claims.Role)
}
