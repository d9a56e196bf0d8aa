package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiohub/internal/database/dbtest"
	"studiohub/internal/domain"
	"studiohub/internal/pkg/jwt"
	"studiohub/internal/repository"
)

type syncCall struct {
	userID   int64
	role     domain.UserRole
	studioID *int64
}

type recordingSyncer struct {
	calls []syncCall
}

func (r *recordingSyncer) SyncAppMetadata(_ context.Context, userID int64, role domain.UserRole, studioID *int64) error {
	r.calls = append(r.calls, syncCall{userID: userID, role: role, studioID: studioID})
	return nil
}

type env struct {
	db     *gorm.DB
	svc    *Service
	jwt    *jwt.Service
	syncer *recordingSyncer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	e := &env{db: db, jwt: jwt.New("test-secret", time.Hour), syncer: &recordingSyncer{}}
	e.svc = NewService(
		repository.NewStudioRepository(db),
		repository.NewBranchRepository(db),
		repository.NewRoomRepository(db),
		repository.NewUserRepository(db),
		e.syncer,
		e.jwt,
		zap.NewNop(),
	)
	return e
}

func (e *env) user(t *testing.T, id int64, role domain.UserRole) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, Email: fmt.Sprintf("user%d@studio.test", id), FullName: "User", Role: role}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func TestCreateStudio_PromotesCreatorToAdmin(t *testing.T) {
	e := newEnv(t)
	e.user(t, 1, domain.RoleStudent)

	res, err := e.svc.CreateStudio(context.Background(), 1, CreateStudioRequest{Name: "  Flow Yoga "})
	require.NoError(t, err)
	require.NotNil(t, res.Studio)
	assert.Equal(t, "Flow Yoga", res.Studio.Name)
	assert.Len(t, res.Studio.SerialNumber, serialLength)
	assert.True(t, res.IdentitySynced)

	var u domain.User
	require.NoError(t, e.db.First(&u, 1).Error)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	require.NotNil(t, u.StudioID)
	assert.Equal(t, res.Studio.ID, *u.StudioID)

	require.Len(t, e.syncer.calls, 1)
	assert.Equal(t, domain.RoleAdmin, e.syncer.calls[0].role)

	claims, err := e.jwt.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(domain.RoleAdmin), claims.Role)
	require.NotNil(t, claims.StudioID)
	assert.Equal(t, res.Studio.ID, *claims.StudioID)
}

func TestCreateStudio_RejectsSecondStudio(t *testing.T) {
	e := newEnv(t)
	e.user(t, 1, domain.RoleAdmin)

	_, err := e.svc.CreateStudio(context.Background(), 1, CreateStudioRequest{Name: "First"})
	require.NoError(t, err)

	_, err = e.svc.CreateStudio(context.Background(), 1, CreateStudioRequest{Name: "Second"})
	assert.ErrorIs(t, err, ErrAlreadyHasStudio)
}

func TestCreateStudio_InstructorForbidden(t *testing.T) {
	e := newEnv(t)
	e.user(t, 1, domain.RoleInstructor)

	_, err := e.svc.CreateStudio(context.Background(), 1, CreateStudioRequest{Name: "Nope"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLookupAndJoin(t *testing.T) {
	e := newEnv(t)
	e.user(t, 1, domain.RoleAdmin)
	e.user(t, 2, domain.RoleStudent)

	created, err := e.svc.CreateStudio(context.Background(), 1, CreateStudioRequest{Name: "Barre Lab"})
	require.NoError(t, err)

	lookup, err := e.svc.LookupBySerial(context.Background(), " "+created.Studio.SerialNumber+" ")
	require.NoError(t, err)
	assert.Equal(t, "Barre Lab", lookup.Name)

	_, err = e.svc.LookupBySerial(context.Background(), "ZZZZZZZZ")
	assert.ErrorIs(t, err, ErrStudioNotFound)

	joined, err := e.svc.JoinStudio(context.Background(), 2, created.Studio.SerialNumber)
	require.NoError(t, err)
	assert.NotEmpty(t, joined.AccessToken)

	var u domain.User
	require.NoError(t, e.db.First(&u, 2).Error)
	assert.Equal(t, domain.RoleStudent, u.Role)
	assert.True(t, u.BelongsTo(created.Studio.ID))

	_, err = e.svc.JoinStudio(context.Background(), 2, created.Studio.SerialNumber)
	assert.ErrorIs(t, err, ErrAlreadyHasStudio)
}

func TestUpdateStudio_PartialFields(t *testing.T) {
	e := newEnv(t)
	e.user(t, 1, domain.RoleAdmin)
	created, err := e.svc.CreateStudio(context.Background(), 1, CreateStudioRequest{Name: "Old", Phone: "+100"})
	require.NoError(t, err)

	name := "New"
	studio, err := e.svc.UpdateStudio(context.Background(), created.Studio.ID, UpdateStudioRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "New", studio.Name)
	assert.Equal(t, "+100", studio.Phone)
}

func TestRooms_RequireBranchInStudio(t *testing.T) {
	e := newEnv(t)
	e.user(t, 1, domain.RoleAdmin)
	e.user(t, 2, domain.RoleAdmin)
	ctx := context.Background()

	mine, err := e.svc.CreateStudio(ctx, 1, CreateStudioRequest{Name: "Mine"})
	require.NoError(t, err)
	other, err := e.svc.CreateStudio(ctx, 2, CreateStudioRequest{Name: "Other"})
	require.NoError(t, err)

	branch, err := e.svc.CreateBranch(ctx, mine.Studio.ID, BranchRequest{Name: "Downtown"})
	require.NoError(t, err)
	foreign, err := e.svc.CreateBranch(ctx, other.Studio.ID, BranchRequest{Name: "Elsewhere"})
	require.NoError(t, err)

	_, err = e.svc.CreateRoom(ctx, mine.Studio.ID, CreateRoomRequest{BranchID: foreign.ID, Name: "Hall"})
	assert.ErrorIs(t, err, ErrBranchNotFound)

	room, err := e.svc.CreateRoom(ctx, mine.Studio.ID, CreateRoomRequest{BranchID: branch.ID, Name: "Hall", Capacity: 20})
	require.NoError(t, err)

	rooms, err := e.svc.ListRooms(ctx, mine.Studio.ID, branch.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	capacity := 25
	updated, err := e.svc.UpdateRoom(ctx, mine.Studio.ID, room.ID, UpdateRoomRequest{Capacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, 25, updated.Capacity)

	_, err = e.svc.UpdateRoom(ctx, other.Studio.ID, room.ID, UpdateRoomRequest{Capacity: &capacity})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, e.svc.DeleteBranch(ctx, mine.Studio.ID, branch.ID))
	rooms, err = e.svc.ListRooms(ctx, mine.Studio.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	assert.ErrorIs(t, e.svc.DeleteBranch(ctx, mine.Studio.ID, branch.ID), ErrNotFound)
}
