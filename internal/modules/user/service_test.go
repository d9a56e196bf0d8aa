package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiohub/internal/database/dbtest"
	"studiohub/internal/domain"
	"studiohub/internal/repository"
)

type recordingSyncer struct {
	err   error
	calls []domain.UserRole
}

func (r *recordingSyncer) SyncAppMetadata(_ context.Context, _ int64, role domain.UserRole, _ *int64) error {
	r.calls = append(r.calls, role)
	return r.err
}

type env struct {
	db     *gorm.DB
	svc    *Service
	syncer *recordingSyncer
	studio *domain.Studio
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&domain.User{ID: 1, Email: "admin@x.test", FullName: "Admin", Role: domain.RoleAdmin}).Error)
	studio := &domain.Studio{Name: "Move", SerialNumber: "MOVE0001", AdminID: 1}
	require.NoError(t, repository.NewStudioRepository(db).CreateForAdmin(ctx, studio))

	for _, u := range []domain.User{
		{ID: 2, Email: "coach@x.test", FullName: "Coach", Role: domain.RoleInstructor, StudioID: &studio.ID},
		{ID: 3, Email: "amy@x.test", FullName: "Amy", Role: domain.RoleStudent, StudioID: &studio.ID},
		{ID: 4, Email: "ben@x.test", FullName: "Ben", Role: domain.RoleStudent, StudioID: &studio.ID},
		{ID: 5, Email: "outsider@x.test", FullName: "Outsider", Role: domain.RoleStudent},
	} {
		u := u
		require.NoError(t, db.Create(&u).Error)
	}

	syncer := &recordingSyncer{}
	svc := NewService(
		repository.NewUserRepository(db),
		repository.NewStudioRepository(db),
		repository.NewEnrollmentRepository(db),
		syncer,
		zap.NewNop(),
	)
	return &env{db: db, svc: svc, syncer: syncer, studio: studio}
}

func TestMeIncludesStudio(t *testing.T) {
	e := newEnv(t)

	p, err := e.svc.Me(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Amy", p.FullName)
	require.NotNil(t, p.Studio)
	assert.Equal(t, "Move", p.Studio.Name)

	p, err = e.svc.Me(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, p.Studio)

	_, err = e.svc.Me(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMe(t *testing.T) {
	e := newEnv(t)

	u, err := e.svc.UpdateMe(context.Background(), 3, UpdateProfileRequest{FullName: " Amy Lee ", Phone: "050-1234567"})
	require.NoError(t, err)
	assert.Equal(t, "Amy Lee", u.FullName)
	assert.Equal(t, "050-1234567", u.Phone)
}

func TestListByRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	students, err := e.svc.List(ctx, e.studio.ID, domain.RoleStudent)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Amy", students[0].FullName)

	all, err := e.svc.List(ctx, e.studio.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = e.svc.List(ctx, e.studio.ID, "OWNER")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestChangeRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.svc.ChangeRole(ctx, e.studio.ID, 1, 3, "instructor")
	require.NoError(t, err)
	assert.True(t, res.IdentitySynced)
	assert.Equal(t, domain.RoleInstructor, res.User.Role)
	assert.Equal(t, []domain.UserRole{domain.RoleInstructor}, e.syncer.calls)

	_, err = e.svc.ChangeRole(ctx, e.studio.ID, 1, 1, domain.RoleStudent)
	assert.ErrorIs(t, err, ErrSelfDemotion)

	_, err = e.svc.ChangeRole(ctx, e.studio.ID, 1, 5, domain.RoleInstructor)
	assert.ErrorIs(t, err, ErrNotFound)

	e.syncer.err = errors.New("provider down")
	res, err = e.svc.ChangeRole(ctx, e.studio.ID, 1, 4, domain.RoleInstructor)
	require.NoError(t, err)
	assert.False(t, res.IdentitySynced)

	var stored domain.User
	require.NoError(t, e.db.First(&stored, 4).Error)
	assert.Equal(t, domain.RoleInstructor, stored.Role)
}

func TestStudentDetail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	class := &domain.Class{StudioID: e.studio.ID, InstructorID: 2, Name: "Jazz", DayOfWeek: 2, StartTime: "17:00", EndTime: "18:00", MaxCapacity: 10, IsActive: true}
	require.NoError(t, e.db.Create(class).Error)
	require.NoError(t, repository.NewEnrollmentRepository(e.db).CreateWithSeat(ctx, &domain.Enrollment{
		StudioID:      e.studio.ID,
		StudentID:     3,
		ClassID:       class.ID,
		Status:        domain.EnrollmentActive,
		PaymentStatus: domain.EnrollmentPaymentPaid,
		EnrolledAt:    time.Now().UTC(),
	}))

	detail, err := e.svc.Student(ctx, e.studio.ID, 3)
	require.NoError(t, err)
	require.Len(t, detail.Enrollments, 1)
	assert.Equal(t, "Jazz", detail.Enrollments[0].Class.Name)

	_, err = e.svc.Student(ctx, e.studio.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}
