package attendance

import (
	"context"
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

type fixture struct {
	db       *gorm.DB
	svc      *Service
	studioID int64
	class    *domain.Class
}

var (
	admin      = Actor{UserID: 1, Role: domain.RoleAdmin}
	instructor = Actor{UserID: 2, Role: domain.RoleInstructor}
	stranger   = Actor{UserID: 3, Role: domain.RoleInstructor}
)

func setup(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	f := &fixture{db: db}

	studio := &domain.Studio{Name: "Main", SerialNumber: "MAIN0001", AdminID: 1}
	require.NoError(t, db.Create(studio).Error)
	f.studioID = studio.ID

	f.class = &domain.Class{
		StudioID: f.studioID, InstructorID: instructor.UserID, Name: "Spin",
		DayOfWeek: 3, StartTime: "07:00", EndTime: "07:45", MaxCapacity: 10, IsActive: true,
	}
	require.NoError(t, db.Create(f.class).Error)

	now := time.Now().UTC()
	enrollments := []domain.Enrollment{
		{StudioID: f.studioID, StudentID: 100, ClassID: f.class.ID, Status: domain.EnrollmentActive, PaymentStatus: domain.EnrollmentPaymentPaid, EnrolledAt: now},
		{StudioID: f.studioID, StudentID: 101, ClassID: f.class.ID, Status: domain.EnrollmentPending, PaymentStatus: domain.EnrollmentPaymentPending, EnrolledAt: now},
		{StudioID: f.studioID, StudentID: 102, ClassID: f.class.ID, Status: domain.EnrollmentCancelled, PaymentStatus: domain.EnrollmentPaymentPending, EnrolledAt: now},
	}
	require.NoError(t, db.Create(&enrollments).Error)

	f.svc = NewService(
		repository.NewAttendanceRepository(db),
		repository.NewClassRepository(db),
		repository.NewEnrollmentRepository(db),
		zap.NewNop(),
	)
	return f
}

func TestMark_UpsertsPerSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rows, err := f.svc.Mark(ctx, f.studioID, instructor, MarkRequest{
		ClassID:     f.class.ID,
		SessionDate: "2026-03-04",
		Records: []RecordInput{
			{StudentID: 100, Status: domain.AttendancePresent},
			{StudentID: 101, Status: domain.AttendanceLate, Notes: " traffic "},
		},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = f.svc.Mark(ctx, f.studioID, admin, MarkRequest{
		ClassID:     f.class.ID,
		SessionDate: "2026-03-04",
		Records:     []RecordInput{{StudentID: 101, Status: domain.AttendanceExcused}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byStudent := map[int64]domain.Attendance{}
	for _, r := range rows {
		byStudent[r.StudentID] = r
	}
	assert.Equal(t, domain.AttendanceExcused, byStudent[101].Status)
	assert.Equal(t, admin.UserID, byStudent[101].MarkedBy)
	assert.Equal(t, domain.AttendancePresent, byStudent[100].Status)
}

func TestMark_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	valid := []RecordInput{{StudentID: 100, Status: domain.AttendancePresent}}

	_, err := f.svc.Mark(ctx, f.studioID, stranger, MarkRequest{ClassID: f.class.ID, SessionDate: "2026-03-04", Records: valid})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Mark(ctx, f.studioID, admin, MarkRequest{ClassID: f.class.ID, SessionDate: "04/03/2026", Records: valid})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.svc.Mark(ctx, f.studioID, admin, MarkRequest{ClassID: 999, SessionDate: "2026-03-04", Records: valid})
	assert.ErrorIs(t, err, ErrClassNotFound)

	_, err = f.svc.Mark(ctx, f.studioID, admin, MarkRequest{ClassID: f.class.ID, SessionDate: "2026-03-04",
		Records: []RecordInput{{StudentID: 100, Status: "HERE"}}})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.Mark(ctx, f.studioID, admin, MarkRequest{ClassID: f.class.ID, SessionDate: "2026-03-04",
		Records: []RecordInput{{StudentID: 102, Status: domain.AttendancePresent}}})
	assert.ErrorIs(t, err, ErrNotEnrolled)

	rows, err := f.svc.List(ctx, f.studioID, admin, ListQuery{ClassID: f.class.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListAndSummary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, date := range []string{"2026-03-04", "2026-03-11"} {
		_, err := f.svc.Mark(ctx, f.studioID, admin, MarkRequest{
			ClassID:     f.class.ID,
			SessionDate: date,
			Records: []RecordInput{
				{StudentID: 100, Status: domain.AttendancePresent},
				{StudentID: 101, Status: domain.AttendanceAbsent},
			},
		})
		require.NoError(t, err)
	}

	own, err := f.svc.List(ctx, f.studioID, Actor{UserID: 100, Role: domain.RoleStudent}, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, own, 2)
	for _, r := range own {
		assert.Equal(t, int64(100), r.StudentID)
	}

	oneDay, err := f.svc.List(ctx, f.studioID, admin, ListQuery{SessionDate: "2026-03-11"})
	require.NoError(t, err)
	assert.Len(t, oneDay, 2)

	summary, err := f.svc.Summary(ctx, f.studioID, f.class.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Sessions)
	assert.Equal(t, int64(4), summary.Total)
	assert.Equal(t, int64(2), summary.Counts[domain.AttendancePresent])
	assert.Equal(t, int64(2), summary.Counts[domain.AttendanceAbsent])
	assert.Equal(t, int64(0), summary.Counts[domain.AttendanceLate])
}
