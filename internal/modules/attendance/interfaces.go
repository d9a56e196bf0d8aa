package attendance

import (
	"context"

	"studiohub/internal/domain"
	"studiohub/internal/repository"
)

type attendanceStore interface {
	Upsert(ctx context.Context, records []domain.Attendance) error
	List(ctx context.Context, f repository.AttendanceFilter) ([]domain.Attendance, error)
	CountByStatus(ctx context.Context, studioID, classID int64) ([]repository.StatusCount, error)
	CountSessions(ctx context.Context, studioID, classID int64) (int64, error)
}

type classReader interface {
	Get(ctx context.Context, studioID, id int64) (*domain.Class, error)
}

type enrollmentChecker interface {
	ExistsActive(ctx context.Context, studentID, classID int64) (bool, error)
}
