package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studiohub/internal/domain"
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

type AttendanceFilter struct {
	StudioID    int64
	ClassID     int64
	StudentID   int64
	SessionDate string
}

// Upsert writes the records, replacing any existing mark for the same
// class, student and session date.
func (r *AttendanceRepository) Upsert(ctx context.Context, records []domain.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range records {
		records[i].UpdatedAt = now
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "student_id"}, {Name: "session_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "notes", "marked_by", "updated_at"}),
	}).Create(&records).Error
}

func (r *AttendanceRepository) List(ctx context.Context, f AttendanceFilter) ([]domain.Attendance, error) {
	q := r.db.WithContext(ctx).Where("studio_id = ?", f.StudioID)
	if f.ClassID > 0 {
		q = q.Where("class_id = ?", f.ClassID)
	}
	if f.StudentID > 0 {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.SessionDate != "" {
		q = q.Where("session_date = ?", f.SessionDate)
	}

	var out []domain.Attendance
	err := q.Order("session_date DESC, student_id ASC").Find(&out).Error
	return out, err
}

type StatusCount struct {
	Status domain.AttendanceStatus
	Count  int64
}

func (r *AttendanceRepository) CountByStatus(ctx context.Context, studioID, classID int64) ([]StatusCount, error) {
	var out []StatusCount
	err := r.db.WithContext(ctx).Model(&domain.Attendance{}).
		Select("status, COUNT(*) AS count").
		Where("studio_id = ? AND class_id = ?", studioID, classID).
		Group("status").
		Scan(&out).Error
	return out, err
}

func (r *AttendanceRepository) CountSessions(ctx context.Context, studioID, classID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Attendance{}).
		Where("studio_id = ? AND class_id = ?", studioID, classID).
		Distinct("session_date").
		Count(&n).Error
	return n, err
}
