package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiohub/internal/domain"
	"studiohub/internal/repository"
)

type Service struct {
	records     attendanceStore
	classes     classReader
	enrollments enrollmentChecker
	log         *zap.Logger
}

func NewService(records attendanceStore, classes classReader, enrollments enrollmentChecker, log *zap.Logger) *Service {
	return &Service{records: records, classes: classes, enrollments: enrollments, log: log}
}

// Mark records attendance for one session of a class. Existing marks for
// the same student and date are overwritten.
func (s *Service) Mark(ctx context.Context, studioID int64, actor Actor, req MarkRequest) ([]domain.Attendance, error) {
	if len(req.Records) == 0 {
		return nil, ErrNoRecords
	}
	date, err := parseDate(req.SessionDate)
	if err != nil {
		return nil, err
	}

	class, err := s.classes.Get(ctx, studioID, req.ClassID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load class: %w", err)
	}
	if actor.Role != domain.RoleAdmin && class.InstructorID != actor.UserID {
		return nil, ErrForbidden
	}

	byStudent := make(map[int64]int, len(req.Records))
	rows := make([]domain.Attendance, 0, len(req.Records))
	for _, in := range req.Records {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
		}
		row := domain.Attendance{
			StudioID:    studioID,
			ClassID:     class.ID,
			StudentID:   in.StudentID,
			SessionDate: date,
			Status:      in.Status,
			Notes:       strings.TrimSpace(in.Notes),
			MarkedBy:    actor.UserID,
		}
		if i, seen := byStudent[in.StudentID]; seen {
			rows[i] = row
			continue
		}
		enrolled, err := s.enrollments.ExistsActive(ctx, in.StudentID, class.ID)
		if err != nil {
			return nil, fmt.Errorf("check enrollment: %w", err)
		}
		if !enrolled {
			return nil, fmt.Errorf("%w: student %d", ErrNotEnrolled, in.StudentID)
		}
		byStudent[in.StudentID] = len(rows)
		rows = append(rows, row)
	}

	if err := s.records.Upsert(ctx, rows); err != nil {
		return nil, fmt.Errorf("save attendance: %w", err)
	}

	s.log.Info("attendance marked",
		zap.Int64("class_id", class.ID),
		zap.String("session_date", date),
		zap.Int("records", len(rows)),
		zap.Int64("marked_by", actor.UserID),
	)
	return s.records.List(ctx, repository.AttendanceFilter{StudioID: studioID, ClassID: class.ID, SessionDate: date})
}

func (s *Service) List(ctx context.Context, studioID int64, actor Actor, q ListQuery) ([]domain.Attendance, error) {
	f := repository.AttendanceFilter{StudioID: studioID, ClassID: q.ClassID, StudentID: q.StudentID}
	if q.SessionDate != "" {
		date, err := parseDate(q.SessionDate)
		if err != nil {
			return nil, err
		}
		f.SessionDate = date
	}
	if actor.Role == domain.RoleStudent {
		f.StudentID = actor.UserID
	}
	return s.records.List(ctx, f)
}

func (s *Service) Summary(ctx context.Context, studioID, classID int64) (*Summary, error) {
	if _, err := s.classes.Get(ctx, studioID, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("load class: %w", err)
	}

	counts, err := s.records.CountByStatus(ctx, studioID, classID)
	if err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	sessions, err := s.records.CountSessions(ctx, studioID, classID)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	out := &Summary{
		ClassID:  classID,
		Sessions: sessions,
		Counts: map[domain.AttendanceStatus]int64{
			domain.AttendancePresent: 0,
			domain.AttendanceAbsent:  0,
			domain.AttendanceLate:    0,
			domain.AttendanceExcused: 0,
		},
	}
	for _, c := range counts {
		out.Counts[c.Status] = c.Count
		out.Total += c.Count
	}
	return out, nil
}

func parseDate(raw string) (string, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(dateLayout), nil
}
