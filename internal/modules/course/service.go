package course

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiohub/internal/domain"
	"studiohub/internal/pkg/validator"
	"studiohub/internal/repository"
)

type Service struct {
	classes classStore
	members memberReader
	rooms   roomReader
	log     *zap.Logger
}

func NewService(classes classStore, members memberReader, rooms roomReader, log *zap.Logger) *Service {
	return &Service{classes: classes, members: members, rooms: rooms, log: log}
}

func (s *Service) List(ctx context.Context, studioID int64, q ListQuery) ([]domain.Class, error) {
	return s.classes.List(ctx, repository.ClassFilter{
		StudioID:     studioID,
		InstructorID: q.InstructorID,
		DayOfWeek:    q.DayOfWeek,
		ActiveOnly:   q.ActiveOnly,
	})
}

func (s *Service) Get(ctx context.Context, studioID, id int64) (*domain.Class, error) {
	c, err := s.classes.Get(ctx, studioID, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, studioID int64, req CreateCourseRequest) (*domain.Class, error) {
	if req.DayOfWeek == nil || !validDay(*req.DayOfWeek) {
		return nil, ErrInvalidDay
	}
	if err := checkSchedule(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if req.MaxCapacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if req.PriceILS.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if err := s.checkInstructor(ctx, studioID, req.InstructorID); err != nil {
		return nil, err
	}
	if err := s.checkRoom(ctx, studioID, req.RoomID); err != nil {
		return nil, err
	}

	c := &domain.Class{
		StudioID:     studioID,
		InstructorID: req.InstructorID,
		RoomID:       req.RoomID,
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		DayOfWeek:    *req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		MaxCapacity:  req.MaxCapacity,
		PriceILS:     req.PriceILS.Round(2),
		IsActive:     true,
	}
	if err := s.classes.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}

	s.log.Info("class created", zap.Int64("class_id", c.ID), zap.Int64("studio_id", studioID))
	return c, nil
}

func (s *Service) Update(ctx context.Context, studioID, id int64, req UpdateCourseRequest) (*domain.Class, error) {
	current, err := s.classes.Get(ctx, studioID, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.InstructorID != nil {
		if err := s.checkInstructor(ctx, studioID, *req.InstructorID); err != nil {
			return nil, err
		}
		updates["instructor_id"] = *req.InstructorID
	}
	if req.RoomID != nil {
		if err := s.checkRoom(ctx, studioID, req.RoomID); err != nil {
			return nil, err
		}
		updates["room_id"] = *req.RoomID
	}
	if req.DayOfWeek != nil {
		if !validDay(*req.DayOfWeek) {
			return nil, ErrInvalidDay
		}
		updates["day_of_week"] = *req.DayOfWeek
	}

	start, end := current.StartTime, current.EndTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if req.StartTime != nil || req.EndTime != nil {
		if err := checkSchedule(start, end); err != nil {
			return nil, err
		}
		updates["start_time"] = start
		updates["end_time"] = end
	}

	if req.MaxCapacity != nil {
		if *req.MaxCapacity <= 0 {
			return nil, ErrInvalidCapacity
		}
		if *req.MaxCapacity < current.CurrentEnrollment {
			return nil, ErrCapacityBelowSeats
		}
		updates["max_capacity"] = *req.MaxCapacity
	}
	if req.PriceILS != nil {
		if req.PriceILS.IsNegative() {
			return nil, ErrInvalidPrice
		}
		updates["price_ils"] = req.PriceILS.Round(2)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		err := s.classes.Update(ctx, studioID, id, updates)
		switch {
		case errors.Is(err, repository.ErrCapacityExceeded):
			return nil, ErrCapacityBelowSeats
		case err != nil:
			return nil, mapNotFound(err)
		}
	}
	return s.Get(ctx, studioID, id)
}

// Delete removes a class outright when it never had enrollments. Classes
// with enrollment history are deactivated so the history stays readable.
func (s *Service) Delete(ctx context.Context, studioID, id int64) (*DeleteResult, error) {
	c, err := s.classes.Get(ctx, studioID, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	has, err := s.classes.HasEnrollments(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("check class enrollments: %w", err)
	}
	if has {
		if err := s.classes.Deactivate(ctx, studioID, id); err != nil {
			return nil, mapNotFound(err)
		}
		s.log.Info("class deactivated", zap.Int64("class_id", id))
		return &DeleteResult{Deactivated: true}, nil
	}

	if err := s.classes.Delete(ctx, studioID, id); err != nil {
		return nil, mapNotFound(err)
	}
	s.log.Info("class deleted", zap.Int64("class_id", id))
	return &DeleteResult{Deleted: true}, nil
}

func (s *Service) checkInstructor(ctx context.Context, studioID, userID int64) error {
	u, err := s.members.GetInStudio(ctx, studioID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidInstructor
	}
	if err != nil {
		return fmt.Errorf("lookup instructor: %w", err)
	}
	if u.Role != domain.RoleInstructor && u.Role != domain.RoleAdmin {
		return ErrInvalidInstructor
	}
	return nil
}

func (s *Service) checkRoom(ctx context.Context, studioID int64, roomID *int64) error {
	if roomID == nil {
		return nil
	}
	_, err := s.rooms.Get(ctx, studioID, *roomID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRoomNotFound
	}
	return err
}

// checkSchedule relies on the zero-padded HH:MM format, where lexical order
// is chronological order.
func checkSchedule(start, end string) error {
	if !validator.IsClock(start) || !validator.IsClock(end) {
		return ErrInvalidSchedule
	}
	if end <= start {
		return ErrInvalidSchedule
	}
	return nil
}

func validDay(d int) bool {
	return d >= 0 && d <= 6
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
