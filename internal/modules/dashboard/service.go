package dashboard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"studiohub/internal/domain"
	"studiohub/internal/repository"
)

type Service struct {
	users       userCounter
	classes     classReader
	enrollments enrollmentReader
	payments    paymentReader
	log         *zap.Logger
}

func NewService(users userCounter, classes classReader, enrollments enrollmentReader, payments paymentReader, log *zap.Logger) *Service {
	return &Service{users: users, classes: classes, enrollments: enrollments, payments: payments, log: log}
}

func (s *Service) Get(ctx context.Context, studioID, userID int64, role domain.UserRole) (*Dashboard, error) {
	out := &Dashboard{Role: role}
	var err error
	switch role {
	case domain.RoleAdmin:
		out.Admin, err = s.admin(ctx, studioID)
	case domain.RoleInstructor:
		out.Instructor, err = s.instructor(ctx, studioID, userID)
	default:
		out.Student, err = s.student(ctx, studioID, userID)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) admin(ctx context.Context, studioID int64) (*AdminView, error) {
	v := &AdminView{}
	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&v.Students, func() (int64, error) { return s.users.CountByRole(ctx, studioID, domain.RoleStudent) }},
		{&v.Instructors, func() (int64, error) { return s.users.CountByRole(ctx, studioID, domain.RoleInstructor) }},
		{&v.ActiveClasses, func() (int64, error) { return s.classes.CountActive(ctx, studioID) }},
		{&v.ActiveEnrollments, func() (int64, error) {
			return s.enrollments.CountByStatus(ctx, studioID, domain.EnrollmentActive)
		}},
		{&v.PendingEnrollments, func() (int64, error) {
			return s.enrollments.CountByStatus(ctx, studioID, domain.EnrollmentPending)
		}},
		{&v.PendingPayments, func() (int64, error) {
			return s.payments.CountByStatus(ctx, repository.PaymentFilter{StudioID: studioID, Status: domain.PaymentPending})
		}},
		{&v.FailedPayments, func() (int64, error) {
			return s.payments.CountByStatus(ctx, repository.PaymentFilter{StudioID: studioID, Status: domain.PaymentFailed})
		}},
	}
	for _, c := range counts {
		n, err := c.fn()
		if err != nil {
			return nil, fmt.Errorf("admin dashboard: %w", err)
		}
		*c.dst = n
	}

	revenue, err := s.payments.SumSucceeded(ctx, studioID)
	if err != nil {
		return nil, fmt.Errorf("admin dashboard revenue: %w", err)
	}
	v.Revenue = revenue
	return v, nil
}

func (s *Service) instructor(ctx context.Context, studioID, userID int64) (*InstructorView, error) {
	classes, err := s.classes.List(ctx, repository.ClassFilter{StudioID: studioID, InstructorID: userID, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("instructor dashboard: %w", err)
	}

	v := &InstructorView{Classes: make([]ClassLoad, 0, len(classes))}
	for _, c := range classes {
		v.Classes = append(v.Classes, ClassLoad{
			ClassID:     c.ID,
			Name:        c.Name,
			DayOfWeek:   c.DayOfWeek,
			StartTime:   c.StartTime,
			Enrolled:    c.CurrentEnrollment,
			MaxCapacity: c.MaxCapacity,
		})
		v.TotalEnrolled += c.CurrentEnrollment
		v.TotalCapacity += c.MaxCapacity
	}
	return v, nil
}

func (s *Service) student(ctx context.Context, studioID, userID int64) (*StudentView, error) {
	all, err := s.enrollments.List(ctx, repository.EnrollmentFilter{StudioID: studioID, StudentID: userID})
	if err != nil {
		return nil, fmt.Errorf("student dashboard: %w", err)
	}

	v := &StudentView{Enrollments: make([]domain.Enrollment, 0, len(all))}
	for _, e := range all {
		if e.Status == domain.EnrollmentCancelled {
			continue
		}
		v.Enrollments = append(v.Enrollments, e)
		if e.PaymentStatus == domain.EnrollmentPaymentOverdue {
			v.OverdueEnrollments++
		}
	}

	v.OutstandingPayments = []domain.Payment{}
	for _, status := range []domain.PaymentStatus{domain.PaymentPending, domain.PaymentFailed} {
		payments, err := s.payments.List(ctx, repository.PaymentFilter{StudioID: studioID, StudentID: userID, Status: status})
		if err != nil {
			return nil, fmt.Errorf("student dashboard payments: %w", err)
		}
		v.OutstandingPayments = append(v.OutstandingPayments, payments...)
	}
	return v, nil
}
