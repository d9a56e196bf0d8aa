package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiohub/internal/domain"
	"studiohub/internal/pkg/events"
	"studiohub/internal/repository"
)

type Service struct {
	enrollments enrollmentStore
	classes     classReader
	members     memberReader
	payments    cardPayments
	publisher   events.Publisher
	log         *zap.Logger
	now         func() time.Time
}

func NewService(
	enrollments enrollmentStore,
	classes classReader,
	members memberReader,
	payments cardPayments,
	publisher events.Publisher,
	log *zap.Logger,
) *Service {
	return &Service{
		enrollments: enrollments,
		classes:     classes,
		members:     members,
		payments:    payments,
		publisher:   publisher,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Enroll takes a seat in the class for the student. The pre-checks give
// precise errors in the common case; the seat itself is taken by a
// conditional update in the same transaction as the insert.
func (s *Service) Enroll(ctx context.Context, studioID int64, req EnrollRequest) (*EnrollResult, error) {
	e, class, err := s.enroll(ctx, studioID, req)
	if err != nil {
		return nil, err
	}
	return &EnrollResult{Enrollment: e, ClassName: class.Name, Price: class.PriceILS}, nil
}

func (s *Service) enroll(ctx context.Context, studioID int64, req EnrollRequest) (*domain.Enrollment, *domain.Class, error) {
	status := req.Status
	if status == "" {
		status = domain.EnrollmentPending
	}
	if !status.Valid() || status == domain.EnrollmentCancelled {
		return nil, nil, ErrInvalidStatus
	}
	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = domain.EnrollmentPaymentPending
	}
	if !paymentStatus.Valid() {
		return nil, nil, ErrInvalidStatus
	}

	class, err := s.classes.Get(ctx, studioID, req.ClassID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrClassNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load class: %w", err)
	}
	if !class.IsActive {
		return nil, nil, ErrClassInactive
	}

	if _, err := s.members.GetInStudio(ctx, studioID, req.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrStudentNotFound
		}
		return nil, nil, fmt.Errorf("load student: %w", err)
	}

	if class.IsFull() {
		return nil, nil, ErrCapacityExceeded
	}
	exists, err := s.enrollments.ExistsActive(ctx, req.StudentID, class.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check existing enrollment: %w", err)
	}
	if exists {
		return nil, nil, ErrDuplicateEnrollment
	}

	e := &domain.Enrollment{
		StudioID:      studioID,
		StudentID:     req.StudentID,
		ClassID:       class.ID,
		Status:        status,
		PaymentStatus: paymentStatus,
		EnrolledAt:    s.now(),
	}
	switch err := s.enrollments.CreateWithSeat(ctx, e); {
	case errors.Is(err, repository.ErrCapacityExceeded):
		return nil, nil, ErrCapacityExceeded
	case errors.Is(err, repository.ErrDuplicateEnrollment):
		return nil, nil, ErrDuplicateEnrollment
	case err != nil:
		return nil, nil, fmt.Errorf("create enrollment: %w", err)
	}

	s.log.Info("enrollment created",
		zap.Int64("enrollment_id", e.ID),
		zap.Int64("class_id", class.ID),
		zap.Int64("student_id", req.StudentID),
	)
	events.PublishSafe(ctx, s.publisher, s.log, events.EnrollmentCreated, map[string]any{
		"enrollment_id": e.ID,
		"studio_id":     studioID,
		"class_id":      class.ID,
		"student_id":    req.StudentID,
		"status":        e.Status,
	})

	return e, class, nil
}

// Checkout enrolls and starts payment. Free classes are confirmed at once
// without contacting the processor. If the card payment cannot be started
// the enrollment is cancelled again so the seat is not held.
func (s *Service) Checkout(ctx context.Context, studioID int64, actor Actor, req CheckoutRequest) (*CheckoutResult, error) {
	studentID := actor.UserID
	if !actor.isStudent() {
		if req.StudentID <= 0 {
			return nil, ErrStudentNotFound
		}
		studentID = req.StudentID
	}

	e, class, err := s.enroll(ctx, studioID, EnrollRequest{
		StudentID:     studentID,
		ClassID:       req.ClassID,
		Status:        domain.EnrollmentPending,
		PaymentStatus: domain.EnrollmentPaymentPending,
	})
	if err != nil {
		return nil, err
	}
	res := &CheckoutResult{EnrollResult: EnrollResult{Enrollment: e, ClassName: class.Name, Price: class.PriceILS}}

	if class.IsFree() {
		if err := s.enrollments.SetStates(ctx, e.ID, domain.EnrollmentActive, domain.EnrollmentPaymentPaid); err != nil {
			return nil, fmt.Errorf("confirm free enrollment: %w", err)
		}
		e.Status = domain.EnrollmentActive
		e.PaymentStatus = domain.EnrollmentPaymentPaid
		return res, nil
	}

	payment, secret, err := s.payments.StartCardPayment(ctx, e, class)
	if err != nil {
		s.log.Error("payment setup failed, releasing seat", zap.Int64("enrollment_id", e.ID), zap.Error(err))
		if cerr := s.enrollments.CancelWithRelease(ctx, e, s.now()); cerr != nil && !errors.Is(cerr, repository.ErrAlreadyCancelled) {
			s.log.Error("compensating cancel failed", zap.Int64("enrollment_id", e.ID), zap.Error(cerr))
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentSetup, err)
	}

	res.RequiresPayment = true
	res.Payment = payment
	res.ClientSecret = secret
	return res, nil
}

func (s *Service) Get(ctx context.Context, studioID int64, actor Actor, id int64) (*domain.Enrollment, error) {
	e, err := s.enrollments.Get(ctx, studioID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if actor.isStudent() && e.StudentID != actor.UserID {
		return nil, ErrNotFound
	}
	return e, nil
}

// modifiable loads the enrollment for a state change. Instructors may only
// change enrollments in their own classes.
func (s *Service) modifiable(ctx context.Context, studioID int64, actor Actor, id int64) (*domain.Enrollment, error) {
	e, err := s.Get(ctx, studioID, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleInstructor && (e.Class == nil || e.Class.InstructorID != actor.UserID) {
		return nil, ErrForbidden
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, studioID int64, actor Actor, q ListQuery) ([]domain.Enrollment, error) {
	f := repository.EnrollmentFilter{
		StudioID:  studioID,
		StudentID: q.StudentID,
		ClassID:   q.ClassID,
		Status:    q.Status,
	}
	if actor.isStudent() {
		f.StudentID = actor.UserID
	}
	return s.enrollments.List(ctx, f)
}

// Cancel releases the seat. Students may only cancel their own enrollments.
func (s *Service) Cancel(ctx context.Context, studioID int64, actor Actor, id int64) (*domain.Enrollment, error) {
	e, err := s.modifiable(ctx, studioID, actor, id)
	if err != nil {
		return nil, err
	}
	if e.Status == domain.EnrollmentCancelled || e.Status == domain.EnrollmentCompleted {
		return nil, ErrInvalidStatusTransition
	}

	at := s.now()
	switch err := s.enrollments.CancelWithRelease(ctx, e, at); {
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return nil, ErrInvalidStatusTransition
	case err != nil:
		return nil, fmt.Errorf("cancel enrollment: %w", err)
	}
	e.Status = domain.EnrollmentCancelled
	e.CancelledAt = &at

	s.log.Info("enrollment cancelled", zap.Int64("enrollment_id", e.ID), zap.Int64("by", actor.UserID))
	events.PublishSafe(ctx, s.publisher, s.log, events.EnrollmentCancelled, map[string]any{
		"enrollment_id": e.ID,
		"studio_id":     studioID,
		"class_id":      e.ClassID,
		"student_id":    e.StudentID,
	})
	return e, nil
}

// UpdateStatus applies PENDING→ACTIVE, ACTIVE→COMPLETED, or a cancellation
// of a non-terminal enrollment. Anything else is rejected.
func (s *Service) UpdateStatus(ctx context.Context, studioID int64, actor Actor, id int64, to domain.EnrollmentStatus) (*domain.Enrollment, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}
	if to == domain.EnrollmentCancelled {
		return s.Cancel(ctx, studioID, actor, id)
	}

	e, err := s.modifiable(ctx, studioID, actor, id)
	if err != nil {
		return nil, err
	}
	if !allowedTransition(e.Status, to) {
		return nil, ErrInvalidStatusTransition
	}

	ok, err := s.enrollments.TransitionStatus(ctx, e.ID, e.Status, to)
	if err != nil {
		return nil, fmt.Errorf("update enrollment status: %w", err)
	}
	if !ok {
		return nil, ErrInvalidStatusTransition
	}
	e.Status = to
	return e, nil
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, studioID int64, id int64, status domain.EnrollmentPaymentStatus) (*domain.Enrollment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.enrollments.UpdatePaymentStatus(ctx, studioID, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	return s.enrollments.Get(ctx, studioID, id)
}

// MarkOverdue flags enrollments whose payment is still pending after
// olderThan.
func (s *Service) MarkOverdue(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.enrollments.MarkOverdue(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("mark overdue enrollments: %w", err)
	}
	if n > 0 {
		s.log.Info("enrollments marked overdue", zap.Int64("count", n))
	}
	return n, nil
}

func allowedTransition(from, to domain.EnrollmentStatus) bool {
	switch {
	case from == domain.EnrollmentPending && to == domain.EnrollmentActive:
		return true
	case from == domain.EnrollmentActive && to == domain.EnrollmentCompleted:
		return true
	}
	return false
}
