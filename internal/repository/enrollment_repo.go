package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"studiohub/internal/database"
	"studiohub/internal/domain"
)

const activeEnrollmentIndex = "idx_enrollments_active_student_class"

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

type EnrollmentFilter struct {
	StudioID     int64
	StudentID    int64
	ClassID      int64
	InstructorID int64
	Status       domain.EnrollmentStatus
}

// CreateWithSeat inserts the enrollment and takes one seat in the class in a
// single transaction. The seat is taken with a conditional increment so the
// counter can never pass max_capacity, whatever the interleaving; when no
// seat is left the insert is rolled back.
func (r *EnrollmentRepository) CreateWithSeat(ctx context.Context, e *domain.Enrollment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(e).Error; err != nil {
			if database.IsUniqueViolation(err, activeEnrollmentIndex) {
				return ErrDuplicateEnrollment
			}
			return err
		}

		res := tx.Model(&domain.Class{}).
			Where("id = ? AND current_enrollment < max_capacity", e.ClassID).
			Updates(map[string]any{
				"current_enrollment": gorm.Expr("current_enrollment + 1"),
				"updated_at":         time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCapacityExceeded
		}
		return nil
	})
}

// CancelWithRelease cancels the enrollment and gives its seat back. The
// decrement is guarded so the counter never goes negative.
func (r *EnrollmentRepository) CancelWithRelease(ctx context.Context, e *domain.Enrollment, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Enrollment{}).
			Where("id = ? AND status <> ?", e.ID, domain.EnrollmentCancelled).
			Updates(map[string]any{
				"status":       domain.EnrollmentCancelled,
				"cancelled_at": at,
				"updated_at":   at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyCancelled
		}

		return tx.Model(&domain.Class{}).
			Where("id = ? AND current_enrollment > 0", e.ClassID).
			Updates(map[string]any{
				"current_enrollment": gorm.Expr("current_enrollment - 1"),
				"updated_at":         at,
			}).Error
	})
}

func (r *EnrollmentRepository) Get(ctx context.Context, studioID, id int64) (*domain.Enrollment, error) {
	var e domain.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Class").
		Where("id = ? AND studio_id = ?", id, studioID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, id int64) (*domain.Enrollment, error) {
	var e domain.Enrollment
	if err := r.db.WithContext(ctx).Preload("Class").First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, classID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("student_id = ? AND class_id = ? AND status <> ?", studentID, classID, domain.EnrollmentCancelled).
		Count(&n).Error
	return n > 0, err
}

func (r *EnrollmentRepository) List(ctx context.Context, f EnrollmentFilter) ([]domain.Enrollment, error) {
	q := r.db.WithContext(ctx).Preload("Class").Where("enrollments.studio_id = ?", f.StudioID)
	if f.StudentID > 0 {
		q = q.Where("enrollments.student_id = ?", f.StudentID)
	}
	if f.ClassID > 0 {
		q = q.Where("enrollments.class_id = ?", f.ClassID)
	}
	if f.Status != "" {
		q = q.Where("enrollments.status = ?", f.Status)
	}
	if f.InstructorID > 0 {
		q = q.Where("enrollments.class_id IN (?)",
			r.db.Model(&domain.Class{}).Select("id").Where("instructor_id = ?", f.InstructorID))
	}

	var out []domain.Enrollment
	err := q.Order("enrollments.enrolled_at DESC, enrollments.id DESC").Find(&out).Error
	return out, err
}

// TransitionStatus moves the enrollment from one status to another and
// reports whether the row was in the expected state.
func (r *EnrollmentRepository) TransitionStatus(ctx context.Context, id int64, from, to domain.EnrollmentStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetStates writes status and payment status directly. Used for free
// classes that are confirmed at creation.
func (r *EnrollmentRepository) SetStates(ctx context.Context, id int64, status domain.EnrollmentStatus, payment domain.EnrollmentPaymentStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("id = ? AND status <> ?", id, domain.EnrollmentCancelled).
		Updates(map[string]any{
			"status":         status,
			"payment_status": payment,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *EnrollmentRepository) UpdatePaymentStatus(ctx context.Context, studioID, id int64, status domain.EnrollmentPaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("id = ? AND studio_id = ?", id, studioID).
		Updates(map[string]any{"payment_status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkOverdue flags unpaid, non-cancelled enrollments created before the
// threshold and returns how many rows changed.
func (r *EnrollmentRepository) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("payment_status = ? AND status <> ? AND enrolled_at < ?",
			domain.EnrollmentPaymentPending, domain.EnrollmentCancelled, before).
		Updates(map[string]any{
			"payment_status": domain.EnrollmentPaymentOverdue,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *EnrollmentRepository) CountByStatus(ctx context.Context, studioID int64, status domain.EnrollmentStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("studio_id = ? AND status = ?", studioID, status).
		Count(&n).Error
	return n, err
}

// CountNonCancelled counts the seats held in a class. It must always equal
// the class's current_enrollment.
func (r *EnrollmentRepository) CountNonCancelled(ctx context.Context, classID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("class_id = ? AND status <> ?", classID, domain.EnrollmentCancelled).
		Count(&n).Error
	return n, err
}
