package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"studiohub/internal/domain"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type PaymentFilter struct {
	StudioID     int64
	StudentID    int64
	EnrollmentID int64
	Status       domain.PaymentStatus
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) Get(ctx context.Context, studioID, id int64) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("id = ? AND studio_id = ?", id, studioID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("stripe_payment_intent_id = ?", intentID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) List(ctx context.Context, f PaymentFilter) ([]domain.Payment, error) {
	q := r.db.WithContext(ctx).Where("studio_id = ?", f.StudioID)
	if f.StudentID > 0 {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.EnrollmentID > 0 {
		q = q.Where("enrollment_id = ?", f.EnrollmentID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []domain.Payment
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

// MarkSucceeded moves a PENDING or FAILED payment to SUCCEEDED and confirms
// its enrollment, all in one transaction. Both updates are conditional, so
// repeated or concurrent calls (client confirmation racing the webhook)
// change state exactly once; changed reports whether this call did it.
func (r *PaymentRepository) MarkSucceeded(ctx context.Context, p *domain.Payment, paidAt time.Time) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Payment{}).
			Where("id = ? AND status IN ?", p.ID, []domain.PaymentStatus{domain.PaymentPending, domain.PaymentFailed}).
			Updates(map[string]any{
				"status":         domain.PaymentSucceeded,
				"paid_at":        paidAt,
				"failure_reason": "",
				"updated_at":     paidAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true

		if err := tx.Model(&domain.Enrollment{}).
			Where("id = ? AND status = ?", p.EnrollmentID, domain.EnrollmentPending).
			Updates(map[string]any{"status": domain.EnrollmentActive, "updated_at": paidAt}).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Enrollment{}).
			Where("id = ? AND status <> ? AND payment_status <> ?", p.EnrollmentID, domain.EnrollmentCancelled, domain.EnrollmentPaymentPaid).
			Updates(map[string]any{"payment_status": domain.EnrollmentPaymentPaid, "updated_at": paidAt}).Error
	})
	return changed, err
}

// MarkFailed records a failed attempt on a PENDING payment.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id int64, reason string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentPending).
		Updates(map[string]any{
			"status":         domain.PaymentFailed,
			"failure_reason": reason,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkRefunded moves a SUCCEEDED payment to REFUNDED and puts the enrollment
// back to an unpaid state.
func (r *PaymentRepository) MarkRefunded(ctx context.Context, p *domain.Payment) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&domain.Payment{}).
			Where("id = ? AND status = ?", p.ID, domain.PaymentSucceeded).
			Updates(map[string]any{"status": domain.PaymentRefunded, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true

		return tx.Model(&domain.Enrollment{}).
			Where("id = ? AND payment_status = ?", p.EnrollmentID, domain.EnrollmentPaymentPaid).
			Updates(map[string]any{"payment_status": domain.EnrollmentPaymentPending, "updated_at": now}).Error
	})
	return changed, err
}

// StaleCursor is the position after the last row of a ListStalePending
// page. The zero value starts at the newest stale payment.
type StaleCursor struct {
	CreatedAt time.Time
	ID        int64
}

// Next returns the cursor that continues after p.
func (c StaleCursor) Next(p *domain.Payment) StaleCursor {
	return StaleCursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

// ListStalePending returns processor-backed payments still PENDING that
// were created before the threshold, newest first, strictly after cursor.
func (r *PaymentRepository) ListStalePending(ctx context.Context, before time.Time, cursor StaleCursor, limit int) ([]domain.Payment, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND stripe_payment_intent_id IS NOT NULL AND created_at < ?", domain.PaymentPending, before)
	if cursor.ID > 0 {
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var out []domain.Payment
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *PaymentRepository) CountByStatus(ctx context.Context, f PaymentFilter) (int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Payment{}).Where("studio_id = ? AND status = ?", f.StudioID, f.Status)
	if f.StudentID > 0 {
		q = q.Where("student_id = ?", f.StudentID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// SumSucceeded returns the studio revenue: the sum of SUCCEEDED amounts.
func (r *PaymentRepository) SumSucceeded(ctx context.Context, studioID int64) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("studio_id = ? AND status = ?", studioID, domain.PaymentSucceeded).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}
