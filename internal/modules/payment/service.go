package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"studiohub/internal/domain"
	"studiohub/internal/pkg/events"
	"studiohub/internal/pkg/stripe"
	"studiohub/internal/repository"
)

const (
	defaultCurrency    = "ils"
	reconcileBatchSize = 100
	reconcileMaxPerRun = 1000
)

var hundred = decimal.NewFromInt(100)

type Service struct {
	payments    paymentStore
	enrollments enrollmentReader
	processor   processor
	publisher   events.Publisher
	currency    string
	log         *zap.Logger
	now         func() time.Time
}

func NewService(
	payments paymentStore,
	enrollments enrollmentReader,
	processor processor,
	publisher events.Publisher,
	cfg Config,
	log *zap.Logger,
) *Service {
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	return &Service{
		payments:    payments,
		enrollments: enrollments,
		processor:   processor,
		publisher:   publisher,
		currency:    currency,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// MinorUnits converts a major-unit amount to the processor's integer minor
// units (agorot, cents), rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

/* ---------- INTENTS ---------- */

func (s *Service) CreateIntent(ctx context.Context, amount decimal.Decimal, currency, description string, metadata map[string]string) (*stripe.Intent, error) {
	if !amount.IsPositive() || MinorUnits(amount) <= 0 {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		currency = s.currency
	}

	intent, err := s.processor.CreateIntent(ctx, stripe.IntentParams{
		Amount:      MinorUnits(amount),
		Currency:    currency,
		Description: description,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intent, nil
}

func (s *Service) CreatePaymentRecord(ctx context.Context, rec PaymentRecord) (*domain.Payment, error) {
	method := rec.Method
	if method == "" {
		method = domain.PaymentMethodCard
	}
	currency := rec.Currency
	if currency == "" {
		currency = s.currency
	}

	p := &domain.Payment{
		StudioID:     rec.StudioID,
		EnrollmentID: rec.EnrollmentID,
		StudentID:    rec.StudentID,
		Amount:       rec.Amount.Round(2),
		Currency:     strings.ToUpper(currency),
		Method:       method,
		Status:       domain.PaymentPending,
		Description:  rec.Description,
	}
	if rec.IntentID != "" {
		id := rec.IntentID
		p.StripePaymentIntentID = &id
	}
	if len(rec.Metadata) > 0 {
		p.Metadata = datatypes.JSONMap{}
		for k, v := range rec.Metadata {
			p.Metadata[k] = v
		}
	}

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment record: %w", err)
	}
	return p, nil
}

// StartCardPayment creates a processor intent for the enrollment's class
// price and the PENDING payment row keyed by it.
func (s *Service) StartCardPayment(ctx context.Context, e *domain.Enrollment, class *domain.Class) (*domain.Payment, string, error) {
	metadata := map[string]string{
		"enrollment_id": strconv.FormatInt(e.ID, 10),
		"student_id":    strconv.FormatInt(e.StudentID, 10),
		"class_id":      strconv.FormatInt(class.ID, 10),
		"studio_id":     strconv.FormatInt(e.StudioID, 10),
	}
	description := "Enrollment in " + class.Name

	intent, err := s.CreateIntent(ctx, class.PriceILS, s.currency, description, metadata)
	if err != nil {
		return nil, "", err
	}

	p, err := s.CreatePaymentRecord(ctx, PaymentRecord{
		StudioID:     e.StudioID,
		EnrollmentID: e.ID,
		StudentID:    e.StudentID,
		Amount:       class.PriceILS,
		Method:       domain.PaymentMethodCard,
		IntentID:     intent.ID,
		Description:  description,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, "", err
	}

	s.log.Info("card payment started",
		zap.Int64("payment_id", p.ID),
		zap.Int64("enrollment_id", e.ID),
		zap.String("intent_id", intent.ID),
	)
	return p, intent.ClientSecret, nil
}

// CreateIntentForEnrollment starts a card payment for an existing unpaid
// enrollment, for example after an earlier attempt failed.
func (s *Service) CreateIntentForEnrollment(ctx context.Context, studioID int64, actor Actor, enrollmentID int64) (*IntentResult, error) {
	e, err := s.enrollments.Get(ctx, studioID, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if actor.isStudent() && e.StudentID != actor.UserID {
		return nil, ErrEnrollmentNotFound
	}
	if e.Status == domain.EnrollmentCancelled {
		return nil, ErrEnrollmentCancelled
	}
	if e.PaymentStatus == domain.EnrollmentPaymentPaid {
		return nil, ErrAlreadyPaid
	}
	if e.Class == nil {
		return nil, fmt.Errorf("enrollment %d has no class loaded", e.ID)
	}

	p, secret, err := s.StartCardPayment(ctx, e, e.Class)
	if err != nil {
		return nil, err
	}
	return &IntentResult{Payment: p, ClientSecret: secret}, nil
}

/* ---------- CONFIRMATION ---------- */

// ConfirmPayment asks the processor for the intent's state. Only a
// succeeded intent changes the payment; a cancelled or declined one marks
// it FAILED. Anything else leaves it PENDING.
func (s *Service) ConfirmPayment(ctx context.Context, studioID int64, actor Actor, intentID string) (*domain.Payment, error) {
	p, err := s.payments.GetByIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.StudioID != studioID || (actor.isStudent() && p.StudentID != actor.UserID) {
		return nil, ErrNotFound
	}

	intent, err := s.processor.GetIntent(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent: %w", err)
	}

	switch {
	case intent.Status == stripe.StatusSucceeded:
		if _, err := s.applySuccess(ctx, p); err != nil {
			return nil, err
		}
	case attemptFailed(intent):
		if _, err := s.applyFailure(ctx, p, failureReason(intent)); err != nil {
			return nil, err
		}
		return s.reload(ctx, p, ErrPaymentNotSucceeded)
	default:
		return p, ErrPaymentNotSucceeded
	}
	return s.reload(ctx, p, nil)
}

func (s *Service) reload(ctx context.Context, p *domain.Payment, result error) (*domain.Payment, error) {
	fresh, err := s.payments.Get(ctx, p.StudioID, p.ID)
	if err != nil {
		return nil, err
	}
	return fresh, result
}

/* ---------- WEBHOOKS ---------- */

// HandleWebhook verifies and dispatches a processor event. Unknown event
// types are acknowledged without action. A returned error other than
// ErrInvalidSignature makes the processor retry the delivery.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	evt, err := s.processor.ParseWebhook(payload, signatureHeader)
	if err != nil {
		if errors.Is(err, stripe.ErrInvalidSignature) {
			return ErrInvalidSignature
		}
		return fmt.Errorf("parse webhook: %w", err)
	}

	s.log.Info("webhook received", zap.String("event_id", evt.ID), zap.String("type", evt.Type))

	switch evt.Type {
	case stripe.EventIntentSucceeded:
		return s.HandlePaymentSuccess(ctx, evt.Intent)
	case stripe.EventIntentFailed:
		return s.HandlePaymentFailure(ctx, evt.Intent)
	case stripe.EventChargeRefunded:
		if !evt.FullyRefunded {
			s.log.Info("partial refund ignored",
				zap.String("intent_id", evt.RefundedIntentID),
				zap.Int64("amount_refunded", evt.AmountRefunded),
			)
			return nil
		}
		return s.HandleRefund(ctx, evt.RefundedIntentID)
	default:
		return nil
	}
}

func (s *Service) HandlePaymentSuccess(ctx context.Context, intent *stripe.Intent) error {
	p, err := s.paymentForIntent(ctx, intent)
	if err != nil || p == nil {
		return err
	}
	_, err = s.applySuccess(ctx, p)
	return err
}

func (s *Service) HandlePaymentFailure(ctx context.Context, intent *stripe.Intent) error {
	p, err := s.paymentForIntent(ctx, intent)
	if err != nil || p == nil {
		return err
	}
	_, err = s.applyFailure(ctx, p, failureReason(intent))
	return err
}

func (s *Service) HandleRefund(ctx context.Context, intentID string) error {
	if intentID == "" {
		return nil
	}
	p, err := s.payments.GetByIntentID(ctx, intentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("refund for unknown payment intent", zap.String("intent_id", intentID))
		return nil
	}
	if err != nil {
		return err
	}

	changed, err := s.payments.MarkRefunded(ctx, p)
	if err != nil {
		return fmt.Errorf("mark payment refunded: %w", err)
	}
	if changed {
		s.log.Info("payment refunded", zap.Int64("payment_id", p.ID), zap.Int64("enrollment_id", p.EnrollmentID))
		events.PublishSafe(ctx, s.publisher, s.log, events.PaymentRefunded, paymentPayload(p))
	}
	return nil
}

// paymentForIntent returns nil without error for intents that were not
// created by this system. An intent carrying our metadata whose row is not
// visible yet is an error so the delivery is retried.
func (s *Service) paymentForIntent(ctx context.Context, intent *stripe.Intent) (*domain.Payment, error) {
	if intent == nil || intent.ID == "" {
		return nil, nil
	}
	p, err := s.payments.GetByIntentID(ctx, intent.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if intent.Metadata["enrollment_id"] == "" {
			s.log.Warn("ignoring foreign payment intent", zap.String("intent_id", intent.ID))
			return nil, nil
		}
		return nil, fmt.Errorf("payment for intent %s: %w", intent.ID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) applySuccess(ctx context.Context, p *domain.Payment) (bool, error) {
	changed, err := s.payments.MarkSucceeded(ctx, p, s.now())
	if err != nil {
		return false, fmt.Errorf("mark payment succeeded: %w", err)
	}
	if changed {
		s.log.Info("payment succeeded", zap.Int64("payment_id", p.ID), zap.Int64("enrollment_id", p.EnrollmentID))
		events.PublishSafe(ctx, s.publisher, s.log, events.PaymentSucceeded, paymentPayload(p))
	}
	return changed, nil
}

func (s *Service) applyFailure(ctx context.Context, p *domain.Payment, reason string) (bool, error) {
	changed, err := s.payments.MarkFailed(ctx, p.ID, reason)
	if err != nil {
		return false, fmt.Errorf("mark payment failed: %w", err)
	}
	if changed {
		s.log.Info("payment failed", zap.Int64("payment_id", p.ID), zap.String("reason", reason))
		events.PublishSafe(ctx, s.publisher, s.log, events.PaymentFailed, paymentPayload(p))
	}
	return changed, nil
}

/* ---------- MANUAL & QUERIES ---------- */

// RecordManualPayment books a cash or transfer payment taken by the studio.
// It goes through the same guarded success transition as card payments.
func (s *Service) RecordManualPayment(ctx context.Context, studioID int64, req ManualPaymentRequest) (*domain.Payment, error) {
	if req.Method != domain.PaymentMethodCash && req.Method != domain.PaymentMethodTransfer {
		return nil, ErrInvalidMethod
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	e, err := s.enrollments.Get(ctx, studioID, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if e.Status == domain.EnrollmentCancelled {
		return nil, ErrEnrollmentCancelled
	}

	p, err := s.CreatePaymentRecord(ctx, PaymentRecord{
		StudioID:     studioID,
		EnrollmentID: e.ID,
		StudentID:    e.StudentID,
		Amount:       req.Amount,
		Method:       req.Method,
		Description:  strings.TrimSpace(req.Description),
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.applySuccess(ctx, p); err != nil {
		return nil, err
	}
	return s.payments.Get(ctx, studioID, p.ID)
}

func (s *Service) List(ctx context.Context, studioID int64, actor Actor, q ListQuery) ([]domain.Payment, error) {
	f := repository.PaymentFilter{
		StudioID:     studioID,
		StudentID:    q.StudentID,
		EnrollmentID: q.EnrollmentID,
	}
	if q.Status != "" {
		status, ok := domain.ParsePaymentStatus(q.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		f.Status = status
	}
	if actor.isStudent() {
		f.StudentID = actor.UserID
	}
	return s.payments.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, studioID int64, actor Actor, id int64) (*domain.Payment, error) {
	p, err := s.payments.Get(ctx, studioID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if actor.isStudent() && p.StudentID != actor.UserID {
		return nil, ErrNotFound
	}
	return p, nil
}

/* ---------- RECONCILIATION ---------- */

// ReconcilePending re-checks card payments left PENDING for longer than
// olderThan, covering lost webhooks and abandoned confirmations. Stale rows
// are walked newest first in pages of reconcileBatchSize, up to
// reconcileMaxPerRun rows per call.
func (s *Service) ReconcilePending(ctx context.Context, olderThan time.Duration) (*ReconcileReport, error) {
	before := s.now().Add(-olderThan)
	report := &ReconcileReport{}

	var cursor repository.StaleCursor
	for report.Checked < reconcileMaxPerRun {
		stale, err := s.payments.ListStalePending(ctx, before, cursor, reconcileBatchSize)
		if err != nil {
			return report, fmt.Errorf("list stale payments: %w", err)
		}

		for i := range stale {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			s.reconcileOne(ctx, &stale[i], report)
		}

		if len(stale) < reconcileBatchSize {
			break
		}
		cursor = cursor.Next(&stale[len(stale)-1])
	}

	if report.Checked > 0 {
		s.log.Info("payment reconciliation finished",
			zap.Int("checked", report.Checked),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
			zap.Int("errors", report.Errors),
		)
	}
	return report, nil
}

func (s *Service) reconcileOne(ctx context.Context, p *domain.Payment, report *ReconcileReport) {
	report.Checked++

	intent, err := s.processor.GetIntent(ctx, *p.StripePaymentIntentID)
	if err != nil {
		report.Errors++
		s.log.Error("reconcile: retrieve intent failed", zap.Int64("payment_id", p.ID), zap.Error(err))
		return
	}

	switch {
	case intent.Status == stripe.StatusSucceeded:
		changed, err := s.applySuccess(ctx, p)
		if err != nil {
			report.Errors++
			s.log.Error("reconcile: apply success failed", zap.Int64("payment_id", p.ID), zap.Error(err))
			return
		}
		if changed {
			report.Succeeded++
		}
	case attemptFailed(intent):
		changed, err := s.applyFailure(ctx, p, failureReason(intent))
		if err != nil {
			report.Errors++
			s.log.Error("reconcile: apply failure failed", zap.Int64("payment_id", p.ID), zap.Error(err))
			return
		}
		if changed {
			report.Failed++
		}
	}
}

// attemptFailed is true for cancelled intents and for intents sent back to
// requires_payment_method after a declined attempt. A fresh intent also
// reports requires_payment_method but has no failure message.
func attemptFailed(intent *stripe.Intent) bool {
	switch intent.Status {
	case stripe.StatusCanceled:
		return true
	case stripe.StatusRequiresPaymentMethod:
		return intent.FailureMessage != ""
	}
	return false
}

func failureReason(intent *stripe.Intent) string {
	if intent == nil {
		return "payment failed"
	}
	if intent.FailureMessage != "" {
		return intent.FailureMessage
	}
	return "payment intent " + intent.Status
}

func paymentPayload(p *domain.Payment) map[string]any {
	return map[string]any{
		"payment_id":    p.ID,
		"studio_id":     p.StudioID,
		"enrollment_id": p.EnrollmentID,
		"student_id":    p.StudentID,
		"amount":        p.Amount.StringFixed(2),
		"currency":      p.Currency,
		"method":        p.Method,
	}
}
