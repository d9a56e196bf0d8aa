package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiohub/internal/database/dbtest"
	"studiohub/internal/domain"
	"studiohub/internal/pkg/events"
	"studiohub/internal/pkg/stripe"
	"studiohub/internal/repository"
)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) CreateIntent(ctx context.Context, p stripe.IntentParams) (*stripe.Intent, error) {
	args := m.Called(ctx, p)
	intent, _ := args.Get(0).(*stripe.Intent)
	return intent, args.Error(1)
}

func (m *mockProcessor) GetIntent(ctx context.Context, id string) (*stripe.Intent, error) {
	args := m.Called(ctx, id)
	intent, _ := args.Get(0).(*stripe.Intent)
	return intent, args.Error(1)
}

func (m *mockProcessor) ParseWebhook(payload []byte, header string) (*stripe.Event, error) {
	args := m.Called(payload, header)
	evt, _ := args.Get(0).(*stripe.Event)
	return evt, args.Error(1)
}

const studentID = int64(100)

type fixture struct {
	db        *gorm.DB
	svc       *Service
	processor *mockProcessor
	events    *events.Memory
	studioID  int64
	class     *domain.Class
	student   Actor
	admin     Actor
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	f := &fixture{
		db:        db,
		processor: &mockProcessor{},
		events:    events.NewMemory(),
		student:   Actor{UserID: studentID, Role: domain.RoleStudent},
		admin:     Actor{UserID: 1, Role: domain.RoleAdmin},
	}

	studio := &domain.Studio{Name: "Main", SerialNumber: "MAIN0001", AdminID: 1}
	require.NoError(t, db.Create(studio).Error)
	f.studioID = studio.ID

	users := []domain.User{
		{ID: 1, Email: "admin@test", FullName: "Admin", Role: domain.RoleAdmin, StudioID: &f.studioID},
		{ID: studentID, Email: "student@test", FullName: "Student", Role: domain.RoleStudent, StudioID: &f.studioID},
		{ID: 101, Email: "other@test", FullName: "Other", Role: domain.RoleStudent, StudioID: &f.studioID},
		{ID: 102, Email: "third@test", FullName: "Third", Role: domain.RoleStudent, StudioID: &f.studioID},
		{ID: 103, Email: "fourth@test", FullName: "Fourth", Role: domain.RoleStudent, StudioID: &f.studioID},
	}
	require.NoError(t, db.Create(&users).Error)

	f.class = &domain.Class{
		StudioID:     f.studioID,
		InstructorID: 1,
		Name:         "Yoga",
		DayOfWeek:    2,
		StartTime:    "10:00",
		EndTime:      "11:00",
		MaxCapacity:  10,
		PriceILS:     decimal.RequireFromString("45.50"),
		IsActive:     true,
	}
	require.NoError(t, db.Create(f.class).Error)

	f.svc = NewService(
		repository.NewPaymentRepository(db),
		repository.NewEnrollmentRepository(db),
		f.processor,
		f.events,
		Config{Currency: "ils"},
		zap.NewNop(),
	)
	return f
}

func (f *fixture) enrollment(t *testing.T, student int64) *domain.Enrollment {
	t.Helper()
	e := &domain.Enrollment{
		StudioID:      f.studioID,
		StudentID:     student,
		ClassID:       f.class.ID,
		Status:        domain.EnrollmentPending,
		PaymentStatus: domain.EnrollmentPaymentPending,
		EnrolledAt:    time.Now().UTC(),
	}
	require.NoError(t, repository.NewEnrollmentRepository(f.db).CreateWithSeat(context.Background(), e))
	return e
}

// started creates a PENDING card payment for a new enrollment of the
// default student.
func (f *fixture) started(t *testing.T, intentID string) (*domain.Enrollment, *domain.Payment) {
	t.Helper()
	return f.startedFor(t, intentID, studentID)
}

func (f *fixture) startedFor(t *testing.T, intentID string, student int64) (*domain.Enrollment, *domain.Payment) {
	t.Helper()
	e := f.enrollment(t, student)
	f.processor.On("CreateIntent", mock.Anything, mock.MatchedBy(func(p stripe.IntentParams) bool {
		return p.Metadata["enrollment_id"] != ""
	})).Return(&stripe.Intent{ID: intentID, ClientSecret: intentID + "_secret", Status: stripe.StatusRequiresPaymentMethod}, nil).Once()

	p, secret, err := f.svc.StartCardPayment(context.Background(), e, f.class)
	require.NoError(t, err)
	require.Equal(t, intentID+"_secret", secret)
	return e, p
}

func (f *fixture) reload(t *testing.T, e *domain.Enrollment, p *domain.Payment) (*domain.Enrollment, *domain.Payment) {
	t.Helper()
	var fe domain.Enrollment
	require.NoError(t, f.db.First(&fe, e.ID).Error)
	var fp domain.Payment
	require.NoError(t, f.db.First(&fp, p.ID).Error)
	return &fe, &fp
}

func webhook(typ string, intent *stripe.Intent) *stripe.Event {
	return &stripe.Event{ID: "evt_" + typ, Type: typ, Intent: intent}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(4550), MinorUnits(decimal.RequireFromString("45.50")))
	assert.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1), MinorUnits(decimal.RequireFromString("0.005")))
	assert.Equal(t, int64(10000), MinorUnits(decimal.NewFromInt(100)))
}

func TestCreateIntent_RejectsNonPositiveAmount(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreateIntent(context.Background(), decimal.Zero, "", "free", nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.svc.CreateIntent(context.Background(), decimal.NewFromInt(-5), "", "neg", nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	f.processor.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestStartCardPayment_CreatesPendingRecord(t *testing.T) {
	f := setup(t)
	e := f.enrollment(t, studentID)

	f.processor.On("CreateIntent", mock.Anything, mock.MatchedBy(func(p stripe.IntentParams) bool {
		return p.Amount == 4550 && p.Currency == "ils" && p.Metadata["class_id"] != "" && p.Metadata["student_id"] == "100"
	})).Return(&stripe.Intent{ID: "pi_1", ClientSecret: "sec"}, nil).Once()

	p, secret, err := f.svc.StartCardPayment(context.Background(), e, f.class)
	require.NoError(t, err)
	assert.Equal(t, "sec", secret)
	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.Equal(t, "ILS", p.Currency)
	require.NotNil(t, p.StripePaymentIntentID)
	assert.Equal(t, "pi_1", *p.StripePaymentIntentID)
	assert.Equal(t, "100", p.Metadata["student_id"])
	f.processor.AssertExpectations(t)
}

func TestConfirmThenWebhook_ChangesStateOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, p := f.started(t, "pi_a")

	succeeded := &stripe.Intent{ID: "pi_a", Status: stripe.StatusSucceeded, Metadata: map[string]string{"enrollment_id": "1"}}
	f.processor.On("GetIntent", mock.Anything, "pi_a").Return(succeeded, nil)
	f.processor.On("ParseWebhook", mock.Anything, "sig").Return(webhook(stripe.EventIntentSucceeded, succeeded), nil)

	confirmed, err := f.svc.ConfirmPayment(ctx, f.studioID, f.student, "pi_a")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, confirmed.Status)
	require.NotNil(t, confirmed.PaidAt)
	paidAt := *confirmed.PaidAt

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	fe, fp := f.reload(t, e, p)
	assert.Equal(t, domain.PaymentSucceeded, fp.Status)
	assert.True(t, fp.PaidAt.Equal(paidAt))
	assert.Equal(t, domain.EnrollmentActive, fe.Status)
	assert.Equal(t, domain.EnrollmentPaymentPaid, fe.PaymentStatus)
	assert.Equal(t, 1, f.events.Count(events.PaymentSucceeded))
}

func TestWebhookThenConfirm_ChangesStateOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, p := f.started(t, "pi_b")

	succeeded := &stripe.Intent{ID: "pi_b", Status: stripe.StatusSucceeded, Metadata: map[string]string{"enrollment_id": "1"}}
	f.processor.On("ParseWebhook", mock.Anything, "sig").Return(webhook(stripe.EventIntentSucceeded, succeeded), nil)
	f.processor.On("GetIntent", mock.Anything, "pi_b").Return(succeeded, nil)

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	confirmed, err := f.svc.ConfirmPayment(ctx, f.studioID, f.student, "pi_b")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, confirmed.Status)

	fe, _ := f.reload(t, e, p)
	assert.Equal(t, domain.EnrollmentActive, fe.Status)
	assert.Equal(t, 1, f.events.Count(events.PaymentSucceeded))
}

func TestConfirm_NotYetSucceeded(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, p := f.started(t, "pi_c")

	f.processor.On("GetIntent", mock.Anything, "pi_c").
		Return(&stripe.Intent{ID: "pi_c", Status: stripe.StatusProcessing}, nil).Once()

	got, err := f.svc.ConfirmPayment(ctx, f.studioID, f.student, "pi_c")
	assert.ErrorIs(t, err, ErrPaymentNotSucceeded)
	require.NotNil(t, got)
	assert.Equal(t, domain.PaymentPending, got.Status)

	fe, _ := f.reload(t, e, p)
	assert.Equal(t, domain.EnrollmentPending, fe.Status)
}

func TestConfirm_DeclinedThenSucceeded(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, p := f.started(t, "pi_d")

	f.processor.On("GetIntent", mock.Anything, "pi_d").Return(&stripe.Intent{
		ID:             "pi_d",
		Status:         stripe.StatusRequiresPaymentMethod,
		FailureMessage: "card_declined",
	}, nil).Once()

	got, err := f.svc.ConfirmPayment(ctx, f.studioID, f.student, "pi_d")
	assert.ErrorIs(t, err, ErrPaymentNotSucceeded)
	require.NotNil(t, got)
	assert.Equal(t, domain.PaymentFailed, got.Status)
	assert.Equal(t, "card_declined", got.FailureReason)
	assert.Equal(t, 1, f.events.Count(events.PaymentFailed))

	// A second card attempt on the same intent succeeds.
	succeeded := &stripe.Intent{ID: "pi_d", Status: stripe.StatusSucceeded, Metadata: map[string]string{"enrollment_id": "1"}}
	f.processor.On("ParseWebhook", mock.Anything, "sig").Return(webhook(stripe.EventIntentSucceeded, succeeded), nil)
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	fe, fp := f.reload(t, e, p)
	assert.Equal(t, domain.PaymentSucceeded, fp.Status)
	assert.Empty(t, fp.FailureReason)
	assert.Equal(t, domain.EnrollmentActive, fe.Status)
}

func TestConfirm_OtherStudentCannotSee(t *testing.T) {
	f := setup(t)
	f.started(t, "pi_e")

	_, err := f.svc.ConfirmPayment(context.Background(), f.studioID, Actor{UserID: 101, Role: domain.RoleStudent}, "pi_e")
	assert.ErrorIs(t, err, ErrNotFound)
	f.processor.AssertNotCalled(t, "GetIntent", mock.Anything, mock.Anything)
}

func TestWebhook_InvalidSignatureChangesNothing(t *testing.T) {
	f := setup(t)
	e, p := f.started(t, "pi_f")

	f.processor.On("ParseWebhook", mock.Anything, "forged").Return(nil, stripe.ErrInvalidSignature).Once()

	err := f.svc.HandleWebhook(context.Background(), []byte(`{"type":"payment_intent.succeeded"}`), "forged")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	fe, fp := f.reload(t, e, p)
	assert.Equal(t, domain.PaymentPending, fp.Status)
	assert.Equal(t, domain.EnrollmentPending, fe.Status)
}

func TestWebhook_UnknownAndForeignEventsAcknowledged(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.processor.On("ParseWebhook", mock.Anything, "a").Return(&stripe.Event{ID: "evt_1", Type: "customer.created"}, nil).Once()
	assert.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "a"))

	foreign := &stripe.Intent{ID: "pi_foreign", Status: stripe.StatusSucceeded}
	f.processor.On("ParseWebhook", mock.Anything, "b").Return(webhook(stripe.EventIntentSucceeded, foreign), nil).Once()
	assert.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "b"))

	ours := &stripe.Intent{ID: "pi_not_yet_stored", Status: stripe.StatusSucceeded, Metadata: map[string]string{"enrollment_id": "9"}}
	f.processor.On("ParseWebhook", mock.Anything, "c").Return(webhook(stripe.EventIntentSucceeded, ours), nil).Once()
	assert.ErrorIs(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "c"), ErrNotFound)
}

func TestWebhook_SuccessKeepsCancelledEnrollmentCancelled(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, p := f.started(t, "pi_g")
	require.NoError(t, repository.NewEnrollmentRepository(f.db).CancelWithRelease(ctx, e, time.Now().UTC()))

	succeeded := &stripe.Intent{ID: "pi_g", Status: stripe.StatusSucceeded, Metadata: map[string]string{"enrollment_id": "1"}}
	f.processor.On("ParseWebhook", mock.Anything, "sig").Return(webhook(stripe.EventIntentSucceeded, succeeded), nil)
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	fe, fp := f.reload(t, e, p)
	assert.Equal(t, domain.PaymentSucceeded, fp.Status)
	assert.Equal(t, domain.EnrollmentCancelled, fe.Status)
}

func TestWebhook_Refund(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, p := f.started(t, "pi_h")

	succeeded := &stripe.Intent{ID: "pi_h", Status: stripe.StatusSucceeded, Metadata: map[string]string{"enrollment_id": "1"}}
	f.processor.On("ParseWebhook", mock.Anything, "paid").Return(webhook(stripe.EventIntentSucceeded, succeeded), nil)
	f.processor.On("ParseWebhook", mock.Anything, "partial").
		Return(&stripe.Event{ID: "evt_p", Type: stripe.EventChargeRefunded, RefundedIntentID: "pi_h", AmountRefunded: 1000}, nil)
	f.processor.On("ParseWebhook", mock.Anything, "refund").
		Return(&stripe.Event{ID: "evt_r", Type: stripe.EventChargeRefunded, RefundedIntentID: "pi_h", FullyRefunded: true, AmountRefunded: 4550}, nil)

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "paid"))
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "partial"))

	fe, fp := f.reload(t, e, p)
	assert.Equal(t, domain.PaymentSucceeded, fp.Status)
	assert.Equal(t, domain.EnrollmentPaymentPaid, fe.PaymentStatus)
	assert.Zero(t, f.events.Count(events.PaymentRefunded))

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "refund"))
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "refund"))

	fe, fp = f.reload(t, e, p)
	assert.Equal(t, domain.PaymentRefunded, fp.Status)
	assert.Equal(t, domain.EnrollmentPaymentPending, fe.PaymentStatus)
	assert.Equal(t, 1, f.events.Count(events.PaymentRefunded))
}

func TestRecordManualPayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := f.enrollment(t, studentID)

	_, err := f.svc.RecordManualPayment(ctx, f.studioID, ManualPaymentRequest{EnrollmentID: e.ID, Amount: decimal.NewFromInt(10), Method: domain.PaymentMethodCard})
	assert.ErrorIs(t, err, ErrInvalidMethod)

	_, err = f.svc.RecordManualPayment(ctx, f.studioID, ManualPaymentRequest{EnrollmentID: e.ID, Method: domain.PaymentMethodCash})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	p, err := f.svc.RecordManualPayment(ctx, f.studioID, ManualPaymentRequest{
		EnrollmentID: e.ID,
		Amount:       decimal.RequireFromString("45.50"),
		Method:       domain.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, p.Status)
	assert.Nil(t, p.StripePaymentIntentID)

	fe, _ := f.reload(t, e, p)
	assert.Equal(t, domain.EnrollmentActive, fe.Status)
	assert.Equal(t, domain.EnrollmentPaymentPaid, fe.PaymentStatus)
}

func TestList_LegacyStatusFilterAndOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var theirs *domain.Payment
	for _, student := range []int64{studentID, 101} {
		e := f.enrollment(t, student)
		p, err := f.svc.RecordManualPayment(ctx, f.studioID, ManualPaymentRequest{EnrollmentID: e.ID, Amount: decimal.NewFromInt(20), Method: domain.PaymentMethodTransfer})
		require.NoError(t, err)
		if student == 101 {
			theirs = p
		}
	}

	all, err := f.svc.List(ctx, f.studioID, f.admin, ListQuery{Status: "completed"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.svc.List(ctx, f.studioID, f.student, ListQuery{Status: "SUCCEEDED"})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, studentID, own[0].StudentID)

	_, err = f.svc.Get(ctx, f.studioID, f.student, theirs.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.List(ctx, f.studioID, f.admin, ListQuery{Status: "PAID_OUT"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestReconcilePending(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, paid := f.startedFor(t, "pi_ok", 100)
	_, declined := f.startedFor(t, "pi_bad", 101)
	_, waiting := f.startedFor(t, "pi_wait", 102)
	_, broken := f.startedFor(t, "pi_err", 103)
	old := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, f.db.Model(&domain.Payment{}).Where("id IN ?", []int64{paid.ID, declined.ID, waiting.ID, broken.ID}).
		Update("created_at", old).Error)

	f.processor.On("GetIntent", mock.Anything, "pi_ok").Return(&stripe.Intent{ID: "pi_ok", Status: stripe.StatusSucceeded}, nil)
	f.processor.On("GetIntent", mock.Anything, "pi_bad").Return(&stripe.Intent{ID: "pi_bad", Status: stripe.StatusCanceled}, nil)
	f.processor.On("GetIntent", mock.Anything, "pi_wait").Return(&stripe.Intent{ID: "pi_wait", Status: stripe.StatusProcessing}, nil)
	f.processor.On("GetIntent", mock.Anything, "pi_err").Return(nil, errors.New("timeout"))

	report, err := f.svc.ReconcilePending(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, &ReconcileReport{Checked: 4, Succeeded: 1, Failed: 1, Errors: 1}, report)

	var statuses []domain.Payment
	require.NoError(t, f.db.Order("id").Find(&statuses).Error)
	got := map[int64]domain.PaymentStatus{}
	for _, p := range statuses {
		got[p.ID] = p.Status
	}
	assert.Equal(t, domain.PaymentSucceeded, got[paid.ID])
	assert.Equal(t, domain.PaymentFailed, got[declined.ID])
	assert.Equal(t, domain.PaymentPending, got[waiting.ID])
	assert.Equal(t, domain.PaymentPending, got[broken.ID])

	report, err = f.svc.ReconcilePending(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 0, report.Succeeded)
}

func TestReconcilePending_WalksPastFullPage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	e, lost := f.startedFor(t, "pi_lost", studentID)
	require.NoError(t, f.db.Model(lost).Update("created_at", time.Now().UTC().Add(-5*time.Hour)).Error)

	abandoned := f.enrollment(t, 101)
	old := time.Now().UTC().Add(-2 * time.Hour)
	rows := make([]domain.Payment, 0, reconcileBatchSize+50)
	for i := 0; i < reconcileBatchSize+50; i++ {
		id := fmt.Sprintf("pi_gone_%d", i)
		rows = append(rows, domain.Payment{
			StudioID:              f.studioID,
			EnrollmentID:          abandoned.ID,
			StudentID:             101,
			Amount:                decimal.RequireFromString("45.50"),
			Currency:              "ils",
			Method:                domain.PaymentMethodCard,
			Status:                domain.PaymentPending,
			StripePaymentIntentID: &id,
			CreatedAt:             old,
		})
	}
	require.NoError(t, f.db.Create(&rows).Error)

	f.processor.On("GetIntent", mock.Anything, mock.MatchedBy(func(id string) bool {
		return strings.HasPrefix(id, "pi_gone_")
	})).Return(&stripe.Intent{Status: stripe.StatusRequiresPaymentMethod}, nil)
	f.processor.On("GetIntent", mock.Anything, "pi_lost").Return(&stripe.Intent{ID: "pi_lost", Status: stripe.StatusSucceeded}, nil)

	report, err := f.svc.ReconcilePending(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, reconcileBatchSize+51, report.Checked)
	assert.Equal(t, 1, report.Succeeded)
	assert.Zero(t, report.Failed)

	fe, fp := f.reload(t, e, lost)
	assert.Equal(t, domain.PaymentSucceeded, fp.Status)
	assert.Equal(t, domain.EnrollmentPaymentPaid, fe.PaymentStatus)
}
