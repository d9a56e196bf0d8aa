package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studiohub/internal/modules/payment"
)

type fakePayments struct {
	olderThan time.Duration
	err       error
}

func (f *fakePayments) ReconcilePending(_ context.Context, olderThan time.Duration) (*payment.ReconcileReport, error) {
	f.olderThan = olderThan
	if f.err != nil {
		return nil, f.err
	}
	return &payment.ReconcileReport{Checked: 3, Succeeded: 1}, nil
}

type fakeEnrollments struct {
	olderThan time.Duration
	calls     int
}

func (f *fakeEnrollments) MarkOverdue(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	f.calls++
	return 2, nil
}

func TestRunOnce_PassesThresholds(t *testing.T) {
	p, e := &fakePayments{}, &fakeEnrollments{}
	r := NewReconciler(p, e, Config{PendingPaymentMaxAge: 30 * time.Minute, OverdueAfter: 72 * time.Hour}, zap.NewNop())

	res, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, p.olderThan)
	assert.Equal(t, 72*time.Hour, e.olderThan)
	assert.Equal(t, 3, res.Payments.Checked)
	assert.Equal(t, int64(2), res.Overdue)
}

func TestRunOnce_PaymentFailureDoesNotSkipOverdue(t *testing.T) {
	boom := errors.New("processor unreachable")
	p, e := &fakePayments{err: boom}, &fakeEnrollments{}
	r := NewReconciler(p, e, Config{PendingPaymentMaxAge: time.Minute, OverdueAfter: time.Hour}, zap.NewNop())

	res, err := r.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, e.calls)
	assert.Equal(t, int64(2), res.Overdue)
}

type countingRunner struct {
	runs atomic.Int32
}

func (c *countingRunner) RunOnce(context.Context) (*Result, error) {
	c.runs.Add(1)
	return &Result{}, nil
}

func TestScheduler_RejectsInvalidSpec(t *testing.T) {
	_, err := NewScheduler("every now and then", &countingRunner{}, zap.NewNop())
	assert.Error(t, err)
}

func TestScheduler_Runs(t *testing.T) {
	r := &countingRunner{}
	s, err := NewScheduler("@every 1s", r, zap.NewNop())
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return r.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

type failingRunner struct{}

func (failingRunner) RunOnce(context.Context) (*Result, error) {
	return &Result{Overdue: 1}, errors.New("db down")
}

func TestHandler_Reconcile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(r runner) *httptest.ResponseRecorder {
		router := gin.New()
		NewHandler(r, zap.NewNop()).RegisterRoutes(router.Group("/internal"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/internal/jobs/reconcile", nil))
		return w
	}

	ok := &countingRunner{}
	w := run(ok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), ok.runs.Load())

	w = run(failingRunner{})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "RECONCILE_FAILED")
}
