// Package jobs runs the periodic maintenance work: converging stale card
// payments with the processor and flagging overdue enrollments.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studiohub/internal/modules/payment"
)

type paymentReconciler interface {
	ReconcilePending(ctx context.Context, olderThan time.Duration) (*payment.ReconcileReport, error)
}

type overdueMarker interface {
	MarkOverdue(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Config struct {
	PendingPaymentMaxAge time.Duration
	OverdueAfter         time.Duration
}

type Result struct {
	Payments *payment.ReconcileReport `json:"payments,omitempty"`
	Overdue  int64                    `json:"overdue"`
}

type Reconciler struct {
	payments    paymentReconciler
	enrollments overdueMarker
	cfg         Config
	log         *zap.Logger
}

func NewReconciler(payments paymentReconciler, enrollments overdueMarker, cfg Config, log *zap.Logger) *Reconciler {
	return &Reconciler{payments: payments, enrollments: enrollments, cfg: cfg, log: log}
}

// RunOnce runs every job in turn. A failing job does not stop the others;
// their errors are joined.
func (r *Reconciler) RunOnce(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}
	var errs []error

	report, err := r.payments.ReconcilePending(ctx, r.cfg.PendingPaymentMaxAge)
	if err != nil {
		errs = append(errs, fmt.Errorf("reconcile payments: %w", err))
	}
	res.Payments = report

	n, err := r.enrollments.MarkOverdue(ctx, r.cfg.OverdueAfter)
	if err != nil {
		errs = append(errs, fmt.Errorf("mark overdue: %w", err))
	}
	res.Overdue = n

	err = errors.Join(errs...)
	fields := []zap.Field{zap.Int64("overdue", res.Overdue), zap.Duration("took", time.Since(start))}
	if report != nil {
		fields = append(fields, zap.Int("payments_checked", report.Checked))
	}
	if err != nil {
		r.log.Error("reconciliation run finished with errors", append(fields, zap.Error(err))...)
	} else {
		r.log.Debug("reconciliation run finished", fields...)
	}
	return res, err
}
