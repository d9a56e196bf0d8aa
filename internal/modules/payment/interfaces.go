package payment

import (
	"context"
	"time"

	"studiohub/internal/domain"
	"studiohub/internal/pkg/stripe"
	"studiohub/internal/repository"
)

type paymentStore interface {
	Create(ctx context.Context, p *domain.Payment) error
	Get(ctx context.Context, studioID, id int64) (*domain.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error)
	List(ctx context.Context, f repository.PaymentFilter) ([]domain.Payment, error)
	MarkSucceeded(ctx context.Context, p *domain.Payment, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id int64, reason string) (bool, error)
	MarkRefunded(ctx context.Context, p *domain.Payment) (bool, error)
	ListStalePending(ctx context.Context, before time.Time, cursor repository.StaleCursor, limit int) ([]domain.Payment, error)
}

type enrollmentReader interface {
	Get(ctx context.Context, studioID, id int64) (*domain.Enrollment, error)
}

// processor is the card payment provider.
type processor interface {
	CreateIntent(ctx context.Context, p stripe.IntentParams) (*stripe.Intent, error)
	GetIntent(ctx context.Context, id string) (*stripe.Intent, error)
	ParseWebhook(payload []byte, signatureHeader string) (*stripe.Event, error)
}
