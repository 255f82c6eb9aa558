package notify

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"storefront/internal/domain/checkout"
	"storefront/internal/domain/model"
)

const breakerTripAfter = 5

// BreakerNotifier stops calling a failing notifier for a while after
// breakerTripAfter consecutive failures.
type BreakerNotifier struct {
	next checkout.Notifier
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerNotifier(name string, next checkout.Notifier, openFor time.Duration, logger *zap.Logger) *BreakerNotifier {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("notifier breaker state changed",
				zap.String("notifier", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &BreakerNotifier{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[struct{}](st),
	}
}

// NotifyOrderPlaced returns gobreaker.ErrOpenState while the breaker is open.
func (b *BreakerNotifier) NotifyOrderPlaced(ctx context.Context, order model.Order) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.NotifyOrderPlaced(ctx, order)
	})
	return err
}

func (b *BreakerNotifier) State() gobreaker.State {
	return b.cb.State()
}
