package notify

import (
	"context"
	"errors"

	"storefront/internal/domain/checkout"
	"storefront/internal/domain/model"
)

// MultiNotifier calls every notifier in order and joins their errors.
type MultiNotifier []checkout.Notifier

func (m MultiNotifier) NotifyOrderPlaced(ctx context.Context, order model.Order) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyOrderPlaced(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
