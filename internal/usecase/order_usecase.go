package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

var ErrInvalidOrder = errors.New("invalid order")

// OrderUsecase stores orders placed by checkout and reads them back.
type OrderUsecase struct {
	tx     repo.TransactionManager
	orders repo.OrderRepository
	items  repo.OrderItemRepository
	logger *zap.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, orders repo.OrderRepository, items repo.OrderItemRepository, logger *zap.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, orders: orders, items: items, logger: logger}
}

// CreateOrder inserts the order and its lines in one transaction. Errors are
// plain so checkout can wrap them as retryable submission failures.
func (u *OrderUsecase) CreateOrder(ctx context.Context, order model.Order) (model.Order, error) {
	if err := validateNewOrder(order); err != nil {
		return model.Order{}, err
	}

	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		id, err := r.Orders().Create(ctx, order)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := r.OrderItems().CreateBulk(ctx, id, order.Items); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		out, err = r.Orders().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		out.Items, err = r.OrderItems().ListByOrderID(ctx, id)
		if err != nil {
			return fmt.Errorf("reload order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	return out, nil
}

func validateNewOrder(o model.Order) error {
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidOrder)
	}
	if o.Status != model.OrderStatusPending {
		return fmt.Errorf("%w: status must be pending", ErrInvalidOrder)
	}
	if o.CustomerName == "" || o.CustomerEmail == "" || o.CustomerPhone == "" {
		return fmt.Errorf("%w: missing contact", ErrInvalidOrder)
	}

	subtotal := decimal.Zero
	for _, it := range o.Items {
		if it.ProductID == "" || it.Quantity <= 0 || it.Price.IsNegative() {
			return fmt.Errorf("%w: bad line %q", ErrInvalidOrder, it.ProductID)
		}
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !subtotal.Equal(o.Subtotal) {
		return fmt.Errorf("%w: subtotal mismatch", ErrInvalidOrder)
	}
	if !o.Subtotal.Add(o.DeliveryFee).Equal(o.TotalAmount) {
		return fmt.Errorf("%w: total mismatch", ErrInvalidOrder)
	}
	return nil
}

// GetOrder returns an order with its lines.
func (u *OrderUsecase) GetOrder(ctx context.Context, orderID int64) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		u.logger.Error("find order", zap.Int64("order_id", orderID), zap.Error(err))
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	o.Items, err = u.items.ListByOrderID(ctx, orderID)
	if err != nil {
		u.logger.Error("list order items", zap.Int64("order_id", orderID), zap.Error(err))
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return o, nil
}
