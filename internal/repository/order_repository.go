package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type OrderListFilter struct {
	Page   int
	Limit  int
	Status string
	Email  string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	// back office list, newest first
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
}
