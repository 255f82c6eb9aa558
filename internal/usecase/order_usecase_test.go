package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

func placedOrder() model.Order {
	return model.Order{
		CustomerName:  "Jane",
		CustomerEmail: "jane@example.com",
		CustomerPhone: "555",
		Items: []model.OrderItem{
			{ProductID: "a", Name: "A", Price: decimal.RequireFromString("120.50"), Quantity: 2},
			{ProductID: "b", Name: "B", Price: decimal.NewFromInt(9), Quantity: 1},
		},
		Subtotal:    decimal.RequireFromString("250"),
		DeliveryFee: decimal.NewFromInt(50),
		TotalAmount: decimal.RequireFromString("300"),
		Status:      model.OrderStatusPending,
	}
}

func newOrderFixture() (*OrderUsecase, *OrderRepoMock, *OrderItemRepoMock, *TxManagerMock) {
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	tx := &TxManagerMock{Repos: &TxReposMock{orders: orders, orderItems: items}}
	tx.On("WithinTx", mock.Anything).Return()
	return NewOrderUsecase(tx, orders, items, zap.NewNop()), orders, items, tx
}

func TestOrderUsecase_CreateOrder(t *testing.T) {
	uc, orders, items, _ := newOrderFixture()
	ctx := context.Background()
	in := placedOrder()

	orders.On("Create", mock.Anything, in).Return(int64(42), nil)
	items.On("CreateBulk", mock.Anything, int64(42), in.Items).Return(nil)

	stored := in
	stored.ID = 42
	stored.Items = nil
	orders.On("FindByID", mock.Anything, int64(42)).Return(stored, nil)
	items.On("ListByOrderID", mock.Anything, int64(42)).Return(in.Items, nil)

	out, err := uc.CreateOrder(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, int64(42), out.ID)
	assert.Len(t, out.Items, 2)
	assert.True(t, decimal.RequireFromString("300").Equal(out.TotalAmount))
	orders.AssertExpectations(t)
	items.AssertExpectations(t)
}

func TestOrderUsecase_CreateOrder_RejectsBadOrders(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *model.Order)
	}{
		{"no items", func(o *model.Order) { o.Items = nil }},
		{"zero quantity", func(o *model.Order) { o.Items[0].Quantity = 0 }},
		{"not pending", func(o *model.Order) { o.Status = model.OrderStatusConfirmed }},
		{"subtotal mismatch", func(o *model.Order) { o.Subtotal = decimal.NewFromInt(1) }},
		{"total mismatch", func(o *model.Order) { o.TotalAmount = decimal.NewFromInt(250) }},
		{"missing phone", func(o *model.Order) { o.CustomerPhone = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _, _, tx := newOrderFixture()
			o := placedOrder()
			tt.mutate(&o)

			_, err := uc.CreateOrder(context.Background(), o)
			assert.ErrorIs(t, err, ErrInvalidOrder)
			tx.AssertNotCalled(t, "WithinTx", mock.Anything)
		})
	}
}

func TestOrderUsecase_CreateOrder_ItemInsertFails(t *testing.T) {
	uc, orders, items, _ := newOrderFixture()
	dbErr := errors.New("deadlock")

	orders.On("Create", mock.Anything, mock.Anything).Return(int64(5), nil)
	items.On("CreateBulk", mock.Anything, int64(5), mock.Anything).Return(dbErr)

	_, err := uc.CreateOrder(context.Background(), placedOrder())
	assert.ErrorIs(t, err, dbErr)
	orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestOrderUsecase_GetOrder(t *testing.T) {
	uc, orders, items, _ := newOrderFixture()
	ctx := context.Background()

	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: model.OrderStatusPending}, nil)
	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{{ProductID: "a", Quantity: 3}}, nil)
	orders.On("FindByID", mock.Anything, int64(2)).Return(model.Order{}, repo.ErrNotFound)

	o, err := uc.GetOrder(ctx, 1)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)

	_, err = uc.GetOrder(ctx, 2)
	assertHTTPError(t, err, http.StatusNotFound, "")

	_, err = uc.GetOrder(ctx, -1)
	assertHTTPError(t, err, http.StatusBadRequest, "invalid id")
}
