package entities_test

import (
	"testing"

	"github.com/SergeyBogomolovv/order-processing-service/internal/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	testCases := []struct {
		name string
		from entities.OrderStatus
		to   entities.OrderStatus
		want bool
	}{
		{"pending to processing", entities.OrderStatusPending, entities.OrderStatusProcessing, true},
		{"pending to cancelled", entities.OrderStatusPending, entities.OrderStatusCancelled, true},
		{"pending to confirmed is skipped", entities.OrderStatusPending, entities.OrderStatusConfirmed, false},
		{"processing to confirmed", entities.OrderStatusProcessing, entities.OrderStatusConfirmed, true},
		{"processing to failed", entities.OrderStatusProcessing, entities.OrderStatusFailed, true},
		{"processing to cancelled", entities.OrderStatusProcessing, entities.OrderStatusCancelled, true},
		{"processing to completed is skipped", entities.OrderStatusProcessing, entities.OrderStatusCompleted, false},
		{"confirmed to completed", entities.OrderStatusConfirmed, entities.OrderStatusCompleted, true},
		{"confirmed to cancelled", entities.OrderStatusConfirmed, entities.OrderStatusCancelled, true},
		{"confirmed to refunded", entities.OrderStatusConfirmed, entities.OrderStatusRefunded, true},
		{"completed to refunded", entities.OrderStatusCompleted, entities.OrderStatusRefunded, true},
		{"completed to cancelled is forbidden", entities.OrderStatusCompleted, entities.OrderStatusCancelled, false},
		{"cancelled is terminal", entities.OrderStatusCancelled, entities.OrderStatusPending, false},
		{"failed is terminal", entities.OrderStatusFailed, entities.OrderStatusProcessing, false},
		{"refunded is terminal", entities.OrderStatusRefunded, entities.OrderStatusPending, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	terminal := []entities.OrderStatus{
		entities.OrderStatusCancelled,
		entities.OrderStatusFailed,
		entities.OrderStatusRefunded,
	}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), string(s))
	}

	active := []entities.OrderStatus{
		entities.OrderStatusPending,
		entities.OrderStatusProcessing,
		entities.OrderStatusConfirmed,
		entities.OrderStatusCompleted,
	}
	for _, s := range active {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestOrder_Transition(t *testing.T) {
	order := entities.Order{Status: entities.OrderStatusPending}

	require.NoError(t, order.Transition(entities.OrderStatusProcessing))
	assert.Equal(t, entities.OrderStatusProcessing, order.Status)

	err := order.Transition(entities.OrderStatusCompleted)
	assert.ErrorIs(t, err, entities.ErrInvalidStateTransition)
	// статус не меняется при запрещённом переходе
	assert.Equal(t, entities.OrderStatusProcessing, order.Status)
}

func TestOrder_CalculateTotals(t *testing.T) {
	order := entities.Order{
		ShippingCost: decimal.RequireFromString("55.00"),
		Items: []entities.OrderItem{
			{Quantity: 2, UnitPrice: decimal.RequireFromString("250.00"), LineTotal: decimal.RequireFromString("500.00")},
			{Quantity: 1, UnitPrice: decimal.RequireFromString("500.00"), LineTotal: decimal.RequireFromString("500.00")},
		},
	}

	order.CalculateTotals()

	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("1000.00")), order.Subtotal.String())
	assert.True(t, order.Total.Equal(decimal.RequireFromString("1055.00")), order.Total.String())
}

func TestOrder_MarshalUnmarshal(t *testing.T) {
	order := entities.Order{
		ID:          "order-1",
		OrderNumber: "ORD-20260101000000-ABCDEF",
		Status:      entities.OrderStatusConfirmed,
		Total:       decimal.RequireFromString("99.99"),
		Items: []entities.OrderItem{
			{ProductName: "Widget", Quantity: 1, UnitPrice: decimal.RequireFromString("99.99")},
		},
		Payment: entities.Payment{
			TransactionID: "TXN-20260101000000-ABCDEF12",
			Status:        entities.PaymentStatusCompleted,
			Amount:        decimal.RequireFromString("99.99"),
		},
	}

	data, err := order.Marshal()
	require.NoError(t, err)

	var got entities.Order
	require.NoError(t, got.Unmarshal(data))
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, order.Status, got.Status)
	assert.True(t, got.Total.Equal(order.Total))
	assert.Equal(t, order.Payment.TransactionID, got.Payment.TransactionID)

	var broken entities.Order
	assert.ErrorIs(t, broken.Unmarshal([]byte("garbage")), entities.ErrInvalidOrder)
}
