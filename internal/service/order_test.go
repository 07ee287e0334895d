package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/SergeyBogomolovv/order-processing-service/internal/entities"
	"github.com/SergeyBogomolovv/order-processing-service/internal/events"
	"github.com/SergeyBogomolovv/order-processing-service/internal/gateway"
	"github.com/SergeyBogomolovv/order-processing-service/internal/service"
	mocks "github.com/SergeyBogomolovv/order-processing-service/internal/service/mocks"
	txMocks "github.com/SergeyBogomolovv/order-processing-service/pkg/trm/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testDeps struct {
	repo      *mocks.MockOrderRepo
	gw        *mocks.MockGateway
	publisher *mocks.MockEventPublisher
	cache     *mocks.MockCache
	tx        *txMocks.MockManager
}

type orderService interface {
	CreateOrder(ctx context.Context, input service.CreateOrderInput) (entities.Order, error)
	ProcessPayment(ctx context.Context, orderID, gatewayRef string) (entities.Order, error)
	CancelOrder(ctx context.Context, orderID, reason string) (entities.Order, error)
	RefundOrder(ctx context.Context, orderID, reason string, amount *decimal.Decimal) (entities.Order, error)
	CompleteOrder(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	WarmUpCache(ctx context.Context, count int) error
}

func newService(t *testing.T) (*testDeps, orderService) {
	t.Helper()
	deps := &testDeps{
		repo:      mocks.NewMockOrderRepo(t),
		gw:        mocks.NewMockGateway(t),
		publisher: mocks.NewMockEventPublisher(t),
		cache:     mocks.NewMockCache(t),
		tx:        txMocks.NewMockManager(t),
	}
	deps.tx.EXPECT().
		Do(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, cb func(ctx context.Context) error) error {
			return cb(ctx)
		}).Maybe()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewOrderService(logger, deps.tx, deps.repo, deps.gw, deps.publisher, deps.cache)
	return deps, svc
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validInput() service.CreateOrderInput {
	return service.CreateOrderInput{
		Customer: service.CustomerIdentity{
			GuestName:  "John Doe",
			GuestEmail: "john@example.com",
		},
		Shipping: service.ShippingInfo{
			Address: "Street 1, City",
			Cost:    money("55.00"),
		},
		Method: entities.PaymentMethodCreditCard,
		Items: []service.OrderItemInput{
			{ProductName: "Widget", Quantity: 2, UnitPrice: money("250.00")},
			{ProductName: "Gadget", Quantity: 1, UnitPrice: money("500.00")},
		},
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	dbError := errors.New("db error")

	testCases := []struct {
		name         string
		input        func() service.CreateOrderInput
		mockBehavior func(deps *testDeps)
		wantErr      error
		check        func(t *testing.T, order entities.Order)
	}{
		{
			name:  "OK guest customer",
			input: validInput,
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().SaveCustomer(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().SaveOrder(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().SaveItems(mock.Anything, mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().SavePayment(mock.Anything, mock.Anything).Return(nil)
				deps.publisher.EXPECT().
					Publish(mock.Anything, mock.MatchedBy(func(e events.OrderEvent) bool {
						return e.Type == events.OrderCreated
					})).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, entities.OrderStatusPending, order.Status)
				assert.True(t, order.Subtotal.Equal(money("1000.00")), order.Subtotal.String())
				assert.True(t, order.Total.Equal(money("1055.00")), order.Total.String())
				assert.Equal(t, entities.PaymentStatusPending, order.Payment.Status)
				assert.True(t, order.Payment.Amount.Equal(order.Total))
				assert.Regexp(t, `^ORD-\d{14}-[0-9A-F]{6}$`, order.OrderNumber)
				assert.Regexp(t, `^TXN-\d{14}-[0-9A-F]{8}$`, order.Payment.TransactionID)
			},
		},
		{
			name: "OK registered customer",
			input: func() service.CreateOrderInput {
				input := validInput()
				input.Customer = service.CustomerIdentity{UserID: "user-1"}
				return input
			},
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetCustomerByUserID(mock.Anything, "user-1").
					Return(entities.Customer{ID: "customer-1", UserID: "user-1"}, nil)
				deps.repo.EXPECT().SaveOrder(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().SaveItems(mock.Anything, mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().SavePayment(mock.Anything, mock.Anything).Return(nil)
				deps.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, "customer-1", order.CustomerID)
			},
		},
		{
			name: "no items",
			input: func() service.CreateOrderInput {
				input := validInput()
				input.Items = nil
				return input
			},
			mockBehavior: func(deps *testDeps) {},
			wantErr:      entities.ErrInvalidOrderInput,
		},
		{
			name: "zero quantity",
			input: func() service.CreateOrderInput {
				input := validInput()
				input.Items[0].Quantity = 0
				return input
			},
			mockBehavior: func(deps *testDeps) {},
			wantErr:      entities.ErrInvalidOrderInput,
		},
		{
			name: "negative unit price",
			input: func() service.CreateOrderInput {
				input := validInput()
				input.Items[0].UnitPrice = money("-1.00")
				return input
			},
			mockBehavior: func(deps *testDeps) {},
			wantErr:      entities.ErrInvalidOrderInput,
		},
		{
			name: "unknown payment method",
			input: func() service.CreateOrderInput {
				input := validInput()
				input.Method = "GIFT_CARD"
				return input
			},
			mockBehavior: func(deps *testDeps) {},
			wantErr:      entities.ErrInvalidOrderInput,
		},
		{
			name: "no customer identity",
			input: func() service.CreateOrderInput {
				input := validInput()
				input.Customer = service.CustomerIdentity{}
				return input
			},
			mockBehavior: func(deps *testDeps) {},
			wantErr:      entities.ErrInvalidOrderInput,
		},
		{
			name:  "save fails, no event published",
			input: validInput,
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().SaveCustomer(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().SaveOrder(mock.Anything, mock.Anything).Return(dbError)
			},
			wantErr: dbError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			deps, svc := newService(t)
			tc.mockBehavior(deps)

			order, err := svc.CreateOrder(context.Background(), tc.input())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, order)
			}
		})
	}
}

func lockedOrder(orderStatus entities.OrderStatus, paymentStatus entities.PaymentStatus) entities.Order {
	return entities.Order{
		ID:          "order-1",
		OrderNumber: "ORD-20260101000000-ABCDEF",
		CustomerID:  "customer-1",
		Status:      orderStatus,
		Total:       money("1055.00"),
		Version:     3,
		Payment: entities.Payment{
			ID:            "payment-1",
			OrderID:       "order-1",
			TransactionID: "TXN-20260101000000-ABCDEF12",
			Method:        entities.PaymentMethodCreditCard,
			Amount:        money("1055.00"),
			Status:        paymentStatus,
		},
	}
}

func TestOrderService_ProcessPayment(t *testing.T) {
	testCases := []struct {
		name         string
		mockBehavior func(deps *testDeps)
		wantErr      error
		check        func(t *testing.T, order entities.Order)
	}{
		{
			name: "approved",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusPending, entities.PaymentStatusPending), nil)
				deps.repo.EXPECT().UpdateOrder(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().UpdatePayment(mock.Anything, mock.Anything).Return(nil)
				deps.gw.EXPECT().
					Charge(mock.Anything, mock.Anything, entities.PaymentMethodCreditCard, "gw-ref-1").
					Return(gateway.Result{Approved: true, Message: "approved"}, nil)
				deps.cache.EXPECT().Delete("order-1").Return()
				deps.publisher.EXPECT().
					Publish(mock.Anything, mock.MatchedBy(func(e events.OrderEvent) bool {
						return e.Type == events.OrderConfirmed
					})).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, entities.OrderStatusConfirmed, order.Status)
				assert.Equal(t, entities.PaymentStatusCompleted, order.Payment.Status)
				assert.Equal(t, "gw-ref-1", order.Payment.GatewayRef)
				assert.False(t, order.Payment.ProcessedAt.IsZero())
				// PENDING -> PROCESSING и финальная запись: две версии вперёд
				assert.Equal(t, 5, order.Version)
			},
		},
		{
			name: "declined commits failed pair",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusPending, entities.PaymentStatusPending), nil)
				deps.repo.EXPECT().UpdateOrder(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().UpdatePayment(mock.Anything, mock.Anything).Return(nil)
				deps.gw.EXPECT().
					Charge(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(gateway.Result{Approved: false, Message: "insufficient funds"}, nil)
				deps.cache.EXPECT().Delete("order-1").Return()
				deps.publisher.EXPECT().
					Publish(mock.Anything, mock.MatchedBy(func(e events.OrderEvent) bool {
						return e.Type == events.OrderFailed
					})).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, entities.OrderStatusFailed, order.Status)
				assert.Equal(t, entities.PaymentStatusFailed, order.Payment.Status)
				assert.Equal(t, "insufficient funds", order.Payment.ErrorMessage)
				assert.True(t, order.Payment.ProcessedAt.IsZero())
			},
		},
		{
			name: "gateway error treated as decline",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusPending, entities.PaymentStatusPending), nil)
				deps.repo.EXPECT().UpdateOrder(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().UpdatePayment(mock.Anything, mock.Anything).Return(nil)
				deps.gw.EXPECT().
					Charge(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(gateway.Result{}, errors.New("gateway unavailable"))
				deps.cache.EXPECT().Delete("order-1").Return()
				deps.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, entities.OrderStatusFailed, order.Status)
				assert.Equal(t, "gateway unavailable", order.Payment.ErrorMessage)
			},
		},
		{
			name: "payment already completed",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusConfirmed, entities.PaymentStatusCompleted), nil)
			},
			wantErr: entities.ErrPaymentAlreadyFinalized,
		},
		{
			name: "payment already failed",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusProcessing, entities.PaymentStatusFailed), nil)
			},
			wantErr: entities.ErrPaymentAlreadyFinalized,
		},
		{
			name: "order not found",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(entities.Order{}, entities.ErrOrderNotFound)
			},
			wantErr: entities.ErrOrderNotFound,
		},
		{
			name: "lock timeout",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(entities.Order{}, entities.ErrLockTimeout)
			},
			wantErr: entities.ErrLockTimeout,
		},
		{
			name: "version conflict",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusPending, entities.PaymentStatusPending), nil)
				deps.repo.EXPECT().
					UpdateOrder(mock.Anything, mock.Anything).
					Return(entities.ErrConcurrentModification)
			},
			wantErr: entities.ErrConcurrentModification,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			deps, svc := newService(t)
			tc.mockBehavior(deps)

			order, err := svc.ProcessPayment(context.Background(), "order-1", "gw-ref-1")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, order)
			}
		})
	}
}

func TestOrderService_CancelOrder(t *testing.T) {
	testCases := []struct {
		name         string
		reason       string
		mockBehavior func(deps *testDeps)
		wantErr      error
		check        func(t *testing.T, order entities.Order)
	}{
		{
			name:   "pending order, payment not captured",
			reason: "changed my mind",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusPending, entities.PaymentStatusPending), nil)
				deps.repo.EXPECT().UpdatePayment(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().UpdateOrder(mock.Anything, mock.Anything).Return(nil)
				deps.cache.EXPECT().Delete("order-1").Return()
				deps.publisher.EXPECT().
					Publish(mock.Anything, mock.MatchedBy(func(e events.OrderEvent) bool {
						return e.Type == events.OrderCancelled
					})).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, entities.OrderStatusCancelled, order.Status)
				assert.Equal(t, entities.PaymentStatusFailed, order.Payment.Status)
				assert.Equal(t, "order cancelled", order.Payment.ErrorMessage)
				assert.Contains(t, order.Notes, "changed my mind")
			},
		},
		{
			name: "confirmed order, captured payment refunded in full",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusConfirmed, entities.PaymentStatusCompleted), nil)
				deps.repo.EXPECT().UpdatePayment(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().UpdateOrder(mock.Anything, mock.Anything).Return(nil)
				deps.cache.EXPECT().Delete("order-1").Return()
				deps.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, entities.OrderStatusCancelled, order.Status)
				assert.Equal(t, entities.PaymentStatusRefunded, order.Payment.Status)
				assert.True(t, order.Payment.RefundedAmount.Equal(order.Payment.Amount))
			},
		},
		{
			name: "completed order cannot be cancelled",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusCompleted, entities.PaymentStatusCompleted), nil)
			},
			wantErr: entities.ErrInvalidStateTransition,
		},
		{
			name: "cancelled order cannot be cancelled twice",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusCancelled, entities.PaymentStatusFailed), nil)
			},
			wantErr: entities.ErrInvalidStateTransition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			deps, svc := newService(t)
			tc.mockBehavior(deps)

			order, err := svc.CancelOrder(context.Background(), "order-1", tc.reason)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, order)
			}
		})
	}
}

func TestOrderService_RefundOrder(t *testing.T) {
	partiallyRefunded := func() entities.Order {
		order := lockedOrder(entities.OrderStatusCompleted, entities.PaymentStatusCompleted)
		order.Payment.RefundedAmount = money("525.00")
		return order
	}

	testCases := []struct {
		name         string
		amount       *decimal.Decimal
		mockBehavior func(deps *testDeps)
		wantErr      error
		check        func(t *testing.T, order entities.Order)
	}{
		{
			name: "full refund by default",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusCompleted, entities.PaymentStatusCompleted), nil)
				deps.repo.EXPECT().UpdatePayment(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().UpdateOrder(mock.Anything, mock.Anything).Return(nil)
				deps.cache.EXPECT().Delete("order-1").Return()
				deps.publisher.EXPECT().
					Publish(mock.Anything, mock.MatchedBy(func(e events.OrderEvent) bool {
						return e.Type == events.OrderRefunded
					})).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, entities.OrderStatusRefunded, order.Status)
				assert.Equal(t, entities.PaymentStatusRefunded, order.Payment.Status)
				assert.True(t, order.Payment.RefundedAmount.Equal(money("1055.00")))
			},
		},
		{
			name:   "partial refund keeps order open",
			amount: ptr(money("525.00")),
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusCompleted, entities.PaymentStatusCompleted), nil)
				deps.repo.EXPECT().UpdatePayment(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().UpdateOrder(mock.Anything, mock.Anything).Return(nil)
				deps.cache.EXPECT().Delete("order-1").Return()
				deps.publisher.EXPECT().
					Publish(mock.Anything, mock.MatchedBy(func(e events.OrderEvent) bool {
						return e.Type == events.PaymentRefunded
					})).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, entities.OrderStatusCompleted, order.Status)
				assert.Equal(t, entities.PaymentStatusCompleted, order.Payment.Status)
				assert.True(t, order.Payment.RefundedAmount.Equal(money("525.00")))
			},
		},
		{
			name:   "second partial refund closes the order",
			amount: ptr(money("530.00")),
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(partiallyRefunded(), nil)
				deps.repo.EXPECT().UpdatePayment(mock.Anything, mock.Anything).Return(nil)
				deps.repo.EXPECT().UpdateOrder(mock.Anything, mock.Anything).Return(nil)
				deps.cache.EXPECT().Delete("order-1").Return()
				deps.publisher.EXPECT().
					Publish(mock.Anything, mock.MatchedBy(func(e events.OrderEvent) bool {
						return e.Type == events.OrderRefunded
					})).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, entities.OrderStatusRefunded, order.Status)
				assert.True(t, order.Payment.RefundedAmount.Equal(money("1055.00")))
			},
		},
		{
			name:   "refund over remaining",
			amount: ptr(money("531.00")),
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(partiallyRefunded(), nil)
			},
			wantErr: entities.ErrInvalidRefundAmount,
		},
		{
			name:   "zero refund",
			amount: ptr(money("0")),
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusCompleted, entities.PaymentStatusCompleted), nil)
			},
			wantErr: entities.ErrInvalidRefundAmount,
		},
		{
			name: "pending order cannot be refunded",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusPending, entities.PaymentStatusPending), nil)
			},
			wantErr: entities.ErrInvalidStateTransition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			deps, svc := newService(t)
			tc.mockBehavior(deps)

			order, err := svc.RefundOrder(context.Background(), "order-1", "damaged item", tc.amount)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, order)
			}
		})
	}
}

func TestOrderService_CompleteOrder(t *testing.T) {
	testCases := []struct {
		name         string
		mockBehavior func(deps *testDeps)
		wantErr      error
	}{
		{
			name: "OK",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusConfirmed, entities.PaymentStatusCompleted), nil)
				deps.repo.EXPECT().UpdateOrder(mock.Anything, mock.Anything).Return(nil)
				deps.cache.EXPECT().Delete("order-1").Return()
				deps.publisher.EXPECT().
					Publish(mock.Anything, mock.MatchedBy(func(e events.OrderEvent) bool {
						return e.Type == events.OrderCompleted
					})).Return(nil)
			},
		},
		{
			name: "pending order cannot be completed",
			mockBehavior: func(deps *testDeps) {
				deps.repo.EXPECT().
					GetOrderForUpdate(mock.Anything, "order-1").
					Return(lockedOrder(entities.OrderStatusPending, entities.PaymentStatusPending), nil)
			},
			wantErr: entities.ErrInvalidStateTransition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			deps, svc := newService(t)
			tc.mockBehavior(deps)

			order, err := svc.CompleteOrder(context.Background(), "order-1")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, entities.OrderStatusCompleted, order.Status)
		})
	}
}

func TestOrderService_GetOrderByID(t *testing.T) {
	validOrder := lockedOrder(entities.OrderStatusConfirmed, entities.PaymentStatusCompleted)
	validData, err := validOrder.Marshal()
	require.NoError(t, err)

	testCases := []struct {
		name         string
		mockBehavior func(deps *testDeps)
		wantErr      error
	}{
		{
			name: "success from cache",
			mockBehavior: func(deps *testDeps) {
				deps.cache.EXPECT().Get("order-1").Return(validData, true).Once()
			},
		},
		{
			name: "cache hit but unmarshal fails",
			mockBehavior: func(deps *testDeps) {
				deps.cache.EXPECT().Get("order-1").Return([]byte("broken"), true).Once()
			},
			wantErr: entities.ErrInvalidOrder,
		},
		{
			name: "success from repo and set to cache",
			mockBehavior: func(deps *testDeps) {
				deps.cache.EXPECT().Get("order-1").Return(nil, false).Once()
				deps.repo.EXPECT().
					GetOrderByID(mock.Anything, "order-1").
					Return(validOrder, nil).Once()
				deps.cache.EXPECT().Set("order-1", mock.Anything).Return().Once()
			},
		},
		{
			name: "not found is not retried",
			mockBehavior: func(deps *testDeps) {
				deps.cache.EXPECT().Get("order-1").Return(nil, false).Once()
				deps.repo.EXPECT().
					GetOrderByID(mock.Anything, "order-1").
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
			},
			wantErr: entities.ErrOrderNotFound,
		},
		{
			name: "second attempt from repo",
			mockBehavior: func(deps *testDeps) {
				deps.cache.EXPECT().Get("order-1").Return(nil, false).Once()
				deps.repo.EXPECT().
					GetOrderByID(mock.Anything, "order-1").
					Return(entities.Order{}, errors.New("temporary error")).Once()
				deps.repo.EXPECT().
					GetOrderByID(mock.Anything, "order-1").
					Return(validOrder, nil).Once()
				deps.cache.EXPECT().Set("order-1", mock.Anything).Return().Once()
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			deps, svc := newService(t)
			tc.mockBehavior(deps)

			got, err := svc.GetOrderByID(context.Background(), "order-1")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, validOrder.ID, got.ID)
			assert.Equal(t, validOrder.Status, got.Status)
		})
	}
}

func TestOrderService_WarmUpCache(t *testing.T) {
	first := lockedOrder(entities.OrderStatusConfirmed, entities.PaymentStatusCompleted)
	second := lockedOrder(entities.OrderStatusPending, entities.PaymentStatusPending)
	second.ID = "order-2"

	deps, svc := newService(t)
	deps.repo.EXPECT().
		LatestOrders(mock.Anything, 100).
		Return([]entities.Order{first, second}, nil)
	deps.cache.EXPECT().Set("order-1", mock.Anything).Return().Once()
	deps.cache.EXPECT().Set("order-2", mock.Anything).Return().Once()

	require.NoError(t, svc.WarmUpCache(context.Background(), 100))
}

func ptr[T any](v T) *T {
	return &v
}
