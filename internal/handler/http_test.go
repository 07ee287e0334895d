package handler_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SergeyBogomolovv/order-processing-service/internal/entities"
	"github.com/SergeyBogomolovv/order-processing-service/internal/handler"
	mocks "github.com/SergeyBogomolovv/order-processing-service/internal/handler/mocks"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const orderID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

func newRouter(t *testing.T) (*mocks.MockOrderService, chi.Router) {
	t.Helper()
	svc := mocks.NewMockOrderService(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewHTTPHandler(logger, svc)

	r := chi.NewRouter()
	h.Init(r)
	return svc, r
}

func confirmedOrder() entities.Order {
	return entities.Order{
		ID:          orderID,
		OrderNumber: "ORD-20260101000000-ABCDEF",
		Status:      entities.OrderStatusConfirmed,
		Total:       decimal.RequireFromString("1055.00"),
		Payment: entities.Payment{
			TransactionID: "TXN-20260101000000-ABCDEF12",
			Status:        entities.PaymentStatusCompleted,
			Amount:        decimal.RequireFromString("1055.00"),
		},
	}
}

func TestHTTPHandler_CreateOrder(t *testing.T) {
	validBody := `{
		"customer_name": "John Doe",
		"customer_email": "john@example.com",
		"shipping_address": "Street 1, City",
		"shipping_cost": "55.00",
		"payment_method": "CREDIT_CARD",
		"items": [{"product_name": "Widget", "quantity": 2, "unit_price": "500.00"}]
	}`

	testCases := []struct {
		name         string
		body         string
		mockBehavior func(svc *mocks.MockOrderService)
		wantStatus   int
	}{
		{
			name: "success",
			body: validBody,
			mockBehavior: func(svc *mocks.MockOrderService) {
				order := confirmedOrder()
				order.Status = entities.OrderStatusPending
				svc.EXPECT().
					CreateOrder(mock.Anything, mock.Anything).
					Return(order, nil).Once()
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:         "broken json",
			body:         `{"items": [`,
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantStatus:   http.StatusBadRequest,
		},
		{
			name:         "no items",
			body:         `{"shipping_address": "Street 1", "payment_method": "CASH", "items": []}`,
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantStatus:   http.StatusBadRequest,
		},
		{
			name:         "unknown payment method",
			body:         strings.Replace(validBody, "CREDIT_CARD", "GIFT_CARD", 1),
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantStatus:   http.StatusBadRequest,
		},
		{
			name: "service rejects input",
			body: validBody,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					CreateOrder(mock.Anything, mock.Anything).
					Return(entities.Order{}, entities.ErrInvalidOrderInput).Once()
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)

			if tc.wantStatus == http.StatusCreated {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, "PENDING", resp["status"])
				assert.Equal(t, "ORD-20260101000000-ABCDEF", resp["order_number"])
			}
		})
	}
}

func TestHTTPHandler_GetOrderByID(t *testing.T) {
	testCases := []struct {
		name         string
		orderID      string
		mockBehavior func(svc *mocks.MockOrderService)
		wantStatus   int
	}{
		{
			name:    "success",
			orderID: orderID,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					GetOrderByID(mock.Anything, orderID).
					Return(confirmedOrder(), nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:         "not a uuid",
			orderID:      "not-a-uuid",
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantStatus:   http.StatusBadRequest,
		},
		{
			name:    "not found",
			orderID: orderID,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					GetOrderByID(mock.Anything, orderID).
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:    "internal error",
			orderID: orderID,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					GetOrderByID(mock.Anything, orderID).
					Return(entities.Order{}, errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodGet, "/orders/"+tc.orderID, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

func TestHTTPHandler_ProcessPayment(t *testing.T) {
	body := `{"gateway_reference": "gw-ref-1"}`

	testCases := []struct {
		name         string
		body         string
		mockBehavior func(svc *mocks.MockOrderService)
		wantStatus   int
	}{
		{
			name: "success",
			body: body,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					ProcessPayment(mock.Anything, orderID, "gw-ref-1").
					Return(confirmedOrder(), nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:         "missing gateway reference",
			body:         `{}`,
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantStatus:   http.StatusBadRequest,
		},
		{
			name: "already finalized",
			body: body,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					ProcessPayment(mock.Anything, orderID, "gw-ref-1").
					Return(entities.Order{}, entities.ErrPaymentAlreadyFinalized).Once()
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "version conflict",
			body: body,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					ProcessPayment(mock.Anything, orderID, "gw-ref-1").
					Return(entities.Order{}, entities.ErrConcurrentModification).Once()
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "lock timeout",
			body: body,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					ProcessPayment(mock.Anything, orderID, "gw-ref-1").
					Return(entities.Order{}, entities.ErrLockTimeout).Once()
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID+"/payment", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

func TestHTTPHandler_CancelOrder(t *testing.T) {
	testCases := []struct {
		name         string
		mockBehavior func(svc *mocks.MockOrderService)
		wantStatus   int
	}{
		{
			name: "success",
			mockBehavior: func(svc *mocks.MockOrderService) {
				order := confirmedOrder()
				order.Status = entities.OrderStatusCancelled
				svc.EXPECT().
					CancelOrder(mock.Anything, orderID, "changed my mind").
					Return(order, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "already completed",
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					CancelOrder(mock.Anything, orderID, "changed my mind").
					Return(entities.Order{}, entities.ErrInvalidStateTransition).Once()
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newRouter(t)
			tc.mockBehavior(svc)

			body := `{"reason": "changed my mind"}`
			req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID+"/cancel", strings.NewReader(body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

func TestHTTPHandler_RefundOrder(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		mockBehavior func(svc *mocks.MockOrderService)
		wantStatus   int
	}{
		{
			name: "partial refund",
			body: `{"reason": "damaged item", "amount": "525.00"}`,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					RefundOrder(mock.Anything, orderID, "damaged item", mock.MatchedBy(func(amount *decimal.Decimal) bool {
						return amount != nil && amount.Equal(decimal.RequireFromString("525.00"))
					})).
					Return(confirmedOrder(), nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "full refund without amount",
			body: `{}`,
			mockBehavior: func(svc *mocks.MockOrderService) {
				order := confirmedOrder()
				order.Status = entities.OrderStatusRefunded
				svc.EXPECT().
					RefundOrder(mock.Anything, orderID, "", (*decimal.Decimal)(nil)).
					Return(order, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "refund over remaining",
			body: `{"amount": "9999.00"}`,
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					RefundOrder(mock.Anything, orderID, "", mock.Anything).
					Return(entities.Order{}, entities.ErrInvalidRefundAmount).Once()
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID+"/refund", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

func TestHTTPHandler_CompleteOrder(t *testing.T) {
	svc, r := newRouter(t)
	order := confirmedOrder()
	order.Status = entities.OrderStatusCompleted
	svc.EXPECT().
		CompleteOrder(mock.Anything, orderID).
		Return(order, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID+"/complete", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "COMPLETED", resp["status"])
}
