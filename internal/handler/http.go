package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SergeyBogomolovv/order-processing-service/internal/entities"
	"github.com/SergeyBogomolovv/order-processing-service/internal/service"
	"github.com/SergeyBogomolovv/order-processing-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	CreateOrder(ctx context.Context, input service.CreateOrderInput) (entities.Order, error)
	ProcessPayment(ctx context.Context, orderID, gatewayRef string) (entities.Order, error)
	CancelOrder(ctx context.Context, orderID, reason string) (entities.Order, error)
	RefundOrder(ctx context.Context, orderID, reason string, amount *decimal.Decimal) (entities.Order, error)
	CompleteOrder(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{order_id}", h.GetOrderByID)
		r.Post("/{order_id}/payment", h.ProcessPayment)
		r.Post("/{order_id}/cancel", h.CancelOrder)
		r.Post("/{order_id}/refund", h.RefundOrder)
		r.Post("/{order_id}/complete", h.CompleteOrder)
	})
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.CreateOrder(ctx, CreateOrderRequestToInput(req))
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	ordersCreated.Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
}

func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.validate.Var(orderID, "required,uuid4"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.GetOrderByID(ctx, orderID)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *HTTPHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req ProcessPaymentRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.ProcessPayment(ctx, orderID, req.GatewayReference)
	if err != nil {
		paymentsProcessed.WithLabelValues("rejected").Inc()
		h.writeServiceError(ctx, w, err)
		return
	}

	paymentsProcessed.WithLabelValues(string(order.Payment.Status)).Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req CancelOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.svc.CancelOrder(ctx, orderID, req.Reason)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	ordersCancelled.Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *HTTPHandler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req RefundOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.svc.RefundOrder(ctx, orderID, req.Reason, req.Amount)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	ordersRefunded.Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *HTTPHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	order, err := h.svc.CompleteOrder(ctx, orderID)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// writeServiceError переводит доменные ошибки в HTTP статусы:
// валидация - 400, не найдено - 404, конфликты состояния и версий - 409,
// таймаут блокировки - 503 (транзиентная, можно повторить).
func (h *HTTPHandler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrInvalidOrderInput), errors.Is(err, entities.ErrInvalidRefundAmount):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, entities.ErrOrderNotFound), errors.Is(err, entities.ErrCustomerNotFound):
		utils.WriteError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, entities.ErrInvalidStateTransition), errors.Is(err, entities.ErrPaymentAlreadyFinalized):
		utils.WriteError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrConcurrentModification):
		casConflicts.Inc()
		utils.WriteError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrLockTimeout):
		lockTimeouts.Inc()
		utils.WriteError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.logger.ErrorContext(ctx, "unexpected error", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
