package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SergeyBogomolovv/order-processing-service/internal/entities"
	"github.com/SergeyBogomolovv/order-processing-service/internal/events"
	"github.com/SergeyBogomolovv/order-processing-service/internal/gateway"
	"github.com/SergeyBogomolovv/order-processing-service/pkg/trm"
	"github.com/SergeyBogomolovv/order-processing-service/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderRepo interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	LatestOrders(ctx context.Context, count int) ([]entities.Order, error)

	// GetOrderForUpdate читает агрегат под блокировкой строк заказа и активного платежа.
	GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error)

	SaveOrder(ctx context.Context, o entities.Order) error
	SaveItems(ctx context.Context, orderID string, items []entities.OrderItem) error
	SavePayment(ctx context.Context, p entities.Payment) error

	// UpdateOrder пишет условно по version, UpdatePayment - по id под уже взятой блокировкой.
	UpdateOrder(ctx context.Context, o entities.Order) error
	UpdatePayment(ctx context.Context, p entities.Payment) error

	GetCustomerByUserID(ctx context.Context, userID string) (entities.Customer, error)
	SaveCustomer(ctx context.Context, c entities.Customer) error
}

type Gateway interface {
	Charge(ctx context.Context, amount decimal.Decimal, method entities.PaymentMethod, reference string) (gateway.Result, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.OrderEvent) error
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

type CustomerIdentity struct {
	UserID     string
	GuestName  string
	GuestEmail string
	GuestPhone string
}

type ShippingInfo struct {
	Address string
	Cost    decimal.Decimal
}

type OrderItemInput struct {
	ProductName string
	SKU         string
	Quantity    int
	UnitPrice   decimal.Decimal
}

type CreateOrderInput struct {
	Customer CustomerIdentity
	Shipping ShippingInfo
	Method   entities.PaymentMethod
	Items    []OrderItemInput
	Notes    string
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	gateway   Gateway
	publisher EventPublisher
	cache     Cache
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	repo OrderRepo,
	gw Gateway,
	publisher EventPublisher,
	cache Cache,
) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		gateway:   gw,
		publisher: publisher,
		cache:     cache,
	}
}

// CreateOrder создаёт заказ, позиции и платёж в PENDING одной транзакцией.
// Валидация входа происходит до первой записи: частичных заказов не бывает.
func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (entities.Order, error) {
	if err := validateCreateOrder(input); err != nil {
		return entities.Order{}, err
	}

	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		customer, err := s.resolveCustomer(ctx, input.Customer)
		if err != nil {
			return err
		}

		now := time.Now()
		order = entities.Order{
			ID:              uuid.NewString(),
			OrderNumber:     newOrderNumber(),
			CustomerID:      customer.ID,
			Status:          entities.OrderStatusPending,
			ShippingAddress: input.Shipping.Address,
			ShippingCost:    input.Shipping.Cost,
			Notes:           input.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		order.Items = make([]entities.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			qty := decimal.NewFromInt(int64(item.Quantity))
			order.Items = append(order.Items, entities.OrderItem{
				ID:          uuid.NewString(),
				OrderID:     order.ID,
				ProductName: item.ProductName,
				SKU:         item.SKU,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				LineTotal:   item.UnitPrice.Mul(qty),
			})
		}
		order.CalculateTotals()

		order.Payment = entities.Payment{
			ID:            uuid.NewString(),
			OrderID:       order.ID,
			TransactionID: newTransactionID(),
			Method:        input.Method,
			Amount:        order.Total,
			Status:        entities.PaymentStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := s.repo.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, order.ID, order.Items); err != nil {
			return fmt.Errorf("failed to save items: %w", err)
		}
		if err := s.repo.SavePayment(ctx, order.Payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, order))
	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("total", order.Total.String()),
	)
	return order, nil
}

// ProcessPayment проводит оплату под эксклюзивной блокировкой строк заказа и платежа.
// Повторный вызов видит финализированный платёж и отклоняется без побочных эффектов.
// Отказ шлюза коммитит пару FAILED/FAILED и возвращает заказ без ошибки.
func (s *orderService) ProcessPayment(ctx context.Context, orderID, gatewayRef string) (entities.Order, error) {
	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		// перепроверка статуса уже под блокировкой
		if order.Status != entities.OrderStatusPending && order.Status != entities.OrderStatusProcessing {
			return fmt.Errorf("%w: order is %s", entities.ErrPaymentAlreadyFinalized, order.Status)
		}
		payment := order.Payment
		if payment.Status != entities.PaymentStatusPending {
			return fmt.Errorf("%w: payment is %s", entities.ErrPaymentAlreadyFinalized, payment.Status)
		}

		if order.Status == entities.OrderStatusPending {
			if err := order.Transition(entities.OrderStatusProcessing); err != nil {
				return err
			}
			if err := s.updateOrder(ctx, &order); err != nil {
				return err
			}
		}

		if err := payment.Transition(entities.PaymentStatusProcessing); err != nil {
			return err
		}
		payment.GatewayRef = gatewayRef
		if err := s.repo.UpdatePayment(ctx, payment); err != nil {
			return err
		}

		result, chargeErr := s.gateway.Charge(ctx, payment.Amount, payment.Method, gatewayRef)
		if chargeErr != nil {
			// недоступность шлюза детерминированно становится FAILED, а не зависшим PENDING
			result = gateway.Result{Approved: false, Message: chargeErr.Error()}
		}

		if result.Approved {
			if err := payment.Transition(entities.PaymentStatusCompleted); err != nil {
				return err
			}
			payment.ProcessedAt = time.Now()
			if err := order.Transition(entities.OrderStatusConfirmed); err != nil {
				return err
			}
		} else {
			if err := payment.Transition(entities.PaymentStatusFailed); err != nil {
				return err
			}
			payment.ErrorMessage = result.Message
			if err := order.Transition(entities.OrderStatusFailed); err != nil {
				return err
			}
		}

		if err := s.repo.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		if err := s.updateOrder(ctx, &order); err != nil {
			return err
		}
		order.Payment = payment
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.cache.Delete(orderID)
	if order.Status == entities.OrderStatusConfirmed {
		s.publish(ctx, events.NewOrderEvent(events.OrderConfirmed, order))
	} else {
		s.publish(ctx, events.NewOrderEvent(events.OrderFailed, order))
	}
	s.logger.InfoContext(ctx, "payment processed",
		slog.String("order_id", order.ID),
		slog.String("status", string(order.Status)),
	)
	return order, nil
}

// CancelOrder отменяет заказ до завершения. Захваченный платёж не отменяется
// молча: он возвращается целиком и помечается REFUNDED.
func (s *orderService) CancelOrder(ctx context.Context, orderID, reason string) (entities.Order, error) {
	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if err := order.Transition(entities.OrderStatusCancelled); err != nil {
			return err
		}
		if reason != "" {
			order.Notes = appendNote(order.Notes, "Cancellation reason: "+reason)
		}

		payment := order.Payment
		switch payment.Status {
		case entities.PaymentStatusPending, entities.PaymentStatusProcessing:
			if err := payment.Transition(entities.PaymentStatusFailed); err != nil {
				return err
			}
			payment.ErrorMessage = "order cancelled"
		case entities.PaymentStatusCompleted:
			payment.RefundedAmount = payment.Amount
			if err := payment.Transition(entities.PaymentStatusRefunded); err != nil {
				return err
			}
		}
		if err := s.repo.UpdatePayment(ctx, payment); err != nil {
			return err
		}

		if err := s.updateOrder(ctx, &order); err != nil {
			return err
		}
		order.Payment = payment
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.cache.Delete(orderID)
	s.publish(ctx, events.NewOrderEvent(events.OrderCancelled, order))
	s.logger.InfoContext(ctx, "order cancelled", slog.String("order_id", order.ID))
	return order, nil
}

// RefundOrder возвращает средства полностью или частично. Конкурентные возвраты
// сериализуются блокировкой строки платежа, поэтому сумма возвратов
// никогда не превышает захваченную.
func (s *orderService) RefundOrder(ctx context.Context, orderID, reason string, amount *decimal.Decimal) (entities.Order, error) {
	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if order.Status != entities.OrderStatusConfirmed && order.Status != entities.OrderStatusCompleted {
			return fmt.Errorf("%w: order %s cannot be refunded", entities.ErrInvalidStateTransition, order.Status)
		}
		payment := order.Payment
		if payment.Status != entities.PaymentStatusCompleted {
			return fmt.Errorf("%w: payment %s cannot be refunded", entities.ErrInvalidStateTransition, payment.Status)
		}

		remaining := payment.RemainingRefundable()
		refund := remaining
		if amount != nil {
			refund = *amount
		}
		if refund.LessThanOrEqual(decimal.Zero) || refund.GreaterThan(remaining) {
			return fmt.Errorf("%w: %s of %s refundable", entities.ErrInvalidRefundAmount, refund, remaining)
		}

		payment.RefundedAmount = payment.RefundedAmount.Add(refund)
		if reason != "" {
			order.Notes = appendNote(order.Notes, fmt.Sprintf("Refund reason: %s (amount: %s)", reason, refund))
		}

		// полный возврат закрывает и платёж, и заказ; частичный только копит сумму
		if payment.RefundedAmount.Equal(payment.Amount) {
			if err := payment.Transition(entities.PaymentStatusRefunded); err != nil {
				return err
			}
			if err := order.Transition(entities.OrderStatusRefunded); err != nil {
				return err
			}
		}

		if err := s.repo.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		if err := s.updateOrder(ctx, &order); err != nil {
			return err
		}
		order.Payment = payment
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.cache.Delete(orderID)
	if order.Status == entities.OrderStatusRefunded {
		s.publish(ctx, events.NewOrderEvent(events.OrderRefunded, order))
	} else {
		s.publish(ctx, events.NewOrderEvent(events.PaymentRefunded, order))
	}
	s.logger.InfoContext(ctx, "order refunded",
		slog.String("order_id", order.ID),
		slog.String("refunded", order.Payment.RefundedAmount.String()),
	)
	return order, nil
}

// CompleteOrder закрывает подтверждённый заказ после выполнения.
func (s *orderService) CompleteOrder(ctx context.Context, orderID string) (entities.Order, error) {
	var order entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if order.Status != entities.OrderStatusConfirmed {
			return fmt.Errorf("%w: order %s cannot be completed", entities.ErrInvalidStateTransition, order.Status)
		}
		if err := order.Transition(entities.OrderStatusCompleted); err != nil {
			return err
		}
		return s.updateOrder(ctx, &order)
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.cache.Delete(orderID)
	s.publish(ctx, events.NewOrderEvent(events.OrderCompleted, order))
	s.logger.InfoContext(ctx, "order completed", slog.String("order_id", order.ID))
	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	if data, ok := s.cache.Get(orderID); ok {
		var order entities.Order
		if err := order.Unmarshal(data); err != nil {
			s.logger.ErrorContext(ctx, "failed to unmarshal order", slog.String("order_id", orderID), slog.Any("error", err))
			return entities.Order{}, err
		}
		return order, nil
	}

	var order entities.Order
	fn := func() error {
		var err error
		order, err = s.repo.GetOrderByID(ctx, orderID)
		return err
	}
	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  5,
		Multiplier:   2,
	}
	if err := utils.Retry(cfg, fn, entities.ErrOrderNotFound); err != nil {
		return entities.Order{}, err
	}

	data, err := order.Marshal()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to marshal order", slog.String("order_id", orderID), slog.Any("error", err))
		return entities.Order{}, err
	}
	s.cache.Set(orderID, data)
	return order, nil
}

// WarmUpCache прогревает кэш последними заказами при старте.
func (s *orderService) WarmUpCache(ctx context.Context, count int) error {
	orders, err := s.repo.LatestOrders(ctx, count)
	if err != nil {
		return fmt.Errorf("failed to warm up cache: %w", err)
	}

	for _, order := range orders {
		data, err := order.Marshal()
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to marshal order", slog.String("order_id", order.ID), slog.Any("error", err))
			continue
		}
		s.cache.Set(order.ID, data)
	}

	s.logger.InfoContext(ctx, "cache warmed up", slog.Int("orders", len(orders)))
	return nil
}

// updateOrder пишет заказ с проверкой версии и двигает копию в памяти
// на записанную версию.
func (s *orderService) updateOrder(ctx context.Context, order *entities.Order) error {
	if err := s.repo.UpdateOrder(ctx, *order); err != nil {
		return err
	}
	order.Version++
	return nil
}

func (s *orderService) resolveCustomer(ctx context.Context, identity CustomerIdentity) (entities.Customer, error) {
	if identity.UserID != "" {
		customer, err := s.repo.GetCustomerByUserID(ctx, identity.UserID)
		if err == nil {
			return customer, nil
		}
		if !errors.Is(err, entities.ErrCustomerNotFound) {
			return entities.Customer{}, err
		}
	}

	now := time.Now()
	customer := entities.Customer{
		ID:        uuid.NewString(),
		UserID:    identity.UserID,
		FullName:  identity.GuestName,
		Email:     identity.GuestEmail,
		Phone:     identity.GuestPhone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SaveCustomer(ctx, customer); err != nil {
		return entities.Customer{}, fmt.Errorf("failed to save customer: %w", err)
	}
	return customer, nil
}

func (s *orderService) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		// события best-effort: заказ уже закоммичен
		s.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("type", string(event.Type)),
			slog.String("order_id", event.OrderID),
			slog.Any("error", err),
		)
	}
}

func validateCreateOrder(input CreateOrderInput) error {
	if len(input.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", entities.ErrInvalidOrderInput)
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", entities.ErrInvalidOrderInput)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: unit price cannot be negative", entities.ErrInvalidOrderInput)
		}
		if item.ProductName == "" {
			return fmt.Errorf("%w: product name is required", entities.ErrInvalidOrderInput)
		}
	}
	if input.Shipping.Cost.IsNegative() {
		return fmt.Errorf("%w: shipping cost cannot be negative", entities.ErrInvalidOrderInput)
	}
	if !input.Method.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", entities.ErrInvalidOrderInput, input.Method)
	}

	guest := input.Customer.GuestName != "" || input.Customer.GuestEmail != "" || input.Customer.GuestPhone != ""
	if input.Customer.UserID == "" && !guest {
		return fmt.Errorf("%w: customer identity is required", entities.ErrInvalidOrderInput)
	}
	if input.Customer.UserID == "" && (input.Customer.GuestName == "" || input.Customer.GuestEmail == "") {
		return fmt.Errorf("%w: guest name and email are required", entities.ErrInvalidOrderInput)
	}
	return nil
}

func newOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102150405"), randomSuffix(6))
}

func newTransactionID() string {
	return fmt.Sprintf("TXN-%s-%s", time.Now().Format("20060102150405"), randomSuffix(8))
}

func randomSuffix(n int) string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:n])
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}
