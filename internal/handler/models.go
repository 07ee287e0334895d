package handler

import (
	"time"

	"github.com/SergeyBogomolovv/order-processing-service/internal/entities"
	"github.com/SergeyBogomolovv/order-processing-service/internal/service"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest - заявка на заказ: либо customer_id зарегистрированного
// пользователя, либо гостевые контакты.
type CreateOrderRequest struct {
	CustomerID    string `json:"customer_id,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty" validate:"omitempty,email"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	ShippingAddress string          `json:"shipping_address" validate:"required"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`

	PaymentMethod string `json:"payment_method" validate:"required,oneof=CREDIT_CARD DEBIT_CARD PAYPAL BANK_TRANSFER CASH CRYPTO"`

	Notes string `json:"notes,omitempty"`

	Items []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

type CreateOrderItem struct {
	ProductName string          `json:"product_name" validate:"required"`
	SKU         string          `json:"product_sku,omitempty"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type ProcessPaymentRequest struct {
	GatewayReference string `json:"gateway_reference" validate:"required"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

type RefundOrderRequest struct {
	Reason string           `json:"reason,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// Order представляет заказ в ответе API
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerID      string          `json:"customer_id"`
	Status          string          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Total           decimal.Decimal `json:"total"`
	Notes           string          `json:"notes,omitempty"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items"`
	Payment         Payment         `json:"payment"`
}

type OrderItem struct {
	ProductName string          `json:"product_name"`
	SKU         string          `json:"product_sku,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type Payment struct {
	TransactionID  string          `json:"transaction_id"`
	Method         string          `json:"payment_method"`
	Amount         decimal.Decimal `json:"amount"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
	Status         string          `json:"status"`
	GatewayRef     string          `json:"gateway_reference,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
}

func CreateOrderRequestToInput(req CreateOrderRequest) service.CreateOrderInput {
	input := service.CreateOrderInput{
		Customer: service.CustomerIdentity{
			UserID:     req.CustomerID,
			GuestName:  req.CustomerName,
			GuestEmail: req.CustomerEmail,
			GuestPhone: req.CustomerPhone,
		},
		Shipping: service.ShippingInfo{
			Address: req.ShippingAddress,
			Cost:    req.ShippingCost,
		},
		Method: entities.PaymentMethod(req.PaymentMethod),
		Notes:  req.Notes,
	}

	input.Items = make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderItemInput{
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return input
}

func OrderEntityToJSON(o entities.Order) Order {
	order := Order{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		ShippingCost:    o.ShippingCost,
		Subtotal:        o.Subtotal,
		Total:           o.Total,
		Notes:           o.Notes,
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Payment:         PaymentEntityToJSON(o.Payment),
	}

	order.Items = make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		order.Items = append(order.Items, OrderItem{
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return order
}

func PaymentEntityToJSON(p entities.Payment) Payment {
	payment := Payment{
		TransactionID:  p.TransactionID,
		Method:         string(p.Method),
		Amount:         p.Amount,
		RefundedAmount: p.RefundedAmount,
		Status:         string(p.Status),
		GatewayRef:     p.GatewayRef,
		ErrorMessage:   p.ErrorMessage,
	}
	if !p.ProcessedAt.IsZero() {
		t := p.ProcessedAt
		payment.ProcessedAt = &t
	}
	return payment
}
