package repo

import (
	"database/sql"
	"time"

	"github.com/SergeyBogomolovv/order-processing-service/internal/entities"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              string          `db:"id"`
	OrderNumber     string          `db:"order_number"`
	CustomerID      string          `db:"customer_id"`
	Status          string          `db:"status"`
	ShippingAddress string          `db:"shipping_address"`
	ShippingCost    decimal.Decimal `db:"shipping_cost"`
	Subtotal        decimal.Decimal `db:"subtotal"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Notes           sql.NullString  `db:"notes"`
	Version         int             `db:"version"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

type OrderItem struct {
	ID          string          `db:"id"`
	OrderID     string          `db:"order_id"`
	ProductName string          `db:"product_name"`
	ProductSKU  sql.NullString  `db:"product_sku"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	LineTotal   decimal.Decimal `db:"line_total"`
}

type Payment struct {
	ID             string          `db:"id"`
	OrderID        string          `db:"order_id"`
	TransactionID  string          `db:"transaction_id"`
	PaymentMethod  string          `db:"payment_method"`
	Amount         decimal.Decimal `db:"amount"`
	RefundedAmount decimal.Decimal `db:"refunded_amount"`
	Status         string          `db:"status"`
	GatewayRef     sql.NullString  `db:"gateway_ref"`
	ErrorMessage   sql.NullString  `db:"error_message"`
	ProcessedAt    sql.NullTime    `db:"processed_at"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

type Customer struct {
	ID        string         `db:"id"`
	UserID    sql.NullString `db:"user_id"`
	FullName  string         `db:"full_name"`
	Email     string         `db:"email"`
	Phone     sql.NullString `db:"phone"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func OrderToEntity(o Order, items []OrderItem, p Payment) entities.Order {
	order := entities.Order{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Status:          entities.OrderStatus(o.Status),
		ShippingAddress: o.ShippingAddress,
		ShippingCost:    o.ShippingCost,
		Subtotal:        o.Subtotal,
		Total:           o.TotalAmount,
		Notes:           nullStringToString(o.Notes),
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Payment:         PaymentToEntity(p),
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}

func ItemToEntity(i OrderItem) entities.OrderItem {
	return entities.OrderItem{
		ID:          i.ID,
		OrderID:     i.OrderID,
		ProductName: i.ProductName,
		SKU:         nullStringToString(i.ProductSKU),
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
		LineTotal:   i.LineTotal,
	}
}

func PaymentToEntity(p Payment) entities.Payment {
	return entities.Payment{
		ID:             p.ID,
		OrderID:        p.OrderID,
		TransactionID:  p.TransactionID,
		Method:         entities.PaymentMethod(p.PaymentMethod),
		Amount:         p.Amount,
		RefundedAmount: p.RefundedAmount,
		Status:         entities.PaymentStatus(p.Status),
		GatewayRef:     nullStringToString(p.GatewayRef),
		ErrorMessage:   nullStringToString(p.ErrorMessage),
		ProcessedAt:    nullTimeToTime(p.ProcessedAt),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func CustomerToEntity(c Customer) entities.Customer {
	return entities.Customer{
		ID:        c.ID,
		UserID:    nullStringToString(c.UserID),
		FullName:  c.FullName,
		Email:     c.Email,
		Phone:     nullStringToString(c.Phone),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullTimeToTime(nt sql.NullTime) time.Time {
	if nt.Valid {
		return nt.Time
	}
	return time.Time{}
}
