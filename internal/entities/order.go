package entities

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusFailed     OrderStatus = "FAILED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// Таблица переходов закрытая: всё, чего здесь нет, запрещено.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusConfirmed, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusCompleted:  {OrderStatusRefunded},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusConfirmed,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed, OrderStatusRefunded:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal сообщает, что из статуса нет исходящих переходов.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

type OrderItem struct {
	ID          string
	OrderID     string
	ProductName string
	SKU         string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

type Order struct {
	ID              string
	OrderNumber     string
	CustomerID      string
	Status          OrderStatus
	ShippingAddress string
	ShippingCost    decimal.Decimal
	Subtotal        decimal.Decimal
	Total           decimal.Decimal
	Notes           string
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// без указателей, потому что у заказа всегда есть позиции и активный платёж
	Items   []OrderItem
	Payment Payment
}

// Transition меняет статус заказа только по таблице переходов.
func (o *Order) Transition(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: order %s -> %s", ErrInvalidStateTransition, o.Status, next)
	}
	o.Status = next
	return nil
}

// CalculateTotals пересчитывает subtotal и total по позициям заказа.
func (o *Order) CalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.ShippingCost)
}

func (o *Order) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Order) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	if err := dec.Decode(o); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOrder, err)
	}
	return nil
}

func init() {
	gob.Register(Order{})
	gob.Register(OrderItem{})
	gob.Register(Payment{})
	gob.Register(decimal.Decimal{})
}
