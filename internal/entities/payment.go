package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// PENDING -> FAILED нужен для отмены заказа до списания средств.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusFailed},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted:  {PaymentStatusRefunded},
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Finalized сообщает, что платёж нельзя обработать повторно.
func (s PaymentStatus) Finalized() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodPayPal       PaymentMethod = "PAYPAL"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCrypto       PaymentMethod = "CRYPTO"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPayPal,
		PaymentMethodBankTransfer, PaymentMethodCash, PaymentMethodCrypto:
		return true
	}
	return false
}

type Payment struct {
	ID             string
	OrderID        string
	TransactionID  string
	Method         PaymentMethod
	Amount         decimal.Decimal
	RefundedAmount decimal.Decimal
	Status         PaymentStatus
	GatewayRef     string
	ErrorMessage   string
	ProcessedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p *Payment) Transition(next PaymentStatus) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: payment %s -> %s", ErrInvalidStateTransition, p.Status, next)
	}
	p.Status = next
	return nil
}

// RemainingRefundable возвращает сумму, доступную к возврату.
func (p *Payment) RemainingRefundable() decimal.Decimal {
	return p.Amount.Sub(p.RefundedAmount)
}
