package entities

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrInvalidOrder     = errors.New("invalid order data")

	// Ошибки валидации входа: ничего не записано, можно повторить с исправленными данными.
	ErrInvalidOrderInput   = errors.New("invalid order input")
	ErrInvalidRefundAmount = errors.New("invalid refund amount")

	// Конфликты состояния: запрос устарел или дублируется, ничего не записано.
	ErrInvalidStateTransition  = errors.New("invalid state transition")
	ErrPaymentAlreadyFinalized = errors.New("payment already finalized")

	// Транзиентные ошибки конкурентного доступа: вызывающий может перечитать и повторить.
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrLockTimeout            = errors.New("lock acquisition timed out")
)
