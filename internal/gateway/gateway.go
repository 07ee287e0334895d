package gateway

import (
	"context"
	"log/slog"

	"github.com/SergeyBogomolovv/order-processing-service/internal/entities"

	"github.com/shopspring/decimal"
)

// Result - исход обращения к платёжному шлюзу.
// Отказ шлюза это не ошибка выполнения, а нормальный исход списания.
type Result struct {
	Approved bool
	Message  string
}

// Simulated заменяет внешний платёжный шлюз. Одобряет всё,
// кроме сумм выше declineOver (если лимит задан).
type Simulated struct {
	logger      *slog.Logger
	declineOver decimal.Decimal
	hasLimit    bool
}

func NewSimulated(logger *slog.Logger, declineOver string) *Simulated {
	g := &Simulated{logger: logger.With(slog.String("gateway", "simulated"))}
	if declineOver != "" {
		limit, err := decimal.NewFromString(declineOver)
		if err == nil {
			g.declineOver = limit
			g.hasLimit = true
		}
	}
	return g
}

func (g *Simulated) Charge(ctx context.Context, amount decimal.Decimal, method entities.PaymentMethod, reference string) (Result, error) {
	if g.hasLimit && amount.GreaterThan(g.declineOver) {
		g.logger.InfoContext(ctx, "charge declined",
			slog.String("reference", reference),
			slog.String("amount", amount.String()),
		)
		return Result{Approved: false, Message: "amount over limit"}, nil
	}

	g.logger.DebugContext(ctx, "charge approved",
		slog.String("reference", reference),
		slog.String("method", string(method)),
		slog.String("amount", amount.String()),
	)
	return Result{Approved: true, Message: "approved"}, nil
}
