package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SergeyBogomolovv/order-processing-service/internal/entities"
	"github.com/SergeyBogomolovv/order-processing-service/pkg/trm"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// lockNotAvailable возвращается postgres, когда lock_timeout истёк
// до получения блокировки строки.
const lockNotAvailable = "55P03"

var orderColumns = []string{
	"id", "order_number", "customer_id", "status", "shipping_address",
	"shipping_cost", "subtotal", "total_amount", "notes", "version",
	"created_at", "updated_at",
}

var paymentColumns = []string{
	"id", "order_id", "transaction_id", "payment_method", "amount",
	"refunded_amount", "status", "gateway_ref", "error_message",
	"processed_at", "created_at", "updated_at",
}

type postgresRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB) *postgresRepo {
	return &postgresRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// LatestOrders возвращает последние count заказов с позициями и активными платежами.
// Используется для прогрева кэша при старте.
func (r *postgresRepo) LatestOrders(ctx context.Context, count int) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC").
		Limit(uint64(count)).
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	if len(orders) == 0 {
		return []entities.Order{}, nil
	}

	ids := make([]string, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}

	query, args = r.qb.Select(
		"id", "order_id", "product_name", "product_sku",
		"quantity", "unit_price", "line_total",
	).
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	itemsMap := make(map[string][]OrderItem, len(ids))
	for _, item := range items {
		itemsMap[item.OrderID] = append(itemsMap[item.OrderID], item)
	}

	query, args = r.qb.Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"order_id": ids}).
		OrderBy("created_at DESC").
		MustSql()

	var payments []Payment
	if err := r.selectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select payments: %w", err)
	}
	// платежи отсортированы по убыванию, первый на заказ - активный
	paymentMap := make(map[string]Payment, len(ids))
	for _, payment := range payments {
		if _, ok := paymentMap[payment.OrderID]; !ok {
			paymentMap[payment.OrderID] = payment
		}
	}

	result := make([]entities.Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderToEntity(order, itemsMap[order.ID], paymentMap[order.ID]))
	}

	return result, nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.orderItems(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	payment, err := r.activePayment(ctx, orderID, false)
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, items, payment), nil
}

// GetOrderForUpdate читает строку заказа под эксклюзивной блокировкой.
// Блокировка держится до конца транзакции из контекста.
func (r *postgresRepo) GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID}).
		Suffix("FOR UPDATE").
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to lock order: %w", mapLockErr(err))
	}

	items, err := r.orderItems(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	payment, err := r.activePayment(ctx, orderID, true)
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, items, payment), nil
}

func (r *postgresRepo) orderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	query, args := r.qb.Select(
		"id", "order_id", "product_name", "product_sku",
		"quantity", "unit_price", "line_total",
	).
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id").
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	return items, nil
}

// activePayment возвращает последний платёж заказа - только он активен,
// более старые строки остаются как история попыток.
func (r *postgresRepo) activePayment(ctx context.Context, orderID string, forUpdate bool) (Payment, error) {
	b := r.qb.Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("created_at DESC").
		Limit(1)
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	query, args := b.MustSql()

	var payment Payment
	err := r.getContext(ctx, &payment, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Payment{}, fmt.Errorf("failed to get payment: %w", entities.ErrOrderNotFound)
	}
	if err != nil {
		return Payment{}, fmt.Errorf("failed to get payment: %w", mapLockErr(err))
	}
	return payment, nil
}

func (r *postgresRepo) SaveOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID, o.OrderNumber, o.CustomerID, string(o.Status), o.ShippingAddress,
			o.ShippingCost, o.Subtotal, o.Total, nullString(o.Notes), o.Version,
			o.CreatedAt, o.UpdatedAt,
		).
		MustSql()

	_, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r *postgresRepo) SaveItems(ctx context.Context, orderID string, items []entities.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").
		Columns("id", "order_id", "product_name", "product_sku", "quantity", "unit_price", "line_total")

	for _, it := range items {
		q = q.Values(it.ID, orderID, it.ProductName, nullString(it.SKU), it.Quantity, it.UnitPrice, it.LineTotal)
	}

	query, args := q.MustSql()
	_, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save items: %w", err)
	}
	return nil
}

func (r *postgresRepo) SavePayment(ctx context.Context, p entities.Payment) error {
	query, args := r.qb.Insert("payments").
		Columns(paymentColumns...).
		Values(
			p.ID, p.OrderID, p.TransactionID, string(p.Method), p.Amount,
			p.RefundedAmount, string(p.Status), nullString(p.GatewayRef), nullString(p.ErrorMessage),
			nullTime(p.ProcessedAt), p.CreatedAt, p.UpdatedAt,
		).
		MustSql()

	_, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// UpdateOrder записывает статус и заметки заказа условно: WHERE version = прочитанной.
// Ноль затронутых строк означает, что заказ успел измениться в обход блокировки.
func (r *postgresRepo) UpdateOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Update("orders").
		Set("status", string(o.Status)).
		Set("notes", nullString(o.Notes)).
		Set("version", o.Version+1).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": o.ID, "version": o.Version}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if affected == 0 {
		return entities.ErrConcurrentModification
	}
	return nil
}

func (r *postgresRepo) UpdatePayment(ctx context.Context, p entities.Payment) error {
	query, args := r.qb.Update("payments").
		Set("status", string(p.Status)).
		Set("refunded_amount", p.RefundedAmount).
		Set("gateway_ref", nullString(p.GatewayRef)).
		Set("error_message", nullString(p.ErrorMessage)).
		Set("processed_at", nullTime(p.ProcessedAt)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": p.ID}).
		MustSql()

	_, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetCustomerByUserID(ctx context.Context, userID string) (entities.Customer, error) {
	query, args := r.qb.Select("id", "user_id", "full_name", "email", "phone", "created_at", "updated_at").
		From("customers").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	var customer Customer
	err := r.getContext(ctx, &customer, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Customer{}, entities.ErrCustomerNotFound
	}
	if err != nil {
		return entities.Customer{}, fmt.Errorf("failed to get customer: %w", err)
	}
	return CustomerToEntity(customer), nil
}

func (r *postgresRepo) SaveCustomer(ctx context.Context, c entities.Customer) error {
	query, args := r.qb.Insert("customers").
		Columns("id", "user_id", "full_name", "email", "phone", "created_at", "updated_at").
		Values(c.ID, nullString(c.UserID), c.FullName, c.Email, nullString(c.Phone), c.CreatedAt, c.UpdatedAt).
		MustSql()

	_, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

func mapLockErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == lockNotAvailable {
		return entities.ErrLockTimeout
	}
	return err
}

func (r *postgresRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *postgresRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *postgresRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
