package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, customer_name, customer_email, customer_phone, items, total_price, status, otp, delivery_mode, block, department, classroom, expected_time, payment_method, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.CustomerPhone,
		&o.Items,
		&o.TotalPrice,
		&o.Status,
		&o.Otp,
		&o.DeliveryMode,
		&o.Block,
		&o.Department,
		&o.Classroom,
		&o.ExpectedTime,
		&o.PaymentMethod,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

const createOrder = `
INSERT INTO orders (
    customer_name, customer_email, customer_phone, items, total_price,
    status, otp, delivery_mode, block, department, classroom, expected_time,
    payment_method
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Items         []byte
	TotalPrice    pgtype.Numeric
	Status        string
	Otp           string
	DeliveryMode  string
	Block         pgtype.Text
	Department    pgtype.Text
	Classroom     pgtype.Text
	ExpectedTime  pgtype.Text
	PaymentMethod string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.CustomerName,
		arg.CustomerEmail,
		arg.CustomerPhone,
		arg.Items,
		arg.TotalPrice,
		arg.Status,
		arg.Otp,
		arg.DeliveryMode,
		arg.Block,
		arg.Department,
		arg.Classroom,
		arg.ExpectedTime,
		arg.PaymentMethod,
	))
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::text IS NULL OR delivery_mode = $2)
  AND ($3::timestamptz IS NULL OR created_at >= $3)
  AND ($4::timestamptz IS NULL OR created_at < $4 + INTERVAL '1 day')
ORDER BY created_at DESC
LIMIT $5 OFFSET $6
`

type ListOrdersParams struct {
	Status       pgtype.Text
	DeliveryMode pgtype.Text
	StartDate    pgtype.Timestamptz
	EndDate      pgtype.Timestamptz
	Limit        int32
	Offset       int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status,
		arg.DeliveryMode,
		arg.StartDate,
		arg.EndDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrdersByCustomerEmail = `
SELECT ` + orderColumns + `
FROM orders
WHERE customer_email = $1
ORDER BY created_at DESC
`

// ListOrdersByCustomerEmail returns a customer's order history, newest first.
func (q *Queries) ListOrdersByCustomerEmail(ctx context.Context, customerEmail string) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByCustomerEmail, customerEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	PrevStatus string
}

// UpdateOrderStatus applies a transition with a compare-and-set on the
// previously read status. No rows returned means the order changed between
// read and write, and the caller must re-validate.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.PrevStatus))
}
