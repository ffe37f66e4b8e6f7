package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, outlet, customer, status, location, order_date, delivery_date, discount,
    total_amount, act_payout, ongkir_plan, self_pickup, payment_link, payment_order_id,
    payment_token, payment_transaction_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.Outlet,
		&i.Customer,
		&i.Status,
		&i.Location,
		&i.OrderDate,
		&i.DeliveryDate,
		&i.Discount,
		&i.TotalAmount,
		&i.ActPayout,
		&i.OngkirPlan,
		&i.SelfPickup,
		&i.PaymentLink,
		&i.PaymentOrderID,
		&i.PaymentToken,
		&i.PaymentTransactionID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryOrders(ctx context.Context, sql string, args ...interface{}) ([]Order, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    outlet, customer, status, location, order_date, delivery_date,
    discount, total_amount, ongkir_plan, self_pickup
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	Outlet       string             `json:"outlet"`
	Customer     pgtype.Text        `json:"customer"`
	Status       string             `json:"status"`
	Location     string             `json:"location"`
	OrderDate    time.Time          `json:"order_date"`
	DeliveryDate pgtype.Timestamptz `json:"delivery_date"`
	Discount     pgtype.Numeric     `json:"discount"`
	TotalAmount  int64              `json:"total_amount"`
	OngkirPlan   pgtype.Int8        `json:"ongkir_plan"`
	SelfPickup   bool               `json:"self_pickup"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.Outlet,
		arg.Customer,
		arg.Status,
		arg.Location,
		arg.OrderDate,
		arg.DeliveryDate,
		arg.Discount,
		arg.TotalAmount,
		arg.OngkirPlan,
		arg.SelfPickup,
	)
	return scanOrder(row)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const getOrderByPaymentOrderID = `-- name: GetOrderByPaymentOrderID :one
SELECT ` + orderColumns + ` FROM orders
WHERE payment_order_id = $1
`

func (q *Queries) GetOrderByPaymentOrderID(ctx context.Context, paymentOrderID string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByPaymentOrderID, paymentOrderID))
}

const updateOrder = `-- name: UpdateOrder :one
UPDATE orders
SET customer      = $2,
    status        = $3,
    location      = $4,
    order_date    = $5,
    delivery_date = $6,
    discount      = $7,
    total_amount  = $8,
    ongkir_plan   = $9,
    self_pickup   = $10,
    updated_at    = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderParams struct {
	ID           int64              `json:"id"`
	Customer     pgtype.Text        `json:"customer"`
	Status       string             `json:"status"`
	Location     string             `json:"location"`
	OrderDate    time.Time          `json:"order_date"`
	DeliveryDate pgtype.Timestamptz `json:"delivery_date"`
	Discount     pgtype.Numeric     `json:"discount"`
	TotalAmount  int64              `json:"total_amount"`
	OngkirPlan   pgtype.Int8        `json:"ongkir_plan"`
	SelfPickup   bool               `json:"self_pickup"`
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrder,
		arg.ID,
		arg.Customer,
		arg.Status,
		arg.Location,
		arg.OrderDate,
		arg.DeliveryDate,
		arg.Discount,
		arg.TotalAmount,
		arg.OngkirPlan,
		arg.SelfPickup,
	)
	return scanOrder(row)
}

const setOrderPaymentReference = `-- name: SetOrderPaymentReference :one
UPDATE orders
SET payment_link     = $2,
    payment_order_id = $3,
    payment_token    = $4,
    updated_at       = now()
WHERE id = $1
RETURNING ` + orderColumns

type SetOrderPaymentReferenceParams struct {
	ID             int64       `json:"id"`
	PaymentLink    pgtype.Text `json:"payment_link"`
	PaymentOrderID pgtype.Text `json:"payment_order_id"`
	PaymentToken   pgtype.Text `json:"payment_token"`
}

func (q *Queries) SetOrderPaymentReference(ctx context.Context, arg SetOrderPaymentReferenceParams) (Order, error) {
	row := q.db.QueryRow(ctx, setOrderPaymentReference,
		arg.ID,
		arg.PaymentLink,
		arg.PaymentOrderID,
		arg.PaymentToken,
	)
	return scanOrder(row)
}

const markOrderPaid = `-- name: MarkOrderPaid :one
UPDATE orders
SET status                 = 'PAID',
    act_payout             = $2,
    payment_transaction_id = $3,
    updated_at             = now()
WHERE id = $1
RETURNING ` + orderColumns

type MarkOrderPaidParams struct {
	ID                   int64       `json:"id"`
	ActPayout            pgtype.Int8 `json:"act_payout"`
	PaymentTransactionID pgtype.Text `json:"payment_transaction_id"`
}

func (q *Queries) MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, markOrderPaid, arg.ID, arg.ActPayout, arg.PaymentTransactionID))
}

const markOrderPaidManual = `-- name: MarkOrderPaidManual :one
UPDATE orders
SET status                 = 'PAID',
    act_payout             = COALESCE(act_payout, total_amount),
    payment_link           = NULL,
    payment_order_id       = NULL,
    payment_token          = NULL,
    payment_transaction_id = NULL,
    updated_at             = now()
WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) MarkOrderPaidManual(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, markOrderPaidManual, id))
}

const deleteOrder = `-- name: DeleteOrder :exec
DELETE FROM orders
WHERE id = $1
`

func (q *Queries) DeleteOrder(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, deleteOrder, id)
	return err
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + ` FROM orders
WHERE ($1::text IS NULL OR outlet = $1)
  AND ($2::text IS NULL OR location = $2)
  AND ($3::text IS NULL OR status = $3)
  AND ($4::text IS NULL OR customer ILIKE '%' || $4 || '%' OR id::text = $4)
  AND ($5::timestamptz IS NULL OR order_date >= $5)
  AND ($6::timestamptz IS NULL OR order_date < $6)
ORDER BY order_date DESC, id DESC
LIMIT $7 OFFSET $8
`

type ListOrdersParams struct {
	Outlet   pgtype.Text        `json:"outlet"`
	Location pgtype.Text        `json:"location"`
	Status   pgtype.Text        `json:"status"`
	Search   pgtype.Text        `json:"search"`
	FromDate pgtype.Timestamptz `json:"from_date"`
	ToDate   pgtype.Timestamptz `json:"to_date"`
	Limit    int32              `json:"limit"`
	Offset   int32              `json:"offset"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	return q.queryOrders(ctx, listOrders,
		arg.Outlet,
		arg.Location,
		arg.Status,
		arg.Search,
		arg.FromDate,
		arg.ToDate,
		arg.Limit,
		arg.Offset,
	)
}

const listPendingOrders = `-- name: ListPendingOrders :many
SELECT ` + orderColumns + ` FROM orders o
WHERE NOT EXISTS (
        SELECT 1 FROM deliveries d
        WHERE d.order_id = o.id AND d.status = 'delivered'
    )
  AND ($1::text IS NULL OR o.location = $1)
  AND ($2::text IS NULL OR o.customer ILIKE '%' || $2 || '%' OR o.id::text = $2)
ORDER BY o.delivery_date ASC NULLS LAST, o.id ASC
LIMIT $3 OFFSET $4
`

type ListPendingOrdersParams struct {
	Location pgtype.Text `json:"location"`
	Search   pgtype.Text `json:"search"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListPendingOrders(ctx context.Context, arg ListPendingOrdersParams) ([]Order, error) {
	return q.queryOrders(ctx, listPendingOrders, arg.Location, arg.Search, arg.Limit, arg.Offset)
}
