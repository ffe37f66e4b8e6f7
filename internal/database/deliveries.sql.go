package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func scanDelivery(row rowScanner) (Delivery, error) {
	var i Delivery
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Status,
		&i.DeliveryDate,
		&i.OngkirPlan,
		&i.OngkirActual,
		&i.CreatedAt,
	)
	return i, err
}

const createDelivery = `-- name: CreateDelivery :one
INSERT INTO deliveries (order_id, status, delivery_date, ongkir_plan, ongkir_actual)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, status, delivery_date, ongkir_plan, ongkir_actual, created_at
`

type CreateDeliveryParams struct {
	OrderID      int64       `json:"order_id"`
	Status       string      `json:"status"`
	DeliveryDate time.Time   `json:"delivery_date"`
	OngkirPlan   pgtype.Int8 `json:"ongkir_plan"`
	OngkirActual pgtype.Int8 `json:"ongkir_actual"`
}

func (q *Queries) CreateDelivery(ctx context.Context, arg CreateDeliveryParams) (Delivery, error) {
	row := q.db.QueryRow(ctx, createDelivery,
		arg.OrderID,
		arg.Status,
		arg.DeliveryDate,
		arg.OngkirPlan,
		arg.OngkirActual,
	)
	return scanDelivery(row)
}

const getDelivery = `-- name: GetDelivery :one
SELECT id, order_id, status, delivery_date, ongkir_plan, ongkir_actual, created_at FROM deliveries
WHERE id = $1
`

func (q *Queries) GetDelivery(ctx context.Context, id int64) (Delivery, error) {
	return scanDelivery(q.db.QueryRow(ctx, getDelivery, id))
}

const listDeliveriesByOrder = `-- name: ListDeliveriesByOrder :many
SELECT id, order_id, status, delivery_date, ongkir_plan, ongkir_actual, created_at FROM deliveries
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListDeliveriesByOrder(ctx context.Context, orderID int64) ([]Delivery, error) {
	rows, err := q.db.Query(ctx, listDeliveriesByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Delivery{}
	for rows.Next() {
		i, err := scanDelivery(rows)
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

const markDeliveryDelivered = `-- name: MarkDeliveryDelivered :one
UPDATE deliveries
SET status = 'delivered'
WHERE id = $1
RETURNING id, order_id, status, delivery_date, ongkir_plan, ongkir_actual, created_at
`

func (q *Queries) MarkDeliveryDelivered(ctx context.Context, id int64) (Delivery, error) {
	return scanDelivery(q.db.QueryRow(ctx, markDeliveryDelivered, id))
}

const deleteDelivery = `-- name: DeleteDelivery :exec
DELETE FROM deliveries
WHERE id = $1
`

func (q *Queries) DeleteDelivery(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, deleteDelivery, id)
	return err
}

const deleteDeliveriesByOrder = `-- name: DeleteDeliveriesByOrder :exec
DELETE FROM deliveries
WHERE order_id = $1
`

func (q *Queries) DeleteDeliveriesByOrder(ctx context.Context, orderID int64) error {
	_, err := q.db.Exec(ctx, deleteDeliveriesByOrder, orderID)
	return err
}

const createDeliveryItem = `-- name: CreateDeliveryItem :one
INSERT INTO delivery_items (delivery_id, product_id, barcode)
VALUES ($1, $2, $3)
RETURNING id, delivery_id, product_id, barcode
`

type CreateDeliveryItemParams struct {
	DeliveryID int64  `json:"delivery_id"`
	ProductID  int64  `json:"product_id"`
	Barcode    string `json:"barcode"`
}

func (q *Queries) CreateDeliveryItem(ctx context.Context, arg CreateDeliveryItemParams) (DeliveryItem, error) {
	row := q.db.QueryRow(ctx, createDeliveryItem, arg.DeliveryID, arg.ProductID, arg.Barcode)
	var i DeliveryItem
	err := row.Scan(
		&i.ID,
		&i.DeliveryID,
		&i.ProductID,
		&i.Barcode,
	)
	return i, err
}

const listDeliveryItemsByDelivery = `-- name: ListDeliveryItemsByDelivery :many
SELECT id, delivery_id, product_id, barcode FROM delivery_items
WHERE delivery_id = $1
ORDER BY id
`

func (q *Queries) ListDeliveryItemsByDelivery(ctx context.Context, deliveryID int64) ([]DeliveryItem, error) {
	return q.queryDeliveryItems(ctx, listDeliveryItemsByDelivery, deliveryID)
}

const listDeliveryItemsByOrder = `-- name: ListDeliveryItemsByOrder :many
SELECT di.id, di.delivery_id, di.product_id, di.barcode
FROM delivery_items di
JOIN deliveries d ON d.id = di.delivery_id
WHERE d.order_id = $1
ORDER BY di.id
`

func (q *Queries) ListDeliveryItemsByOrder(ctx context.Context, orderID int64) ([]DeliveryItem, error) {
	return q.queryDeliveryItems(ctx, listDeliveryItemsByOrder, orderID)
}

const listDeliveryItemsByOrders = `-- name: ListDeliveryItemsByOrders :many
SELECT di.id, di.delivery_id, di.product_id, di.barcode, d.order_id
FROM delivery_items di
JOIN deliveries d ON d.id = di.delivery_id
WHERE d.order_id = ANY($1::bigint[])
ORDER BY di.id
`

type ListDeliveryItemsByOrdersRow struct {
	ID         int64  `json:"id"`
	DeliveryID int64  `json:"delivery_id"`
	ProductID  int64  `json:"product_id"`
	Barcode    string `json:"barcode"`
	OrderID    int64  `json:"order_id"`
}

func (q *Queries) ListDeliveryItemsByOrders(ctx context.Context, orderIDs []int64) ([]ListDeliveryItemsByOrdersRow, error) {
	rows, err := q.db.Query(ctx, listDeliveryItemsByOrders, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListDeliveryItemsByOrdersRow{}
	for rows.Next() {
		var i ListDeliveryItemsByOrdersRow
		if err := rows.Scan(
			&i.ID,
			&i.DeliveryID,
			&i.ProductID,
			&i.Barcode,
			&i.OrderID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) queryDeliveryItems(ctx context.Context, sql string, args ...interface{}) ([]DeliveryItem, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []DeliveryItem{}
	for rows.Next() {
		var i DeliveryItem
		if err := rows.Scan(
			&i.ID,
			&i.DeliveryID,
			&i.ProductID,
			&i.Barcode,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteDeliveryItemsByDelivery = `-- name: DeleteDeliveryItemsByDelivery :exec
DELETE FROM delivery_items
WHERE delivery_id = $1
`

func (q *Queries) DeleteDeliveryItemsByDelivery(ctx context.Context, deliveryID int64) error {
	_, err := q.db.Exec(ctx, deleteDeliveryItemsByDelivery, deliveryID)
	return err
}

const deleteDeliveryItemsByOrder = `-- name: DeleteDeliveryItemsByOrder :exec
DELETE FROM delivery_items di
USING deliveries d
WHERE d.id = di.delivery_id AND d.order_id = $1
`

func (q *Queries) DeleteDeliveryItemsByOrder(ctx context.Context, orderID int64) error {
	_, err := q.db.Exec(ctx, deleteDeliveryItemsByOrder, orderID)
	return err
}
