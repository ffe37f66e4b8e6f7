package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

func scanInventoryItem(row rowScanner) (InventoryItem, error) {
	var i InventoryItem
	err := row.Scan(
		&i.Barcode,
		&i.ProductID,
		&i.Location,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getInventoryItem = `-- name: GetInventoryItem :one
SELECT barcode, product_id, location, status, created_at, updated_at FROM inventory_items
WHERE barcode = $1
`

func (q *Queries) GetInventoryItem(ctx context.Context, barcode string) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, getInventoryItem, barcode))
}

const listInventoryItemsByBarcodes = `-- name: ListInventoryItemsByBarcodes :many
SELECT barcode, product_id, location, status, created_at, updated_at FROM inventory_items
WHERE barcode = ANY($1::text[])
`

func (q *Queries) ListInventoryItemsByBarcodes(ctx context.Context, barcodes []string) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, listInventoryItemsByBarcodes, barcodes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []InventoryItem{}
	for rows.Next() {
		i, err := scanInventoryItem(rows)
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

const createInventoryItem = `-- name: CreateInventoryItem :one
INSERT INTO inventory_items (barcode, product_id, location, status)
VALUES ($1, $2, $3, 'READY')
RETURNING barcode, product_id, location, status, created_at, updated_at
`

type CreateInventoryItemParams struct {
	Barcode   string `json:"barcode"`
	ProductID int64  `json:"product_id"`
	Location  string `json:"location"`
}

func (q *Queries) CreateInventoryItem(ctx context.Context, arg CreateInventoryItemParams) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, createInventoryItem, arg.Barcode, arg.ProductID, arg.Location))
}

const moveInventoryItem = `-- name: MoveInventoryItem :one
UPDATE inventory_items
SET location = $2, updated_at = now()
WHERE barcode = $1
RETURNING barcode, product_id, location, status, created_at, updated_at
`

type MoveInventoryItemParams struct {
	Barcode  string `json:"barcode"`
	Location string `json:"location"`
}

func (q *Queries) MoveInventoryItem(ctx context.Context, arg MoveInventoryItemParams) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, moveInventoryItem, arg.Barcode, arg.Location))
}

const allocateInventoryItem = `-- name: AllocateInventoryItem :execrows
UPDATE inventory_items
SET status = 'SOLD', updated_at = now()
WHERE barcode = $1 AND location = $2 AND status = 'READY'
`

type AllocateInventoryItemParams struct {
	Barcode  string `json:"barcode"`
	Location string `json:"location"`
}

// AllocateInventoryItem flips a READY unit to SOLD. Zero rows means another
// allocation (or a move) won the race.
func (q *Queries) AllocateInventoryItem(ctx context.Context, arg AllocateInventoryItemParams) (int64, error) {
	result, err := q.db.Exec(ctx, allocateInventoryItem, arg.Barcode, arg.Location)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const releaseInventoryItems = `-- name: ReleaseInventoryItems :execrows
UPDATE inventory_items
SET status = 'READY', updated_at = now()
WHERE barcode = ANY($1::text[])
`

func (q *Queries) ReleaseInventoryItems(ctx context.Context, barcodes []string) (int64, error) {
	result, err := q.db.Exec(ctx, releaseInventoryItems, barcodes)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteInventoryItem = `-- name: DeleteInventoryItem :execrows
DELETE FROM inventory_items
WHERE barcode = $1
`

func (q *Queries) DeleteInventoryItem(ctx context.Context, barcode string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteInventoryItem, barcode)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const countReadyStock = `-- name: CountReadyStock :many
SELECT p.id AS product_id, p.code, p.name, i.location, COUNT(*)::bigint AS total
FROM inventory_items i
JOIN products p ON p.id = i.product_id
WHERE i.status = 'READY'
  AND ($1::text IS NULL OR i.location = $1)
GROUP BY p.id, p.code, p.name, i.location
ORDER BY p.code, i.location
`

type CountReadyStockRow struct {
	ProductID int64  `json:"product_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	Total     int64  `json:"total"`
}

func (q *Queries) CountReadyStock(ctx context.Context, location pgtype.Text) ([]CountReadyStockRow, error) {
	rows, err := q.db.Query(ctx, countReadyStock, location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CountReadyStockRow{}
	for rows.Next() {
		var i CountReadyStockRow
		if err := rows.Scan(
			&i.ProductID,
			&i.Code,
			&i.Name,
			&i.Location,
			&i.Total,
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

const countReservedStock = `-- name: CountReservedStock :many
WITH pending AS (
    SELECT o.id, o.location FROM orders o
    WHERE NOT EXISTS (
            SELECT 1 FROM deliveries d
            WHERE d.order_id = o.id AND d.status = 'delivered'
        )
      AND ($1::text IS NULL OR o.location = $1)
), ordered AS (
    SELECT p.location, oi.product_id, SUM(oi.quantity)::bigint AS qty
    FROM order_items oi
    JOIN pending p ON p.id = oi.order_id
    GROUP BY p.location, oi.product_id
), allocated AS (
    SELECT p.location, di.product_id, COUNT(*)::bigint AS qty
    FROM delivery_items di
    JOIN deliveries d ON d.id = di.delivery_id
    JOIN pending p ON p.id = d.order_id
    GROUP BY p.location, di.product_id
)
SELECT o.product_id, o.location, GREATEST(o.qty - COALESCE(a.qty, 0), 0)::bigint AS reserved
FROM ordered o
LEFT JOIN allocated a ON a.location = o.location AND a.product_id = o.product_id
ORDER BY o.product_id, o.location
`

type CountReservedStockRow struct {
	ProductID int64  `json:"product_id"`
	Location  string `json:"location"`
	Reserved  int64  `json:"reserved"`
}

func (q *Queries) CountReservedStock(ctx context.Context, location pgtype.Text) ([]CountReservedStockRow, error) {
	rows, err := q.db.Query(ctx, countReservedStock, location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CountReservedStockRow{}
	for rows.Next() {
		var i CountReservedStockRow
		if err := rows.Scan(&i.ProductID, &i.Location, &i.Reserved); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
