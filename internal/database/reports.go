package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getDailySales = `
SELECT DATE(created_at) AS sale_date,
       COUNT(*) AS order_count,
       COALESCE(SUM(total_price), 0) AS total_revenue
FROM orders
WHERE status <> 'Cancelled'
  AND ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2 + INTERVAL '1 day')
GROUP BY DATE(created_at)
ORDER BY sale_date DESC
`

type GetDailySalesParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetDailySalesRow struct {
	SaleDate     pgtype.Date
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

// GetDailySales aggregates order count and revenue per calendar day.
// Cancelled orders never count toward revenue.
func (q *Queries) GetDailySales(ctx context.Context, arg GetDailySalesParams) ([]GetDailySalesRow, error) {
	rows, err := q.db.Query(ctx, getDailySales, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []GetDailySalesRow
	for rows.Next() {
		var r GetDailySalesRow
		if err := rows.Scan(&r.SaleDate, &r.OrderCount, &r.TotalRevenue); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

const getTopItems = `
SELECT (line->>'id')::uuid AS item_id,
       line->>'name' AS item_name,
       SUM((line->>'qty')::int) AS total_qty,
       SUM((line->>'qty')::int * (line->>'unit_price')::numeric) AS total_revenue
FROM orders, jsonb_array_elements(items) AS line
WHERE status <> 'Cancelled'
GROUP BY item_id, item_name
ORDER BY total_qty DESC
LIMIT $1
`

type GetTopItemsRow struct {
	ItemID       uuid.UUID
	ItemName     string
	TotalQty     int64
	TotalRevenue pgtype.Numeric
}

// GetTopItems ranks items by units sold, expanded from the order snapshots
// rather than joined against the live catalog, so deleted or renamed items
// report under the name they were sold as.
func (q *Queries) GetTopItems(ctx context.Context, limit int32) ([]GetTopItemsRow, error) {
	rows, err := q.db.Query(ctx, getTopItems, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []GetTopItemsRow
	for rows.Next() {
		var r GetTopItemsRow
		if err := rows.Scan(&r.ItemID, &r.ItemName, &r.TotalQty, &r.TotalRevenue); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

const getStatusSummary = `
SELECT status, COUNT(*) AS order_count
FROM orders
GROUP BY status
ORDER BY status
`

type GetStatusSummaryRow struct {
	Status     string
	OrderCount int64
}

func (q *Queries) GetStatusSummary(ctx context.Context) ([]GetStatusSummaryRow, error) {
	rows, err := q.db.Query(ctx, getStatusSummary)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []GetStatusSummaryRow
	for rows.Next() {
		var r GetStatusSummaryRow
		if err := rows.Scan(&r.Status, &r.OrderCount); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
