package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, price, category, stock, is_available, is_deliverable, image_url, is_deleted, created_at, updated_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Category,
		&i.Stock,
		&i.IsAvailable,
		&i.IsDeliverable,
		&i.ImageUrl,
		&i.IsDeleted,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listMenuItems = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE is_deleted = FALSE
ORDER BY category, name
`

// ListMenuItems returns every non-deleted item, including unavailable ones.
// Used by the staff/admin dashboards.
func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listAvailableMenuItems = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE is_deleted = FALSE AND is_available = TRUE
ORDER BY category, name
`

// ListAvailableMenuItems returns the customer-facing catalog. Soft-deleted
// and unavailable items never appear here regardless of stock.
func (q *Queries) ListAvailableMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listAvailableMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getMenuItem = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE id = $1 AND is_deleted = FALSE
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const createMenuItem = `
INSERT INTO menu_items (name, price, category, stock, is_available, is_deliverable, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	Name          string
	Price         pgtype.Numeric
	Category      string
	Stock         int32
	IsAvailable   bool
	IsDeliverable bool
	ImageUrl      pgtype.Text
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.Name,
		arg.Price,
		arg.Category,
		arg.Stock,
		arg.IsAvailable,
		arg.IsDeliverable,
		arg.ImageUrl,
	))
}

const updateMenuItem = `
UPDATE menu_items
SET name = $2,
    price = $3,
    category = $4,
    is_available = $5,
    is_deliverable = $6,
    image_url = $7,
    updated_at = now()
WHERE id = $1 AND is_deleted = FALSE
RETURNING ` + menuItemColumns

type UpdateMenuItemParams struct {
	ID            uuid.UUID
	Name          string
	Price         pgtype.Numeric
	Category      string
	IsAvailable   bool
	IsDeliverable bool
	ImageUrl      pgtype.Text
}

// UpdateMenuItem edits the catalog fields of an item. Stock is deliberately
// absent: all stock writes go through AdjustMenuItemStock or the checkout
// decrement so the non-negativity check cannot be bypassed.
func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.Name,
		arg.Price,
		arg.Category,
		arg.IsAvailable,
		arg.IsDeliverable,
		arg.ImageUrl,
	))
}

const setMenuItemAvailability = `
UPDATE menu_items
SET is_available = $2, updated_at = now()
WHERE id = $1 AND is_deleted = FALSE
RETURNING ` + menuItemColumns

type SetMenuItemAvailabilityParams struct {
	ID          uuid.UUID
	IsAvailable bool
}

func (q *Queries) SetMenuItemAvailability(ctx context.Context, arg SetMenuItemAvailabilityParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, setMenuItemAvailability, arg.ID, arg.IsAvailable))
}

const adjustMenuItemStock = `
UPDATE menu_items
SET stock = stock + $2, updated_at = now()
WHERE id = $1 AND is_deleted = FALSE AND stock + $2 >= 0
RETURNING ` + menuItemColumns

type AdjustMenuItemStockParams struct {
	ID    uuid.UUID
	Delta int32
}

// AdjustMenuItemStock applies a stock delta (positive restock, negative
// correction) as a compare-and-set: no rows are returned if the result
// would go negative, and the caller distinguishes that from a missing item.
func (q *Queries) AdjustMenuItemStock(ctx context.Context, arg AdjustMenuItemStockParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, adjustMenuItemStock, arg.ID, arg.Delta))
}

const adjustMenuItemStockClamped = `
UPDATE menu_items
SET stock = GREATEST(stock + $2, 0), updated_at = now()
WHERE id = $1 AND is_deleted = FALSE
RETURNING ` + menuItemColumns

// AdjustMenuItemStockClamped is the admin restock variant that clamps at
// zero instead of failing when the delta would overshoot.
func (q *Queries) AdjustMenuItemStockClamped(ctx context.Context, arg AdjustMenuItemStockParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, adjustMenuItemStockClamped, arg.ID, arg.Delta))
}

const decrementMenuItemStock = `
UPDATE menu_items
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND is_deleted = FALSE AND is_available = TRUE AND stock >= $2
RETURNING id, name, price, stock, is_deliverable
`

type DecrementMenuItemStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

type DecrementMenuItemStockRow struct {
	ID            uuid.UUID
	Name          string
	Price         pgtype.Numeric
	Stock         int32
	IsDeliverable bool
}

// DecrementMenuItemStock takes units out of stock for one checkout line.
// The WHERE clause is the atomic stock check: under a transaction the row
// lock serializes racing checkouts, and the loser sees no rows. Name and
// price are returned so the caller can freeze the order snapshot from the
// same row version it decremented.
func (q *Queries) DecrementMenuItemStock(ctx context.Context, arg DecrementMenuItemStockParams) (DecrementMenuItemStockRow, error) {
	var r DecrementMenuItemStockRow
	err := q.db.QueryRow(ctx, decrementMenuItemStock, arg.ID, arg.Quantity).Scan(
		&r.ID,
		&r.Name,
		&r.Price,
		&r.Stock,
		&r.IsDeliverable,
	)
	return r, err
}

const softDeleteMenuItem = `
UPDATE menu_items
SET is_deleted = TRUE, is_available = FALSE, updated_at = now()
WHERE id = $1 AND is_deleted = FALSE
RETURNING id
`

// SoftDeleteMenuItem hides an item from every listing without touching the
// row itself, so order snapshots that reference it stay intact.
func (q *Queries) SoftDeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteMenuItem, id).Scan(&deleted)
	return deleted, err
}
