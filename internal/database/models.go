package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// MenuItem is a row in menu_items. Stock is guarded by a CHECK (stock >= 0)
// constraint; the only writers are the stock-adjust queries and the checkout
// transaction.
type MenuItem struct {
	ID            uuid.UUID
	Name          string
	Price         pgtype.Numeric
	Category      string
	Stock         int32
	IsAvailable   bool
	IsDeliverable bool
	ImageUrl      pgtype.Text
	IsDeleted     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Order is a row in orders. Items holds the checkout-time snapshot as JSON;
// it is never rewritten after creation, so later menu edits cannot alter
// historical orders.
type Order struct {
	ID            uuid.UUID
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
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItemSnapshot is one line of the frozen items document stored on an
// order: the item id plus the name, quantity and unit price captured at
// checkout time.
type OrderItemSnapshot struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Qty       int32     `json:"qty"`
	UnitPrice string    `json:"unit_price"`
}

// User is a row in users (staff and admin accounts only; customers are
// unauthenticated).
type User struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AuditEntry is a row in audit_log. Append-only.
type AuditEntry struct {
	ID         int64
	AdminEmail string
	Action     string
	Target     string
	Details    pgtype.Text
	CreatedAt  time.Time
}
