// Package cart models the customer's in-session cart: a mapping from menu
// item id to quantity, validated and clamped against the live catalog on
// every mutation. The cart is owned by the browser session and is never
// persisted server-side; it reaches the API only inside a checkout request.
package cart

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by cart operations.
var (
	ErrUnknownItem     = errors.New("item not in catalog")
	ErrOutOfStock      = errors.New("item is out of stock")
	ErrInvalidQuantity = errors.New("quantity must be > 0")
)

// CatalogItem is the live catalog state a cart validates against. Prices
// here float with the catalog; they are frozen only when checkout snapshots
// them into an order.
type CatalogItem struct {
	ID          uuid.UUID
	Name        string
	Price       decimal.Decimal
	Stock       int32
	Available   bool
	Deliverable bool
}

// Catalog resolves an item id to its current catalog state. Unavailable and
// deleted items resolve as not found.
type Catalog interface {
	Lookup(id uuid.UUID) (CatalogItem, bool)
}

// Line is one (item, quantity) pair.
type Line struct {
	ItemID   uuid.UUID
	Quantity int32
}

// Cart holds at most one line per item.
type Cart struct {
	lines map[uuid.UUID]int32
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: make(map[uuid.UUID]int32)}
}

// FromLines builds a cart from raw request lines, merging duplicate item ids
// by summing their quantities. Non-positive quantities are rejected.
func FromLines(lines []Line) (*Cart, error) {
	c := New()
	for i, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		c.lines[l.ItemID] += l.Quantity
	}
	return c, nil
}

// Add inserts or increments the line for the given item. It fails with
// ErrOutOfStock when the item has no stock at all; otherwise the resulting
// quantity is clamped to the current stock, and clamped=true tells the
// caller to surface a warning rather than an error.
func (c *Cart) Add(cat Catalog, id uuid.UUID, qty int32) (clamped bool, err error) {
	if qty <= 0 {
		return false, ErrInvalidQuantity
	}
	item, ok := cat.Lookup(id)
	if !ok {
		return false, ErrUnknownItem
	}
	if item.Stock == 0 {
		return false, ErrOutOfStock
	}
	next := c.lines[id] + qty
	if next > item.Stock {
		next = item.Stock
		clamped = true
	}
	c.lines[id] = next
	return clamped, nil
}

// SetQuantity overwrites the line quantity. qty <= 0 removes the line;
// qty above the current stock clamps to the stock.
func (c *Cart) SetQuantity(cat Catalog, id uuid.UUID, qty int32) (clamped bool, err error) {
	if qty <= 0 {
		delete(c.lines, id)
		return false, nil
	}
	item, ok := cat.Lookup(id)
	if !ok {
		return false, ErrUnknownItem
	}
	if qty > item.Stock {
		qty = item.Stock
		clamped = true
	}
	if qty == 0 {
		delete(c.lines, id)
		return clamped, nil
	}
	c.lines[id] = qty
	return clamped, nil
}

// Remove drops the line unconditionally.
func (c *Cart) Remove(id uuid.UUID) {
	delete(c.lines, id)
}

// Quantity returns the current quantity for an item, 0 if absent.
func (c *Cart) Quantity(id uuid.UUID) int32 {
	return c.lines[id]
}

// Subtotal sums price x qty over all lines using the catalog's current
// prices. An item that has vanished from the catalog since it was added is
// an error so the client re-validates the cart.
func (c *Cart) Subtotal(cat Catalog) (decimal.Decimal, error) {
	total := decimal.Zero
	for id, qty := range c.lines {
		item, ok := cat.Lookup(id)
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt32(qty)))
	}
	return total, nil
}

// TotalQuantity is the unit count across all lines. It drives the
// delivery-fee tier at checkout.
func (c *Cart) TotalQuantity() int32 {
	var total int32
	for _, qty := range c.lines {
		total += qty
	}
	return total
}

// Lines returns the cart in ascending item-id order. Checkout relies on
// this stable order when locking stock rows so concurrent multi-line
// checkouts cannot deadlock.
func (c *Cart) Lines() []Line {
	lines := make([]Line, 0, len(c.lines))
	for id, qty := range c.lines {
		lines = append(lines, Line{ItemID: id, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ItemID.String() < lines[j].ItemID.String()
	})
	return lines
}

// Len is the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Clear removes every line. Called by the client only after a successful
// order placement or an explicit clear.
func (c *Cart) Clear() {
	c.lines = make(map[uuid.UUID]int32)
}
