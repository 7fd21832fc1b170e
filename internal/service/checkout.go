package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/campus-canteen/api/internal/cart"
	"github.com/campus-canteen/api/internal/database"
	"github.com/campus-canteen/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the checkout service.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrItemNotFound         = errors.New("item not found or unavailable")
	ErrItemNotDeliverable   = errors.New("item cannot be delivered")
	ErrStockConflict        = errors.New("insufficient stock")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
)

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidationError lists every missing or malformed customer/delivery field
// so the caller can render them all at once.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CheckoutStore defines the DB methods needed to place an order.
// Satisfied by *database.Queries (and its WithTx variant).
type CheckoutStore interface {
	DecrementMenuItemStock(ctx context.Context, arg database.DecrementMenuItemStockParams) (database.DecrementMenuItemStockRow, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
}

// NewCheckoutStore creates a CheckoutStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewCheckoutStore func(db database.DBTX) CheckoutStore

// CheckoutRequest is the validated input for placing an order: the
// session's cart plus the customer's identity and delivery choices.
type CheckoutRequest struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	DeliveryMode  string
	Block         string
	Department    string
	Classroom     string
	ExpectedTime  string
	PaymentMethod string
	Cart          *cart.Cart
}

// CheckoutResult is the created order with its frozen item snapshots.
type CheckoutResult struct {
	Order database.Order
	Items []database.OrderItemSnapshot
}

// CheckoutService turns a cart into a persisted order.
type CheckoutService struct {
	pool               TxBeginner
	newStore           NewCheckoutStore
	deliveryFee        decimal.Decimal
	freeDeliveryMinQty int32
}

// NewCheckoutService creates a CheckoutService. deliveryFee is charged only
// on delivery orders whose total quantity is strictly below
// freeDeliveryMinQty; bulk delivery orders and all pickups ship free.
func NewCheckoutService(pool TxBeginner, newStore NewCheckoutStore, deliveryFee decimal.Decimal, freeDeliveryMinQty int32) *CheckoutService {
	return &CheckoutService{
		pool:               pool,
		newStore:           newStore,
		deliveryFee:        deliveryFee,
		freeDeliveryMinQty: freeDeliveryMinQty,
	}
}

// Checkout validates the request, then atomically decrements stock for
// every cart line and creates the order inside one transaction. Either the
// order is created and every line's stock drops by exactly its quantity, or
// nothing changes at all.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}
	if req.Cart == nil || req.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = enum.PaymentMethodCash
	}
	switch paymentMethod {
	case enum.PaymentMethodCash, enum.PaymentMethodUPI:
	default:
		return nil, ErrInvalidPaymentMethod
	}

	isDelivery := req.DeliveryMode == enum.DeliveryModeDelivery

	// The fee tier depends only on the unit count, so it can be decided
	// before prices are frozen. Strict "<": an order of exactly the
	// threshold quantity is delivered free.
	deliveryFee := decimal.Zero
	if isDelivery && req.Cart.TotalQuantity() < s.freeDeliveryMinQty {
		deliveryFee = s.deliveryFee
	}

	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Decrement every line. Cart.Lines() is in ascending item-id order, so
	// two multi-line checkouts always lock rows in the same order and
	// cannot deadlock each other. Any failure rolls back every decrement
	// already applied: no partial stock effects survive a lost race.
	subtotal := decimal.Zero
	snapshots := make([]database.OrderItemSnapshot, 0, req.Cart.Len())
	for _, line := range req.Cart.Lines() {
		row, err := store.DecrementMenuItemStock(ctx, database.DecrementMenuItemStockParams{
			ID:       line.ItemID,
			Quantity: line.Quantity,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, s.classifyDecrementFailure(ctx, store, line)
			}
			return nil, fmt.Errorf("decrement stock for %s: %w", line.ItemID, err)
		}
		if isDelivery && !row.IsDeliverable {
			return nil, fmt.Errorf("%s: %w", row.Name, ErrItemNotDeliverable)
		}

		unitPrice := numericToDecimal(row.Price)
		subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
		snapshots = append(snapshots, database.OrderItemSnapshot{
			ID:        row.ID,
			Name:      row.Name,
			Qty:       line.Quantity,
			UnitPrice: unitPrice.StringFixed(2),
		})
	}

	// total_price is frozen here; later catalog edits never touch it.
	totalPrice := subtotal.Add(deliveryFee)

	otp, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	itemsJSON, err := json.Marshal(snapshots)
	if err != nil {
		return nil, fmt.Errorf("marshal item snapshots: %w", err)
	}

	params := database.CreateOrderParams{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Items:         itemsJSON,
		TotalPrice:    decimalToNumeric(totalPrice),
		Status:        enum.OrderStatusReceived,
		Otp:           otp,
		DeliveryMode:  req.DeliveryMode,
		PaymentMethod: paymentMethod,
	}
	if isDelivery {
		params.Block = pgtype.Text{String: req.Block, Valid: true}
		params.Department = pgtype.Text{String: req.Department, Valid: true}
		params.Classroom = pgtype.Text{String: req.Classroom, Valid: true}
		if req.ExpectedTime != "" {
			params.ExpectedTime = pgtype.Text{String: req.ExpectedTime, Valid: true}
		}
	}

	order, err := store.CreateOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CheckoutResult{Order: order, Items: snapshots}, nil
}

// classifyDecrementFailure turns a zero-row decrement into the right error:
// the item may be gone, unavailable, or simply short on stock (a race with
// another checkout).
func (s *CheckoutService) classifyDecrementFailure(ctx context.Context, store CheckoutStore, line cart.Line) error {
	item, err := store.GetMenuItem(ctx, line.ItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", line.ItemID, ErrItemNotFound)
		}
		return fmt.Errorf("get item %s: %w", line.ItemID, err)
	}
	if !item.IsAvailable {
		return fmt.Errorf("%s: %w", item.Name, ErrItemNotFound)
	}
	return fmt.Errorf("%s: have %d, want %d: %w", item.Name, item.Stock, line.Quantity, ErrStockConflict)
}

// validateCheckout collects every missing/invalid field before failing, so
// no field error hides behind another.
func validateCheckout(req CheckoutRequest) error {
	var fields []string
	if strings.TrimSpace(req.CustomerName) == "" {
		fields = append(fields, "name is required")
	}
	if req.CustomerEmail == "" {
		fields = append(fields, "email is required")
	} else if !emailPattern.MatchString(req.CustomerEmail) {
		fields = append(fields, "email is invalid")
	}
	if req.CustomerPhone == "" {
		fields = append(fields, "phone is required")
	} else if !phonePattern.MatchString(req.CustomerPhone) {
		fields = append(fields, "phone must be 10 digits")
	}

	switch req.DeliveryMode {
	case enum.DeliveryModePickup:
	case enum.DeliveryModeDelivery:
		if strings.TrimSpace(req.Block) == "" {
			fields = append(fields, "block is required for delivery")
		}
		if strings.TrimSpace(req.Department) == "" {
			fields = append(fields, "department is required for delivery")
		}
		if strings.TrimSpace(req.Classroom) == "" {
			fields = append(fields, "classroom is required for delivery")
		}
	default:
		fields = append(fields, "delivery_mode must be pickup or delivery")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// generateOTP returns a 6-digit code the customer presents at pickup.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
