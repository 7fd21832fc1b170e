package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/campus-canteen/api/internal/database"
	"github.com/campus-canteen/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Errors returned by the status service.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStatusChanged     = errors.New("order status changed, please retry")
	ErrOTPMismatch       = errors.New("otp does not match")
	ErrOrderNotReady     = errors.New("order is not ready for pickup")
)

// allowedTransitions defines the order status machine. Completed and
// Cancelled are terminal: they have no entry here, so nothing transitions
// out of them.
var allowedTransitions = map[string][]string{
	enum.OrderStatusReceived:  {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
}

// StatusStore defines the DB methods needed for status transitions.
// Satisfied by *database.Queries.
type StatusStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// StatusService drives the order status workflow for staff and admin.
type StatusService struct {
	store StatusStore
}

// NewStatusService creates a new StatusService.
func NewStatusService(store StatusStore) *StatusService {
	return &StatusService{store: store}
}

// IsValidStatus reports whether s is a known order status.
func IsValidStatus(s string) bool {
	switch s {
	case enum.OrderStatusReceived,
		enum.OrderStatusPreparing,
		enum.OrderStatusReady,
		enum.OrderStatusCompleted,
		enum.OrderStatusCancelled:
		return true
	}
	return false
}

// ValidateTransition checks the status machine without touching storage.
func ValidateTransition(current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("cannot transition from %s: %w", current, ErrInvalidTransition)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("cannot transition from %s to %s: %w", current, next, ErrInvalidTransition)
}

// StatusChange is a successful transition: the updated order plus the
// status it moved from, so callers can audit "who changed what".
type StatusChange struct {
	Order      database.Order
	PrevStatus string
}

// UpdateStatus applies a single transition. The legality check runs against
// the current persisted status, and the write is a compare-and-set on that
// same status, so a concurrent update cannot sneak an illegal transition
// through between read and write.
func (s *StatusService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (StatusChange, error) {
	if !IsValidStatus(newStatus) {
		return StatusChange{}, ErrInvalidStatus
	}

	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StatusChange{}, ErrOrderNotFound
		}
		return StatusChange{}, fmt.Errorf("get order: %w", err)
	}

	if err := ValidateTransition(current.Status, newStatus); err != nil {
		return StatusChange{}, err
	}

	updated, err := s.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         orderID,
		Status:     newStatus,
		PrevStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The status moved between our read and write.
			return StatusChange{}, ErrStatusChanged
		}
		return StatusChange{}, fmt.Errorf("update order status: %w", err)
	}

	return StatusChange{Order: updated, PrevStatus: current.Status}, nil
}

// BulkStatusResult is the outcome for one order in a bulk update.
type BulkStatusResult struct {
	OrderID uuid.UUID
	Change  StatusChange
	Err     error
}

// BulkUpdateStatus applies the same transition to each order independently.
// One illegal transition never blocks the rest; callers report per-id
// results.
func (s *StatusService) BulkUpdateStatus(ctx context.Context, orderIDs []uuid.UUID, newStatus string) []BulkStatusResult {
	results := make([]BulkStatusResult, len(orderIDs))
	for i, id := range orderIDs {
		change, err := s.UpdateStatus(ctx, id, newStatus)
		results[i] = BulkStatusResult{OrderID: id, Change: change, Err: err}
	}
	return results
}

// VerifyOTP checks the code a customer presents at pickup. A match is
// informational only: completing the order stays a separate staff action,
// so pickup confirmation is deliberately two-step.
func (s *StatusService) VerifyOTP(ctx context.Context, orderID uuid.UUID, suppliedOTP string) (database.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if order.Status != enum.OrderStatusReady {
		return database.Order{}, ErrOrderNotReady
	}

	if subtle.ConstantTimeCompare([]byte(order.Otp), []byte(suppliedOTP)) != 1 {
		return database.Order{}, ErrOTPMismatch
	}

	return order, nil
}
