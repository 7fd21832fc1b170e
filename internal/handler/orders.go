package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/campus-canteen/api/internal/cart"
	"github.com/campus-canteen/api/internal/database"
	"github.com/campus-canteen/api/internal/enum"
	"github.com/campus-canteen/api/internal/middleware"
	"github.com/campus-canteen/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// CheckoutServicer places orders. Satisfied by *service.CheckoutService.
type CheckoutServicer interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

// StatusServicer drives the order status machine and pickup verification.
// Satisfied by *service.StatusService.
type StatusServicer interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (service.StatusChange, error)
	BulkUpdateStatus(ctx context.Context, orderIDs []uuid.UUID, newStatus string) []service.BulkStatusResult
	VerifyOTP(ctx context.Context, orderID uuid.UUID, suppliedOTP string) (database.Order, error)
}

// OrderStore defines the read-side database methods for order handlers.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrdersByCustomerEmail(ctx context.Context, customerEmail string) ([]database.Order, error)
}

// OrderHandler handles order placement, tracking and administration.
type OrderHandler struct {
	checkout CheckoutServicer
	status   StatusServicer
	store    OrderStore
	audit    AuditRecorder
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(checkout CheckoutServicer, status StatusServicer, store OrderStore, audit AuditRecorder) *OrderHandler {
	return &OrderHandler{checkout: checkout, status: status, store: store, audit: audit}
}

// RegisterPublicRoutes registers the unauthenticated customer endpoints.
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Get("/orders/user/{email}", h.ListByCustomer)
	r.Get("/orders/{id}/track", h.Track)
}

// RegisterStaffRoutes registers the staff/admin order endpoints.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Put("/orders/{id}/status", h.UpdateStatus)
	r.Post("/orders/bulk-status", h.BulkUpdateStatus)
	r.Post("/orders/{id}/verify-otp", h.VerifyOTP)
}

// --- Request / Response types ---

type orderLineRequest struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int32     `json:"quantity"`
}

type createOrderRequest struct {
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	CustomerPhone string             `json:"customer_phone"`
	Items         []orderLineRequest `json:"items"`
	DeliveryMode  string             `json:"delivery_mode"`
	Block         string             `json:"block"`
	Department    string             `json:"department"`
	Classroom     string             `json:"classroom"`
	ExpectedTime  string             `json:"expected_time"`
	PaymentMethod string             `json:"payment_method"`
}

type createOrderResponse struct {
	OrderID    uuid.UUID `json:"order_id"`
	Otp        string    `json:"otp"`
	TotalPrice string    `json:"total_price"`
	Status     string    `json:"status"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type bulkStatusRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids"`
	Status   string      `json:"status"`
}

type bulkStatusEntry struct {
	OrderID uuid.UUID `json:"order_id"`
	Status  string    `json:"status,omitempty"`
	Error   string    `json:"error,omitempty"`
}

type bulkStatusResponse struct {
	Updated int               `json:"updated"`
	Failed  int               `json:"failed"`
	Results []bulkStatusEntry `json:"results"`
}

type verifyOTPRequest struct {
	Otp string `json:"otp"`
}

type orderResponse struct {
	ID            uuid.UUID                    `json:"id"`
	CustomerName  string                       `json:"customer_name"`
	CustomerEmail string                       `json:"customer_email"`
	CustomerPhone string                       `json:"customer_phone"`
	Items         []database.OrderItemSnapshot `json:"items"`
	TotalPrice    string                       `json:"total_price"`
	Status        string                       `json:"status"`
	Otp           string                       `json:"otp,omitempty"`
	DeliveryMode  string                       `json:"delivery_mode"`
	Block         *string                      `json:"block,omitempty"`
	Department    *string                      `json:"department,omitempty"`
	Classroom     *string                      `json:"classroom,omitempty"`
	ExpectedTime  *string                      `json:"expected_time,omitempty"`
	PaymentMethod string                       `json:"payment_method"`
	CreatedAt     time.Time                    `json:"created_at"`
	UpdatedAt     time.Time                    `json:"updated_at"`
}

// trackResponse is the public tracking view: no OTP, no customer contact
// details beyond what the customer supplied themselves.
type trackResponse struct {
	ID         uuid.UUID `json:"id"`
	Status     string    `json:"status"`
	TotalPrice string    `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toOrderResponse(o database.Order, includeOTP bool) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,
		TotalPrice:    numericToString(o.TotalPrice),
		Status:        o.Status,
		DeliveryMode:  o.DeliveryMode,
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if includeOTP {
		resp.Otp = o.Otp
	}
	if err := json.Unmarshal(o.Items, &resp.Items); err != nil {
		log.Printf("ERROR: unmarshal order items for %s: %v", o.ID, err)
		resp.Items = []database.OrderItemSnapshot{}
	}
	if o.Block.Valid {
		resp.Block = &o.Block.String
	}
	if o.Department.Valid {
		resp.Department = &o.Department.String
	}
	if o.Classroom.Valid {
		resp.Classroom = &o.Classroom.String
	}
	if o.ExpectedTime.Valid {
		resp.ExpectedTime = &o.ExpectedTime.String
	}
	return resp
}

// --- Handlers ---

// Create handles POST /api/orders. Customer-facing, unauthenticated.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]cart.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = cart.Line{ItemID: item.ItemID, Quantity: item.Quantity}
	}
	c, err := cart.FromLines(lines)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.checkout.Checkout(r.Context(), service.CheckoutRequest{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		DeliveryMode:  req.DeliveryMode,
		Block:         req.Block,
		Department:    req.Department,
		Classroom:     req.Classroom,
		ExpectedTime:  req.ExpectedTime,
		PaymentMethod: req.PaymentMethod,
		Cart:          c,
	})
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID:    result.Order.ID,
		Otp:        result.Order.Otp,
		TotalPrice: numericToString(result.Order.TotalPrice),
		Status:     result.Order.Status,
	})
}

func (h *OrderHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	var valErr *service.ValidationError
	switch {
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": valErr.Fields,
		})
	case errors.Is(err, service.ErrStockConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrItemNotDeliverable),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, cart.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: checkout: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// List handles GET /api/orders with optional status, delivery_mode,
// start_date, end_date (YYYY-MM-DD), limit and offset query parameters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListOrdersParams{Limit: 50}
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		if !service.IsValidStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if m := q.Get("delivery_mode"); m != "" {
		if m != enum.DeliveryModePickup && m != enum.DeliveryModeDelivery {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid delivery_mode filter"})
			return
		}
		params.DeliveryMode = pgtype.Text{String: m, Valid: true}
	}
	if d := q.Get("start_date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date, expected YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if d := q.Get("end_date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date, expected YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
			return
		}
		params.Limit = int32(n)
	}
	if o := q.Get("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "offset must be >= 0"})
			return
		}
		params.Offset = int32(n)
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, true)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/orders/{id} for staff.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, true))
}

// Track handles GET /api/orders/{id}/track: the customer's status poll.
// Returns only the status and total, never the OTP or staff-facing fields.
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: track order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, trackResponse{
		ID:         order.ID,
		Status:     order.Status,
		TotalPrice: numericToString(order.TotalPrice),
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	})
}

// ListByCustomer handles GET /api/orders/user/{email}: a customer's order
// history, newest first. The OTP is included because the customer needs it
// at the counter.
func (h *OrderHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	orders, err := h.store.ListOrdersByCustomerEmail(r.Context(), email)
	if err != nil {
		log.Printf("ERROR: list orders by customer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, true)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PUT /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	change, err := h.status.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		h.writeStatusError(w, err)
		return
	}

	// The transition committed; the audit row must not be lost to a client
	// disconnect, so the write runs on an uncancelable context.
	h.audit.Record(context.WithoutCancel(r.Context()), claims.Email, enum.AuditActionUpdateStatus,
		"order:"+orderID.String(), change.PrevStatus+" -> "+change.Order.Status)
	writeJSON(w, http.StatusOK, toOrderResponse(change.Order, true))
}

func (h *OrderHandler) writeStatusError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidTransition):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrStatusChanged):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, reload and retry"})
	default:
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// BulkUpdateStatus handles POST /api/orders/bulk-status: the same transition
// applied to many orders, each succeeding or failing independently.
func (h *OrderHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req bulkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.OrderIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_ids is required"})
		return
	}
	if !service.IsValidStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	results := h.status.BulkUpdateStatus(r.Context(), req.OrderIDs, req.Status)

	resp := bulkStatusResponse{Results: make([]bulkStatusEntry, len(results))}
	for i, res := range results {
		entry := bulkStatusEntry{OrderID: res.OrderID}
		if res.Err != nil {
			entry.Error = res.Err.Error()
			resp.Failed++
		} else {
			entry.Status = res.Change.Order.Status
			resp.Updated++
			h.audit.Record(context.WithoutCancel(r.Context()), claims.Email, enum.AuditActionUpdateStatus,
				"order:"+res.OrderID.String(), res.Change.PrevStatus+" -> "+res.Change.Order.Status)
		}
		resp.Results[i] = entry
	}
	writeJSON(w, http.StatusOK, resp)
}

// VerifyOTP handles POST /api/orders/{id}/verify-otp. Verification never
// changes the order: completing it is a separate, explicit status update.
func (h *OrderHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Otp == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "otp is required"})
		return
	}

	order, err := h.status.VerifyOTP(r.Context(), orderID, req.Otp)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrOrderNotReady):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order is not ready for pickup"})
		case errors.Is(err, service.ErrOTPMismatch):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect OTP"})
		default:
			log.Printf("ERROR: verify otp: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"verified": true,
		"order_id": order.ID,
		"status":   order.Status,
	})
}
