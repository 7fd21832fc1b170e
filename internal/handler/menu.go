package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/campus-canteen/api/internal/database"
	"github.com/campus-canteen/api/internal/enum"
	"github.com/campus-canteen/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListAvailableMenuItems(ctx context.Context) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, arg database.SetMenuItemAvailabilityParams) (database.MenuItem, error)
	AdjustMenuItemStock(ctx context.Context, arg database.AdjustMenuItemStockParams) (database.MenuItem, error)
	AdjustMenuItemStockClamped(ctx context.Context, arg database.AdjustMenuItemStockParams) (database.MenuItem, error)
	SoftDeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// AuditRecorder is the slice of the audit recorder handlers need.
type AuditRecorder interface {
	Record(ctx context.Context, actorEmail, action, target, details string)
}

// MenuHandler handles menu catalog endpoints.
type MenuHandler struct {
	store MenuStore
	audit AuditRecorder
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore, audit AuditRecorder) *MenuHandler {
	return &MenuHandler{store: store, audit: audit}
}

// RegisterPublicRoutes registers the customer-facing catalog listing.
func (h *MenuHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/menu", h.List)
}

// RegisterStaffRoutes registers the staff/admin catalog mutations.
// Expected to be mounted inside an authenticated subrouter.
func (h *MenuHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/menu", h.Create)
	r.Put("/menu/{id}", h.Update)
	r.Delete("/menu/{id}", h.Delete)
	r.Patch("/menu/{id}/availability", h.SetAvailability)
	r.Patch("/menu/{id}/stock", h.AdjustStock)
}

// --- Request / Response types ---

type createMenuItemRequest struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Stock       int32  `json:"stock"`
	Available   bool   `json:"available"`
	Deliverable bool   `json:"deliverable"`
	ImageURL    string `json:"image_url"`
}

type updateMenuItemRequest struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Available   bool   `json:"available"`
	Deliverable bool   `json:"deliverable"`
	ImageURL    string `json:"image_url"`
}

type setAvailabilityRequest struct {
	Available bool `json:"available"`
}

type adjustStockRequest struct {
	Delta int32 `json:"delta"`
	Clamp bool  `json:"clamp"`
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Price       string    `json:"price"`
	Category    string    `json:"category"`
	Stock       int32     `json:"stock"`
	Available   bool      `json:"available"`
	Deliverable bool      `json:"deliverable"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toMenuItemResponse(i database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:          i.ID,
		Name:        i.Name,
		Price:       numericToString(i.Price),
		Category:    i.Category,
		Stock:       i.Stock,
		Available:   i.IsAvailable,
		Deliverable: i.IsDeliverable,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	if i.ImageUrl.Valid {
		resp.ImageURL = &i.ImageUrl.String
	}
	return resp
}

// --- Handlers ---

// List handles GET /api/menu. With ?available=true only orderable catalog
// entries are returned (the customer view); without it the full non-deleted
// catalog is returned for the dashboards.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		items []database.MenuItem
		err   error
	)
	if r.URL.Query().Get("available") == "true" {
		items, err = h.store.ListAvailableMenuItems(r.Context())
	} else {
		items, err = h.store.ListMenuItems(r.Context())
	}
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, item := range items {
		resp[i] = toMenuItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/menu.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, errMsg := validateMenuItemFields(req.Name, req.Price, req.Category)
	if errMsg == "" && req.Stock < 0 {
		errMsg = "stock must be >= 0"
	}
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Name:          req.Name,
		Price:         decimalToNumeric(price),
		Category:      req.Category,
		Stock:         req.Stock,
		IsAvailable:   req.Available,
		IsDeliverable: req.Deliverable,
		ImageUrl:      textOrNull(req.ImageURL),
	})
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.audit.Record(context.WithoutCancel(r.Context()), claims.Email, enum.AuditActionCreateItem, "item:"+item.ID.String(), item.Name)
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update handles PUT /api/menu/{id}.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req updateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, errMsg := validateMenuItemFields(req.Name, req.Price, req.Category)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:            itemID,
		Name:          req.Name,
		Price:         decimalToNumeric(price),
		Category:      req.Category,
		IsAvailable:   req.Available,
		IsDeliverable: req.Deliverable,
		ImageUrl:      textOrNull(req.ImageURL),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.audit.Record(context.WithoutCancel(r.Context()), claims.Email, enum.AuditActionUpdateItem, "item:"+item.ID.String(), item.Name)
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete handles DELETE /api/menu/{id}. The delete is soft: existing order
// snapshots keep the item's name and price as sold.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	if _, err := h.store.SoftDeleteMenuItem(r.Context(), itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.audit.Record(context.WithoutCancel(r.Context()), claims.Email, enum.AuditActionDeleteItem, "item:"+itemID.String(), "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SetAvailability handles PATCH /api/menu/{id}/availability.
func (h *MenuHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req setAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.store.SetMenuItemAvailability(r.Context(), database.SetMenuItemAvailabilityParams{
		ID:          itemID,
		IsAvailable: req.Available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: set menu item availability: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.audit.Record(context.WithoutCancel(r.Context()), claims.Email, enum.AuditActionSetAvailability,
		"item:"+item.ID.String(), fmt.Sprintf("available=%t", req.Available))
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// AdjustStock handles PATCH /api/menu/{id}/stock. A delta that would push
// stock negative is rejected with 409 unless the caller opts into clamping
// (admin restock policy), which floors at zero instead.
func (h *MenuHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Delta == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must be non-zero"})
		return
	}

	params := database.AdjustMenuItemStockParams{ID: itemID, Delta: req.Delta}
	var item database.MenuItem
	if req.Clamp {
		item, err = h.store.AdjustMenuItemStockClamped(r.Context(), params)
	} else {
		item, err = h.store.AdjustMenuItemStock(r.Context(), params)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No rows means either the item is gone or the delta would go
			// negative. Fetch to give a precise error.
			if _, getErr := h.store.GetMenuItem(r.Context(), itemID); getErr != nil {
				if errors.Is(getErr, pgx.ErrNoRows) {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
					return
				}
				log.Printf("ERROR: get menu item for stock adjust: %v", getErr)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
			writeJSON(w, http.StatusConflict, map[string]string{"error": "stock cannot go negative"})
			return
		}
		log.Printf("ERROR: adjust menu item stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.audit.Record(context.WithoutCancel(r.Context()), claims.Email, enum.AuditActionAdjustStock,
		"item:"+item.ID.String(), fmt.Sprintf("delta=%+d stock=%d", req.Delta, item.Stock))
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// --- Helpers ---

// validateMenuItemFields checks the shared create/update fields and parses
// the price. Returns a user-facing message on failure.
func validateMenuItemFields(name, priceStr, category string) (decimal.Decimal, string) {
	if name == "" {
		return decimal.Zero, "name is required"
	}
	if priceStr == "" {
		return decimal.Zero, "price is required"
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return decimal.Zero, "invalid price"
	}
	if price.IsNegative() {
		return decimal.Zero, "price must be >= 0"
	}
	if !isValidCategory(category) {
		return decimal.Zero, "invalid category"
	}
	return price, ""
}

func isValidCategory(s string) bool {
	switch s {
	case enum.CategoryBreakfast, enum.CategoryMeals, enum.CategorySnacks,
		enum.CategoryBeverages, enum.CategoryDesserts:
		return true
	}
	return false
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
