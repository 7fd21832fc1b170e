package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/campus-canteen/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ReportStore defines the database methods needed by report handlers.
type ReportStore interface {
	GetDailySales(ctx context.Context, arg database.GetDailySalesParams) ([]database.GetDailySalesRow, error)
	GetTopItems(ctx context.Context, limit int32) ([]database.GetTopItemsRow, error)
	GetStatusSummary(ctx context.Context) ([]database.GetStatusSummaryRow, error)
}

// ReportHandler handles the admin reporting endpoints.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/daily-sales", h.DailySales)
	r.Get("/reports/top-items", h.TopItems)
	r.Get("/reports/status-summary", h.StatusSummary)
}

// --- Response types ---

type dailySalesResponse struct {
	Date         string `json:"date"`
	OrderCount   int64  `json:"order_count"`
	TotalRevenue string `json:"total_revenue"`
}

type topItemResponse struct {
	ItemID       uuid.UUID `json:"item_id"`
	Name         string    `json:"name"`
	TotalQty     int64     `json:"total_qty"`
	TotalRevenue string    `json:"total_revenue"`
}

type statusSummaryResponse struct {
	Status     string `json:"status"`
	OrderCount int64  `json:"order_count"`
}

// --- Handlers ---

// DailySales handles GET /api/reports/daily-sales with optional start_date
// and end_date (YYYY-MM-DD) query parameters.
func (h *ReportHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	var params database.GetDailySalesParams
	if d := r.URL.Query().Get("start_date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date, expected YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if d := r.URL.Query().Get("end_date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date, expected YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	rows, err := h.store.GetDailySales(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: daily sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dailySalesResponse, len(rows))
	for i, row := range rows {
		resp[i] = dailySalesResponse{
			Date:         row.SaleDate.Time.Format("2006-01-02"),
			OrderCount:   row.OrderCount,
			TotalRevenue: numericToString(row.TotalRevenue),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// TopItems handles GET /api/reports/top-items?limit=N.
func (h *ReportHandler) TopItems(w http.ResponseWriter, r *http.Request) {
	limit := int32(10)
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
			return
		}
		limit = int32(n)
	}

	rows, err := h.store.GetTopItems(r.Context(), limit)
	if err != nil {
		log.Printf("ERROR: top items report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]topItemResponse, len(rows))
	for i, row := range rows {
		resp[i] = topItemResponse{
			ItemID:       row.ItemID,
			Name:         row.ItemName,
			TotalQty:     row.TotalQty,
			TotalRevenue: numericToString(row.TotalRevenue),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// StatusSummary handles GET /api/reports/status-summary: the live order
// count per status, for the kitchen dashboard header.
func (h *ReportHandler) StatusSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.GetStatusSummary(r.Context())
	if err != nil {
		log.Printf("ERROR: status summary report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]statusSummaryResponse, len(rows))
	for i, row := range rows {
		resp[i] = statusSummaryResponse{Status: row.Status, OrderCount: row.OrderCount}
	}
	writeJSON(w, http.StatusOK, resp)
}
