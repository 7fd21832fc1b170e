package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/campus-canteen/api/internal/database"
	"github.com/go-chi/chi/v5"
)

// AuditStore defines the database methods needed by the audit log handler.
type AuditStore interface {
	ListAuditEntries(ctx context.Context, arg database.ListAuditEntriesParams) ([]database.AuditEntry, error)
}

// AuditHandler exposes the read side of the audit log. Admin only; writes
// happen exclusively through the audit recorder.
type AuditHandler struct {
	store AuditStore
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(store AuditStore) *AuditHandler {
	return &AuditHandler{store: store}
}

// RegisterRoutes registers the audit endpoint on the given Chi router.
func (h *AuditHandler) RegisterRoutes(r chi.Router) {
	r.Get("/audit", h.List)
}

type auditEntryResponse struct {
	ID         int64     `json:"id"`
	AdminEmail string    `json:"admin_email"`
	Action     string    `json:"action"`
	Target     string    `json:"target"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// List handles GET /api/audit?limit=N&offset=M, newest entries first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListAuditEntriesParams{Limit: 50}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
			return
		}
		params.Limit = int32(n)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "offset must be >= 0"})
			return
		}
		params.Offset = int32(n)
	}

	entries, err := h.store.ListAuditEntries(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list audit entries: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = auditEntryResponse{
			ID:         e.ID,
			AdminEmail: e.AdminEmail,
			Action:     e.Action,
			Target:     e.Target,
			CreatedAt:  e.CreatedAt,
		}
		if e.Details.Valid {
			resp[i].Details = e.Details.String
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
