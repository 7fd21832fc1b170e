package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/campus-canteen/api/internal/database"
	"github.com/campus-canteen/api/internal/handler"
	"github.com/campus-canteen/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type mockAuditStore struct {
	entries    []database.AuditEntry
	lastParams database.ListAuditEntriesParams
}

func (m *mockAuditStore) ListAuditEntries(_ context.Context, arg database.ListAuditEntriesParams) ([]database.AuditEntry, error) {
	m.lastParams = arg
	end := int(arg.Offset) + int(arg.Limit)
	if end > len(m.entries) {
		end = len(m.entries)
	}
	if int(arg.Offset) >= len(m.entries) {
		return nil, nil
	}
	return m.entries[arg.Offset:end], nil
}

func setupAuditRouter(store *mockAuditStore) *chi.Mux {
	h := handler.NewAuditHandler(store)
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		r.Use(middleware.RequireRole("ADMIN"))
		h.RegisterRoutes(r)
	})
	return r
}

func TestAuditList(t *testing.T) {
	store := &mockAuditStore{
		entries: []database.AuditEntry{
			{
				ID:         2,
				AdminEmail: "admin@canteen.test",
				Action:     "UPDATE_STATUS",
				Target:     "order:abc",
				Details:    pgtype.Text{String: "Preparing -> Ready for Pickup", Valid: true},
				CreatedAt:  time.Now(),
			},
			{
				ID:         1,
				AdminEmail: "admin@canteen.test",
				Action:     "CREATE_ITEM",
				Target:     "item:def",
				CreatedAt:  time.Now().Add(-time.Hour),
			},
		},
	}
	router := setupAuditRouter(store)

	rr := doAuthRequest(t, router, "GET", "/api/audit", nil, testClaims("ADMIN"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resp))
	}
	if resp[0]["action"] != "UPDATE_STATUS" {
		t.Errorf("action: got %v", resp[0]["action"])
	}
	if resp[0]["details"] != "Preparing -> Ready for Pickup" {
		t.Errorf("details: got %v", resp[0]["details"])
	}
	if _, present := resp[1]["details"]; present {
		t.Error("empty details should be omitted")
	}
}

func TestAuditList_Pagination(t *testing.T) {
	store := &mockAuditStore{}
	router := setupAuditRouter(store)

	rr := doAuthRequest(t, router, "GET", "/api/audit?limit=10&offset=20", nil, testClaims("ADMIN"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if store.lastParams.Limit != 10 || store.lastParams.Offset != 20 {
		t.Errorf("params: got limit=%d offset=%d", store.lastParams.Limit, store.lastParams.Offset)
	}
}

func TestAuditList_StaffForbidden(t *testing.T) {
	router := setupAuditRouter(&mockAuditStore{})

	rr := doAuthRequest(t, router, "GET", "/api/audit", nil, testClaims("STAFF"))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestAuditList_InvalidLimit(t *testing.T) {
	router := setupAuditRouter(&mockAuditStore{})

	rr := doAuthRequest(t, router, "GET", "/api/audit?limit=1000", nil, testClaims("ADMIN"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAuditList_LimitCappedAt100(t *testing.T) {
	store := &mockAuditStore{}
	router := setupAuditRouter(store)

	rr := doAuthRequest(t, router, "GET", "/api/audit?limit=101", nil, testClaims("ADMIN"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("limit=101 status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = doAuthRequest(t, router, "GET", "/api/audit?limit=100", nil, testClaims("ADMIN"))
	if rr.Code != http.StatusOK {
		t.Fatalf("limit=100 status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if store.lastParams.Limit != 100 {
		t.Errorf("limit passed to store: got %d, want 100", store.lastParams.Limit)
	}
}
