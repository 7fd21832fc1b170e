package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campus-canteen/api/internal/auth"
	"github.com/campus-canteen/api/internal/database"
	"github.com/campus-canteen/api/internal/handler"
	"github.com/campus-canteen/api/internal/middleware"
	"github.com/campus-canteen/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Mock services ---

type mockCheckoutService struct {
	checkoutFn func(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
	lastReq    service.CheckoutRequest
}

func (m *mockCheckoutService) Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	m.lastReq = req
	return m.checkoutFn(ctx, req)
}

type mockStatusService struct {
	updateFn func(ctx context.Context, orderID uuid.UUID, newStatus string) (service.StatusChange, error)
	bulkFn   func(ctx context.Context, orderIDs []uuid.UUID, newStatus string) []service.BulkStatusResult
	verifyFn func(ctx context.Context, orderID uuid.UUID, otp string) (database.Order, error)
}

func (m *mockStatusService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (service.StatusChange, error) {
	return m.updateFn(ctx, orderID, newStatus)
}

func (m *mockStatusService) BulkUpdateStatus(ctx context.Context, orderIDs []uuid.UUID, newStatus string) []service.BulkStatusResult {
	return m.bulkFn(ctx, orderIDs, newStatus)
}

func (m *mockStatusService) VerifyOTP(ctx context.Context, orderID uuid.UUID, otp string) (database.Order, error) {
	return m.verifyFn(ctx, orderID, otp)
}

// --- Mock order store ---

type mockOrderStore struct {
	orders     map[uuid.UUID]database.Order
	lastParams database.ListOrdersParams
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{orders: make(map[uuid.UUID]database.Order)}
}

func (m *mockOrderStore) GetOrder(_ context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOrderStore) ListOrders(_ context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	m.lastParams = arg
	var result []database.Order
	for _, o := range m.orders {
		if arg.Status.Valid && o.Status != arg.Status.String {
			continue
		}
		if arg.DeliveryMode.Valid && o.DeliveryMode != arg.DeliveryMode.String {
			continue
		}
		result = append(result, o)
	}
	return result, nil
}

func (m *mockOrderStore) ListOrdersByCustomerEmail(_ context.Context, email string) ([]database.Order, error) {
	var result []database.Order
	for _, o := range m.orders {
		if o.CustomerEmail == email {
			result = append(result, o)
		}
	}
	return result, nil
}

// --- Helpers ---

func testOrder(status string) database.Order {
	items, _ := json.Marshal([]database.OrderItemSnapshot{
		{ID: uuid.New(), Name: "Samosa", Qty: 2, UnitPrice: "15.00"},
	})
	now := time.Now()
	return database.Order{
		ID:            uuid.New(),
		CustomerName:  "Priya Sharma",
		CustomerEmail: "priya@college.test",
		CustomerPhone: "9876543210",
		Items:         items,
		TotalPrice:    testNumeric("30.00"),
		Status:        status,
		Otp:           "123456",
		DeliveryMode:  "pickup",
		PaymentMethod: "CASH",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func setupOrderRouter(checkout *mockCheckoutService, status *mockStatusService, store *mockOrderStore, audit *mockAudit) *chi.Mux {
	h := handler.NewOrderHandler(checkout, status, store, audit)
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(testJWTSecret))
			h.RegisterStaffRoutes(r)
		})
	})
	return r
}

func validCreateBody(itemID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"customer_name":  "Priya Sharma",
		"customer_email": "priya@college.test",
		"customer_phone": "9876543210",
		"delivery_mode":  "pickup",
		"items": []map[string]interface{}{
			{"item_id": itemID.String(), "quantity": 2},
		},
	}
}

// --- Create tests ---

func TestOrderCreate_Valid(t *testing.T) {
	order := testOrder("Order Received")
	checkout := &mockCheckoutService{
		checkoutFn: func(_ context.Context, _ service.CheckoutRequest) (*service.CheckoutResult, error) {
			return &service.CheckoutResult{Order: order}, nil
		},
	}
	router := setupOrderRouter(checkout, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	rr := doRequest(t, router, "POST", "/api/orders", validCreateBody(uuid.New()))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["order_id"] != order.ID.String() {
		t.Errorf("order_id: got %v, want %s", resp["order_id"], order.ID)
	}
	if resp["otp"] != "123456" {
		t.Errorf("otp: got %v, want 123456", resp["otp"])
	}
	if resp["total_price"] != "30.00" {
		t.Errorf("total_price: got %v, want 30.00", resp["total_price"])
	}
	if resp["status"] != "Order Received" {
		t.Errorf("status: got %v", resp["status"])
	}
}

func TestOrderCreate_MergesDuplicateLines(t *testing.T) {
	itemID := uuid.New()
	checkout := &mockCheckoutService{
		checkoutFn: func(_ context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
			return &service.CheckoutResult{Order: testOrder("Order Received")}, nil
		},
	}
	router := setupOrderRouter(checkout, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	body := validCreateBody(itemID)
	body["items"] = []map[string]interface{}{
		{"item_id": itemID.String(), "quantity": 2},
		{"item_id": itemID.String(), "quantity": 3},
	}
	rr := doRequest(t, router, "POST", "/api/orders", body)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if got := checkout.lastReq.Cart.Quantity(itemID); got != 5 {
		t.Errorf("merged quantity: got %d, want 5", got)
	}
}

func TestOrderCreate_ValidationErrorListsFields(t *testing.T) {
	checkout := &mockCheckoutService{
		checkoutFn: func(_ context.Context, _ service.CheckoutRequest) (*service.CheckoutResult, error) {
			return nil, &service.ValidationError{Fields: []string{"name is required", "phone must be 10 digits"}}
		},
	}
	router := setupOrderRouter(checkout, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	rr := doRequest(t, router, "POST", "/api/orders", validCreateBody(uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeResponse(t, rr)
	fields, ok := resp["fields"].([]interface{})
	if !ok || len(fields) != 2 {
		t.Errorf("expected 2 validation fields, got %v", resp["fields"])
	}
}

func TestOrderCreate_StockConflict(t *testing.T) {
	checkout := &mockCheckoutService{
		checkoutFn: func(_ context.Context, _ service.CheckoutRequest) (*service.CheckoutResult, error) {
			return nil, service.ErrStockConflict
		},
	}
	router := setupOrderRouter(checkout, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	rr := doRequest(t, router, "POST", "/api/orders", validCreateBody(uuid.New()))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderCreate_UnknownItem(t *testing.T) {
	checkout := &mockCheckoutService{
		checkoutFn: func(_ context.Context, _ service.CheckoutRequest) (*service.CheckoutResult, error) {
			return nil, service.ErrItemNotFound
		},
	}
	router := setupOrderRouter(checkout, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	rr := doRequest(t, router, "POST", "/api/orders", validCreateBody(uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderCreate_ZeroQuantity(t *testing.T) {
	checkout := &mockCheckoutService{
		checkoutFn: func(_ context.Context, _ service.CheckoutRequest) (*service.CheckoutResult, error) {
			t.Fatal("checkout should not be reached for invalid quantity")
			return nil, nil
		},
	}
	router := setupOrderRouter(checkout, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	body := validCreateBody(uuid.New())
	body["items"] = []map[string]interface{}{
		{"item_id": uuid.NewString(), "quantity": 0},
	}
	rr := doRequest(t, router, "POST", "/api/orders", body)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- List / Get / Track tests ---

func TestOrderList_RequiresAuth(t *testing.T) {
	router := setupOrderRouter(&mockCheckoutService{}, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	rr := doRequest(t, router, "GET", "/api/orders", nil)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestOrderList_StatusFilter(t *testing.T) {
	store := newMockOrderStore()
	ready := testOrder("Ready for Pickup")
	received := testOrder("Order Received")
	store.orders[ready.ID] = ready
	store.orders[received.ID] = received
	router := setupOrderRouter(&mockCheckoutService{}, &mockStatusService{}, store, &mockAudit{})

	rr := doAuthRequest(t, router, "GET", "/api/orders?status=Ready+for+Pickup", nil, testClaims("STAFF"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 order, got %d", len(resp))
	}
	if resp[0]["status"] != "Ready for Pickup" {
		t.Errorf("status: got %v", resp[0]["status"])
	}
}

func TestOrderList_InvalidStatusFilter(t *testing.T) {
	router := setupOrderRouter(&mockCheckoutService{}, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	rr := doAuthRequest(t, router, "GET", "/api/orders?status=Vanished", nil, testClaims("STAFF"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderList_LimitCappedAt100(t *testing.T) {
	store := newMockOrderStore()
	router := setupOrderRouter(&mockCheckoutService{}, &mockStatusService{}, store, &mockAudit{})

	rr := doAuthRequest(t, router, "GET", "/api/orders?limit=101", nil, testClaims("STAFF"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("limit=101 status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = doAuthRequest(t, router, "GET", "/api/orders?limit=100", nil, testClaims("STAFF"))
	if rr.Code != http.StatusOK {
		t.Fatalf("limit=100 status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if store.lastParams.Limit != 100 {
		t.Errorf("limit passed to store: got %d, want 100", store.lastParams.Limit)
	}
}

func TestOrderGet_IncludesItemsAndOTP(t *testing.T) {
	store := newMockOrderStore()
	order := testOrder("Preparing")
	store.orders[order.ID] = order
	router := setupOrderRouter(&mockCheckoutService{}, &mockStatusService{}, store, &mockAudit{})

	rr := doAuthRequest(t, router, "GET", "/api/orders/"+order.ID.String(), nil, testClaims("STAFF"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["otp"] != "123456" {
		t.Errorf("otp: got %v", resp["otp"])
	}
	items, ok := resp["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected 1 item line, got %v", resp["items"])
	}
	line := items[0].(map[string]interface{})
	if line["name"] != "Samosa" || line["unit_price"] != "15.00" {
		t.Errorf("item snapshot: got %v", line)
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	router := setupOrderRouter(&mockCheckoutService{}, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	rr := doAuthRequest(t, router, "GET", "/api/orders/"+uuid.NewString(), nil, testClaims("STAFF"))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderTrack_OmitsOTP(t *testing.T) {
	store := newMockOrderStore()
	order := testOrder("Preparing")
	store.orders[order.ID] = order
	router := setupOrderRouter(&mockCheckoutService{}, &mockStatusService{}, store, &mockAudit{})

	rr := doRequest(t, router, "GET", "/api/orders/"+order.ID.String()+"/track", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["status"] != "Preparing" {
		t.Errorf("status: got %v", resp["status"])
	}
	if _, present := resp["otp"]; present {
		t.Error("tracking response must not include the OTP")
	}
	if _, present := resp["customer_phone"]; present {
		t.Error("tracking response must not include customer contact details")
	}
}

func TestOrderListByCustomer(t *testing.T) {
	store := newMockOrderStore()
	mine := testOrder("Completed")
	other := testOrder("Preparing")
	other.CustomerEmail = "someone@college.test"
	store.orders[mine.ID] = mine
	store.orders[other.ID] = other
	router := setupOrderRouter(&mockCheckoutService{}, &mockStatusService{}, store, &mockAudit{})

	rr := doRequest(t, router, "GET", "/api/orders/user/priya@college.test", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 order, got %d", len(resp))
	}
	if resp[0]["customer_email"] != "priya@college.test" {
		t.Errorf("customer_email: got %v", resp[0]["customer_email"])
	}
}

// --- Status update tests ---

func TestOrderUpdateStatus_Valid(t *testing.T) {
	order := testOrder("Preparing")
	status := &mockStatusService{
		updateFn: func(_ context.Context, orderID uuid.UUID, newStatus string) (service.StatusChange, error) {
			updated := order
			updated.Status = newStatus
			return service.StatusChange{Order: updated, PrevStatus: order.Status}, nil
		},
	}
	audit := &mockAudit{}
	router := setupOrderRouter(&mockCheckoutService{}, status, newMockOrderStore(), audit)

	rr := doAuthRequest(t, router, "PUT", "/api/orders/"+order.ID.String()+"/status",
		map[string]string{"status": "Ready for Pickup"}, testClaims("STAFF"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["status"] != "Ready for Pickup" {
		t.Errorf("status: got %v", resp["status"])
	}

	if len(audit.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(audit.records))
	}
	if audit.records[0].Details != "Preparing -> Ready for Pickup" {
		t.Errorf("audit details: got %q", audit.records[0].Details)
	}
}

func TestOrderUpdateStatus_AuditSurvivesClientDisconnect(t *testing.T) {
	order := testOrder("Preparing")
	status := &mockStatusService{
		updateFn: func(_ context.Context, _ uuid.UUID, newStatus string) (service.StatusChange, error) {
			updated := order
			updated.Status = newStatus
			return service.StatusChange{Order: updated, PrevStatus: order.Status}, nil
		},
	}
	audit := &mockAudit{}
	router := setupOrderRouter(&mockCheckoutService{}, status, newMockOrderStore(), audit)

	claims := testClaims("STAFF")
	token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.Email, claims.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	// Simulate the client dropping right after the transition commits: the
	// request context is already canceled when the audit write runs.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	body, _ := json.Marshal(map[string]string{"status": "Ready for Pickup"})
	req := httptest.NewRequest("PUT", "/api/orders/"+order.ID.String()+"/status",
		bytes.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if len(audit.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(audit.records))
	}
	if audit.lastCtx.Err() != nil {
		t.Errorf("audit context canceled: %v", audit.lastCtx.Err())
	}
}

func TestOrderUpdateStatus_InvalidTransition(t *testing.T) {
	status := &mockStatusService{
		updateFn: func(_ context.Context, _ uuid.UUID, _ string) (service.StatusChange, error) {
			return service.StatusChange{}, service.ErrInvalidTransition
		},
	}
	router := setupOrderRouter(&mockCheckoutService{}, status, newMockOrderStore(), &mockAudit{})

	rr := doAuthRequest(t, router, "PUT", "/api/orders/"+uuid.NewString()+"/status",
		map[string]string{"status": "Completed"}, testClaims("STAFF"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderUpdateStatus_LostRace(t *testing.T) {
	status := &mockStatusService{
		updateFn: func(_ context.Context, _ uuid.UUID, _ string) (service.StatusChange, error) {
			return service.StatusChange{}, service.ErrStatusChanged
		},
	}
	router := setupOrderRouter(&mockCheckoutService{}, status, newMockOrderStore(), &mockAudit{})

	rr := doAuthRequest(t, router, "PUT", "/api/orders/"+uuid.NewString()+"/status",
		map[string]string{"status": "Preparing"}, testClaims("STAFF"))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderUpdateStatus_NotFound(t *testing.T) {
	status := &mockStatusService{
		updateFn: func(_ context.Context, _ uuid.UUID, _ string) (service.StatusChange, error) {
			return service.StatusChange{}, service.ErrOrderNotFound
		},
	}
	router := setupOrderRouter(&mockCheckoutService{}, status, newMockOrderStore(), &mockAudit{})

	rr := doAuthRequest(t, router, "PUT", "/api/orders/"+uuid.NewString()+"/status",
		map[string]string{"status": "Preparing"}, testClaims("STAFF"))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Bulk status tests ---

func TestOrderBulkStatus_PartialSuccess(t *testing.T) {
	okID := uuid.New()
	failID := uuid.New()
	status := &mockStatusService{
		bulkFn: func(_ context.Context, orderIDs []uuid.UUID, newStatus string) []service.BulkStatusResult {
			order := testOrder(newStatus)
			order.ID = okID
			return []service.BulkStatusResult{
				{OrderID: okID, Change: service.StatusChange{Order: order, PrevStatus: "Order Received"}},
				{OrderID: failID, Err: service.ErrOrderNotFound},
			}
		},
	}
	audit := &mockAudit{}
	router := setupOrderRouter(&mockCheckoutService{}, status, newMockOrderStore(), audit)

	rr := doAuthRequest(t, router, "POST", "/api/orders/bulk-status", map[string]interface{}{
		"order_ids": []string{okID.String(), failID.String()},
		"status":    "Preparing",
	}, testClaims("STAFF"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["updated"] != float64(1) || resp["failed"] != float64(1) {
		t.Errorf("counts: updated=%v failed=%v", resp["updated"], resp["failed"])
	}
	// Only the successful transition is audited.
	if len(audit.records) != 1 {
		t.Errorf("expected 1 audit record, got %d", len(audit.records))
	}
}

func TestOrderBulkStatus_EmptyIDs(t *testing.T) {
	router := setupOrderRouter(&mockCheckoutService{}, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	rr := doAuthRequest(t, router, "POST", "/api/orders/bulk-status", map[string]interface{}{
		"order_ids": []string{},
		"status":    "Preparing",
	}, testClaims("STAFF"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderBulkStatus_InvalidStatus(t *testing.T) {
	router := setupOrderRouter(&mockCheckoutService{}, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	rr := doAuthRequest(t, router, "POST", "/api/orders/bulk-status", map[string]interface{}{
		"order_ids": []string{uuid.NewString()},
		"status":    "Vanished",
	}, testClaims("STAFF"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- OTP verification tests ---

func TestOrderVerifyOTP_Match(t *testing.T) {
	order := testOrder("Ready for Pickup")
	status := &mockStatusService{
		verifyFn: func(_ context.Context, _ uuid.UUID, otp string) (database.Order, error) {
			if otp != order.Otp {
				return database.Order{}, service.ErrOTPMismatch
			}
			return order, nil
		},
	}
	router := setupOrderRouter(&mockCheckoutService{}, status, newMockOrderStore(), &mockAudit{})

	rr := doAuthRequest(t, router, "POST", "/api/orders/"+order.ID.String()+"/verify-otp",
		map[string]string{"otp": "123456"}, testClaims("STAFF"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["verified"] != true {
		t.Errorf("verified: got %v", resp["verified"])
	}
	// Verification never completes the order by itself.
	if resp["status"] != "Ready for Pickup" {
		t.Errorf("status: got %v, want Ready for Pickup", resp["status"])
	}
}

func TestOrderVerifyOTP_Mismatch(t *testing.T) {
	status := &mockStatusService{
		verifyFn: func(_ context.Context, _ uuid.UUID, _ string) (database.Order, error) {
			return database.Order{}, service.ErrOTPMismatch
		},
	}
	router := setupOrderRouter(&mockCheckoutService{}, status, newMockOrderStore(), &mockAudit{})

	rr := doAuthRequest(t, router, "POST", "/api/orders/"+uuid.NewString()+"/verify-otp",
		map[string]string{"otp": "000000"}, testClaims("STAFF"))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestOrderVerifyOTP_NotReady(t *testing.T) {
	status := &mockStatusService{
		verifyFn: func(_ context.Context, _ uuid.UUID, _ string) (database.Order, error) {
			return database.Order{}, service.ErrOrderNotReady
		},
	}
	router := setupOrderRouter(&mockCheckoutService{}, status, newMockOrderStore(), &mockAudit{})

	rr := doAuthRequest(t, router, "POST", "/api/orders/"+uuid.NewString()+"/verify-otp",
		map[string]string{"otp": "123456"}, testClaims("STAFF"))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderVerifyOTP_MissingOTP(t *testing.T) {
	router := setupOrderRouter(&mockCheckoutService{}, &mockStatusService{}, newMockOrderStore(), &mockAudit{})

	rr := doAuthRequest(t, router, "POST", "/api/orders/"+uuid.NewString()+"/verify-otp",
		map[string]string{}, testClaims("STAFF"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
