package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"myfinance/internal/auth"
	"myfinance/internal/cache"
	"myfinance/internal/core"
	"myfinance/internal/services"
	"myfinance/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store := storage.NewMemoryStore()
	snaps := cache.NewLRUCache[services.DashboardSnapshot](16, time.Minute)
	dashboards := services.NewDashboardService(store, snaps, time.UTC)
	transactions := services.NewTransactionService(store, nil, dashboards)

	s := NewServer(":0", Deps{
		Store:             store,
		Authenticator:     auth.NewPasswordAuthenticator(store),
		Tokens:            auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour),
		Transactions:      transactions,
		Dashboards:        dashboards,
		Location:          time.UTC,
		RequestsPerMinute: 10_000,
	})
	t.Cleanup(func() { s.limiter.Stop() })
	return s
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, r)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func registerAndLogin(t *testing.T, s *Server) string {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Email: "ana@example.com", Name: "Ana", Password: "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[authResponse](t, rec).Token
}

func createCategory(t *testing.T, s *Server, token, name, typ string) string {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/api/v1/categories", token, categoryRequest{
		Name: name, Type: typ, Color: "#ef4444", Icon: "utensils",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category status = %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[categoryResponse](t, rec).ID
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	token := registerAndLogin(t, s)
	if token == "" {
		t.Fatal("empty token after registration")
	}

	// Duplicate email.
	rec := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Email: "ana@example.com", Name: "Other", Password: "another pass",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}

	// Weak password.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Email: "bob@example.com", Name: "Bob", Password: "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("weak password status = %d, want 400", rec.Code)
	}

	// Login.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Email: "ana@example.com", Password: "correct horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	if decodeBody[authResponse](t, rec).Token == "" {
		t.Error("login returned empty token")
	}

	// Wrong password is indistinguishable from unknown email.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Email: "ana@example.com", Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	for _, tt := range []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "not-a-jwt"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodGet, "/api/v1/transactions", tt.token, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestCategoryEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := registerAndLogin(t, s)

	foodID := createCategory(t, s, token, "Food", "expense")
	createCategory(t, s, token, "Salary", "income")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/categories", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	cats := decodeBody[[]categoryResponse](t, rec)
	if len(cats) != 2 {
		t.Fatalf("len(cats) = %d, want 2", len(cats))
	}

	// Duplicate name.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/categories", token, categoryRequest{
		Name: "Food", Type: "expense", Color: "#000000", Icon: "other",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate category status = %d, want 409", rec.Code)
	}

	// Invalid payloads.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/categories", token, categoryRequest{
		Name: "", Type: "expense", Color: "#000000",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, s, http.MethodPost, "/api/v1/categories", token, categoryRequest{
		Name: "X", Type: "transfer", Color: "#000000",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type status = %d, want 400", rec.Code)
	}

	// Update.
	rec = doJSON(t, s, http.MethodPut, "/api/v1/categories/"+foodID, token, categoryRequest{
		Name: "Groceries", Type: "expense", Color: "#22c55e", Icon: "shopping-bag",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	// Delete blocked while referenced.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/transactions", token, transactionRequest{
		Type: "expense", Amount: 50_000, CategoryID: foodID, Date: "2025-07-15",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction status = %d: %s", rec.Code, rec.Body.String())
	}
	txID := decodeBody[transactionResponse](t, rec).ID

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/categories/"+foodID, token, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete referenced category status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/transactions/"+txID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete transaction status = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodDelete, "/api/v1/categories/"+foodID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete unreferenced category status = %d, want 204", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/categories/missing", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing category status = %d, want 404", rec.Code)
	}
}

func TestTransactionEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := registerAndLogin(t, s)
	foodID := createCategory(t, s, token, "Food", "expense")
	salaryID := createCategory(t, s, token, "Salary", "income")

	seed := []transactionRequest{
		{Type: "income", Amount: 10_000_000, CategoryID: salaryID, Date: "2025-07-01"},
		{Type: "expense", Amount: 300_000, CategoryID: foodID, Date: "2025-07-15", Notes: "groceries"},
		{Type: "expense", Amount: 200_000, CategoryID: foodID, Date: "2025-06-20"},
	}
	var ids []string
	for _, req := range seed {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/transactions", token, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
		}
		ids = append(ids, decodeBody[transactionResponse](t, rec).ID)
	}

	// Default list: newest first, with category snapshots.
	rec := doJSON(t, s, http.MethodGet, "/api/v1/transactions", token, nil)
	txs := decodeBody[[]transactionResponse](t, rec)
	if len(txs) != 3 {
		t.Fatalf("len(txs) = %d, want 3", len(txs))
	}
	if txs[0].Date != "2025-07-15" {
		t.Errorf("first date = %s, want 2025-07-15", txs[0].Date)
	}
	if txs[0].Category == nil || txs[0].Category.Name != "Food" {
		t.Errorf("first category = %+v", txs[0].Category)
	}
	if txs[0].AmountDisplay != "Rp 300.000" {
		t.Errorf("amount display = %q", txs[0].AmountDisplay)
	}

	// Filters.
	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions?type=expense", token, nil)
	if got := decodeBody[[]transactionResponse](t, rec); len(got) != 2 {
		t.Errorf("type filter len = %d, want 2", len(got))
	}
	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions?category_id="+salaryID, token, nil)
	if got := decodeBody[[]transactionResponse](t, rec); len(got) != 1 || got[0].Type != "income" {
		t.Errorf("category filter = %+v", got)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions?from=2025-07-01&to=2025-07-31", token, nil)
	if got := decodeBody[[]transactionResponse](t, rec); len(got) != 2 {
		t.Errorf("date filter len = %d, want 2", len(got))
	}
	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions?order=asc", token, nil)
	if got := decodeBody[[]transactionResponse](t, rec); got[0].Date != "2025-06-20" {
		t.Errorf("ascending first date = %s", got[0].Date)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions?from=garbage", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad from filter status = %d, want 400", rec.Code)
	}

	// Get, update, delete.
	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions/"+ids[1], token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := decodeBody[transactionResponse](t, rec); got.Notes != "groceries" {
		t.Errorf("notes = %q", got.Notes)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/v1/transactions/"+ids[1], token, transactionRequest{
		Type: "expense", Amount: 350_000, CategoryID: foodID, Date: "2025-07-16",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/transactions", token, transactionRequest{
		Type: "expense", Amount: -5, CategoryID: foodID, Date: "2025-07-16",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative amount status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/transactions/"+ids[2], token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions/"+ids[2], token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := registerAndLogin(t, s)
	foodID := createCategory(t, s, token, "Food", "expense")
	salaryID := createCategory(t, s, token, "Salary", "income")

	for _, req := range []transactionRequest{
		{Type: "income", Amount: 1_000_000, CategoryID: salaryID, Date: "2025-07-01"},
		{Type: "expense", Amount: 300_000, CategoryID: foodID, Date: "2025-07-15"},
		{Type: "expense", Amount: 200_000, CategoryID: foodID, Date: "2025-06-20"},
	} {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/transactions", token, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed status = %d", rec.Code)
		}
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/dashboard?year=2025&month=7", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d: %s", rec.Code, rec.Body.String())
	}
	dash := decodeBody[dashboardResponse](t, rec)

	if dash.Balance != 500_000 {
		t.Errorf("balance = %d, want 500000", dash.Balance)
	}
	if dash.BalanceDisplay != "Rp 500.000" {
		t.Errorf("balance display = %q", dash.BalanceDisplay)
	}
	if dash.MonthIncome != 1_000_000 || dash.MonthExpense != 300_000 {
		t.Errorf("month totals = %d / %d", dash.MonthIncome, dash.MonthExpense)
	}
	if len(dash.ByCategory) != 1 || dash.ByCategory[0].Name != "Food" {
		t.Errorf("by_category = %+v", dash.ByCategory)
	}
	if len(dash.Trend) != 6 {
		t.Fatalf("len(trend) = %d, want 6", len(dash.Trend))
	}
	tail := dash.Trend[5]
	if tail.Year != 2025 || tail.Month != 7 {
		t.Errorf("trend tail = %+v", tail)
	}
	if len(dash.Recent) != 3 {
		t.Errorf("len(recent) = %d, want 3", len(dash.Recent))
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/dashboard?year=2025&month=13", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad month status = %d, want 400", rec.Code)
	}
}

func TestUserDataIsolation(t *testing.T) {
	s := newTestServer(t)
	anaToken := registerAndLogin(t, s)
	foodID := createCategory(t, s, anaToken, "Food", "expense")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/transactions", anaToken, transactionRequest{
		Type: "expense", Amount: 50_000, CategoryID: foodID, Date: "2025-07-15",
	})
	txID := decodeBody[transactionResponse](t, rec).ID

	rec = doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", registerRequest{
		Email: "bob@example.com", Name: "Bob", Password: "another pass",
	})
	bobToken := decodeBody[authResponse](t, rec).Token

	rec = doJSON(t, s, http.MethodGet, "/api/v1/transactions/"+txID, bobToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user get status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/v1/categories", bobToken, nil)
	if got := decodeBody[[]categoryResponse](t, rec); len(got) != 0 {
		t.Errorf("bob sees %d categories, want 0", len(got))
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}

	rec := doJSON(t, s, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics status = %d, want 200", rec.Code)
	}
}

// flakyStore lets a test dictate what the readiness lookup returns.
type flakyStore struct {
	storage.Store
	userErr error
}

func (s flakyStore) GetUserByID(context.Context, string) (*core.User, error) {
	return nil, s.userErr
}

func TestReadyzStoreErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
		want int
	}{
		{"wrapped not-found is healthy", fmt.Errorf("lookup: %w", storage.ErrNotFound), http.StatusOK},
		{"store failure is unready", errors.New("database is locked"), http.StatusServiceUnavailable},
	} {
		t.Run(tt.name, func(t *testing.T) {
			store := flakyStore{Store: storage.NewMemoryStore(), userErr: tt.err}
			snaps := cache.NewLRUCache[services.DashboardSnapshot](16, time.Minute)
			dashboards := services.NewDashboardService(store, snaps, time.UTC)

			s := NewServer(":0", Deps{
				Store:             store,
				Authenticator:     auth.NewPasswordAuthenticator(store),
				Tokens:            auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour),
				Transactions:      services.NewTransactionService(store, nil, dashboards),
				Dashboards:        dashboards,
				Location:          time.UTC,
				RequestsPerMinute: 10_000,
			})
			defer s.limiter.Stop()

			rec := doJSON(t, s, http.MethodGet, "/readyz", "", nil)
			if rec.Code != tt.want {
				t.Errorf("/readyz status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSecurityHeadersOnResponses(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	store := storage.NewMemoryStore()
	snaps := cache.NewLRUCache[services.DashboardSnapshot](16, time.Minute)
	dashboards := services.NewDashboardService(store, snaps, time.UTC)

	s := NewServer(":0", Deps{
		Store:             store,
		Authenticator:     auth.NewPasswordAuthenticator(store),
		Tokens:            auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour),
		Transactions:      services.NewTransactionService(store, nil, dashboards),
		Dashboards:        dashboards,
		Location:          time.UTC,
		RequestsPerMinute: 2,
	})
	defer s.limiter.Stop()

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(last.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode 429 body: %v", err)
	}
	if body.Error == "" {
		t.Error("429 body missing error message")
	}
	if got := last.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
}
