package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spendline/internal/auth"
	"spendline/internal/log"
	"spendline/internal/storage"
)

const testSecret = "handlers-test-secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithOptions(t, Options{
		Addr:        ":0",
		CORSOrigins: []string{"*"},
		PageSize:    200,
	})
}

func newTestServerWithOptions(t *testing.T, opts Options) *Server {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "spendline.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.Config{
		Component: log.ComponentHTTP,
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})
	return NewServer(opts, repo, auth.NewVerifier(testSecret), logger)
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub, "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func do(t *testing.T, srv *Server, method, target, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	decode(t, rec, &e)
	return e.Error
}

func TestHealthEndpointsNeedNoAuth(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := do(t, srv, http.MethodGet, path, "", nil); rec.Code != http.StatusOK {
			t.Errorf("%s returned %d, want 200", path, rec.Code)
		}
	}
}

func TestAuthGate(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name  string
		authz string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, "/api/summary?month=2025-06", tc.authz, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if got := errorOf(t, rec); got != "unauthorized" {
				t.Fatalf("error = %q, want unauthorized", got)
			}
		})
	}
}

func TestRejectedWriteLeavesNoTrace(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/expenses", "", map[string]any{
		"month": "2025-06", "amount": 10,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create returned %d, want 401", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/expenses?month=2025-06", bearer(t, "user-1"), nil)
	var list []expenseResponse
	decode(t, rec, &list)
	if len(list) != 0 {
		t.Fatalf("rejected write persisted %d rows", len(list))
	}
}

func TestMonthSettingsFlow(t *testing.T) {
	srv := newTestServer(t)
	authz := bearer(t, "user-1")

	// First read creates the row with defaults.
	rec := do(t, srv, http.MethodGet, "/api/months?month=2025-06", authz, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get settings returned %d: %s", rec.Code, rec.Body)
	}
	var got monthSettingsResponse
	decode(t, rec, &got)
	if got.Currency != "GHS" || got.Budget != 0 || got.Liabilities != 0 {
		t.Fatalf("unexpected defaults: %+v", got)
	}

	rec = do(t, srv, http.MethodPut, "/api/months", authz, map[string]any{
		"month": "2025-06", "currency": "usd", "budget": 1500.55, "liabilities": 200,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put settings returned %d: %s", rec.Code, rec.Body)
	}
	decode(t, rec, &got)
	if got.Currency != "USD" || got.Budget != 1500.55 || got.Liabilities != 200 {
		t.Fatalf("unexpected settings: %+v", got)
	}
}

func TestMonthSettingsValidation(t *testing.T) {
	srv := newTestServer(t)
	authz := bearer(t, "user-1")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing month", map[string]any{"budget": 100}},
		{"bad month", map[string]any{"month": "2025-13", "budget": 100}},
		{"missing budget", map[string]any{"month": "2025-06"}},
		{"negative budget", map[string]any{"month": "2025-06", "budget": -1}},
		{"negative liabilities", map[string]any{"month": "2025-06", "budget": 100, "liabilities": -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPut, "/api/months", authz, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body)
			}
		})
	}

	if rec := do(t, srv, http.MethodGet, "/api/months", authz, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("get without month returned %d, want 400", rec.Code)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t)
	authz := bearer(t, "user-1")

	rec := do(t, srv, http.MethodPost, "/api/expenses", authz, map[string]any{
		"month": "2025-06", "amount": 12.34, "category": "food", "description": "lunch",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body)
	}
	var created expenseResponse
	decode(t, rec, &created)
	if created.ID == 0 || created.Amount != 12.34 || created.Category != "Food" {
		t.Fatalf("unexpected expense: %+v", created)
	}

	// Unknown categories collapse to Other.
	rec = do(t, srv, http.MethodPost, "/api/expenses", authz, map[string]any{
		"month": "2025-06", "amount": "5.00", "category": "jetski",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body)
	}
	var second expenseResponse
	decode(t, rec, &second)
	if second.Category != "Other" || second.Amount != 5 {
		t.Fatalf("unexpected expense: %+v", second)
	}

	rec = do(t, srv, http.MethodGet, "/api/expenses?month=2025-06", authz, nil)
	var list []expenseResponse
	decode(t, rec, &list)
	if len(list) != 2 {
		t.Fatalf("list returned %d rows, want 2", len(list))
	}

	rec = do(t, srv, http.MethodPatch, "/api/expenses", authz, map[string]any{
		"id": created.ID, "amount": 20, "description": "team lunch",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch returned %d: %s", rec.Code, rec.Body)
	}
	var patched expenseResponse
	decode(t, rec, &patched)
	if patched.Amount != 20 || patched.Description != "team lunch" || patched.Category != "Food" {
		t.Fatalf("unexpected patch result: %+v", patched)
	}

	rec = do(t, srv, http.MethodDelete, "/api/expenses?month=2025-06&id="+itoa(created.ID), authz, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete returned %d: %s", rec.Code, rec.Body)
	}
	var okBody okResponse
	decode(t, rec, &okBody)
	if !okBody.OK {
		t.Fatal("delete should report ok")
	}

	// Deleting the same row again misses.
	rec = do(t, srv, http.MethodDelete, "/api/expenses?id="+itoa(created.ID), authz, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete returned %d, want 404", rec.Code)
	}
}

func TestExpenseValidation(t *testing.T) {
	srv := newTestServer(t)
	authz := bearer(t, "user-1")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing amount", map[string]any{"month": "2025-06"}},
		{"zero amount", map[string]any{"month": "2025-06", "amount": 0}},
		{"negative amount", map[string]any{"month": "2025-06", "amount": -3}},
		{"amount beyond cent range", map[string]any{"month": "2025-06", "amount": "184467440737095516.17"}},
		{"bad month", map[string]any{"month": "06-2025", "amount": 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/expenses", authz, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body)
			}
		})
	}

	if rec := do(t, srv, http.MethodDelete, "/api/expenses?id=abc", authz, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("delete with bad id returned %d, want 400", rec.Code)
	}

	// A patch with only an id has nothing to apply.
	rec := do(t, srv, http.MethodPost, "/api/expenses", authz, map[string]any{
		"month": "2025-06", "amount": 10,
	})
	var created expenseResponse
	decode(t, rec, &created)
	rec = do(t, srv, http.MethodPatch, "/api/expenses", authz, map[string]any{"id": created.ID})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty patch returned %d, want 400", rec.Code)
	}
	if got := errorOf(t, rec); got != "nothing to update" {
		t.Errorf("error = %q, want nothing to update", got)
	}
}

func TestExpenseOwnership(t *testing.T) {
	srv := newTestServer(t)
	owner := bearer(t, "user-1")
	intruder := bearer(t, "user-2")

	rec := do(t, srv, http.MethodPost, "/api/expenses", owner, map[string]any{
		"month": "2025-06", "amount": 42,
	})
	var created expenseResponse
	decode(t, rec, &created)

	rec = do(t, srv, http.MethodPatch, "/api/expenses", intruder, map[string]any{
		"id": created.ID, "amount": 1,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign patch returned %d, want 404", rec.Code)
	}

	rec = do(t, srv, http.MethodDelete, "/api/expenses?id="+itoa(created.ID), intruder, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign delete returned %d, want 404", rec.Code)
	}

	// The row is untouched for its owner.
	rec = do(t, srv, http.MethodGet, "/api/expenses?month=2025-06", owner, nil)
	var list []expenseResponse
	decode(t, rec, &list)
	if len(list) != 1 || list[0].Amount != 42 {
		t.Fatalf("owner's row was affected: %+v", list)
	}
}

func TestAssetLifecycle(t *testing.T) {
	srv := newTestServer(t)
	authz := bearer(t, "user-1")

	rec := do(t, srv, http.MethodPost, "/api/assets", authz, map[string]any{
		"month": "2025-06", "amount": 250, "note": "savings deposit",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body)
	}
	var created assetResponse
	decode(t, rec, &created)
	if created.Amount != 250 || created.Note != "savings deposit" {
		t.Fatalf("unexpected asset: %+v", created)
	}

	rec = do(t, srv, http.MethodGet, "/api/assets?month=2025-06", authz, nil)
	var list []assetResponse
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("list returned %d rows, want 1", len(list))
	}

	rec = do(t, srv, http.MethodDelete, "/api/assets?id="+itoa(created.ID), authz, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete returned %d: %s", rec.Code, rec.Body)
	}
	rec = do(t, srv, http.MethodDelete, "/api/assets?id="+itoa(created.ID), authz, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete returned %d, want 404", rec.Code)
	}
}

func TestGoalLifecycleWithCappedProgress(t *testing.T) {
	srv := newTestServer(t)
	authz := bearer(t, "user-1")

	rec := do(t, srv, http.MethodPost, "/api/goals", authz, map[string]any{
		"month": "2025-06", "title": "Emergency fund", "target_amount": 600,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body)
	}
	var goal goalResponse
	decode(t, rec, &goal)
	if goal.TargetAmount != 600 || goal.SavedAmount != 0 {
		t.Fatalf("unexpected goal: %+v", goal)
	}

	rec = do(t, srv, http.MethodPatch, "/api/goals", authz, map[string]any{
		"id": goal.ID, "add_amount": 500,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add returned %d: %s", rec.Code, rec.Body)
	}
	decode(t, rec, &goal)
	if goal.SavedAmount != 500 {
		t.Fatalf("saved = %v, want 500", goal.SavedAmount)
	}

	// The second add overshoots and is capped at the target.
	rec = do(t, srv, http.MethodPatch, "/api/goals", authz, map[string]any{
		"id": goal.ID, "add_amount": 200,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add returned %d: %s", rec.Code, rec.Body)
	}
	decode(t, rec, &goal)
	if goal.SavedAmount != 600 {
		t.Fatalf("saved = %v, want capped 600", goal.SavedAmount)
	}

	rec = do(t, srv, http.MethodPatch, "/api/goals", authz, map[string]any{
		"id": goal.ID, "add_amount": 50, "title": "Other name",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mixed patch returned %d, want 400", rec.Code)
	}

	rec = do(t, srv, http.MethodPatch, "/api/goals", authz, map[string]any{
		"id": goal.ID, "title": "Rainy day fund",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename returned %d: %s", rec.Code, rec.Body)
	}
	decode(t, rec, &goal)
	if goal.Title != "Rainy day fund" || goal.SavedAmount != 600 {
		t.Fatalf("unexpected rename result: %+v", goal)
	}

	rec = do(t, srv, http.MethodDelete, "/api/goals?id="+itoa(goal.ID), authz, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete returned %d: %s", rec.Code, rec.Body)
	}
}

func TestGoalValidation(t *testing.T) {
	srv := newTestServer(t)
	authz := bearer(t, "user-1")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing target", map[string]any{"month": "2025-06", "title": "Car"}},
		{"zero target", map[string]any{"month": "2025-06", "title": "Car", "target_amount": 0}},
		{"empty title", map[string]any{"month": "2025-06", "title": "  ", "target_amount": 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/goals", authz, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body)
			}
		})
	}

	rec := do(t, srv, http.MethodPatch, "/api/goals", authz, map[string]any{"id": 0, "title": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("patch without id returned %d, want 400", rec.Code)
	}
	rec = do(t, srv, http.MethodPatch, "/api/goals", authz, map[string]any{"id": 99})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty patch returned %d, want 400", rec.Code)
	}
}

func TestSummary(t *testing.T) {
	srv := newTestServer(t)
	authz := bearer(t, "user-1")

	do(t, srv, http.MethodPut, "/api/months", authz, map[string]any{
		"month": "2025-06", "budget": 1000, "liabilities": 100,
	})
	do(t, srv, http.MethodPost, "/api/expenses", authz, map[string]any{
		"month": "2025-06", "amount": 120.50, "category": "Food",
	})
	do(t, srv, http.MethodPost, "/api/expenses", authz, map[string]any{
		"month": "2025-06", "amount": 80, "category": "Transport",
	})
	do(t, srv, http.MethodPost, "/api/assets", authz, map[string]any{
		"month": "2025-06", "amount": 50,
	})
	rec := do(t, srv, http.MethodPost, "/api/goals", authz, map[string]any{
		"month": "2025-06", "title": "Emergency fund", "target_amount": 600,
	})
	var goal goalResponse
	decode(t, rec, &goal)
	do(t, srv, http.MethodPatch, "/api/goals", authz, map[string]any{
		"id": goal.ID, "add_amount": 600,
	})

	rec = do(t, srv, http.MethodGet, "/api/summary?month=2025-06", authz, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary returned %d: %s", rec.Code, rec.Body)
	}
	var sum summaryResponse
	decode(t, rec, &sum)

	if sum.Totals.Spent != 200.50 || sum.Totals.Assets != 50 {
		t.Errorf("totals = %+v", sum.Totals)
	}
	if sum.Totals.Remaining != 799.50 || sum.Totals.NetWorth != -50 {
		t.Errorf("totals = %+v", sum.Totals)
	}
	if sum.Totals.BudgetPct != 20 {
		t.Errorf("budget_pct = %d, want 20", sum.Totals.BudgetPct)
	}

	if len(sum.Goals) != 1 {
		t.Fatalf("summary has %d goals, want 1", len(sum.Goals))
	}
	if g := sum.Goals[0]; g.Pct != 100 || !g.Complete || g.Remaining != 0 {
		t.Errorf("goal progress = %+v", g)
	}
	if sum.NextMove == nil || sum.NextMove.Suggest != 0 {
		t.Errorf("next_move = %+v, want completed goal with 0 suggestion", sum.NextMove)
	}
	if sum.Analytics.TopCategory != "Food" {
		t.Errorf("top_category = %q, want Food", sum.Analytics.TopCategory)
	}

	unlocked := map[string]bool{}
	for _, a := range sum.Achievements {
		unlocked[a.Code] = a.Unlocked
	}
	for _, code := range []string{"first_expense", "first_asset", "first_goal", "goal_halfway", "goal_complete", "budget_set"} {
		if !unlocked[code] {
			t.Errorf("achievement %s should be unlocked", code)
		}
	}
	if unlocked["five_expenses"] {
		t.Error("five_expenses should stay locked")
	}
	if sum.Tier != "Gold" {
		t.Errorf("tier = %q, want Gold", sum.Tier)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServerWithOptions(t, Options{
		Addr:               ":0",
		CORSOrigins:        []string{"*"},
		PageSize:           200,
		RateLimitPerMinute: 2,
	})

	for i := 0; i < 2; i++ {
		if rec := do(t, srv, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d returned %d, want 200", i+1, rec.Code)
		}
	}
	rec := do(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("request over budget returned %d, want 429", rec.Code)
	}
	if got := errorOf(t, rec); got != "too many requests" {
		t.Errorf("error = %q, want too many requests", got)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
