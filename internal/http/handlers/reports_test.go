package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/http/handlers"
)

type fakeReportsRepo struct {
	monthlyFn   func(ctx context.Context, userID string, year, month int) (transaction.MonthlySummary, error)
	breakdownFn func(ctx context.Context, userID string, year, month int) ([]transaction.CategoryTotal, error)
}

func (f *fakeReportsRepo) MonthlySummary(ctx context.Context, userID string, year, month int) (transaction.MonthlySummary, error) {
	if f.monthlyFn != nil {
		return f.monthlyFn(ctx, userID, year, month)
	}
	return transaction.MonthlySummary{}, nil
}

func (f *fakeReportsRepo) CategoryBreakdown(ctx context.Context, userID string, year, month int) ([]transaction.CategoryTotal, error) {
	if f.breakdownFn != nil {
		return f.breakdownFn(ctx, userID, year, month)
	}
	return []transaction.CategoryTotal{}, nil
}

func TestMonthlySummaryHandler(t *testing.T) {
	repo := &fakeReportsRepo{
		monthlyFn: func(ctx context.Context, userID string, year, month int) (transaction.MonthlySummary, error) {
			if year != 2025 || month != 9 {
				t.Fatalf("period not passed through: %d-%d", year, month)
			}
			return transaction.MonthlySummary{Income: 20000, Expense: 5000, Balance: 15000}, nil
		},
	}

	h := handlers.NewReportsHandler(repo)
	r := setupAuthedRouter(http.MethodGet, "/report/monthly", "user-1", h.Monthly)

	req := httptest.NewRequest(http.MethodGet, "/report/monthly?year=2025&month=9", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode body: %v", err)
	}

	if resp["income"].(float64) != 20000 || resp["expense"].(float64) != 5000 || resp["balance"].(float64) != 15000 {
		t.Fatalf("unexpected summary: %s", w.Body.String())
	}

	if resp["monthly summary"] != "2025 - 9" {
		t.Fatalf("unexpected period label: %v", resp["monthly summary"])
	}
}

func TestMonthlySummaryEmptyMonthIsAllZeros(t *testing.T) {
	h := handlers.NewReportsHandler(&fakeReportsRepo{})
	r := setupAuthedRouter(http.MethodGet, "/report/monthly", "user-1", h.Monthly)

	req := httptest.NewRequest(http.MethodGet, "/report/monthly?year=1999&month=1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode body: %v", err)
	}

	for _, key := range []string{"income", "expense", "balance"} {
		if resp[key].(float64) != 0 {
			t.Fatalf("expected zero %s for empty month, got %v", key, resp[key])
		}
	}
}

func TestMonthlySummaryDefaultsToCurrentMonth(t *testing.T) {
	now := time.Now().UTC()

	repo := &fakeReportsRepo{
		monthlyFn: func(ctx context.Context, userID string, year, month int) (transaction.MonthlySummary, error) {
			if year != now.Year() || month != int(now.Month()) {
				t.Fatalf("expected current period, got %d-%d", year, month)
			}
			return transaction.MonthlySummary{}, nil
		},
	}

	h := handlers.NewReportsHandler(repo)
	r := setupAuthedRouter(http.MethodGet, "/report/monthly", "user-1", h.Monthly)

	req := httptest.NewRequest(http.MethodGet, "/report/monthly", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestMonthlySummaryRejectsBadMonth(t *testing.T) {
	h := handlers.NewReportsHandler(&fakeReportsRepo{})
	r := setupAuthedRouter(http.MethodGet, "/report/monthly", "user-1", h.Monthly)

	req := httptest.NewRequest(http.MethodGet, "/report/monthly?month=13", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}
}

func TestCategoryBreakdownHandler(t *testing.T) {
	repo := &fakeReportsRepo{
		breakdownFn: func(ctx context.Context, userID string, year, month int) ([]transaction.CategoryTotal, error) {
			return []transaction.CategoryTotal{
				{Category: "rent", Total: 1200},
				{Category: "salary", Total: 20000},
			}, nil
		},
	}

	h := handlers.NewReportsHandler(repo)
	r := setupAuthedRouter(http.MethodGet, "/report/category_breakdown", "user-1", h.CategoryBreakdown)

	req := httptest.NewRequest(http.MethodGet, "/report/category_breakdown?year=2025&month=9", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Month     string                      `json:"month"`
		Breakdown []transaction.CategoryTotal `json:"category breakdown"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode body: %v", err)
	}

	if resp.Month != "2025 - 9" || len(resp.Breakdown) != 2 {
		t.Fatalf("unexpected breakdown payload: %s", w.Body.String())
	}
}
