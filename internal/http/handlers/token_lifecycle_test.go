package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/fintrack/internal/auth"
	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/geocoder89/fintrack/internal/http/handlers"
	"github.com/geocoder89/fintrack/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// in-memory denylist shared by the logout handler and the auth middleware

type memDenylist struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMemDenylist() *memDenylist {
	return &memDenylist{revoked: make(map[string]bool)}
}

func (d *memDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = true
	return nil
}

func (d *memDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revoked[jti], nil
}

// login -> protected call succeeds -> logout -> same token fails with 401

func TestTokenLifecycleAcrossLogout(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour)
	denylist := newMemDenylist()

	john := user.User{ID: "user-1", Name: "John", Email: "john@example.com"}

	users := &fakeUsersRepo{
		getFn: func(ctx context.Context, email string) (user.User, error) {
			if email == john.Email {
				return john, nil
			}
			return user.User{}, user.ErrNotFound
		},
	}

	authHandler := handlers.NewAuthHandler(users, users, manager, denylist, config.Config{Env: "test"})
	txHandler := handlers.NewTransactionsHandler(&fakeTransactionsRepo{})
	authMiddleware := middlewares.NewAuthMiddleware(manager, denylist, users)

	r := gin.New()
	protected := r.Group("/", authMiddleware.RequireAuth())
	protected.POST("/logout", authHandler.Logout)
	protected.POST("/add_transaction", txHandler.Add)

	raw, _, _, err := manager.GenerateAccessToken(john.Email)
	if err != nil {
		t.Fatalf("could not issue token: %v", err)
	}

	addTransaction := func() int {
		body := `{"amount": 100, "type": "income", "category": "salary"}`
		req := httptest.NewRequest(http.MethodPost, "/add_transaction", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+raw)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := addTransaction(); code != http.StatusCreated {
		t.Fatalf("expected protected call to succeed before logout, got %d", code)
	}

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("logout failed: %d, body=%s", w.Code, w.Body.String())
	}

	if code := addTransaction(); code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to fail with 401, got %d", code)
	}
}

// a dumped transaction resubmitted unchanged leaves every field identical

func TestEditRoundTripKeepsFieldsIdentical(t *testing.T) {
	date, err := transaction.ParseDate("2025-09-01")
	if err != nil {
		t.Fatalf("fixture date: %v", err)
	}

	stored := transaction.Transaction{
		ID:       "t-1",
		UserID:   "user-1",
		Amount:   20000,
		Type:     "income",
		Category: "salary",
		Date:     date,
		Note:     "monthly salary",
	}

	repo := &fakeTransactionsRepo{
		updateFn: func(ctx context.Context, userID, id string, req transaction.UpdateTransactionRequest) (transaction.Transaction, error) {
			updated := stored

			if req.Amount != nil {
				updated.Amount = *req.Amount
			}
			if req.Type != nil {
				updated.Type = *req.Type
			}
			if req.Category != nil {
				updated.Category = *req.Category
			}
			if req.Date != nil {
				d, err := transaction.ParseDate(*req.Date)
				if err != nil {
					return transaction.Transaction{}, err
				}
				updated.Date = d
			}
			if req.Note != nil {
				updated.Note = *req.Note
			}

			return updated, nil
		},
	}

	h := handlers.NewTransactionsHandler(repo)
	r := setupAuthedRouter(http.MethodPatch, "/edit_transaction/:id", "user-1", h.Edit)

	// resubmit the dumped representation as the patch body
	body := `{"amount": 20000, "type": "income", "category": "salary", "date": "2025-09-01", "note": "monthly salary"}`
	req := httptest.NewRequest(http.MethodPatch, "/edit_transaction/t-1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var got transaction.Transaction

	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("could not decode body: %v", err)
	}

	if got.Amount != stored.Amount || got.Type != stored.Type || got.Category != stored.Category ||
		got.Note != stored.Note || !got.Date.Equal(stored.Date.Time) {
		t.Fatalf("round trip changed fields: %+v vs %+v", got, stored)
	}
}
