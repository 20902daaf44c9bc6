package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/fintrack/internal/auth"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/geocoder89/fintrack/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDenylist struct {
	revoked map[string]bool
}

func (f *fakeDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

type fakeUserResolver struct {
	users map[string]user.User
}

func (f *fakeUserResolver) GetByEmail(ctx context.Context, email string) (user.User, error) {
	u, ok := f.users[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func protectedRouter(m *middlewares.AuthMiddleware) *gin.Engine {
	r := gin.New()

	r.GET("/protected", m.RequireAuth(), func(c *gin.Context) {
		id, _ := middlewares.UserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": id})
	})

	return r
}

func TestRequireAuth(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour)

	raw, jti, _, err := manager.GenerateAccessToken("john@example.com")
	if err != nil {
		t.Fatalf("could not issue token: %v", err)
	}

	knownUsers := map[string]user.User{
		"john@example.com": {ID: "user-1", Email: "john@example.com", Name: "John"},
	}

	tests := []struct {
		name           string
		header         string
		revoked        map[string]bool
		users          map[string]user.User
		wantStatusCode int
	}{
		{
			name:           "valid_token",
			header:         "Bearer " + raw,
			users:          knownUsers,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_header",
			header:         "",
			users:          knownUsers,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "not_bearer",
			header:         "Basic abc123",
			users:          knownUsers,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "garbage_token",
			header:         "Bearer not.a.token",
			users:          knownUsers,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "revoked_token",
			header:         "Bearer " + raw,
			revoked:        map[string]bool{jti: true},
			users:          knownUsers,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:   "user_deleted_after_issuance",
			header: "Bearer " + raw,
			users:  map[string]user.User{},
			// token outlives its user: still a 401
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			m := middlewares.NewAuthMiddleware(
				manager,
				&fakeDenylist{revoked: tt.revoked},
				&fakeUserResolver{users: tt.users},
			)

			r := protectedRouter(m)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)

			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	expiredManager := auth.NewManager("test-secret", -time.Minute)

	raw, _, _, err := expiredManager.GenerateAccessToken("john@example.com")
	if err != nil {
		t.Fatalf("could not issue token: %v", err)
	}

	m := middlewares.NewAuthMiddleware(
		auth.NewManager("test-secret", time.Hour),
		&fakeDenylist{},
		&fakeUserResolver{users: map[string]user.User{}},
	)

	r := protectedRouter(m)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}
}
