package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/fintrack/internal/auth"
	"github.com/geocoder89/fintrack/internal/cache"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type UserResolver interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type AuthMiddleware struct {
	jwt      TokenVerifier
	denylist RevocationChecker
	users    UserResolver
	// short-lived cache so every request in a burst does not hit the
	// users table for the same identity
	userCache *cache.Cache
}

func NewAuthMiddleware(jwt TokenVerifier, denylist RevocationChecker, users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{
		jwt:       jwt,
		denylist:  denylist,
		users:     users,
		userCache: cache.New(5 * time.Second),
	}
}

const ctxUserKey = "auth.user"

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

// RequireAuth guards every protected route: bearer header, signature and
// expiry, revocation list, then the owning user must still exist.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired access token")
			return
		}

		rctx := c.Request.Context()

		revoked, err := m.denylist.IsRevoked(rctx, claims.JTI)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Could not verify token",
				},
			})
			return
		}

		if revoked {
			abortUnauthorized(c, "Token has been revoked")
			return
		}

		u, err := m.resolveUser(rctx, claims.Email)
		if err != nil {
			// token outlived its user
			abortUnauthorized(c, "Unknown identity")
			return
		}

		// Stash useful bits of identity on the context
		c.Set(string(CtxUserID), u.ID)
		c.Set(string(CtxEmail), u.Email)
		c.Set(ctxUserKey, u)

		c.Next()
	}
}

func (m *AuthMiddleware) resolveUser(ctx context.Context, email string) (user.User, error) {
	if v, ok := m.userCache.Get(email); ok {
		if u, ok := v.(user.User); ok {
			return u, nil
		}
	}

	u, err := m.users.GetByEmail(ctx, email)

	if err != nil {
		return user.User{}, err
	}

	m.userCache.Set(email, u)

	return u, nil
}

// Optional helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(string(CtxUserID))
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(string(CtxEmail))
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
