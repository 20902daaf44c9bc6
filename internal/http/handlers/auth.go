package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/fintrack/internal/auth"
	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/geocoder89/fintrack/internal/repo/postgres"
	"github.com/geocoder89/fintrack/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, name, email, passwordHash string) (user.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(email string) (raw string, jti string, expiresAt time.Time, err error)
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	jwt        TokenIssuer
	denylist   Revoker
	cfg        config.Config
}

func NewAuthHandler(users UserReader, userWriter UserWriter, jwt TokenIssuer, denylist Revoker, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwt,
		denylist:   denylist,
		cfg:        cfg,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.userWriter.Create(cctx, req.Name, req.Email, hash)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	// public fields only; the hash is excluded at the type level
	ctx.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	accessToken, _, _, err := h.jwt.GenerateAccessToken(foundUser.Email)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
	})
}

// Logout revokes the presented token's jti. Calling it again with the
// same token fails auth upstream, so the caller only ever sees success.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw := bearerToken(ctx)

	if raw == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing or invalid Authorization header")
		return
	}

	claims, err := h.jwt.VerifyAccessToken(raw)

	if err != nil {
		RespondUnauthorized(ctx, "unauthorized", "Invalid or expired access token")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err = h.denylist.Revoke(cctx, claims.JTI, claims.ExpiresAt.Time)

	if err != nil {
		RespondInternal(ctx, "Could not log out")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "successfully logged out",
	})
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")

	const prefix = "Bearer "

	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return ""
	}

	return header[len(prefix):]
}
