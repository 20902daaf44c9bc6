package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/fintrack/internal/auth"
	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/http/handlers"
	"github.com/geocoder89/fintrack/internal/http/middlewares"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/geocoder89/fintrack/internal/redisclient"
	"github.com/geocoder89/fintrack/internal/repo/postgres"
	"github.com/geocoder89/fintrack/internal/revocation"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Cfg   config.Config
	Log   *slog.Logger
	Pool  *pgxpool.Pool
	Redis *redisclient.Client
	Prom  *observability.Prom
	Reg   *prometheus.Registry
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSOrigins))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(otelgin.Middleware("fintrack"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(d.Pool)
	transactionsRepo := postgres.NewTransactionsRepo(d.Pool, d.Prom)
	revokedRepo := postgres.NewRevokedTokensRepo(d.Pool, d.Prom)

	jwtManager := auth.NewManager(d.Cfg.JWTSecret, d.Cfg.AccessTTL)

	var rdb *redis.Client
	if d.Redis != nil {
		rdb = d.Redis.Raw()
	}

	denylist := revocation.NewDenylist(revokedRepo, rdb, d.Log)

	if d.Prom != nil {
		denylist = denylist.WithRevokedCounter(d.Prom.TokensRevoked)
	}

	authMiddleware := middlewares.NewAuthMiddleware(jwtManager, denylist, usersRepo)

	// rate limiting: by IP for credential endpoints, by user elsewhere
	limiter := middlewares.NewRateLimiter(d.Cfg.RateLimit, d.Cfg.RateLimitWindow)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager, denylist, d.Cfg)
	transactionsHandler := handlers.NewTransactionsHandler(transactionsRepo)
	reportsHandler := handlers.NewReportsHandler(transactionsRepo)

	// health
	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if d.Pool != nil {
			if err := d.Pool.Ping(ctx); err != nil {
				return err
			}
		}

		if d.Redis != nil {
			return d.Redis.Ping(ctx)
		}

		return nil
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Reg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Reg, promhttp.HandlerOpts{})))
	}

	// docs
	r.GET("/swagger", handlers.SwaggerUI)
	r.StaticFile("/docs/openapi.yaml", "./docs/openapi.yaml")

	// public auth routes
	public := r.Group("/")
	public.Use(limiter.RateLimiterMiddleware(middlewares.KeyByIP))
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)

	// everything below requires a valid, unrevoked token
	protected := r.Group("/")
	protected.Use(authMiddleware.RequireAuth())
	protected.Use(limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	protected.POST("/logout", authHandler.Logout)

	protected.POST("/add_transaction", transactionsHandler.Add)
	protected.GET("/get_transactions", transactionsHandler.List)
	protected.PATCH("/edit_transaction/:id", transactionsHandler.Edit)
	protected.DELETE("/delete_transaction/:id", transactionsHandler.Delete)

	protected.GET("/report/monthly", reportsHandler.Monthly)
	protected.GET("/report/category_breakdown", reportsHandler.CategoryBreakdown)

	// generic fallback shape for unmatched routes
	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	})

	return r
}
