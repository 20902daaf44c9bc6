package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type Reporter interface {
	MonthlySummary(ctx context.Context, userID string, year, month int) (transaction.MonthlySummary, error)
	CategoryBreakdown(ctx context.Context, userID string, year, month int) ([]transaction.CategoryTotal, error)
}

type ReportsHandler struct {
	repo Reporter
}

func NewReportsHandler(repo Reporter) *ReportsHandler {
	return &ReportsHandler{repo: repo}
}

func (h *ReportsHandler) Monthly(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	year, month, ok := parsePeriod(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	summary, err := h.repo.MonthlySummary(cctx, userID, year, month)

	if err != nil {
		RespondInternal(ctx, "Could not build monthly summary")
		return
	}

	// a month with no data reports zero sums, never an error
	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"monthly summary": periodLabel(year, month),
		"income":          summary.Income,
		"expense":         summary.Expense,
		"balance":         summary.Balance,
	})
}

func (h *ReportsHandler) CategoryBreakdown(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	year, month, ok := parsePeriod(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	breakdown, err := h.repo.CategoryBreakdown(cctx, userID, year, month)

	if err != nil {
		RespondInternal(ctx, "Could not build category breakdown")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"month":              periodLabel(year, month),
		"category breakdown": breakdown,
	})
}

// year/month default to the current calendar month.
func parsePeriod(ctx *gin.Context) (int, int, bool) {
	now := time.Now().UTC()

	year := now.Year()
	month := int(now.Month())

	var fields []FieldError

	if raw := ctx.Query("year"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err != nil || n < 1 {
			fields = append(fields, FieldError{Field: "year", Rule: "min", Param: "1", Message: "must be a positive integer"})
		} else {
			year = n
		}
	}

	if raw := ctx.Query("month"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err != nil || n < 1 || n > 12 {
			fields = append(fields, FieldError{Field: "month", Rule: "range", Param: "1-12", Message: "must be between 1 and 12"})
		} else {
			month = n
		}
	}

	if len(fields) > 0 {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": fields})
		return 0, 0, false
	}

	return year, month, true
}

func periodLabel(year, month int) string {
	return fmt.Sprintf("%d - %d", year, month)
}
