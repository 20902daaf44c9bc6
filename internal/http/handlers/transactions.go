package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TransactionStore interface {
	Create(ctx context.Context, userID string, req transaction.CreateTransactionRequest) (transaction.Transaction, error)
	List(ctx context.Context, userID string, filter transaction.ListFilter) ([]transaction.Transaction, int, error)
	Update(ctx context.Context, userID, id string, req transaction.UpdateTransactionRequest) (transaction.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
}

type TransactionsHandler struct {
	repo TransactionStore
}

func NewTransactionsHandler(repo TransactionStore) *TransactionsHandler {
	return &TransactionsHandler{repo: repo}
}

const (
	defaultPage    = 1
	defaultPerPage = 4
	maxPerPage     = 100
)

func (h *TransactionsHandler) Add(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req transaction.CreateTransactionRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	t, err := h.repo.Create(cctx, userID, req)

	if err != nil {
		RespondInternal(ctx, "Could not add transaction")
		return
	}

	ctx.JSON(http.StatusCreated, t)
}

func (h *TransactionsHandler) List(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	filter, ok := parseListFilter(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, total, err := h.repo.List(cctx, userID, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list transactions")
		return
	}

	pages := 0

	if total > 0 {
		pages = (total + filter.PerPage - 1) / filter.PerPage
	}

	ctx.JSON(http.StatusOK, transaction.Page{
		Items:   items,
		Total:   total,
		Page:    filter.Page,
		Pages:   pages,
		PerPage: filter.PerPage,
	})
}

func (h *TransactionsHandler) Edit(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	id := ctx.Param("id")

	var req transaction.UpdateTransactionRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	t, err := h.repo.Update(cctx, userID, id, req)

	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			RespondNotFound(ctx, "Transaction not found for this id or for current user")
			return
		}

		RespondInternal(ctx, "Could not edit transaction")
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TransactionsHandler) Delete(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, userID, id)

	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			RespondNotFound(ctx, "Transaction not found for this id or for current user")
			return
		}

		RespondInternal(ctx, "Could not delete transaction")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "transaction deleted successfully",
	})
}

// query parsing helpers

func parseListFilter(ctx *gin.Context) (transaction.ListFilter, bool) {
	filter := transaction.ListFilter{
		Page:    defaultPage,
		PerPage: defaultPerPage,
	}

	var fields []FieldError

	if raw := ctx.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err != nil || n < 1 {
			fields = append(fields, FieldError{Field: "page", Rule: "min", Param: "1", Message: "must be a positive integer"})
		} else {
			filter.Page = n
		}
	}

	if raw := ctx.Query("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err != nil || n < 1 {
			fields = append(fields, FieldError{Field: "per_page", Rule: "min", Param: "1", Message: "must be a positive integer"})
		} else {
			if n > maxPerPage {
				n = maxPerPage
			}
			filter.PerPage = n
		}
	}

	if raw := ctx.Query("type"); raw != "" {
		if raw != transaction.TypeIncome && raw != transaction.TypeExpense {
			fields = append(fields, FieldError{Field: "type", Rule: "oneof", Param: "income expense", Message: "must be one of income, expense"})
		} else {
			filter.Type = &raw
		}
	}

	if raw := ctx.Query("category"); raw != "" {
		filter.Category = &raw
	}

	if raw := ctx.Query("start_date"); raw != "" {
		d, err := transaction.ParseDate(raw)

		if err != nil {
			fields = append(fields, FieldError{Field: "start_date", Rule: "datetime", Param: "2006-01-02", Message: "must be a YYYY-MM-DD date"})
		} else {
			filter.From = &d.Time
		}
	}

	if raw := ctx.Query("end_date"); raw != "" {
		d, err := transaction.ParseDate(raw)

		if err != nil {
			fields = append(fields, FieldError{Field: "end_date", Rule: "datetime", Param: "2006-01-02", Message: "must be a YYYY-MM-DD date"})
		} else {
			filter.To = &d.Time
		}
	}

	if len(fields) > 0 {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": fields})
		return transaction.ListFilter{}, false
	}

	return filter, true
}
