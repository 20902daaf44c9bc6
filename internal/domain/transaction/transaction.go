package transaction

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("transaction not found")

const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

type Transaction struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Amount   int64  `json:"amount"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Date     Date   `json:"date"`
	Note     string `json:"note"`
}

type CreateTransactionRequest struct {
	Amount   int64  `json:"amount" binding:"required,min=1"`
	Type     string `json:"type" binding:"required,oneof=income expense"`
	Category string `json:"category" binding:"required,max=80"`
	Date     string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Note     string `json:"note" binding:"omitempty,max=500"`
}

// All fields optional. Only the ones present in the payload are applied.
type UpdateTransactionRequest struct {
	Amount   *int64  `json:"amount" binding:"omitempty,min=1"`
	Type     *string `json:"type" binding:"omitempty,oneof=income expense"`
	Category *string `json:"category" binding:"omitempty,max=80"`
	Date     *string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Note     *string `json:"note" binding:"omitempty,max=500"`
}

func (r UpdateTransactionRequest) Empty() bool {
	return r.Amount == nil && r.Type == nil && r.Category == nil && r.Date == nil && r.Note == nil
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Type     *string
	Category *string
	From     *time.Time
	To       *time.Time
	Page     int
	PerPage  int
}

type Page struct {
	Items   []Transaction `json:"transactions"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	Pages   int           `json:"pages"`
	PerPage int           `json:"per_page"`
}

type MonthlySummary struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Balance int64 `json:"balance"`
}

// Income and expense amounts are summed together without sign distinction.
// That mirrors the established report semantics, so keep it that way.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
}
