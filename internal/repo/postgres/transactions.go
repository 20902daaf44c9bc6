package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTransactionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *TransactionsRepo {
	return &TransactionsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *TransactionsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TransactionsRepo) Create(ctx context.Context, userID string, req transaction.CreateTransactionRequest) (transaction.Transaction, error) {
	t := transaction.Transaction{
		ID:       uuid.NewString(),
		UserID:   userID,
		Amount:   req.Amount,
		Type:     req.Type,
		Category: req.Category,
		Date:     transaction.Today(),
		Note:     "NA",
	}

	if req.Date != "" {
		d, err := transaction.ParseDate(req.Date)

		if err != nil {
			return transaction.Transaction{}, err
		}

		t.Date = d
	}

	if req.Note != "" {
		t.Note = req.Note
	}

	err := r.observe("transactions.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO transactions (id, user_id, amount, type, category, date, note)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			t.ID, t.UserID, t.Amount, t.Type, t.Category, t.Date.Time, t.Note)
		return err
	})

	if err != nil {
		return transaction.Transaction{}, err
	}

	return t, nil
}

func (r *TransactionsRepo) List(ctx context.Context, userID string, filter transaction.ListFilter) ([]transaction.Transaction, int, error) {
	baseQuery :=
		`SELECT id,
		user_id,
		amount,
		type,
		category,
		date,
		note,
		COUNT(*) OVER() AS total
	FROM transactions
	`

	conds := []string{"user_id = $1"}
	args := []interface{}{userID}

	argsPosition := 2

	// filtered conditional checks.
	if filter.Type != nil {
		conds = append(conds, fmt.Sprintf("type = $%d", argsPosition))
		args = append(args, *filter.Type)
		argsPosition++
	}

	if filter.Category != nil {
		conds = append(conds, fmt.Sprintf("category = $%d", argsPosition))
		args = append(args, *filter.Category)
		argsPosition++
	}

	// inclusive date range

	if filter.From != nil {
		conds = append(conds, fmt.Sprintf("date >= $%d", argsPosition))
		args = append(args, *filter.From)
		argsPosition++
	}

	if filter.To != nil {
		conds = append(conds, fmt.Sprintf("date <= $%d", argsPosition))
		args = append(args, *filter.To)
		argsPosition++
	}

	query := baseQuery + " WHERE " + strings.Join(conds, " AND ")

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY date DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	offset := (filter.Page - 1) * filter.PerPage
	args = append(args, filter.PerPage, offset)

	var rows pgx.Rows

	err := r.observe("transactions.list", func() error {
		var err error
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]transaction.Transaction, 0, filter.PerPage)
	total := 0

	for rows.Next() {
		var t transaction.Transaction
		var n int

		err = rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Category, &t.Date.Time, &t.Note, &n)

		if err != nil {
			return nil, 0, err
		}

		total = n
		output = append(output, t)
	}

	err = rows.Err()

	if err != nil {
		return nil, 0, err
	}

	// an out-of-range page returns no rows, so the window total is lost;
	// recount so the caller still gets the real total.
	if len(output) == 0 {
		total, err = r.count(ctx, conds, args[:argsPosition-1])

		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *TransactionsRepo) count(ctx context.Context, conds []string, args []interface{}) (int, error) {
	query := "SELECT COUNT(*) FROM transactions WHERE " + strings.Join(conds, " AND ")

	var total int

	err := r.observe("transactions.count", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(&total)
	})

	if err != nil {
		return 0, err
	}

	return total, nil
}

func (r *TransactionsRepo) Update(ctx context.Context, userID, id string, req transaction.UpdateTransactionRequest) (transaction.Transaction, error) {
	sets := []string{}
	args := []interface{}{id, userID}

	argsPosition := 3

	if req.Amount != nil {
		sets = append(sets, fmt.Sprintf("amount = $%d", argsPosition))
		args = append(args, *req.Amount)
		argsPosition++
	}

	if req.Type != nil {
		sets = append(sets, fmt.Sprintf("type = $%d", argsPosition))
		args = append(args, *req.Type)
		argsPosition++
	}

	if req.Category != nil {
		sets = append(sets, fmt.Sprintf("category = $%d", argsPosition))
		args = append(args, *req.Category)
		argsPosition++
	}

	if req.Date != nil {
		d, err := transaction.ParseDate(*req.Date)

		if err != nil {
			return transaction.Transaction{}, err
		}

		sets = append(sets, fmt.Sprintf("date = $%d", argsPosition))
		args = append(args, d.Time)
		argsPosition++
	}

	if req.Note != nil {
		sets = append(sets, fmt.Sprintf("note = $%d", argsPosition))
		args = append(args, *req.Note)
		argsPosition++
	}

	// an empty patch is a no-op read of the owned row
	if len(sets) == 0 {
		return r.getOwned(ctx, userID, id)
	}

	query := `UPDATE transactions
		SET ` + strings.Join(sets, ", ") + `
	WHERE id = $1 AND user_id = $2
	RETURNING id, user_id, amount, type, category, date, note`

	var t transaction.Transaction

	err := r.observe("transactions.update", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(
			&t.ID,
			&t.UserID,
			&t.Amount,
			&t.Type,
			&t.Category,
			&t.Date.Time,
			&t.Note,
		)
	})

	if err != nil {
		// no owned row matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return transaction.Transaction{}, transaction.ErrNotFound
		}
		// if it is any other type of error
		return transaction.Transaction{}, err
	}

	return t, nil
}

func (r *TransactionsRepo) getOwned(ctx context.Context, userID, id string) (transaction.Transaction, error) {
	var t transaction.Transaction

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, amount, type, category, date, note
		 FROM transactions
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Category, &t.Date.Time, &t.Note)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transaction.Transaction{}, transaction.ErrNotFound
		}

		return transaction.Transaction{}, err
	}

	return t, nil
}

func (r *TransactionsRepo) Delete(ctx context.Context, userID, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("transactions.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `
			DELETE FROM transactions WHERE id = $1 AND user_id = $2
		`, id, userID)
		return err
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag.RowsAffected() == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

func (r *TransactionsRepo) MonthlySummary(ctx context.Context, userID string, year, month int) (transaction.MonthlySummary, error) {
	var s transaction.MonthlySummary

	err := r.observe("reports.monthly", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT
				COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
				COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
			FROM transactions
			WHERE user_id = $1
			  AND EXTRACT(YEAR FROM date) = $2
			  AND EXTRACT(MONTH FROM date) = $3
		`, userID, year, month).Scan(&s.Income, &s.Expense)
	})

	if err != nil {
		return transaction.MonthlySummary{}, err
	}

	s.Balance = s.Income - s.Expense

	return s, nil
}

func (r *TransactionsRepo) CategoryBreakdown(ctx context.Context, userID string, year, month int) ([]transaction.CategoryTotal, error) {
	var rows pgx.Rows

	// income and expense are summed together here on purpose; see the
	// domain type for why this stays as-is.
	err := r.observe("reports.category_breakdown", func() error {
		var err error
		rows, err = r.pool.Query(ctx, `
			SELECT category, SUM(amount)
			FROM transactions
			WHERE user_id = $1
			  AND EXTRACT(YEAR FROM date) = $2
			  AND EXTRACT(MONTH FROM date) = $3
			GROUP BY category
			ORDER BY category
		`, userID, year, month)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	output := make([]transaction.CategoryTotal, 0)

	for rows.Next() {
		var ct transaction.CategoryTotal

		err = rows.Scan(&ct.Category, &ct.Total)

		if err != nil {
			return nil, err
		}

		output = append(output, ct)
	}

	err = rows.Err()

	if err != nil {
		return nil, err
	}

	return output, nil
}
