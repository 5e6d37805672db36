package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rechargehub/apiserver/types"
)

// TransactionRepository handles persistence for payment transactions.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, reference, user_id, plan_id, type, number, operator, amount, method, status, receipt_key, created_at, updated_at`

func (r *TransactionRepository) Create(ctx context.Context, tx types.Transaction) (types.Transaction, error) {
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	const query = `
		INSERT INTO transactions (reference, user_id, plan_id, type, number, operator, amount, method, status, receipt_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		tx.Reference,
		tx.UserID,
		tx.PlanID,
		tx.Type,
		tx.Number,
		tx.Operator,
		tx.Amount,
		tx.Method,
		tx.Status,
		tx.ReceiptKey,
		tx.CreatedAt,
		tx.UpdatedAt,
	).Scan(&tx.ID); err != nil {
		return types.Transaction{}, err
	}
	return tx, nil
}

func (r *TransactionRepository) Get(ctx context.Context, id int64) (types.Transaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1`
	var tx types.Transaction
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tx.ID,
		&tx.Reference,
		&tx.UserID,
		&tx.PlanID,
		&tx.Type,
		&tx.Number,
		&tx.Operator,
		&tx.Amount,
		&tx.Method,
		&tx.Status,
		&tx.ReceiptKey,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Transaction{}, ErrNotFound
		}
		return types.Transaction{}, err
	}
	return tx, nil
}

// ListByUser returns the user's transactions, newest first. An empty status
// matches all statuses.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int, status string, offset, limit int) ([]types.Transaction, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `
		SELECT COUNT(1)
		FROM transactions
		WHERE user_id = $1
		  AND ($2 = '' OR status = $2)`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		  AND ($2 = '' OR status = $2)
		ORDER BY id DESC
		OFFSET $3 LIMIT $4`
	rows, err := r.db.QueryContext(ctx, listQuery, userID, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	transactions := make([]types.Transaction, 0, limit)
	for rows.Next() {
		var tx types.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.Reference,
			&tx.UserID,
			&tx.PlanID,
			&tx.Type,
			&tx.Number,
			&tx.Operator,
			&tx.Amount,
			&tx.Method,
			&tx.Status,
			&tx.ReceiptKey,
			&tx.CreatedAt,
			&tx.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// SetReceiptKey records the object storage key of an archived receipt.
func (r *TransactionRepository) SetReceiptKey(ctx context.Context, id int64, key string) error {
	const query = `
		UPDATE transactions
		SET receipt_key = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, key, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
