package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/grandbet/deposit-service/internal/domain/entities"
)

// DepositRepository handles deposit transaction persistence
type DepositRepository struct {
	db *sqlx.DB
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *sqlx.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

// Create inserts a new deposit row
func (r *DepositRepository) Create(ctx context.Context, d *entities.Deposit) error {
	query := `
		INSERT INTO deposits (id, user_id, method_id, amount, use_bonus, transaction_id, payment_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.UserID, d.MethodID, d.Amount, d.UseBonus, d.TransactionID, d.PaymentURL, d.Status, d.CreatedAt, d.UpdatedAt)
	return err
}

// GetByTransactionID returns the deposit for a gateway transaction id
func (r *DepositRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entities.Deposit, error) {
	query := `
		SELECT id, user_id, method_id, amount, use_bonus, transaction_id, payment_url, status, failure_reason, created_at, updated_at
		FROM deposits
		WHERE transaction_id = $1`

	d := &entities.Deposit{}
	err := r.db.QueryRowContext(ctx, query, transactionID).Scan(
		&d.ID, &d.UserID, &d.MethodID, &d.Amount, &d.UseBonus, &d.TransactionID,
		&d.PaymentURL, &d.Status, &d.FailureReason, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("deposit not found")
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateStatusByTransactionID transitions a deposit after validating the
// transition against the status table. Terminal rows are left untouched.
// The row is locked for the read-validate-write so a provider callback
// and a reconciliation sweep cannot interleave on the same transaction.
func (r *DepositRepository) UpdateStatusByTransactionID(ctx context.Context, transactionID string, status entities.DepositStatus, failureReason *string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current entities.DepositStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM deposits WHERE transaction_id = $1 FOR UPDATE`,
		transactionID).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("deposit not found")
	}
	if err != nil {
		return err
	}

	if current.IsTerminal() {
		return tx.Commit()
	}
	if err := current.ValidateTransition(status); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE deposits SET status = $2, failure_reason = $3, updated_at = $4 WHERE transaction_id = $1`,
		transactionID, status, failureReason, time.Now())
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ListUnsettled returns deposits still awaiting a provider outcome,
// oldest first, for the reconciliation worker.
func (r *DepositRepository) ListUnsettled(ctx context.Context, olderThan time.Duration, limit int) ([]*entities.Deposit, error) {
	query := `
		SELECT id, user_id, method_id, amount, use_bonus, transaction_id, payment_url, status, failure_reason, created_at, updated_at
		FROM deposits
		WHERE status IN ('submitted', 'awaiting_provider') AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []*entities.Deposit
	for rows.Next() {
		d := &entities.Deposit{}
		if err := rows.Scan(&d.ID, &d.UserID, &d.MethodID, &d.Amount, &d.UseBonus, &d.TransactionID,
			&d.PaymentURL, &d.Status, &d.FailureReason, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

// ListByUser returns a user's deposits, newest first
func (r *DepositRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Deposit, error) {
	query := `
		SELECT id, user_id, method_id, amount, use_bonus, transaction_id, payment_url, status, failure_reason, created_at, updated_at
		FROM deposits
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []*entities.Deposit
	for rows.Next() {
		d := &entities.Deposit{}
		if err := rows.Scan(&d.ID, &d.UserID, &d.MethodID, &d.Amount, &d.UseBonus, &d.TransactionID,
			&d.PaymentURL, &d.Status, &d.FailureReason, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}
