package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/grandbet/deposit-service/internal/domain/services/catalog"
)

// MethodRepository serves raw payment method records from the catalog table
type MethodRepository struct {
	db *sqlx.DB
}

// NewMethodRepository creates a new method repository
func NewMethodRepository(db *sqlx.DB) *MethodRepository {
	return &MethodRepository{db: db}
}

// ListMethods returns all provider records in display order
func (r *MethodRepository) ListMethods(ctx context.Context) ([]catalog.RawMethodRecord, error) {
	query := `
		SELECT id, name, min_amount, max_amount, commission_rate, estimated_time, enabled, disabled
		FROM payment_methods
		ORDER BY display_order, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []catalog.RawMethodRecord
	for rows.Next() {
		var rec catalog.RawMethodRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.MinAmount, &rec.MaxAmount,
			&rec.CommissionRate, &rec.EstimatedTime, &rec.Enabled, &rec.Disabled); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
