package store

import (
	"context"

	"tailorshop/internal/models"

	"github.com/shopspring/decimal"
)

type AlertStore struct {
	db DB
}

func NewAlertStore(db DB) *AlertStore {
	return &AlertStore{db: db}
}

func (s *AlertStore) ListLowStock(ctx context.Context, userID string, threshold decimal.Decimal) ([]models.LowStockAlert, error) {
	var rows []models.LowStockAlert
	err := s.db.SelectContext(ctx, &rows, `
		SELECT i.id, i.item_type, i.name, i.quantity, i.unit, i.min_stock, i.notes, i.created_at, i.updated_at,
		       (r.user_id IS NOT NULL) AS is_read
		FROM inventory i
		LEFT JOIN low_stock_alert_reads r ON r.inventory_id = i.id AND r.user_id = $1
		WHERE i.quantity <= $2
		ORDER BY i.quantity, i.name
	`, userID, threshold)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AlertStore) UnreadCount(ctx context.Context, userID string, threshold decimal.Decimal) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM inventory i
		LEFT JOIN low_stock_alert_reads r ON r.inventory_id = i.id AND r.user_id = $1
		WHERE i.quantity <= $2 AND r.user_id IS NULL
	`, userID, threshold)
	return count, err
}

// MarkRead is idempotent; repeated marks keep the first read_at.
func (s *AlertStore) MarkRead(ctx context.Context, tx Execer, userID, itemID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO low_stock_alert_reads (user_id, inventory_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, inventory_id) DO NOTHING
	`, userID, itemID)
	return err
}

func (s *AlertStore) MarkAllRead(ctx context.Context, tx Execer, userID string, threshold decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO low_stock_alert_reads (user_id, inventory_id)
		SELECT $1, id FROM inventory WHERE quantity <= $2
		ON CONFLICT (user_id, inventory_id) DO NOTHING
	`, userID, threshold)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearReads re-arms an alert for everyone, used when an item drops back under the threshold.
func (s *AlertStore) ClearReads(ctx context.Context, tx Execer, itemID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM low_stock_alert_reads WHERE inventory_id = $1`, itemID)
	return err
}
