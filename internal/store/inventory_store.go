package store

import (
	"context"

	"tailorshop/internal/models"

	"github.com/shopspring/decimal"
)

type InventoryStore struct {
	db DB
}

func NewInventoryStore(db DB) *InventoryStore {
	return &InventoryStore{db: db}
}

const inventoryColumns = `id, item_type, name, quantity, unit, min_stock, notes, created_at, updated_at`

func (s *InventoryStore) Create(ctx context.Context, tx Execer, item models.InventoryItem) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO inventory (id, item_type, name, quantity, unit, min_stock, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.ItemType, item.Name, item.Quantity, item.Unit, item.MinStock, item.Notes)
	return err
}

func (s *InventoryStore) GetByID(ctx context.Context, itemID string) (models.InventoryItem, error) {
	var row models.InventoryItem
	err := s.db.GetContext(ctx, &row, `SELECT `+inventoryColumns+` FROM inventory WHERE id = $1`, itemID)
	return row, err
}

func (s *InventoryStore) GetForUpdate(ctx context.Context, tx Getter, itemID string) (models.InventoryItem, error) {
	var row models.InventoryItem
	err := tx.GetContext(ctx, &row, `SELECT `+inventoryColumns+` FROM inventory WHERE id = $1 FOR UPDATE`, itemID)
	return row, err
}

func (s *InventoryStore) List(ctx context.Context, itemType string) ([]models.InventoryItem, error) {
	var rows []models.InventoryItem
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+inventoryColumns+`
		FROM inventory
		WHERE $1::text = '' OR item_type = $1
		ORDER BY name
	`, itemType)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *InventoryStore) Update(ctx context.Context, tx Execer, item models.InventoryItem) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET item_type = $1, name = $2, quantity = $3, unit = $4, min_stock = $5, notes = $6, updated_at = NOW()
		WHERE id = $7
	`, item.ItemType, item.Name, item.Quantity, item.Unit, item.MinStock, item.Notes, item.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Adjust applies delta atomically, clamping the result at zero.
func (s *InventoryStore) Adjust(ctx context.Context, tx Getter, itemID string, delta decimal.Decimal) (models.InventoryItem, error) {
	var row models.InventoryItem
	err := tx.GetContext(ctx, &row, `
		UPDATE inventory
		SET quantity = GREATEST(quantity + $1, 0), updated_at = NOW()
		WHERE id = $2
		RETURNING `+inventoryColumns+`
	`, delta, itemID)
	return row, err
}

func (s *InventoryStore) Delete(ctx context.Context, tx Execer, itemID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM inventory WHERE id = $1`, itemID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
