package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tailorshop/internal/db"
	"tailorshop/internal/events"
	"tailorshop/internal/models"
	"tailorshop/internal/store"
	"tailorshop/internal/validator"
	"tailorshop/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// LowStockThreshold is the quantity at or under which an item raises an alert.
var LowStockThreshold = decimal.NewFromInt(5)

type InventoryStore interface {
	Create(ctx context.Context, tx store.Execer, item models.InventoryItem) error
	GetByID(ctx context.Context, itemID string) (models.InventoryItem, error)
	GetForUpdate(ctx context.Context, tx store.Getter, itemID string) (models.InventoryItem, error)
	List(ctx context.Context, itemType string) ([]models.InventoryItem, error)
	Update(ctx context.Context, tx store.Execer, item models.InventoryItem) (int64, error)
	Adjust(ctx context.Context, tx store.Getter, itemID string, delta decimal.Decimal) (models.InventoryItem, error)
	Delete(ctx context.Context, tx store.Execer, itemID string) (int64, error)
}

type AlertStore interface {
	ListLowStock(ctx context.Context, userID string, threshold decimal.Decimal) ([]models.LowStockAlert, error)
	UnreadCount(ctx context.Context, userID string, threshold decimal.Decimal) (int, error)
	MarkRead(ctx context.Context, tx store.Execer, userID, itemID string) error
	MarkAllRead(ctx context.Context, tx store.Execer, userID string, threshold decimal.Decimal) (int64, error)
	ClearReads(ctx context.Context, tx store.Execer, itemID string) error
}

type InventoryService struct {
	txRunner  db.TxRunner
	items     InventoryStore
	alerts    AlertStore
	audit     AuditStore
	notifier  Notifier
	publisher events.Publisher
	now       func() time.Time
}

func NewInventoryService(
	txRunner db.TxRunner,
	items InventoryStore,
	alerts AlertStore,
	audit AuditStore,
	notifier Notifier,
	publisher events.Publisher,
) *InventoryService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &InventoryService{
		txRunner:  txRunner,
		items:     items,
		alerts:    alerts,
		audit:     audit,
		notifier:  notifier,
		publisher: publisher,
		now:       time.Now,
	}
}

func isLow(quantity decimal.Decimal) bool {
	return quantity.LessThanOrEqual(LowStockThreshold)
}

type InventoryInput struct {
	ItemType string
	Name     string
	Quantity decimal.Decimal
	Unit     string
	MinStock decimal.NullDecimal
	Notes    string
}

func (s *InventoryService) Create(ctx context.Context, actorID string, input InventoryInput) (models.InventoryItem, error) {
	item, err := buildItem(uuid.NewString(), input)
	if err != nil {
		return models.InventoryItem{}, err
	}
	now := s.now()
	item.CreatedAt = now
	item.UpdatedAt = now
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.items.Create(ctx, tx, item); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actorID, "create_inventory", "inventory", item.ID, "{}")
	})
	if err != nil {
		return models.InventoryItem{}, err
	}
	if isLow(item.Quantity) {
		s.announceLow(ctx, actorID, item)
	}
	return item, nil
}

func buildItem(id string, input InventoryInput) (models.InventoryItem, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.ItemType) == "" {
		return models.InventoryItem{}, fmt.Errorf("item_type and name: %w", validator.ErrRequired)
	}
	if input.Quantity.IsNegative() {
		return models.InventoryItem{}, ErrInvalidAmount
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "pcs"
	}
	return models.InventoryItem{
		ID:       id,
		ItemType: strings.TrimSpace(input.ItemType),
		Name:     strings.TrimSpace(input.Name),
		Quantity: input.Quantity,
		Unit:     unit,
		MinStock: input.MinStock,
		Notes:    optional(input.Notes),
	}, nil
}

func (s *InventoryService) Update(ctx context.Context, actorID, itemID string, input InventoryInput) (models.InventoryItem, error) {
	item, err := buildItem(itemID, input)
	if err != nil {
		return models.InventoryItem{}, err
	}
	var crossed bool
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		before, err := s.items.GetForUpdate(ctx, tx, itemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		item.CreatedAt = before.CreatedAt
		if _, err := s.items.Update(ctx, tx, item); err != nil {
			return err
		}
		crossed, err = s.rearm(ctx, tx, before.Quantity, item.Quantity, itemID)
		if err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actorID, "update_inventory", "inventory", itemID, "{}")
	})
	if err != nil {
		return models.InventoryItem{}, err
	}
	item.UpdatedAt = s.now()
	if crossed {
		s.announceLow(ctx, actorID, item)
	}
	return item, nil
}

// Adjust adds delta (negative to consume) to the stock level. The result
// never drops below zero.
func (s *InventoryService) Adjust(ctx context.Context, actorID, itemID string, delta decimal.Decimal) (models.InventoryItem, error) {
	var item models.InventoryItem
	var crossed bool
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		before, err := s.items.GetForUpdate(ctx, tx, itemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		item, err = s.items.Adjust(ctx, tx, itemID, delta)
		if err != nil {
			return err
		}
		crossed, err = s.rearm(ctx, tx, before.Quantity, item.Quantity, itemID)
		if err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actorID, "adjust_inventory", "inventory", itemID, auditData(map[string]string{
			"delta":    delta.String(),
			"quantity": item.Quantity.String(),
		}))
	})
	if err != nil {
		return models.InventoryItem{}, err
	}
	if crossed {
		s.announceLow(ctx, actorID, item)
	}
	return item, nil
}

// rearm clears dismissals whenever an item moves across the threshold, so
// the next drop alerts every reader again. It reports a drop into low stock.
func (s *InventoryService) rearm(ctx context.Context, tx *sqlx.Tx, before, after decimal.Decimal, itemID string) (bool, error) {
	if isLow(before) == isLow(after) {
		return false, nil
	}
	if err := s.alerts.ClearReads(ctx, tx, itemID); err != nil {
		return false, err
	}
	return isLow(after), nil
}

func (s *InventoryService) Delete(ctx context.Context, actorID, itemID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.items.Delete(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, actorID, "delete_inventory", "inventory", itemID, "{}")
	})
}

func (s *InventoryService) LowStockAlerts(ctx context.Context, userID string) ([]models.LowStockAlert, int, error) {
	alerts, err := s.alerts.ListLowStock(ctx, userID, LowStockThreshold)
	if err != nil {
		return nil, 0, err
	}
	unread := 0
	for _, alert := range alerts {
		if !alert.IsRead {
			unread++
		}
	}
	return alerts, unread, nil
}

func (s *InventoryService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.alerts.UnreadCount(ctx, userID, LowStockThreshold)
}

func (s *InventoryService) MarkRead(ctx context.Context, userID, itemID string) error {
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.alerts.MarkRead(ctx, tx, userID, itemID)
	})
}

func (s *InventoryService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	var marked int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		marked, err = s.alerts.MarkAllRead(ctx, tx, userID, LowStockThreshold)
		return err
	})
	return marked, err
}

func (s *InventoryService) announceLow(ctx context.Context, actorID string, item models.InventoryItem) {
	payload := map[string]string{
		"item_id":  item.ID,
		"name":     item.Name,
		"quantity": item.Quantity.String(),
		"unit":     item.Unit,
	}
	_ = s.publisher.Publish(ctx, events.New(events.LowStock, actorID, payload))
	if s.notifier != nil {
		s.notifier.Broadcast(websocket.Message{Type: events.LowStock, Data: payload})
	}
}
