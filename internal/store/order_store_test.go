package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"tailorshop/internal/models"
)

func TestOrderStoreCreateStartsWithNothingPaid(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO orders") || !strings.Contains(query, "$8, 0, $9") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != "order-1" || args[1] != "cust-1" || args[7] != int64(500000) {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewOrderStore(stubDB{})
	err := store.Create(ctx, execer, models.Order{ID: "order-1", CustomerID: "cust-1", ClothingType: "Suit", Status: models.OrderPending, TotalPrice: 500000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOrderStoreGetForUpdate(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("expected row lock: %s", query)
			}
			if len(args) != 1 || args[0] != "order-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*models.Order) = models.Order{ID: "order-1", AdvancePaid: 100}
			return nil
		},
	}
	row, err := NewOrderStore(stubDB{}).GetForUpdate(ctx, getter, "order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.AdvancePaid != 100 {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestOrderStoreIncrementAdvancePaid(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "advance_paid = advance_paid + $1") || !strings.Contains(query, "RETURNING advance_paid") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != int64(2500) || args[1] != "order-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int64) = 7500
			return nil
		},
	}
	total, err := NewOrderStore(stubDB{}).IncrementAdvancePaid(ctx, getter, "order-1", 2500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 7500 {
		t.Fatalf("expected 7500, got %d", total)
	}
}

func TestOrderStoreListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "JOIN customers c") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 7 || args[0] != "pending" || args[5] != 20 || args[6] != 40 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.Order) = []models.Order{{ID: "order-1"}}
			return nil
		},
	})
	rows, err := store.List(ctx, OrderFilter{Status: "pending"}, 20, 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestOrderStoreAssign(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if args[0] != "user-1" || args[1] != models.OrderInProgress || args[2] != "order-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	if err := NewOrderStore(stubDB{}).Assign(ctx, execer, "order-1", "user-1", models.OrderInProgress); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
