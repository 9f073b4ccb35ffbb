package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"tailorshop/internal/models"
)

func TestPaymentStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO payments") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 6 || args[0] != "pay-1" || args[1] != "order-1" || args[2] != int64(10000) || args[3] != "advance" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewPaymentStore(stubDB{})
	err := store.Create(ctx, execer, models.Payment{ID: "pay-1", OrderID: "order-1", Amount: 10000, PaymentType: "advance"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPaymentStoreDrift(t *testing.T) {
	ctx := context.Background()
	store := NewPaymentStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "HAVING o.advance_paid <> COALESCE(SUM(p.amount), 0)") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*[]PaymentDrift) = []PaymentDrift{{OrderID: "order-1", AdvancePaid: 300, PaymentSum: 200, Difference: 100}}
			return nil
		},
	})
	rows, err := store.Drift(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Difference != 100 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}
