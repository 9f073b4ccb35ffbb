package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"tailorshop/internal/db"
	"tailorshop/internal/events"
	"tailorshop/internal/models"
	"tailorshop/internal/money"
	"tailorshop/internal/store"
	"tailorshop/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type OrderLedger interface {
	GetForUpdate(ctx context.Context, tx store.Getter, orderID string) (models.Order, error)
	IncrementAdvancePaid(ctx context.Context, tx store.Getter, orderID string, amount int64) (int64, error)
}

type PaymentStore interface {
	Create(ctx context.Context, tx store.Execer, payment models.Payment) error
	Drift(ctx context.Context) ([]store.PaymentDrift, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input models.Transaction) error
	Balances(ctx context.Context) ([]store.MethodBalance, error)
}

type SwapStore interface {
	Create(ctx context.Context, tx store.Execer, swap models.Swap) error
	Totals(ctx context.Context) ([]store.SwapTotals, error)
}

const (
	PaymentAdvance = "advance"
	PaymentPartial = "partial"
	PaymentFull    = "full"
)

var paymentTypes = []string{PaymentAdvance, PaymentPartial, PaymentFull}

// LedgerService records money movements: order payments, cash book
// transactions and currency swaps.
type LedgerService struct {
	txRunner     db.TxRunner
	orders       OrderLedger
	payments     PaymentStore
	transactions TransactionStore
	swaps        SwapStore
	audit        AuditStore
	notifier     Notifier
	publisher    events.Publisher
	now          func() time.Time
}

func NewLedgerService(
	txRunner db.TxRunner,
	orders OrderLedger,
	payments PaymentStore,
	transactions TransactionStore,
	swaps SwapStore,
	audit AuditStore,
	notifier Notifier,
	publisher events.Publisher,
) *LedgerService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &LedgerService{
		txRunner:     txRunner,
		orders:       orders,
		payments:     payments,
		transactions: transactions,
		swaps:        swaps,
		audit:        audit,
		notifier:     notifier,
		publisher:    publisher,
		now:          time.Now,
	}
}

type PaymentRequest struct {
	OrderID     string
	Amount      int64
	PaymentType string
	Notes       string
	ActorID     string
}

type PaymentResult struct {
	Payment          models.Payment
	AdvancePaid      int64
	RemainingBalance int64
}

// RecordPayment inserts the payment and raises the order's advance_paid in
// one transaction. The order row is locked first so concurrent payments
// against the same order serialize.
func (s *LedgerService) RecordPayment(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	if req.Amount <= 0 {
		return PaymentResult{}, ErrInvalidAmount
	}
	paymentType := strings.ToLower(strings.TrimSpace(req.PaymentType))
	if !lo.Contains(paymentTypes, paymentType) {
		paymentType = PaymentAdvance
	}
	payment := models.Payment{
		ID:          uuid.NewString(),
		OrderID:     req.OrderID,
		Amount:      req.Amount,
		PaymentType: paymentType,
		Notes:       optional(req.Notes),
		CreatedBy:   optional(req.ActorID),
		CreatedAt:   s.now(),
	}
	var result PaymentResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		order, err := s.orders.GetForUpdate(ctx, tx, req.OrderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := s.payments.Create(ctx, tx, payment); err != nil {
			return err
		}
		paid, err := s.orders.IncrementAdvancePaid(ctx, tx, order.ID, payment.Amount)
		if err != nil {
			return err
		}
		result = PaymentResult{
			Payment:          payment,
			AdvancePaid:      paid,
			RemainingBalance: order.TotalPrice - paid,
		}
		return s.audit.Log(ctx, tx, req.ActorID, "record_payment", "order", order.ID, auditData(map[string]any{
			"payment_id": payment.ID,
			"amount":     money.FormatMinor(payment.Amount),
		}))
	})
	if err != nil {
		return PaymentResult{}, err
	}
	s.announce(ctx, events.PaymentRecorded, req.ActorID, map[string]any{
		"order_id":          payment.OrderID,
		"payment_id":        payment.ID,
		"amount":            money.FormatMinor(payment.Amount),
		"advance_paid":      money.FormatMinor(result.AdvancePaid),
		"remaining_balance": money.FormatMinor(result.RemainingBalance),
	})
	return result, nil
}

type TransactionRequest struct {
	Currency  string
	Category  string
	Amount    any
	Direction string
	Method    string
	Date      string
	Details   string
	ActorID   string
}

var transactionDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTransactionDate(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range transactionDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return fallback
}

// RecordTransaction appends a cash book entry. Unknown currency, method and
// direction fall back to KES, cash and in; the amount must be a positive number.
func (s *LedgerService) RecordTransaction(ctx context.Context, req TransactionRequest) (models.Transaction, error) {
	amount, err := money.ParseAmount(req.Amount)
	if err != nil || amount <= 0 {
		return models.Transaction{}, ErrInvalidAmount
	}
	now := s.now()
	txn := models.Transaction{
		ID:              uuid.NewString(),
		Currency:        pick(strings.ToUpper(strings.TrimSpace(req.Currency)), models.Currencies, models.CurrencyKES),
		Category:        optional(req.Category),
		Amount:          amount,
		Direction:       pick(strings.ToLower(strings.TrimSpace(req.Direction)), models.Directions, models.DirectionIn),
		Method:          pick(strings.ToLower(strings.TrimSpace(req.Method)), models.Methods, models.MethodCash),
		TransactionDate: parseTransactionDate(req.Date, now),
		Details:         optional(req.Details),
		CreatedBy:       optional(req.ActorID),
		CreatedAt:       now,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.transactions.Create(ctx, tx, txn); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, req.ActorID, "record_transaction", "transaction", txn.ID, auditData(map[string]string{
			"currency": txn.Currency,
			"type":     txn.Direction,
			"method":   txn.Method,
			"amount":   money.FormatMinor(txn.Amount),
		}))
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.announce(ctx, events.TransactionRecorded, req.ActorID, map[string]any{
		"transaction_id": txn.ID,
		"currency":       txn.Currency,
		"type":           txn.Direction,
		"method":         txn.Method,
		"amount":         money.FormatMinor(txn.Amount),
	})
	s.pushBalance(ctx, txn.Currency)
	return txn, nil
}

type CurrencyBalance struct {
	Currency  string
	Cash      int64
	Digital   int64
	Total     int64
	FirstDate *time.Time
}

// ComputeBalances folds signed transaction sums into per-currency balances.
// KES and USD are always present.
func (s *LedgerService) ComputeBalances(ctx context.Context) (map[string]CurrencyBalance, error) {
	rows, err := s.transactions.Balances(ctx)
	if err != nil {
		return nil, err
	}
	return foldBalances(rows), nil
}

func foldBalances(rows []store.MethodBalance) map[string]CurrencyBalance {
	balances := make(map[string]CurrencyBalance, len(models.Currencies))
	for _, currency := range models.Currencies {
		balances[currency] = CurrencyBalance{Currency: currency}
	}
	for _, row := range rows {
		balance, ok := balances[row.Currency]
		if !ok {
			balance = CurrencyBalance{Currency: row.Currency}
		}
		switch row.Method {
		case models.MethodCash:
			balance.Cash += row.Balance
		case models.MethodDigital:
			balance.Digital += row.Balance
		}
		balance.Total += row.Balance
		if row.FirstDate != nil && (balance.FirstDate == nil || row.FirstDate.Before(*balance.FirstDate)) {
			first := *row.FirstDate
			balance.FirstDate = &first
		}
		balances[row.Currency] = balance
	}
	return balances
}

type SwapRequest struct {
	FromAccount string
	ToAccount   string
	FromCash    any
	FromDigital any
	ToCash      any
	ToDigital   any
	Rate        any
	Details     string
	ActorID     string
}

// RecordSwap stores a currency exchange as entered. Amounts that do not
// parse are recorded as zero and an unusable rate as null; the swap is not
// checked against balances or the rate.
func (s *LedgerService) RecordSwap(ctx context.Context, req SwapRequest) (models.Swap, error) {
	swap := models.Swap{
		ID:           uuid.NewString(),
		FromAccount:  pick(strings.ToUpper(strings.TrimSpace(req.FromAccount)), models.Currencies, models.CurrencyKES),
		ToAccount:    pick(strings.ToUpper(strings.TrimSpace(req.ToAccount)), models.Currencies, models.CurrencyUSD),
		FromCash:     amountOrZero(req.FromCash),
		FromDigital:  amountOrZero(req.FromDigital),
		ToCash:       amountOrZero(req.ToCash),
		ToDigital:    amountOrZero(req.ToDigital),
		ExchangeRate: parseRate(req.Rate),
		Details:      optional(req.Details),
		CreatedBy:    optional(req.ActorID),
		CreatedAt:    s.now(),
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.swaps.Create(ctx, tx, swap); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, req.ActorID, "record_swap", "swap", swap.ID, auditData(map[string]string{
			"from": swap.FromAccount,
			"to":   swap.ToAccount,
		}))
	})
	if err != nil {
		return models.Swap{}, err
	}
	s.announce(ctx, events.SwapRecorded, req.ActorID, map[string]any{
		"swap_id": swap.ID,
		"from":    swap.FromAccount,
		"to":      swap.ToAccount,
	})
	return swap, nil
}

func (s *LedgerService) SwapSummary(ctx context.Context) ([]store.SwapTotals, error) {
	return s.swaps.Totals(ctx)
}

// Reconcile lists orders whose advance_paid no longer matches their payments.
func (s *LedgerService) Reconcile(ctx context.Context) ([]store.PaymentDrift, error) {
	return s.payments.Drift(ctx)
}

func (s *LedgerService) announce(ctx context.Context, eventType, actorID string, payload map[string]any) {
	_ = s.publisher.Publish(ctx, events.New(eventType, actorID, payload))
	if s.notifier != nil {
		s.notifier.Broadcast(websocket.Message{Type: eventType, Data: payload})
	}
}

func (s *LedgerService) pushBalance(ctx context.Context, currency string) {
	if s.notifier == nil {
		return
	}
	balances, err := s.ComputeBalances(ctx)
	if err != nil {
		return
	}
	balance := balances[currency]
	s.notifier.Broadcast(websocket.Message{Type: "balance_update", Data: websocket.BalanceUpdate{
		Currency:       currency,
		CashBalance:    money.FormatMinor(balance.Cash),
		DigitalBalance: money.FormatMinor(balance.Digital),
		TotalBalance:   money.FormatMinor(balance.Total),
	}})
}

func pick(value string, allowed []string, fallback string) string {
	if lo.Contains(allowed, value) {
		return value
	}
	return fallback
}

func amountOrZero(value any) int64 {
	amount, err := money.ParseAmount(value)
	if err != nil || amount < 0 {
		return 0
	}
	return amount
}

func parseRate(value any) decimal.NullDecimal {
	var rate decimal.Decimal
	var err error
	switch v := value.(type) {
	case string:
		rate, err = decimal.NewFromString(strings.TrimSpace(v))
	case json.Number:
		rate, err = decimal.NewFromString(v.String())
	case float64:
		rate = decimal.NewFromFloat(v)
	case int:
		rate = decimal.NewFromInt(int64(v))
	default:
		return decimal.NullDecimal{}
	}
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(rate)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
