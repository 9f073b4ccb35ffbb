package handlers

import (
	"net/http"

	"tailorshop/internal/middleware"
	"tailorshop/internal/models"
	"tailorshop/internal/money"
	"tailorshop/internal/services"
	"tailorshop/internal/store"

	"github.com/samber/lo"
)

type paymentRequest struct {
	OrderID     string `json:"order_id"`
	Amount      any    `json:"amount"`
	PaymentType string `json:"payment_type"`
	Notes       string `json:"notes"`
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req paymentRequest
	if err := decode(r, &req); err != nil || req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "order_id and amount are required")
		return
	}
	amount, err := money.ParseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, services.ErrInvalidAmount.Error())
		return
	}
	result, err := h.Ledger.RecordPayment(r.Context(), services.PaymentRequest{
		OrderID:     req.OrderID,
		Amount:      amount,
		PaymentType: req.PaymentType,
		Notes:       req.Notes,
		ActorID:     actorID,
	})
	if err != nil {
		respondServiceError(w, err, "unable to record payment")
		return
	}
	body := presentPayment(result.Payment)
	body["advance_paid"] = valueToMoney(result.AdvancePaid)
	body["remaining_balance"] = valueToMoney(result.RemainingBalance)
	respondJSON(w, http.StatusCreated, body)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "order_id is required")
		return
	}
	h.listPayments(w, r, orderID)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request, orderID string) {
	if _, err := h.Orders.GetByID(r.Context(), orderID); err != nil {
		respondServiceError(w, err, "unable to load order")
		return
	}
	payments, err := h.Payments.ListByOrder(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, err, "unable to load payments")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(payments, func(p models.Payment, _ int) map[string]any {
		return presentPayment(p)
	}))
}

type transactionRequest struct {
	Currency        string `json:"currency"`
	Category        string `json:"category"`
	Amount          any    `json:"amount"`
	TransactionType string `json:"transaction_type"`
	Method          string `json:"method"`
	TransactionDate string `json:"transaction_date"`
	Details         string `json:"details"`
}

func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req transactionRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	tx, err := h.Ledger.RecordTransaction(r.Context(), services.TransactionRequest{
		Currency:  req.Currency,
		Category:  req.Category,
		Amount:    req.Amount,
		Direction: req.TransactionType,
		Method:    req.Method,
		Date:      req.TransactionDate,
		Details:   req.Details,
		ActorID:   actorID,
	})
	if err != nil {
		respondServiceError(w, err, "unable to record transaction")
		return
	}
	respondJSON(w, http.StatusCreated, presentTransaction(tx))
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := parseDate(query.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseDate(query.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid to date")
		return
	}
	filter := store.TransactionFilter{
		Currency:  query.Get("currency"),
		Method:    query.Get("method"),
		Direction: query.Get("transaction_type"),
		From:      from,
		To:        to,
	}
	limit, offset := page(r)
	rows, err := h.Transactions.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondServiceError(w, err, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(rows, func(t models.Transaction, _ int) map[string]any {
		return presentTransaction(t)
	}))
}

func (h *Handler) TransactionSummary(w http.ResponseWriter, r *http.Request) {
	balances, err := h.Ledger.ComputeBalances(r.Context())
	if err != nil {
		respondServiceError(w, err, "unable to compute balances")
		return
	}
	respondJSON(w, http.StatusOK, lo.MapValues(balances, func(b services.CurrencyBalance, _ string) map[string]any {
		return presentBalance(b)
	}))
}

type swapRequest struct {
	FromAccount       string `json:"from_account"`
	ToAccount         string `json:"to_account"`
	FromCashAmount    any    `json:"from_cash_amount"`
	FromDigitalAmount any    `json:"from_digital_amount"`
	ToCashAmount      any    `json:"to_cash_amount"`
	ToDigitalAmount   any    `json:"to_digital_amount"`
	ExchangeRate      any    `json:"exchange_rate"`
	Details           string `json:"details"`
}

func (h *Handler) RecordSwap(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req swapRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	swap, err := h.Ledger.RecordSwap(r.Context(), services.SwapRequest{
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		FromCash:    req.FromCashAmount,
		FromDigital: req.FromDigitalAmount,
		ToCash:      req.ToCashAmount,
		ToDigital:   req.ToDigitalAmount,
		Rate:        req.ExchangeRate,
		Details:     req.Details,
		ActorID:     actorID,
	})
	if err != nil {
		respondServiceError(w, err, "unable to record swap")
		return
	}
	respondJSON(w, http.StatusCreated, presentSwap(swap))
}

func (h *Handler) ListSwaps(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	swaps, err := h.Swaps.List(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, err, "unable to load swaps")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(swaps, func(s models.Swap, _ int) map[string]any {
		return presentSwap(s)
	}))
}

func (h *Handler) SwapSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Ledger.SwapSummary(r.Context())
	if err != nil {
		respondServiceError(w, err, "unable to summarize swaps")
		return
	}
	body := make(map[string]any, len(totals))
	for _, t := range totals {
		body[t.Account] = map[string]string{
			"out_cash":    valueToMoney(t.OutCash),
			"out_digital": valueToMoney(t.OutDigital),
			"in_cash":     valueToMoney(t.InCash),
			"in_digital":  valueToMoney(t.InDigital),
		}
	}
	respondJSON(w, http.StatusOK, body)
}

// Reconcile lists orders whose advance_paid disagrees with their payments.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	drifts, err := h.Ledger.Reconcile(r.Context())
	if err != nil {
		respondServiceError(w, err, "unable to reconcile payments")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(drifts, func(d store.PaymentDrift, _ int) map[string]any {
		return map[string]any{
			"order_id":     d.OrderID,
			"advance_paid": valueToMoney(d.AdvancePaid),
			"payment_sum":  valueToMoney(d.PaymentSum),
			"difference":   valueToMoney(d.Difference),
		}
	}))
}
