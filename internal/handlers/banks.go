package handlers

import (
	"net/http"

	"tailorshop/internal/middleware"
	"tailorshop/internal/models"
	"tailorshop/internal/money"
	"tailorshop/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

type bankRequest struct {
	AccountNumber string `json:"account_number"`
	Name          string `json:"name"`
	Balance       any    `json:"balance"`
	UserID        string `json:"user_id"`
}

func (req bankRequest) input() (services.BankInput, error) {
	input := services.BankInput{AccountNumber: req.AccountNumber, Name: req.Name, UserID: req.UserID}
	if req.Balance != nil {
		balance, err := money.ParseAmount(req.Balance)
		if err != nil {
			return services.BankInput{}, err
		}
		input.Balance = balance
	}
	return input, nil
}

func (h *Handler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.Banks.List(r.Context())
	if err != nil {
		respondServiceError(w, err, "unable to load banks")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(banks, func(b models.Bank, _ int) map[string]any {
		return presentBank(b)
	}))
}

func (h *Handler) GetBank(w http.ResponseWriter, r *http.Request) {
	bank, err := h.Banks.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "unable to load bank")
		return
	}
	respondJSON(w, http.StatusOK, presentBank(bank))
}

func (h *Handler) CreateBank(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req bankRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	input, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid balance")
		return
	}
	bank, err := h.BankAdmin.Create(r.Context(), actorID, input)
	if err != nil {
		respondServiceError(w, err, "unable to create bank")
		return
	}
	respondJSON(w, http.StatusCreated, presentBank(bank))
}

func (h *Handler) UpdateBank(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req bankRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	input, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid balance")
		return
	}
	bank, err := h.BankAdmin.Update(r.Context(), actorID, chi.URLParam(r, "id"), input)
	if err != nil {
		respondServiceError(w, err, "unable to update bank")
		return
	}
	respondJSON(w, http.StatusOK, presentBank(bank))
}

func (h *Handler) DeleteBank(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	if err := h.BankAdmin.Delete(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err, "unable to delete bank")
		return
	}
	respondMessage(w, http.StatusOK, "Bank deleted")
}
