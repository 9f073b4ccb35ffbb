package handlers

import (
	"net/http"
	"strings"
	"time"

	"tailorshop/internal/models"
	"tailorshop/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

type customerRequest struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	SpecialNotes string `json:"special_notes"`
}

func (req customerRequest) toModel(id string) (models.Customer, error) {
	customer := models.Customer{
		ID:           id,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      lo.EmptyableToPtr(strings.TrimSpace(req.Address)),
		SpecialNotes: lo.EmptyableToPtr(strings.TrimSpace(req.SpecialNotes)),
	}
	if err := validator.Required(customer.FullName, customer.Phone); err != nil {
		return models.Customer{}, err
	}
	if email := validator.NormalizeEmail(req.Email); email != "" {
		if err := validator.ValidateEmail(email); err != nil {
			return models.Customer{}, err
		}
		customer.Email = &email
	}
	return customer, nil
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	customers, err := h.Customers.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")), limit, offset)
	if err != nil {
		respondServiceError(w, err, "unable to load customers")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(customers, func(c models.Customer, _ int) map[string]any {
		return presentCustomer(c)
	}))
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.Customers.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "unable to load customer")
		return
	}
	respondJSON(w, http.StatusOK, presentCustomer(customer))
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	customer, err := req.toModel(uuid.NewString())
	if err != nil {
		respondServiceError(w, err, "invalid customer")
		return
	}
	err = h.TxRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.Customers.Create(r.Context(), tx, customer)
	})
	if err != nil {
		respondServiceError(w, err, "unable to create customer")
		return
	}
	now := time.Now()
	customer.CreatedAt, customer.UpdatedAt = now, now
	respondJSON(w, http.StatusCreated, presentCustomer(customer))
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	customer, err := req.toModel(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "invalid customer")
		return
	}
	var rows int64
	err = h.TxRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		var err error
		rows, err = h.Customers.Update(r.Context(), tx, customer)
		return err
	})
	if err != nil {
		respondServiceError(w, err, "unable to update customer")
		return
	}
	if rows == 0 {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}
	updated, err := h.Customers.GetByID(r.Context(), customer.ID)
	if err != nil {
		respondServiceError(w, err, "unable to load customer")
		return
	}
	respondJSON(w, http.StatusOK, presentCustomer(updated))
}
