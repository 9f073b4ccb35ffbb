package handlers

import (
	"net/http"

	"tailorshop/internal/middleware"
	"tailorshop/internal/models"
	"tailorshop/internal/money"
	"tailorshop/internal/services"
	"tailorshop/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
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
	filter := store.OrderFilter{
		Status:     query.Get("status"),
		CustomerID: query.Get("customer_id"),
		AssignedTo: query.Get("assigned_to"),
		From:       from,
		To:         to,
	}
	limit, offset := page(r)
	orders, err := h.Orders.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondServiceError(w, err, "unable to load orders")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(orders, func(o models.Order, _ int) orderResponse {
		return presentOrder(o)
	}))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "unable to load order")
		return
	}
	respondJSON(w, http.StatusOK, presentOrder(order))
}

type createOrderRequest struct {
	CustomerID        string `json:"customer_id"`
	ClothingType      string `json:"clothing_type"`
	FabricDetails     string `json:"fabric_details"`
	DesignDescription string `json:"design_description"`
	DeliveryDate      string `json:"delivery_date"`
	TotalPrice        any    `json:"total_price"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	delivery, err := parseDate(req.DeliveryDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid delivery_date")
		return
	}
	var total int64
	if req.TotalPrice != nil {
		if total, err = money.ParseAmount(req.TotalPrice); err != nil || total < 0 {
			respondError(w, http.StatusBadRequest, "invalid total_price")
			return
		}
	}
	order, err := h.Workflow.CreateOrder(r.Context(), services.OrderInput{
		CustomerID:        req.CustomerID,
		ClothingType:      req.ClothingType,
		FabricDetails:     req.FabricDetails,
		DesignDescription: req.DesignDescription,
		DeliveryDate:      delivery,
		TotalPrice:        total,
		ActorID:           actorID,
	})
	if err != nil {
		respondServiceError(w, err, "unable to create order")
		return
	}
	respondJSON(w, http.StatusCreated, presentOrder(order))
}

type updateOrderRequest struct {
	ClothingType      *string `json:"clothing_type"`
	FabricDetails     *string `json:"fabric_details"`
	DesignDescription *string `json:"design_description"`
	DeliveryDate      *string `json:"delivery_date"`
	TotalPrice        any     `json:"total_price"`
	Status            *string `json:"status"`
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req updateOrderRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	update := services.OrderUpdate{
		ClothingType:      req.ClothingType,
		FabricDetails:     req.FabricDetails,
		DesignDescription: req.DesignDescription,
		Status:            req.Status,
	}
	if req.DeliveryDate != nil {
		delivery, err := parseDate(*req.DeliveryDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid delivery_date")
			return
		}
		update.DeliveryDate = delivery
	}
	if req.TotalPrice != nil {
		total, err := money.ParseAmount(req.TotalPrice)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid total_price")
			return
		}
		update.TotalPrice = &total
	}
	order, err := h.Workflow.UpdateOrder(r.Context(), actorID, chi.URLParam(r, "id"), update)
	if err != nil {
		respondServiceError(w, err, "unable to update order")
		return
	}
	respondJSON(w, http.StatusOK, presentOrder(order))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	order, err := h.Workflow.CancelOrder(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "unable to cancel order")
		return
	}
	respondJSON(w, http.StatusOK, presentOrder(order))
}

func (h *Handler) ListOrderPayments(w http.ResponseWriter, r *http.Request) {
	h.listPayments(w, r, chi.URLParam(r, "id"))
}
