package handlers

import (
	"net/http"

	"tailorshop/internal/middleware"
	"tailorshop/internal/models"
	"tailorshop/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

type inventoryRequest struct {
	ItemType string `json:"item_type"`
	Name     string `json:"name"`
	Quantity any    `json:"quantity"`
	Unit     string `json:"unit"`
	MinStock any    `json:"min_stock"`
	Notes    string `json:"notes"`
}

func (req inventoryRequest) input() (services.InventoryInput, error) {
	quantity, err := parseQuantity(req.Quantity)
	if err != nil {
		return services.InventoryInput{}, errInvalidQuantity
	}
	minStock, err := optionalQuantity(req.MinStock)
	if err != nil {
		return services.InventoryInput{}, errInvalidQuantity
	}
	return services.InventoryInput{
		ItemType: req.ItemType,
		Name:     req.Name,
		Quantity: quantity,
		Unit:     req.Unit,
		MinStock: minStock,
		Notes:    req.Notes,
	}, nil
}

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.Inventory.List(r.Context(), r.URL.Query().Get("item_type"))
	if err != nil {
		respondServiceError(w, err, "unable to load inventory")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(items, func(item models.InventoryItem, _ int) map[string]any {
		return presentItem(item)
	}))
}

func (h *Handler) GetInventoryItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Inventory.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "unable to load item")
		return
	}
	respondJSON(w, http.StatusOK, presentItem(item))
}

func (h *Handler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req inventoryRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	input, err := req.input()
	if err != nil {
		respondServiceError(w, err, "invalid item")
		return
	}
	item, err := h.Stock.Create(r.Context(), actorID, input)
	if err != nil {
		respondServiceError(w, err, "unable to create item")
		return
	}
	respondJSON(w, http.StatusCreated, presentItem(item))
}

func (h *Handler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req inventoryRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	input, err := req.input()
	if err != nil {
		respondServiceError(w, err, "invalid item")
		return
	}
	item, err := h.Stock.Update(r.Context(), actorID, chi.URLParam(r, "id"), input)
	if err != nil {
		respondServiceError(w, err, "unable to update item")
		return
	}
	respondJSON(w, http.StatusOK, presentItem(item))
}

type adjustRequest struct {
	Delta any `json:"delta"`
}

func (h *Handler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req adjustRequest
	if err := decode(r, &req); err != nil || req.Delta == nil {
		respondError(w, http.StatusBadRequest, "delta is required")
		return
	}
	delta, err := parseQuantity(req.Delta)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidQuantity.Error())
		return
	}
	item, err := h.Stock.Adjust(r.Context(), actorID, chi.URLParam(r, "id"), delta)
	if err != nil {
		respondServiceError(w, err, "unable to adjust item")
		return
	}
	respondJSON(w, http.StatusOK, presentItem(item))
}

func (h *Handler) DeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	if err := h.Stock.Delete(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err, "unable to delete item")
		return
	}
	respondMessage(w, http.StatusOK, "Item deleted")
}

func (h *Handler) LowStockAlerts(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	alerts, unread, err := h.Stock.LowStockAlerts(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "unable to load alerts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"unread_count": unread,
		"items": lo.Map(alerts, func(a models.LowStockAlert, _ int) map[string]any {
			body := presentItem(a.InventoryItem)
			body["is_read"] = a.IsRead
			return body
		}),
	})
}

func (h *Handler) LowStockUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	count, err := h.Stock.UnreadCount(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "unable to count alerts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

func (h *Handler) MarkLowStockRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	if err := h.Stock.MarkRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err, "unable to mark alert")
		return
	}
	respondMessage(w, http.StatusOK, "Marked as read")
}

func (h *Handler) MarkAllLowStockRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	marked, err := h.Stock.MarkAllRead(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "unable to mark alerts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"marked": marked})
}
