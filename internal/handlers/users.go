package handlers

import (
	"net/http"

	"tailorshop/internal/auth"
	"tailorshop/internal/middleware"
	"tailorshop/internal/models"
	"tailorshop/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	roles := auth.StaffRoles
	if role := r.URL.Query().Get("role"); role != "" {
		roles = []string{role}
	}
	users, err := h.Users.ListByRoles(r.Context(), roles)
	if err != nil {
		respondServiceError(w, err, "unable to load staff")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(users, func(u models.User, _ int) userResponse {
		return presentUser(u)
	}))
}

type staffRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req staffRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	user, err := h.Auth.CreateStaff(r.Context(), actorID, services.StaffInput(req))
	if err != nil {
		respondServiceError(w, err, "unable to create staff")
		return
	}
	respondJSON(w, http.StatusCreated, presentUser(user))
}

type activeRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *Handler) SetStaffActive(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req activeRequest
	if err := decode(r, &req); err != nil || req.IsActive == nil {
		respondError(w, http.StatusBadRequest, "is_active is required")
		return
	}
	if err := h.Auth.SetStaffActive(r.Context(), actorID, chi.URLParam(r, "id"), *req.IsActive); err != nil {
		respondServiceError(w, err, "unable to update staff")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"is_active": *req.IsActive})
}
