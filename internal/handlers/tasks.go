package handlers

import (
	"net/http"

	"tailorshop/internal/middleware"
	"tailorshop/internal/models"
	"tailorshop/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	tasks, err := h.Workflow.ListTasks(r.Context(), identity, r.URL.Query().Get("status"))
	if err != nil {
		respondServiceError(w, err, "unable to load tasks")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(tasks, func(t models.Task, _ int) map[string]any {
		return presentTask(t)
	}))
}

type createTaskRequest struct {
	OrderID    string `json:"order_id"`
	AssignedTo string `json:"assigned_to"`
	Notes      string `json:"progress_notes"`
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req createTaskRequest
	if err := decode(r, &req); err != nil || req.OrderID == "" || req.AssignedTo == "" {
		respondError(w, http.StatusBadRequest, "order_id and assigned_to are required")
		return
	}
	task, err := h.Workflow.CreateTask(r.Context(), services.TaskInput{
		OrderID:    req.OrderID,
		AssignedTo: req.AssignedTo,
		Notes:      req.Notes,
		ActorID:    actorID,
	})
	if err != nil {
		respondServiceError(w, err, "unable to create task")
		return
	}
	respondJSON(w, http.StatusCreated, presentTask(task))
}

type taskStatusRequest struct {
	Status        string  `json:"status"`
	ProgressNotes *string `json:"progress_notes"`
}

func (h *Handler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	var req taskStatusRequest
	if err := decode(r, &req); err != nil || req.Status == "" {
		respondError(w, http.StatusBadRequest, "status is required")
		return
	}
	task, err := h.Workflow.UpdateTaskStatus(r.Context(), identity, chi.URLParam(r, "id"), req.Status, req.ProgressNotes)
	if err != nil {
		respondServiceError(w, err, "unable to update task")
		return
	}
	respondJSON(w, http.StatusOK, presentTask(task))
}
