package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"tailorshop/internal/auth"
	"tailorshop/internal/store"
	"tailorshop/internal/websocket"

	"github.com/samber/lo"
)

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	rows, err := h.Audit.List(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, err, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(rows, func(e store.AuditEntry, _ int) map[string]any {
		return map[string]any{
			"id":            e.ID,
			"actor_user_id": e.ActorUserID,
			"action":        e.Action,
			"entity_type":   e.EntityType,
			"entity_id":     e.EntityID,
			"data":          json.RawMessage(lo.Ternary(json.Valid([]byte(e.Data)), e.Data, "null")),
			"created_at":    e.CreatedAt,
		}
	}))
}

// ServeLive upgrades to a websocket that receives ledger, task and
// low-stock pushes. The token comes from ?token= or the Authorization header.
func (h *Handler) ServeLive(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseAccessToken(h.Config.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.Hub, claims.UserID(), h.Config.AllowedOrigins)
}
