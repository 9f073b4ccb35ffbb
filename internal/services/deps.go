package services

import (
	"context"

	"tailorshop/internal/store"
	"tailorshop/internal/websocket"
)

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

// Notifier pushes live updates to connected staff.
type Notifier interface {
	Broadcast(message websocket.Message)
}
