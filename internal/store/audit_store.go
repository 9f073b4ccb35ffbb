package store

import (
	"context"
	"time"
)

type AuditStore struct {
	db DB
}

type AuditEntry struct {
	ID          string    `db:"id"`
	ActorUserID *string   `db:"actor_user_id"`
	Action      string    `db:"action"`
	EntityType  string    `db:"entity_type"`
	EntityID    string    `db:"entity_id"`
	Data        string    `db:"data"`
	CreatedAt   time.Time `db:"created_at"`
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

// Log records an action; an empty actorID is stored as NULL (anonymous login failures).
func (s *AuditStore) Log(ctx context.Context, tx Execer, actorID, action, entityType, entityID, data string) error {
	if data == "" {
		data = "{}"
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_user_id, action, entity_type, entity_id, data)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5)
	`, nullIfEmpty(actorID), action, entityType, entityID, data)
	return err
}

func (s *AuditStore) List(ctx context.Context, limit, offset int) ([]AuditEntry, error) {
	var rows []AuditEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, actor_user_id, action, entity_type, entity_id, data::text AS data, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
