package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ShayCichocki/foundry/pkg/models"
)

// AppendChatMessages stores messages atomically; either all are written or none.
func (db *DB) AppendChatMessages(ctx context.Context, msgs ...models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	return db.TransactionContext(ctx, func(tx *sql.Tx) error {
		for _, m := range msgs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO chat_messages (id, scope, scope_id, role, content, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, m.ID, string(m.Scope), m.ScopeID, string(m.Role), m.Content, formatTime(m.CreatedAt))
			if err != nil {
				return fmt.Errorf("append chat message: %w", err)
			}
		}
		return nil
	})
}

// ListChatMessages returns the most recent messages of a scope in
// chronological order. A limit of zero or less returns all of them.
func (db *DB) ListChatMessages(ctx context.Context, scope models.ChatScope, scopeID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, scope, scope_id, role, content, created_at FROM (
			SELECT id, scope, scope_id, role, content, created_at, rowid AS seq FROM chat_messages
			WHERE scope = ? AND scope_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		) ORDER BY created_at, seq
	`, string(scope), scopeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var scopeRaw, role, createdAt string
		if err := rows.Scan(&m.ID, &scopeRaw, &m.ScopeID, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Scope = models.ChatScope(scopeRaw)
		m.Role = models.ChatRole(role)
		m.CreatedAt, _ = parseTime(createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
