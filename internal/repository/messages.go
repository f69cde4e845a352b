package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/models"

	"github.com/google/uuid"
)

// MaxHistory caps a history read.
const MaxHistory = 50

type Messages struct {
	db *sql.DB
}

func NewMessages(db *sql.DB) *Messages {
	return &Messages{db: db}
}

func (r *Messages) Insert(ctx context.Context, room, senderID, recipientID, body string) (*models.Message, error) {
	m := &models.Message{
		ID:          uuid.NewString(),
		Room:        room,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, room, sender_id, recipient_id, body, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.Room, m.SenderID, m.RecipientID, m.Body, m.CreatedAt)
	if err != nil {
		return nil, writeErr("insert_message", err)
	}
	return m, nil
}

// History returns the latest limit messages of a room, oldest first.
func (r *Messages) History(ctx context.Context, room string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room, sender_id, recipient_id, body, created_at FROM (
			SELECT id, room, sender_id, recipient_id, body, created_at
			FROM messages WHERE room = $1
			ORDER BY created_at DESC LIMIT $2
		) latest ORDER BY created_at ASC`, room, limit)
	if err != nil {
		return nil, apperrors.StoreError("message_history", err)
	}
	defer rows.Close()

	out := make([]models.Message, 0, limit)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Room, &m.SenderID, &m.RecipientID, &m.Body, &m.CreatedAt); err != nil {
			return nil, apperrors.StoreError("message_history", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("message_history", err)
	}
	return out, nil
}

// Conversations lists each peer the user has exchanged messages with, most recent
// first.
func (r *Messages) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (peer) peer, COALESCE(b.company_name, s.company_name, ''), body, created_at
		FROM (
			SELECT CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS peer, body, created_at
			FROM messages
			WHERE sender_id = $1 OR recipient_id = $1
		) m
		LEFT JOIN buyers b ON b.user_id = m.peer
		LEFT JOIN sellers s ON s.user_id = m.peer
		ORDER BY peer, created_at DESC`, userID)
	if err != nil {
		return nil, apperrors.StoreError("list_conversations", err)
	}
	defer rows.Close()

	out := make([]models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.PeerID, &c.PeerCompany, &c.LastMessage, &c.LastMessageAt); err != nil {
			return nil, apperrors.StoreError("list_conversations", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("list_conversations", err)
	}
	sortConversations(out)
	return out, nil
}

func sortConversations(c []models.Conversation) {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].LastMessageAt.After(c[j].LastMessageAt)
	})
}
