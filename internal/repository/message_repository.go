package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/skainet/concentration-map/internal/database"
	"github.com/skainet/concentration-map/internal/models"
)

// ErrNotFound is returned when no stored log matches
var ErrNotFound = errors.New("not found")

// MessageRepository handles database operations for message logs
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// InsertBatch stores logs whose message_id is not stored yet and returns how
// many were inserted. Logs without a message_id are always stored.
func (r *MessageRepository) InsertBatch(ctx context.Context, logs []models.RawMessage) (int, error) {
	query := `
		INSERT INTO messages (message_id, log_id, urgency, rescued, payload, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id) DO NOTHING
	`

	inserted := 0
	now := time.Now().UnixMilli()
	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, m := range logs {
			payload, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("failed to encode message: %w", err)
			}

			res, err := stmt.ExecContext(ctx,
				nullString(m.String(models.FieldMessageID)),
				nullString(m.String(models.FieldLogID)),
				m.String(models.FieldUrgency),
				m.Bool(models.FieldRescued),
				string(payload),
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert message: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// List returns every stored log in arrival order
func (r *MessageRepository) List(ctx context.Context) ([]models.StoredMessage, error) {
	query := `
		SELECT seq, message_id, log_id, urgency, rescued, payload, received_at
		FROM messages
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.StoredMessage{}
	for rows.Next() {
		var (
			msg        models.StoredMessage
			messageID  sql.NullString
			logID      sql.NullString
			payload    string
			receivedAt int64
		)
		if err := rows.Scan(&msg.Seq, &messageID, &logID, &msg.Urgency, &msg.Rescued, &payload, &receivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &msg.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode message %d: %w", msg.Seq, err)
		}
		if msg.Payload == nil {
			msg.Payload = models.RawMessage{}
		}
		// the rescued column is authoritative over the uplink payload
		if msg.Rescued {
			msg.Payload[models.FieldRescued] = true
		}
		msg.MessageID = messageID.String
		msg.LogID = logID.String
		msg.ReceivedAt = time.UnixMilli(receivedAt)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// Snapshot returns the payloads of every stored log in arrival order
func (r *MessageRepository) Snapshot(ctx context.Context) ([]models.RawMessage, error) {
	messages, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	logs := make([]models.RawMessage, len(messages))
	for i, m := range messages {
		logs[i] = m.Payload
	}
	return logs, nil
}

// Counts returns the number of stored logs and how many are rescued
func (r *MessageRepository) Counts(ctx context.Context) (total, rescued int64, err error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN rescued THEN 1 ELSE 0 END), 0)
		FROM messages
	`
	if err := r.db.QueryRowContext(ctx, query).Scan(&total, &rescued); err != nil {
		return 0, 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return total, rescued, nil
}

// HasUrgency reports whether any stored log carries the given urgency label
func (r *MessageRepository) HasUrgency(ctx context.Context, urgency models.Urgency) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE urgency = $1", string(urgency),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query urgency: %w", err)
	}
	return n > 0, nil
}

// Clear deletes every stored log and returns how many were removed
func (r *MessageRepository) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM messages")
	if err != nil {
		return 0, fmt.Errorf("failed to clear messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

// MarkRescued flags the first log with logID as rescued
func (r *MessageRepository) MarkRescued(ctx context.Context, logID string) error {
	query := `
		UPDATE messages SET rescued = TRUE
		WHERE seq = (SELECT MIN(seq) FROM messages WHERE log_id = $1)
	`
	res, err := r.db.ExecContext(ctx, query, logID)
	if err != nil {
		return fmt.Errorf("failed to mark rescued: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("log %s: %w", logID, ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
