package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/skainet/concentration-map/internal/database"
	"github.com/skainet/concentration-map/internal/models"
)

func newTestRepo(t *testing.T) *MessageRepository {
	t.Helper()
	conn, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "messages.db"),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewMessageRepository(conn)
}

func logEntry(messageID, logID, urgency string) models.RawMessage {
	return models.RawMessage{
		"message_id": messageID,
		"log_id":     logID,
		"urgency":    urgency,
		"gps":        map[string]any{"latitude": 31.78, "longitude": 77.0},
	}
}

func TestInsertBatchDedupesByMessageID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.InsertBatch(ctx, []models.RawMessage{
		logEntry("m1", "l1", "HIGH"),
		logEntry("m2", "l2", "LOW"),
		logEntry("m1", "l9", "LOW"), // duplicate within the batch
	})
	if err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	// replaying the same batch stores nothing
	n, err = repo.InsertBatch(ctx, []models.RawMessage{logEntry("m1", "l1", "HIGH")})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("replayed batch inserted %d", n)
	}

	msgs, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].MessageID != "m1" || msgs[0].LogID != "l1" || msgs[1].MessageID != "m2" {
		t.Fatalf("stored = %+v", msgs)
	}
	if lat, ok := msgs[0].Payload.Float(models.FieldLatitude); !ok || lat != 31.78 {
		t.Errorf("payload latitude = %v, %v", lat, ok)
	}
}

func TestInsertBatchNumericIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.InsertBatch(ctx, []models.RawMessage{
		{"message_id": 7.0, "log_id": 3.0},
		{"message_id": "7"},
	}); err != nil {
		t.Fatal(err)
	}
	total, _, err := repo.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("total = %d, want numeric and string ids to collide", total)
	}
}

func TestMarkRescued(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.InsertBatch(ctx, []models.RawMessage{
		logEntry("m1", "l1", "HIGH"),
		logEntry("m2", "l2", "LOW"),
	}); err != nil {
		t.Fatal(err)
	}

	if err := repo.MarkRescued(ctx, "l2"); err != nil {
		t.Fatalf("MarkRescued() error = %v", err)
	}
	if err := repo.MarkRescued(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MarkRescued(unknown) error = %v, want ErrNotFound", err)
	}

	total, rescued, err := repo.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || rescued != 1 {
		t.Errorf("counts = %d/%d, want 2/1", total, rescued)
	}

	logs, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if logs[0].Bool(models.FieldRescued) || !logs[1].Bool(models.FieldRescued) {
		t.Errorf("rescued flags not reflected in payloads: %v", logs)
	}
}

func TestHasUrgencyAndClear(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.InsertBatch(ctx, []models.RawMessage{logEntry("m1", "l1", "LOW")}); err != nil {
		t.Fatal(err)
	}
	high, err := repo.HasUrgency(ctx, models.UrgencyHigh)
	if err != nil || high {
		t.Fatalf("HasUrgency(HIGH) = %v, %v", high, err)
	}

	if _, err := repo.InsertBatch(ctx, []models.RawMessage{logEntry("m2", "l2", "HIGH")}); err != nil {
		t.Fatal(err)
	}
	if high, _ = repo.HasUrgency(ctx, models.UrgencyHigh); !high {
		t.Fatal("HasUrgency(HIGH) = false after HIGH insert")
	}

	n, err := repo.Clear(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Clear() = %d, %v", n, err)
	}
	logs, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 0 {
		t.Errorf("logs after clear = %d", len(logs))
	}
}
