package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/skainet/concentration-map/internal/logger"
	"github.com/skainet/concentration-map/internal/metrics"
	"github.com/skainet/concentration-map/internal/models"
	"github.com/skainet/concentration-map/internal/repository"
)

// ServerName is reported by the health endpoint
const ServerName = "skAiNet Cloud Backend"

var (
	// ErrEmptyBatch is returned when an uplink batch carries no logs
	ErrEmptyBatch = errors.New("no logs provided")
	// ErrMissingLogID is returned when a rescue request names no log
	ErrMissingLogID = errors.New("missing log_id")
)

// MessageService handles business logic for the message store
type MessageService struct {
	repo        *repository.MessageRepository
	networkName string
	onChange    func()
}

// NewMessageService creates a new message service
func NewMessageService(repo *repository.MessageRepository, networkName string) *MessageService {
	return &MessageService{
		repo:        repo,
		networkName: networkName,
	}
}

// OnChange registers fn to run after the stored logs change
func (s *MessageService) OnChange(fn func()) {
	s.onChange = fn
}

func (s *MessageService) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Ingest stores an uplink batch and reports the store size
func (s *MessageService) Ingest(ctx context.Context, logs []models.RawMessage) (*models.MessageBatchResponse, error) {
	if len(logs) == 0 {
		return nil, ErrEmptyBatch
	}

	inserted, err := s.repo.InsertBatch(ctx, logs)
	if err != nil {
		return nil, fmt.Errorf("failed to store logs: %w", err)
	}
	total, _, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count logs: %w", err)
	}

	metrics.MessagesStoredTotal.Add(float64(inserted))
	logger.L().Info("logs_received", "received", len(logs), "inserted", inserted, "stored", total)
	if inserted > 0 {
		s.changed()
	}

	return &models.MessageBatchResponse{Status: "success", Stored: total}, nil
}

// List returns every stored log with the network summary
func (s *MessageService) List(ctx context.Context) (*models.MessageListResponse, error) {
	logs, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	high, err := s.repo.HasUrgency(ctx, models.UrgencyHigh)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize urgency: %w", err)
	}

	level := models.UrgencyLow
	if high {
		level = models.UrgencyHigh
	}
	return &models.MessageListResponse{
		NetworkName:   s.networkName,
		UrgencyLevel:  string(level),
		TotalMessages: int64(len(logs)),
		Logs:          logs,
	}, nil
}

// Snapshot returns the raw stored logs
func (s *MessageService) Snapshot(ctx context.Context) ([]models.RawMessage, error) {
	return s.repo.Snapshot(ctx)
}

// Clear deletes every stored log
func (s *MessageService) Clear(ctx context.Context) (int64, error) {
	n, err := s.repo.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear logs: %w", err)
	}
	logger.L().Info("logs_cleared", "removed", n)
	s.changed()
	return n, nil
}

// MarkRescued flags the log identified by logID as rescued.
// logID may be a JSON string or number; the normalized id is returned.
func (s *MessageService) MarkRescued(ctx context.Context, logID any) (string, error) {
	id, ok := models.FormatScalar(logID)
	if !ok || id == "" {
		return "", ErrMissingLogID
	}

	if err := s.repo.MarkRescued(ctx, id); err != nil {
		return id, err
	}
	logger.L().Info("log_rescued", "log_id", id)
	s.changed()
	return id, nil
}

// Health reports store counters
func (s *MessageService) Health(ctx context.Context) (*models.HealthResponse, error) {
	total, rescued, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count logs: %w", err)
	}
	return &models.HealthResponse{
		Status:        "healthy",
		TotalMessages: total,
		RescuedCount:  rescued,
		Server:        ServerName,
	}, nil
}
