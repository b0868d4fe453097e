package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/univcore/academic-records-api/internal/models"
	"github.com/univcore/academic-records-api/pkg/jobs"
)

// auditRecorder is what mutating services need from the audit trail.
type auditRecorder interface {
	Record(action, resource string, resourceID int64, detail string)
}

// AuditServiceConfig tunes the audit queue and retention.
type AuditServiceConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	MaxEntries int
}

// AuditService keeps an asynchronous trail of successful mutations. Entries
// are enqueued without blocking the mutation that produced them and appended
// to a bounded in-memory ring by the queue workers.
type AuditService struct {
	queue      *jobs.Queue
	logger     *zap.Logger
	maxEntries int

	mu      sync.RWMutex
	entries []models.AuditEntry
}

// NewAuditService constructs the audit trail and its backing queue. Call
// Start before recording and Stop on shutdown.
func NewAuditService(cfg AuditServiceConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	s := &AuditService{logger: logger, maxEntries: cfg.MaxEntries}
	s.queue = jobs.NewQueue("audit", s.apply, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit entry for a completed mutation. Never blocks; a
// full buffer drops the entry with a warning.
func (s *AuditService) Record(action, resource string, resourceID int64, detail string) {
	entry := models.AuditEntry{
		ID:         uuid.NewString(),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
	s.queue.TryEnqueue(jobs.Job{ID: entry.ID, Type: action, Payload: entry})
}

// Recent returns up to n audit entries, newest first.
func (s *AuditService) Recent(n int) []models.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]models.AuditEntry, 0, n)
	for i := len(s.entries) - 1; i >= len(s.entries)-n; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

func (s *AuditService) apply(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditEntry)
	if !ok {
		s.logger.Warn("audit job with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[len(s.entries)-s.maxEntries:]
	}
	s.mu.Unlock()

	s.logger.Debug("audit entry recorded",
		zap.String("action", entry.Action),
		zap.String("resource", entry.Resource),
		zap.Int64("resource_id", entry.ResourceID))
	return nil
}
