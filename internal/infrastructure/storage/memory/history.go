package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/pricescout/backend/internal/domain"
)

var _ domain.HistoryRepository = (*HistoryRepository)(nil)

// HistoryRepository keeps the most recent searches, newest first
type HistoryRepository struct {
	mu      sync.RWMutex
	records []domain.SearchRecord
	limit   int
}

// NewHistoryRepository creates a history holding at most limit records
func NewHistoryRepository(limit int) *HistoryRepository {
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}
	return &HistoryRepository{limit: limit}
}

// Append puts rec first and drops the oldest records beyond the limit
func (r *HistoryRepository) Append(ctx context.Context, rec domain.SearchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = slices.Insert(r.records, 0, rec)
	if len(r.records) > r.limit {
		r.records = r.records[:r.limit]
	}
	return nil
}

// List returns up to limit records, newest first. limit <= 0 means all.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]domain.SearchRecord, limit)
	copy(out, r.records)
	return out, nil
}
