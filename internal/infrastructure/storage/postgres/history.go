package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pricescout/backend/internal/domain"
)

const (
	insertHistorySQL = `INSERT INTO search_history (id, searched_at, kind, product_name, result, min_price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	trimHistorySQL = `DELETE FROM search_history WHERE seq IN (
		SELECT seq FROM search_history ORDER BY seq DESC OFFSET $1)`

	listHistorySQL = `SELECT id, searched_at, kind, product_name, result, min_price
		FROM search_history ORDER BY seq DESC LIMIT $1`
)

var _ domain.HistoryRepository = (*HistoryRepository)(nil)

// HistoryRepository keeps the most recent searches in PostgreSQL
type HistoryRepository struct {
	pool  *pgxpool.Pool
	limit int
}

// NewHistoryRepository returns a HistoryRepository holding at most limit records.
func NewHistoryRepository(pool *pgxpool.Pool, limit int) *HistoryRepository {
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}
	return &HistoryRepository{pool: pool, limit: limit}
}

// Append stores rec and drops records beyond the limit.
func (r *HistoryRepository) Append(ctx context.Context, rec domain.SearchRecord) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertHistorySQL,
			rec.ID, rec.Timestamp, string(rec.Type), rec.ProductName, rec.Result, rec.MinPrice)
		if err != nil {
			return fmt.Errorf("inserting search record: %w", err)
		}
		if _, err := tx.Exec(ctx, trimHistorySQL, r.limit); err != nil {
			return fmt.Errorf("trimming search history: %w", err)
		}
		return nil
	})
}

// List returns up to limit records, newest first. limit <= 0 means all.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 || limit > r.limit {
		limit = r.limit
	}

	rows, err := r.pool.Query(ctx, listHistorySQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing search history: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SearchRecord, error) {
		var (
			rec  domain.SearchRecord
			kind string
		)
		err := row.Scan(&rec.ID, &rec.Timestamp, &kind, &rec.ProductName, &rec.Result, &rec.MinPrice)
		rec.Type = domain.SearchKind(kind)
		return rec, err
	})
}
