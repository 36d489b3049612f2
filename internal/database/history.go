package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maltedev/car-deal-analyzer/internal/models"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HistoryEntry is one stored analysis.
type HistoryEntry struct {
	ID             uuid.UUID       `json:"id"`
	URL            string          `json:"url"`
	Make           string          `json:"make"`
	Model          string          `json:"model"`
	Year           int             `json:"year"`
	Price          int             `json:"price"`
	Mileage        int             `json:"mileage"`
	DealScore      int             `json:"dealScore"`
	Recommendation string          `json:"recommendation"`
	ListingSource  *string         `json:"listingSource,omitempty"`
	Analysis       json.RawMessage `json:"analysis"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type HistoryRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// InsertWithTx stores an analysis inside tx and returns the new row id.
func (r *HistoryRepository) InsertWithTx(ctx context.Context, tx pgx.Tx, a *models.DealAnalysis) (uuid.UUID, error) {
	doc, err := json.Marshal(a)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode analysis: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO analysis_history (
			id, url, make, model, year, price, mileage,
			deal_score, recommendation, listing_source, analysis, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	_, err = tx.Exec(ctx, query,
		id, a.Listing.URL, a.Listing.Make, a.Listing.Model, a.Listing.Year,
		a.Listing.Price, a.Listing.Mileage, a.DealScore, string(a.Recommendation),
		nullable(a.Listing.Source), doc, a.Timestamp,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert analysis: %w", err)
	}

	return id, nil
}

// Recent returns the newest analyses first.
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	limit = ClampHistoryLimit(limit)

	query := `
		SELECT
			id, url, make, model, year, price, mileage,
			deal_score, recommendation, listing_source, analysis, created_at
		FROM analysis_history
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.URL, &e.Make, &e.Model, &e.Year, &e.Price, &e.Mileage,
			&e.DealScore, &e.Recommendation, &e.ListingSource, &e.Analysis, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// ClampHistoryLimit maps non-positive limits to the default and caps the rest.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
