package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maltedev/car-deal-analyzer/internal/database"
	"github.com/maltedev/car-deal-analyzer/internal/models"
)

type EventType string

const (
	// EventTypeDealAnalyzed is published for every freshly computed analysis.
	EventTypeDealAnalyzed EventType = database.EventDealAnalyzed
)

// DealAnalyzedPayload is the body of a DEAL_ANALYZED event.
type DealAnalyzedPayload struct {
	EventID              string                `json:"event_id"`
	EventType            string                `json:"event_type"`
	Timestamp            time.Time             `json:"timestamp"`
	HistoryID            string                `json:"history_id"`
	URL                  string                `json:"url"`
	Make                 string                `json:"make"`
	Model                string                `json:"model"`
	Year                 int                   `json:"year"`
	Price                int                   `json:"price"`
	Mileage              int                   `json:"mileage"`
	DealScore            int                   `json:"deal_score"`
	Recommendation       models.Recommendation `json:"recommendation"`
	AveragePrice         int                   `json:"average_price"`
	PercentageDifference float64               `json:"percentage_difference"`
	ListingSource        string                `json:"listing_source,omitempty"`
	MarketSource         string                `json:"market_source,omitempty"`
	Source               string                `json:"source"`
}

func NewDealAnalyzedPayload(a *models.DealAnalysis, historyID uuid.UUID) *DealAnalyzedPayload {
	return &DealAnalyzedPayload{
		EventID:              uuid.New().String(),
		EventType:            string(EventTypeDealAnalyzed),
		Timestamp:            a.Timestamp,
		HistoryID:            historyID.String(),
		URL:                  a.Listing.URL,
		Make:                 a.Listing.Make,
		Model:                a.Listing.Model,
		Year:                 a.Listing.Year,
		Price:                a.Listing.Price,
		Mileage:              a.Listing.Mileage,
		DealScore:            a.DealScore,
		Recommendation:       a.Recommendation,
		AveragePrice:         a.MarketComparison.AveragePrice,
		PercentageDifference: a.PriceAnalysis.PercentageDifference,
		ListingSource:        a.Listing.Source,
		MarketSource:         a.MarketComparison.Source,
		Source:               "deal-analyzer",
	}
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}

type HistoryWriter interface {
	InsertWithTx(ctx context.Context, tx pgx.Tx, a *models.DealAnalysis) (uuid.UUID, error)
}

type OutboxWriter interface {
	InsertWithTx(ctx context.Context, tx pgx.Tx, event *database.OutboxEvent) error
}

// Publisher stores each analysis and its DEAL_ANALYZED event in one
// transaction. The relay delivers the event afterwards.
type Publisher struct {
	db      TxRunner
	history HistoryWriter
	outbox  OutboxWriter
	stream  string
	logger  *slog.Logger
}

func NewPublisher(db *database.DB, stream string, logger *slog.Logger) *Publisher {
	return newPublisher(db, database.NewHistoryRepository(db), database.NewOutboxRepository(db), stream, logger)
}

func newPublisher(db TxRunner, history HistoryWriter, outbox OutboxWriter, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = database.DefaultTargetStream
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		db:      db,
		history: history,
		outbox:  outbox,
		stream:  stream,
		logger:  logger.With("component", "event_publisher"),
	}
}

// Record satisfies analysis.Recorder.
func (p *Publisher) Record(ctx context.Context, a *models.DealAnalysis) error {
	var payload *DealAnalyzedPayload

	err := p.db.WithTx(ctx, func(tx pgx.Tx) error {
		historyID, err := p.history.InsertWithTx(ctx, tx, a)
		if err != nil {
			return err
		}

		payload = NewDealAnalyzedPayload(a, historyID)
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		return p.outbox.InsertWithTx(ctx, tx, &database.OutboxEvent{
			AggregateType: database.AggregateAnalysis,
			AggregateID:   historyID.String(),
			EventType:     payload.EventType,
			Payload:       data,
			TargetStream:  p.stream,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published to outbox",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"history_id", payload.HistoryID,
		"url", payload.URL,
	)

	return nil
}
