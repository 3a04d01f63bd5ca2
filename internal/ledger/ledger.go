package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"toll-engine/internal/model"
	"toll-engine/internal/repository"
)

// SubjectTripsClosed carries every appended trip record as JSON.
const SubjectTripsClosed = "trips.closed"

const (
	appendAttempts = 3
	appendBackoff  = 200 * time.Millisecond
)

// TripStore is the persistence surface the ledger appends to.
// *repository.TripRepository satisfies it.
type TripStore interface {
	Append(ctx context.Context, trip *model.Trip) error
	GetByTripID(ctx context.Context, id uuid.UUID) (*model.Trip, error)
	List(ctx context.Context, filter repository.TripFilter) ([]model.Trip, error)
}

// FeedConn is the broker surface the ledger publishes to. *nats.Conn
// satisfies it.
type FeedConn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Ledger is the durability point for closed trips: an append-only
// Postgres table plus a NATS subject fanning records out to live
// subscribers. A subscriber only sees records appended after it
// subscribes, in ledger sequence order.
type Ledger struct {
	trips TripStore
	nc    FeedConn
	log   zerolog.Logger

	// mu serializes insert and publish so the feed subject observes
	// trips in sequence order even when shards close concurrently.
	mu sync.Mutex
}

func New(trips TripStore, nc FeedConn, log zerolog.Logger) *Ledger {
	return &Ledger{trips: trips, nc: nc, log: log}
}

// Append durably stores a closed trip and returns its ledger sequence
// id. Only terminal trips may be appended. The trip uuid is unique, so
// retrying the same snapshot after an ambiguous failure can never
// double-bill: a duplicate-key result means the earlier attempt landed,
// and the stored sequence is recovered.
func (l *Ledger) Append(ctx context.Context, trip *model.Trip) (uint64, error) {
	if !trip.Status.Terminal() {
		return 0, fmt.Errorf("refusing to append trip %s in non-terminal status %s", trip.ID, trip.Status)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < appendAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(time.Duration(attempt) * appendBackoff):
			}
		}

		record := *trip
		err := l.trips.Append(ctx, &record)
		if err == nil {
			l.publish(&record)
			return record.Seq, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			stored, getErr := l.trips.GetByTripID(ctx, trip.ID)
			if getErr != nil {
				return 0, fmt.Errorf("append landed but sequence lookup failed: %w", getErr)
			}
			return stored.Seq, nil
		}
		lastErr = err
	}
	return 0, fmt.Errorf("ledger append failed after %d attempts: %w", appendAttempts, lastErr)
}

func (l *Ledger) publish(trip *model.Trip) {
	if l.nc == nil {
		return
	}
	payload, err := json.Marshal(trip)
	if err != nil {
		l.log.Error().Err(err).Uint64("seq", trip.Seq).Msg("failed to encode trip for feed")
		return
	}
	if err := l.nc.Publish(SubjectTripsClosed, payload); err != nil {
		l.log.Warn().Err(err).Uint64("seq", trip.Seq).Msg("trip feed publish failed")
	}
}

// Subscribe delivers every trip appended from now on, in ledger order.
func (l *Ledger) Subscribe(handler func(*model.Trip)) (*nats.Subscription, error) {
	if l.nc == nil {
		return nil, fmt.Errorf("ledger feed is not configured")
	}
	return l.nc.Subscribe(SubjectTripsClosed, func(msg *nats.Msg) {
		var trip model.Trip
		if err := json.Unmarshal(msg.Data, &trip); err != nil {
			l.log.Warn().Err(err).Msg("dropping malformed trip feed message")
			return
		}
		handler(&trip)
	})
}

// Query returns persisted trip records, newest first.
func (l *Ledger) Query(ctx context.Context, filter repository.TripFilter) ([]model.Trip, error) {
	return l.trips.List(ctx, filter)
}
