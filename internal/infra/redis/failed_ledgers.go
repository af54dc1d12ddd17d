package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FailedLedger is one terminally failed ledger from a run, kept so the
// indexes can be exported and re-run with --input later.
type FailedLedger struct {
	ID          string    `json:"id"`
	LedgerIndex uint64    `json:"ledger_index"`
	Stage       string    `json:"stage"` // fetch or store
	Reason      string    `json:"reason"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// FailedLedgerQueue records failed ledgers in Redis, ordered by ledger
// index so exports come out in ingestion order.
type FailedLedgerQueue struct {
	rdb *redis.Client
}

// NewFailedLedgerQueue creates a new Redis-backed failed-ledger queue.
func NewFailedLedgerQueue(client *Client) *FailedLedgerQueue {
	return &FailedLedgerQueue{rdb: client.rdb}
}

func (q *FailedLedgerQueue) queueKey() string {
	return "failed_ledgers"
}

func (q *FailedLedgerQueue) entryKey(id string) string {
	return fmt.Sprintf("failed_ledger:%s", id)
}

// Record adds a failed ledger to the queue.
func (q *FailedLedgerQueue) Record(ctx context.Context, index uint64, stage, reason string) error {
	fl := FailedLedger{
		ID:          uuid.New().String(),
		LedgerIndex: index,
		Stage:       stage,
		Reason:      reason,
		RecordedAt:  time.Now(),
	}

	data, err := json.Marshal(fl)
	if err != nil {
		return fmt.Errorf("failed to marshal failed ledger: %w", err)
	}

	if err := q.rdb.Set(ctx, q.entryKey(fl.ID), data, 7*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set failed ledger: %w", err)
	}

	if err := q.rdb.ZAdd(ctx, q.queueKey(), redis.Z{
		Score:  float64(fl.LedgerIndex),
		Member: fl.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	return nil
}

// GetAll retrieves all recorded failed ledgers in index order.
func (q *FailedLedgerQueue) GetAll(ctx context.Context) ([]*FailedLedger, error) {
	ids, err := q.rdb.ZRange(ctx, q.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	entries := make([]*FailedLedger, 0, len(ids))
	for _, id := range ids {
		data, err := q.rdb.Get(ctx, q.entryKey(id)).Bytes()
		if err == redis.Nil {
			// Entry expired but ID still in queue, drop it
			q.rdb.ZRem(ctx, q.queueKey(), id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get failed ledger: %w", err)
		}

		var fl FailedLedger
		if err := json.Unmarshal(data, &fl); err != nil {
			continue
		}
		entries = append(entries, &fl)
	}

	return entries, nil
}

// Resolve removes a failed ledger once it has been re-ingested.
func (q *FailedLedgerQueue) Resolve(ctx context.Context, id string) error {
	if err := q.rdb.ZRem(ctx, q.queueKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}
	if err := q.rdb.Del(ctx, q.entryKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete failed ledger: %w", err)
	}
	return nil
}

// Count returns the number of recorded failed ledgers.
func (q *FailedLedgerQueue) Count(ctx context.Context) (int, error) {
	count, err := q.rdb.ZCard(ctx, q.queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}
