package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rippledata/importer/internal/core/domain"
	"github.com/rippledata/importer/internal/infra/rpc"
	"github.com/rippledata/importer/internal/infra/storage"
	"github.com/rippledata/importer/internal/ingest/metrics"
)

// Source is the slice of the node client the driver needs.
type Source interface {
	FetchLedger(ctx context.Context, index uint64) (*domain.Ledger, error)
}

// FailedSink records ledgers abandoned after exhausting retries, so an
// operator can re-run them later from a list.
type FailedSink interface {
	Record(ctx context.Context, index uint64, stage, reason string) error
}

// Policy is the single retry/backoff policy, applied identically at the
// fetch and store stages. Socket-level faults get the longer delay.
type Policy struct {
	MaxAttempts int
	RetryDelay  time.Duration
	SocketDelay time.Duration
}

// DefaultPolicy mirrors the operational defaults: five attempts, 2s
// between generic retries, 20s after a suspected socket fault.
var DefaultPolicy = Policy{
	MaxAttempts: 5,
	RetryDelay:  2 * time.Second,
	SocketDelay: 20 * time.Second,
}

// Summary reports how a run disposed of every ledger index it was given.
type Summary struct {
	Stored     int
	Duplicates int
	Skipped    int
	Failed     int
}

// Driver walks a cursor sequentially, fetching each ledger from the
// source and handing it to the store. It is the sole retry/backoff
// authority: the source and the store classify errors but never retry.
// Per-ledger failure is terminal for that ledger only; the run continues.
type Driver struct {
	src      Source
	store    storage.LedgerStore
	activity *ActivityLog
	log      *slog.Logger
	policy   Policy
	failed   FailedSink // optional
}

// NewDriver creates a new ingestion driver.
func NewDriver(src Source, store storage.LedgerStore, activity *ActivityLog, log *slog.Logger, policy Policy) *Driver {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	return &Driver{
		src:      src,
		store:    store,
		activity: activity,
		log:      log,
		policy:   policy,
	}
}

// SetFailedSink wires an optional sink for terminally failed ledgers.
func (d *Driver) SetFailedSink(sink FailedSink) {
	d.failed = sink
}

// Run ingests every index the cursor yields, in order, one at a time.
// It stops early only when ctx is cancelled.
func (d *Driver) Run(ctx context.Context, cur Cursor) (Summary, error) {
	var sum Summary

	for {
		index, ok := cur.Next()
		if !ok {
			d.activity.Printf("run-done stored=%d duplicates=%d skipped=%d failed=%d",
				sum.Stored, sum.Duplicates, sum.Skipped, sum.Failed)
			return sum, nil
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		ledger, err := d.fetchWithRetry(ctx, index)
		switch {
		case err == nil:
			// fall through to store
		case errors.Is(err, rpc.ErrLedgerNotFound):
			sum.Skipped++
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return sum, err
		default:
			sum.Failed++
			d.recordFailure(ctx, index, "fetch", err)
			continue
		}

		err = d.storeWithRetry(ctx, index, ledger)
		switch {
		case err == nil:
			sum.Stored++
		case errors.Is(err, storage.ErrConstraintViolation):
			sum.Duplicates++
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return sum, err
		default:
			sum.Failed++
			d.recordFailure(ctx, index, "store", err)
		}
	}
}

// fetchWithRetry applies the retry policy to one fetch. NotFound skips
// immediately; transient and protocol failures retry with their
// respective delays until the attempt budget runs out.
func (d *Driver) fetchWithRetry(ctx context.Context, index uint64) (*domain.Ledger, error) {
	var lastErr error

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		d.activity.Printf("fetch-start ledger=%d attempt=%d", index, attempt)

		start := time.Now()
		ledger, err := d.src.FetchLedger(ctx, index)
		if err == nil {
			metrics.LedgersFetched.Inc()
			metrics.FetchLatency.Observe(time.Since(start).Seconds())
			d.activity.Printf("fetch-ok ledger=%d txs=%d", index, len(ledger.Transactions))
			return ledger, nil
		}
		lastErr = err

		var delay time.Duration
		switch rpc.Classify(err) {
		case rpc.KindNotFound:
			d.activity.Printf("fetch-skip ledger=%d not found", index)
			d.log.Info("ledger not found, skipping", "ledger", index)
			metrics.LedgersSkipped.Inc()
			return nil, err
		case rpc.KindTransient:
			delay = d.policy.SocketDelay
			metrics.FetchRetries.WithLabelValues("transient").Inc()
		case rpc.KindProtocol:
			delay = d.policy.RetryDelay
			metrics.FetchRetries.WithLabelValues("protocol").Inc()
		default:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			delay = d.policy.RetryDelay
			metrics.FetchRetries.WithLabelValues("unknown").Inc()
		}

		d.activity.Printf("fetch-error ledger=%d attempt=%d: %v", index, attempt, err)
		d.log.Warn("fetch failed", "ledger", index, "attempt", attempt, "error", err)

		if attempt < d.policy.MaxAttempts {
			if err := d.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	d.activity.Printf("fetch-failed ledger=%d attempts=%d: %v", index, d.policy.MaxAttempts, lastErr)
	return nil, lastErr
}

// storeWithRetry applies the retry policy to one store. A constraint
// violation means the ledger is already present and is never retried.
func (d *Driver) storeWithRetry(ctx context.Context, index uint64, ledger *domain.Ledger) error {
	var lastErr error

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		d.activity.Printf("store-start ledger=%d attempt=%d", index, attempt)

		err := d.store.StoreLedger(ctx, ledger)
		if err == nil {
			d.activity.Printf("store-ok ledger=%d txs=%d", index, len(ledger.Transactions))
			d.log.Info("ledger stored", "ledger", index, "txs", len(ledger.Transactions))
			return nil
		}
		lastErr = err

		if errors.Is(err, storage.ErrConstraintViolation) {
			d.activity.Printf("store-duplicate ledger=%d already stored", index)
			d.log.Info("ledger already stored", "ledger", index)
			return err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		delay := d.policy.RetryDelay
		if errors.Is(err, storage.ErrConnection) {
			delay = d.policy.SocketDelay
		}

		d.activity.Printf("store-error ledger=%d attempt=%d: %v", index, attempt, err)
		d.log.Warn("store failed", "ledger", index, "attempt", attempt, "error", err)

		if attempt < d.policy.MaxAttempts {
			if err := d.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}

	d.activity.Printf("store-failed ledger=%d attempts=%d: %v", index, d.policy.MaxAttempts, lastErr)
	return lastErr
}

func (d *Driver) recordFailure(ctx context.Context, index uint64, stage string, cause error) {
	metrics.LedgersFailed.Inc()
	d.log.Error("ledger failed terminally", "ledger", index, "stage", stage, "error", cause)
	if d.failed == nil {
		return
	}
	if err := d.failed.Record(ctx, index, stage, cause.Error()); err != nil {
		d.log.Warn("failed to record failed ledger", "ledger", index, "error", err)
	}
}

func (d *Driver) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
