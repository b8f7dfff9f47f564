package purchase

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// PooledPurchaser caps the number of purchase transactions in flight so a
// burst of requests queues in the process instead of exhausting the
// connection pool. Callers beyond the queue limit get a Retryable error.
type PooledPurchaser struct {
	base   Purchaser
	pool   *ants.Pool
	logger *slog.Logger
}

var _ Purchaser = (*PooledPurchaser)(nil)

type outcome struct {
	result *Result
	err    error
}

// NewPooledPurchaser allows size concurrent purchases and up to maxWaiting
// queued ones. A zero maxWaiting does not bound the queue.
func NewPooledPurchaser(base Purchaser, size, maxWaiting int, logger *slog.Logger) (*PooledPurchaser, error) {
	pool, err := ants.NewPool(size, ants.WithMaxBlockingTasks(maxWaiting))
	if err != nil {
		return nil, err
	}
	return &PooledPurchaser{
		base:   base,
		pool:   pool,
		logger: logger.With("component", "purchase_pool"),
	}, nil
}

// Purchase runs the purchase on a pool worker. A ctx that ends while the
// purchase is still waiting for a worker abandons it with a Retryable error
// and the queued task never starts a transaction. Once a worker has picked
// it up the outcome is always awaited, since the purchase may commit.
func (p *PooledPurchaser) Purchase(ctx context.Context, buyerID, leadID uuid.UUID) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.Retryable(err, "purchase cancelled before it was queued")
	}

	var claimed atomic.Bool
	done := make(chan outcome, 1)
	task := func() {
		if !claimed.CompareAndSwap(false, true) {
			return
		}
		res, err := p.base.Purchase(ctx, buyerID, leadID)
		done <- outcome{result: res, err: err}
	}

	submitted := make(chan error, 1)
	go func() { submitted <- p.pool.Submit(task) }()

	select {
	case err := <-submitted:
		if err != nil {
			return nil, p.rejected(buyerID, err)
		}
	case <-ctx.Done():
		if claimed.CompareAndSwap(false, true) {
			p.logger.Warn("Purchase abandoned while waiting for a worker", "buyer_id", buyerID.String(), "error", ctx.Err())
			return nil, shared.Retryable(ctx.Err(), "purchase abandoned while waiting for a worker")
		}
	}

	out := <-done
	return out.result, out.err
}

func (p *PooledPurchaser) rejected(buyerID uuid.UUID, err error) error {
	if errors.Is(err, ants.ErrPoolOverload) || errors.Is(err, ants.ErrPoolClosed) {
		p.logger.Warn("Purchase rejected by worker pool", "buyer_id", buyerID.String(), "error", err)
		return shared.Retryable(err, "too many purchases in flight")
	}
	return err
}

// Running is the number of purchases currently on a worker.
func (p *PooledPurchaser) Running() int { return p.pool.Running() }

// Capacity is the number of purchases allowed to run at once.
func (p *PooledPurchaser) Capacity() int { return p.pool.Cap() }

// Shutdown releases the workers. Later purchases fail with a Retryable error.
func (p *PooledPurchaser) Shutdown() {
	p.logger.Info("Shutting down purchase pool", "running_workers", p.pool.Running())
	p.pool.Release()
}
