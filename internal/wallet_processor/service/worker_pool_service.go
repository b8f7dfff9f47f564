package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProcessingService bounds the number of recharges settled at once.
// Each call still waits for its own outcome so the consumer commits offsets
// only for settled messages.
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
}

var _ ProcessingService = (*WorkerPoolProcessingService)(nil)

// WorkerPoolConfig sizes the pool.
type WorkerPoolConfig struct {
	Size int
}

// NewWorkerPoolProcessingService runs baseService on an ants pool of
// config.Size workers.
func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ProcessRecharge runs the base service on a pooled worker
func (s *WorkerPoolProcessingService) ProcessRecharge(ctx context.Context, request *shared.RechargeRequest) error {
	requestCopy := *request
	resultChan := make(chan error, 1)

	err := s.pool.Submit(func() {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("Recharge worker panicked", "transaction_id", requestCopy.TransactionID, "panic", p)
				resultChan <- fmt.Errorf("recharge %s panicked: %v", requestCopy.TransactionID, p)
			}
		}()
		resultChan <- s.baseService.ProcessRecharge(ctx, &requestCopy)
	})
	if err != nil {
		s.logger.Error("Failed to submit recharge to worker pool",
			"transaction_id", request.TransactionID,
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown waits up to timeout for running settlements before releasing the pool
func (s *WorkerPoolProcessingService) Shutdown(timeout time.Duration) {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		s.logger.Warn("Worker pool did not drain in time", "error", err)
	}
}

// Running is the number of recharges being settled.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
