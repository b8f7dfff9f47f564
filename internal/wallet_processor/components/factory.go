package components

import (
	"log/slog"

	"github.com/lead-marketplace/internal/config"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/outbox"
	"github.com/lead-marketplace/internal/platform/persistence"
	"github.com/lead-marketplace/internal/wallet_processor/service"
)

// Repositories are the stores the recharge settlement writes to
type Repositories struct {
	Buyers buyer.Repository
	Ledger ledger.Repository
	Outbox outbox.Repository
}

// CreateProcessingService wires the recharge settlement behind a worker pool.
// It falls back to the bare service when the pool cannot be created.
func CreateProcessingService(
	db persistence.TxRunner,
	repos Repositories,
	outcomes service.OutcomeRecorder,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	processorLogger := logger.With("component", "recharge_processor")

	outboxManager := NewOutboxManager(repos.Outbox, processorLogger)
	baseService := service.NewProcessingService(
		db,
		repos.Ledger,
		NewRechargeValidator(repos.Ledger, processorLogger),
		NewWalletCreditor(repos.Buyers, processorLogger),
		outboxManager,
		NewFailureRecorder(db, repos.Ledger, outboxManager, processorLogger),
		outcomes,
		processorLogger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
