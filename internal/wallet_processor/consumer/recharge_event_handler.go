package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/platform/messaging/producers"
	"github.com/lead-marketplace/internal/wallet_processor/service"
)

// RechargeEventHandler handles recharge requests consumed from Kafka
type RechargeEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewRechargeEventHandler creates a new handler. A nil producer disables the
// dead letter topic, leaving bad messages to be retried.
func NewRechargeEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *RechargeEventHandler {
	return &RechargeEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger.With("component", "recharge_handler"),
	}
}

// HandleMessage settles one message. A nil return commits its offset.
func (h *RechargeEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.RechargeRequest
	if err := json.Unmarshal(value, &request); err != nil {
		h.logger.Error("Failed to unmarshal recharge request", "error", err, "message_key", string(key))
		return h.deadLetter(ctx, key, value, fmt.Errorf("failed to unmarshal recharge request: %w", err))
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received recharge request",
		"transaction_id", request.TransactionID,
		"buyer_id", request.BuyerID.String(),
		"amount", request.Amount,
		"payment_method", request.PaymentMethod,
	)

	err := h.processingService.ProcessRecharge(ctx, &request)
	if errors.Is(err, service.ErrInvalidRecharge) {
		return h.deadLetter(ctx, key, value, err)
	}
	if err != nil {
		logger.Error("Failed to process recharge", "transaction_id", request.TransactionID, "error", err)
		return fmt.Errorf("processing recharge %s failed: %w", request.TransactionID, err)
	}

	logger.Info("Successfully processed recharge", "transaction_id", request.TransactionID)
	return nil
}

func (h *RechargeEventHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	if h.producer == nil {
		return cause
	}
	if err := h.producer.PublishToDLQ(ctx, string(key), value, cause.Error()); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return cause
	}
	h.logger.Warn("Parked unprocessable message on DLQ", "message_key", string(key), "reason", cause.Error())
	return nil
}
