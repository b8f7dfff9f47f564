package shared

import (
	"time"

	"github.com/google/uuid"
)

// RechargeRequest is the Kafka message the api_gateway publishes and the
// wallet_processor settles.
type RechargeRequest struct {
	TransactionID string    `json:"transaction_id"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	Amount        int64     `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}
