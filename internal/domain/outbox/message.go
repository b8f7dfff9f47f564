package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/shared"
)

// Message carries a committed ledger entry to the audit mirror. It is
// inserted in the same transaction as the entry itself.
type Message struct {
	ID            int64               `json:"id"`
	TransactionID string              `json:"transaction_id"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage serialises entry as a PENDING message for the audit mirror.
func NewMessage(entry *ledger.Entry) (*Message, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return &Message{
		TransactionID: entry.TransactionID,
		BuyerID:       entry.BuyerID,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Entry decodes the ledger entry held in the payload.
func (m *Message) Entry() (*ledger.Entry, error) {
	var entry ledger.Entry
	if err := json.Unmarshal(m.Payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Exhausted reports whether one more failed attempt reaches maxAttempts.
func (m *Message) Exhausted(maxAttempts int) bool {
	return m.Attempts+1 >= maxAttempts
}
