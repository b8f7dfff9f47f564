package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/domain/shared"
)

const (
	PurchasePrefix = "LDPUR"
	RechargePrefix = "RECH"
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidType     = errors.New("invalid ledger entry type")
	ErrLeadRequired    = errors.New("lead purchase entries require a lead")
	ErrUnexpectedLead  = errors.New("recharge entries cannot reference a lead")
	ErrPaymentRequired = errors.New("payment method is required")
)

// Entry is one wallet balance mutation. Entries are written once and never
// updated.
type Entry struct {
	ID            uuid.UUID `json:"id" bson:"entry_id"`
	TransactionID string    `json:"transaction_id" bson:"transaction_id"`
	BuyerID       uuid.UUID `json:"buyer_id" bson:"buyer_id"`
	BuyerMobile   string    `json:"buyer_mobile,omitempty" bson:"buyer_mobile,omitempty"`
	// Buyer names are copied onto the entry when it is written so the audit
	// mirror can be searched by them without a join.
	BuyerBusinessName string             `json:"buyer_business_name,omitempty" bson:"buyer_business_name,omitempty"`
	BuyerOwnerName    string             `json:"buyer_owner_name,omitempty" bson:"buyer_owner_name,omitempty"`
	Amount            int64              `json:"amount" bson:"amount"`
	Type              shared.EntryType   `json:"type" bson:"type"`
	PaymentMethod     string             `json:"payment_method" bson:"payment_method"`
	Status            shared.EntryStatus `json:"status" bson:"status"`
	LeadID            *uuid.UUID         `json:"lead_id,omitempty" bson:"lead_id,omitempty"`
	FailureReason     string             `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CorrelationID     string             `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
}

// TransactionIDFunc produces a transaction id for a prefix. Uniqueness is
// probabilistic; the store's unique constraint is the backstop.
type TransactionIDFunc func(prefix string, now time.Time) string

// NewTransactionID returns prefix + unix millis + 8 random hex characters.
func NewTransactionID(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s%d%s", prefix, now.UnixMilli(), suffix)
}

// NewPurchase builds the Success entry of a lead purchase paid from the wallet.
func NewPurchase(txnID string, buyerID, leadID uuid.UUID, cost int64, now time.Time) (*Entry, error) {
	e := &Entry{
		ID:            uuid.New(),
		TransactionID: txnID,
		BuyerID:       buyerID,
		Amount:        cost,
		Type:          shared.EntryTypeLeadPurchase,
		PaymentMethod: shared.PaymentMethodWallet,
		Status:        shared.EntryStatusSuccess,
		LeadID:        &leadID,
		CreatedAt:     now,
	}
	return e, e.Validate()
}

// NewRecharge builds a recharge entry in the given status.
func NewRecharge(txnID string, buyerID uuid.UUID, amount int64, paymentMethod string, status shared.EntryStatus, now time.Time) (*Entry, error) {
	e := &Entry{
		ID:            uuid.New(),
		TransactionID: txnID,
		BuyerID:       buyerID,
		Amount:        amount,
		Type:          shared.EntryTypeRecharge,
		PaymentMethod: strings.TrimSpace(paymentMethod),
		Status:        status,
		CreatedAt:     now,
	}
	return e, e.Validate()
}

// Validate checks the amount and the fields each entry type requires.
func (e *Entry) Validate() error {
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	switch e.Type {
	case shared.EntryTypeLeadPurchase:
		if e.LeadID == nil || *e.LeadID == uuid.Nil {
			return ErrLeadRequired
		}
	case shared.EntryTypeRecharge:
		if e.LeadID != nil {
			return ErrUnexpectedLead
		}
		if e.PaymentMethod == "" {
			return ErrPaymentRequired
		}
	default:
		return ErrInvalidType
	}
	return nil
}

// SameRecharge reports whether e records a recharge of amount for buyerID
// paid through paymentMethod. Payment methods compare without regard to case
// or surrounding space.
func (e *Entry) SameRecharge(buyerID uuid.UUID, amount int64, paymentMethod string) bool {
	return e.Type == shared.EntryTypeRecharge &&
		e.BuyerID == buyerID &&
		e.Amount == amount &&
		strings.EqualFold(strings.TrimSpace(e.PaymentMethod), strings.TrimSpace(paymentMethod))
}

// SetBuyer copies the buyer's contact and business names onto the entry.
func (e *Entry) SetBuyer(mobile, businessName, ownerName string) {
	e.BuyerMobile = mobile
	e.BuyerBusinessName = businessName
	e.BuyerOwnerName = ownerName
}

// PurchaseRecord is a lead_purchase entry joined with its buyer and lead for
// the administrator purchase report. The buyer columns are read into the
// embedded entry.
type PurchaseRecord struct {
	Entry
	BuyerEmail   string `json:"buyer_email,omitempty"`
	LeadTitle    string `json:"lead_title"`
	LeadCategory string `json:"lead_category"`
	LeadLocation string `json:"lead_location"`
}
