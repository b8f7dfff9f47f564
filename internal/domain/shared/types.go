package shared

// EntryType distinguishes wallet credits from debits in the ledger.
type EntryType string

const (
	EntryTypeRecharge     EntryType = "recharge"
	EntryTypeLeadPurchase EntryType = "lead_purchase"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t == EntryTypeRecharge || t == EntryTypeLeadPurchase
}

// EntryStatus is the settlement state of a ledger entry.
type EntryStatus string

const (
	EntryStatusSuccess EntryStatus = "Success"
	EntryStatusFailed  EntryStatus = "Failed"
	EntryStatusPending EntryStatus = "Pending"
)

// Valid reports whether s is a known entry status.
func (s EntryStatus) Valid() bool {
	return s == EntryStatusSuccess || s == EntryStatusFailed || s == EntryStatusPending
}

// FailureReason is stored on Failed recharge entries.
type FailureReason string

const (
	FailureReasonBuyerNotFound FailureReason = "BUYER_NOT_FOUND"
)

// OutboxStatus defines message publishing states.
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// PaymentMethodWallet marks ledger entries paid from the wallet balance.
const PaymentMethodWallet = "wallet"
