package buyer

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/domain/shared"
)

var (
	ErrInvalidMobile  = errors.New("mobile must be exactly 10 digits")
	ErrInvalidEmail   = errors.New("email is not valid")
	ErrReasonRequired = errors.New("rejection reason is required")

	ErrProfileIncomplete = errors.New("business name, owner name, category and city are required")
)

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ApprovalStatus is set by administrators after reviewing a profile.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Buyer is a business owner account that spends its wallet on leads.
// WalletBalance only changes through the purchase flow and recharge settlement.
type Buyer struct {
	ID                   uuid.UUID      `json:"id"`
	Mobile               string         `json:"mobile"`
	Email                string         `json:"email"`
	BusinessName         string         `json:"business_name"`
	OwnerName            string         `json:"owner_name"`
	Category             string         `json:"category"`
	City                 string         `json:"city"`
	IsProfileComplete    bool           `json:"is_profile_complete"`
	ApprovalStatus       ApprovalStatus `json:"approval_status"`
	SubmittedForApproval bool           `json:"submitted_for_approval"`
	WalletBalance        int64          `json:"wallet_balance"`
	TotalLeadsViewed     int            `json:"total_leads_viewed"`
	PurchasedLeads       []uuid.UUID    `json:"purchased_leads"`
	SavedLeads           []uuid.UUID    `json:"saved_leads"`
	ApprovalDate         *time.Time     `json:"approval_date,omitempty"`
	ApprovalReason       string         `json:"approval_reason,omitempty"`
	ReviewedBy           string         `json:"reviewed_by,omitempty"`
	VerificationID       string         `json:"verification_id,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	LastUpdated          time.Time      `json:"last_updated"`
}

// New registers a pending buyer with an empty wallet.
func New(mobile, email string) (*Buyer, error) {
	mobile = strings.TrimSpace(mobile)
	email = strings.ToLower(strings.TrimSpace(email))
	if !mobilePattern.MatchString(mobile) {
		return nil, ErrInvalidMobile
	}
	if at := strings.Index(email, "@"); at <= 0 || at == len(email)-1 {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()
	return &Buyer{
		ID:             uuid.New(),
		Mobile:         mobile,
		Email:          email,
		ApprovalStatus: ApprovalPending,
		PurchasedLeads: []uuid.UUID{},
		SavedLeads:     []uuid.UUID{},
		CreatedAt:      now,
		LastUpdated:    now,
	}, nil
}

// IsApproved is derived from ApprovalStatus and never persisted.
func (b *Buyer) IsApproved() bool {
	return b.ApprovalStatus == ApprovalApproved
}

// EligibleToBuy reports why a buyer may not browse or purchase leads.
func (b *Buyer) EligibleToBuy() error {
	if !b.IsApproved() {
		return shared.Forbidden("buyer %s is not approved", b.Mobile)
	}
	if !b.IsProfileComplete || b.Category == "" || b.City == "" {
		return shared.InvalidState("buyer %s must complete the profile with a category and city", b.Mobile)
	}
	return nil
}

func (b *Buyer) HasPurchased(leadID uuid.UUID) bool {
	return slices.Contains(b.PurchasedLeads, leadID)
}

func (b *Buyer) HasSaved(leadID uuid.UUID) bool {
	return slices.Contains(b.SavedLeads, leadID)
}

// ProfileUpdate carries the editable profile fields. Nil fields are left as is.
type ProfileUpdate struct {
	BusinessName *string
	OwnerName    *string
	Email        *string
	Category     *string
	City         *string
}

// ApplyProfile edits the profile and recomputes completeness. A complete
// profile of a pending buyer is submitted for approval.
func (b *Buyer) ApplyProfile(u ProfileUpdate) error {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	if u.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*u.Email))
		if at := strings.Index(email, "@"); at <= 0 || at == len(email)-1 {
			return ErrInvalidEmail
		}
		b.Email = email
	}
	set(&b.BusinessName, u.BusinessName)
	set(&b.OwnerName, u.OwnerName)
	set(&b.Category, u.Category)
	set(&b.City, u.City)

	b.IsProfileComplete = b.BusinessName != "" && b.OwnerName != "" && b.Category != "" && b.City != ""
	if b.IsProfileComplete && b.ApprovalStatus == ApprovalPending {
		b.SubmittedForApproval = true
	}
	b.LastUpdated = time.Now().UTC()
	return nil
}

// Approve records an administrator's approval and issues a verification id.
func (b *Buyer) Approve(reviewer, reason string, now time.Time) {
	b.ApprovalStatus = ApprovalApproved
	b.ApprovalDate = &now
	b.ApprovalReason = strings.TrimSpace(reason)
	b.ReviewedBy = reviewer
	b.VerificationID = NewVerificationID(now)
	b.LastUpdated = now
}

// Reject records the review outcome. A reason is required.
func (b *Buyer) Reject(reviewer, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	b.ApprovalStatus = ApprovalRejected
	b.ApprovalDate = &now
	b.ApprovalReason = reason
	b.ReviewedBy = reviewer
	b.VerificationID = ""
	b.LastUpdated = now
	return nil
}

// NewVerificationID follows the VER<unix millis><0-999> format used on
// approval certificates.
func NewVerificationID(now time.Time) string {
	return fmt.Sprintf("VER%d%d", now.UnixMilli(), rand.Intn(1000))
}

// Details is the full profile an administrator supplies when onboarding a
// buyer directly.
type Details struct {
	Mobile       string
	Email        string
	BusinessName string
	OwnerName    string
	Category     string
	City         string
}

// NewOnboarded creates a buyer on behalf of an administrator. The profile is
// complete and approved from the start; the wallet still begins at zero and
// is funded through recharges like any other.
func NewOnboarded(d Details, reviewer string, now time.Time) (*Buyer, error) {
	b, err := New(d.Mobile, d.Email)
	if err != nil {
		return nil, err
	}
	if err := b.ApplyProfile(ProfileUpdate{
		BusinessName: &d.BusinessName,
		OwnerName:    &d.OwnerName,
		Category:     &d.Category,
		City:         &d.City,
	}); err != nil {
		return nil, err
	}
	if !b.IsProfileComplete {
		return nil, ErrProfileIncomplete
	}
	b.CreatedAt = now
	b.Approve(reviewer, "onboarded by administrator", now)
	return b, nil
}

// AdminUpdate is an administrator's edit of a buyer. Unlike ProfileUpdate it
// may change the mobile number. Nil fields are left as is.
type AdminUpdate struct {
	ProfileUpdate
	Mobile *string
}

// ApplyAdminUpdate is ApplyProfile plus a validated mobile change.
func (b *Buyer) ApplyAdminUpdate(u AdminUpdate) error {
	if u.Mobile != nil {
		mobile := strings.TrimSpace(*u.Mobile)
		if !mobilePattern.MatchString(mobile) {
			return ErrInvalidMobile
		}
		b.Mobile = mobile
	}
	return b.ApplyProfile(u.ProfileUpdate)
}
