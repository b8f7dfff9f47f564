package lead

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/domain/shared"
)

// MaxPurchasesPerLead is the number of distinct buyers a lead can be sold to.
const MaxPurchasesPerLead = 15

var (
	ErrTitleRequired       = errors.New("title is required")
	ErrCategoryRequired    = errors.New("category is required")
	ErrLocationRequired    = errors.New("location is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrBudgetRequired      = errors.New("budget is required")
)

// Status is the lifecycle state of a lead.
type Status string

const (
	StatusActive  Status = "Active"
	StatusViewed  Status = "Viewed"
	StatusExpired Status = "Expired"
	StatusSoldOut Status = "Sold Out"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusViewed, StatusExpired, StatusSoldOut:
		return true
	}
	return false
}

// Lead is a sales opportunity sold to at most MaxPurchasesPerLead buyers.
// len(PurchasedBy) always equals PurchasedCount, and Status is StatusSoldOut
// exactly when the counter reached capacity.
type Lead struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Location        string      `json:"location"`
	Category        string      `json:"category"`
	Budget          string      `json:"budget"`
	Description     string      `json:"description"`
	FullDescription string      `json:"full_description,omitempty"`
	Address         string      `json:"address,omitempty"`
	ContactName     string      `json:"contact_name,omitempty"`
	ContactPhone    string      `json:"contact_phone,omitempty"`
	ContactEmail    string      `json:"contact_email,omitempty"`
	Requirements    string      `json:"requirements,omitempty"`
	UploadDate      time.Time   `json:"upload_date"`
	Status          Status      `json:"status"`
	ViewCount       int         `json:"view_count"`
	PurchasedCount  int         `json:"purchased_count"`
	PurchasedBy     []uuid.UUID `json:"purchased_by"`
	LastViewed      *time.Time  `json:"last_viewed,omitempty"`
	UploadedBy      string      `json:"uploaded_by,omitempty"`
}

// Details are the fields an administrator supplies when creating or editing a lead.
type Details struct {
	Title           string
	Location        string
	Category        string
	Budget          string
	Description     string
	FullDescription string
	Address         string
	ContactName     string
	ContactPhone    string
	ContactEmail    string
	Requirements    string
}

func (d Details) validate() error {
	var errs []error
	if strings.TrimSpace(d.Title) == "" {
		errs = append(errs, ErrTitleRequired)
	}
	if strings.TrimSpace(d.Category) == "" {
		errs = append(errs, ErrCategoryRequired)
	}
	if strings.TrimSpace(d.Location) == "" {
		errs = append(errs, ErrLocationRequired)
	}
	if strings.TrimSpace(d.Budget) == "" {
		errs = append(errs, ErrBudgetRequired)
	}
	if strings.TrimSpace(d.Description) == "" {
		errs = append(errs, ErrDescriptionRequired)
	}
	return errors.Join(errs...)
}

// New creates an Active lead with no buyers.
func New(d Details, uploadedBy string) (*Lead, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	l := &Lead{
		ID:          uuid.New(),
		UploadDate:  time.Now().UTC(),
		Status:      StatusActive,
		PurchasedBy: []uuid.UUID{},
		UploadedBy:  uploadedBy,
	}
	l.apply(d)
	return l, nil
}

// Edit replaces the descriptive fields. Counters and buyers are untouched.
func (l *Lead) Edit(d Details) error {
	if err := d.validate(); err != nil {
		return err
	}
	l.apply(d)
	return nil
}

func (l *Lead) apply(d Details) {
	l.Title = strings.TrimSpace(d.Title)
	l.Location = strings.TrimSpace(d.Location)
	l.Category = strings.TrimSpace(d.Category)
	l.Budget = strings.TrimSpace(d.Budget)
	l.Description = d.Description
	l.FullDescription = d.FullDescription
	l.Address = d.Address
	l.ContactName = d.ContactName
	l.ContactPhone = d.ContactPhone
	l.ContactEmail = d.ContactEmail
	l.Requirements = d.Requirements
}

// HasBuyer reports whether buyerID purchased the lead.
func (l *Lead) HasBuyer(buyerID uuid.UUID) bool {
	return slices.Contains(l.PurchasedBy, buyerID)
}

// IsSoldOut reports whether every purchase slot is taken.
func (l *Lead) IsSoldOut() bool {
	return l.PurchasedCount >= MaxPurchasesPerLead
}

// IsListable reports whether the lead may appear in a buyer's available list.
func (l *Lead) IsListable() bool {
	return !l.IsSoldOut() && (l.Status == StatusActive || l.Status == "")
}

// CheckPurchasable applies the capacity and membership guards in the order a
// buyer sees them: a sold out lead is reported before a repeat purchase.
func (l *Lead) CheckPurchasable(buyerID uuid.UUID) error {
	if l.IsSoldOut() {
		return shared.CapacityExceeded("lead %s is sold out", l.ID)
	}
	if l.HasBuyer(buyerID) {
		return shared.AlreadyPurchased("lead %s already purchased", l.ID)
	}
	return nil
}

// Reserve records buyerID as a purchaser. It is the rule behind
// Repository.ReserveCapacity: the Postgres store expresses it as one
// conditional UPDATE, and a store without such a statement calls Reserve
// while it holds the lead's row lock.
func (l *Lead) Reserve(buyerID uuid.UUID, now time.Time) error {
	if err := l.CheckPurchasable(buyerID); err != nil {
		return err
	}
	l.PurchasedBy = append(l.PurchasedBy, buyerID)
	l.PurchasedCount++
	l.ViewCount++
	l.LastViewed = &now
	if l.PurchasedCount == MaxPurchasesPerLead {
		l.Status = StatusSoldOut
	}
	return nil
}

// ChangeStatus is the administrator status edit. Sold Out is owned by the
// purchase counter, so it can neither be set nor left by hand.
func (l *Lead) ChangeStatus(s Status) error {
	if !s.Valid() {
		return shared.InvalidInput("unknown lead status %q", s)
	}
	if s == StatusSoldOut && !l.IsSoldOut() {
		return shared.InvalidState("lead %s has %d of %d purchases and cannot be marked sold out", l.ID, l.PurchasedCount, MaxPurchasesPerLead)
	}
	if l.IsSoldOut() && s != StatusSoldOut {
		return shared.InvalidState("lead %s is sold out", l.ID)
	}
	l.Status = s
	return nil
}

// Listing is what a buyer sees in the available list. Contact details stay
// hidden until the buyer owns the lead.
type Listing struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Location          string    `json:"location"`
	Category          string    `json:"category"`
	Budget            string    `json:"budget"`
	Description       string    `json:"description"`
	Requirements      string    `json:"requirements,omitempty"`
	UploadDate        time.Time `json:"upload_date"`
	Status            Status    `json:"status"`
	PurchasedCount    int       `json:"purchased_count"`
	RemainingSlots    int       `json:"remaining_slots"`
	IsPurchasedByUser bool      `json:"is_purchased_by_user"`
	IsSaved           bool      `json:"is_saved"`
	ContactName       string    `json:"contact_name,omitempty"`
	ContactPhone      string    `json:"contact_phone,omitempty"`
	ContactEmail      string    `json:"contact_email,omitempty"`
	Address           string    `json:"address,omitempty"`
	FullDescription   string    `json:"full_description,omitempty"`
}

// ListingFor projects the lead for one buyer.
func (l *Lead) ListingFor(buyerID uuid.UUID, saved bool) Listing {
	out := Listing{
		ID:                l.ID,
		Title:             l.Title,
		Location:          l.Location,
		Category:          l.Category,
		Budget:            l.Budget,
		Description:       l.Description,
		Requirements:      l.Requirements,
		UploadDate:        l.UploadDate,
		Status:            l.Status,
		PurchasedCount:    l.PurchasedCount,
		RemainingSlots:    max(MaxPurchasesPerLead-l.PurchasedCount, 0),
		IsPurchasedByUser: l.HasBuyer(buyerID),
		IsSaved:           saved,
	}
	if out.IsPurchasedByUser {
		out.ContactName = l.ContactName
		out.ContactPhone = l.ContactPhone
		out.ContactEmail = l.ContactEmail
		out.Address = l.Address
		out.FullDescription = l.FullDescription
	}
	return out
}
