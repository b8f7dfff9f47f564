package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/lead"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/purchase"
)

// LeadServiceImpl implements the LeadService interface
type LeadServiceImpl struct {
	buyers    buyer.Repository
	leads     lead.Repository
	purchaser purchase.Purchaser
	logger    *slog.Logger
}

// NewLeadService creates a new lead service
func NewLeadService(logger *slog.Logger, buyers buyer.Repository, leads lead.Repository, purchaser purchase.Purchaser) LeadService {
	return &LeadServiceImpl{
		buyers:    buyers,
		leads:     leads,
		purchaser: purchaser,
		logger:    logger,
	}
}

// ListAvailable lists leads in the buyer's category and city. A buyer who may
// not purchase gets the eligibility error instead.
func (s *LeadServiceImpl) ListAvailable(ctx context.Context, mobile string) ([]lead.Listing, error) {
	b, err := s.buyers.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if err := b.EligibleToBuy(); err != nil {
		return nil, err
	}

	leads, err := availableLeads(ctx, s.leads, b)
	if err != nil {
		return nil, err
	}
	listings := make([]lead.Listing, 0, len(leads))
	for _, l := range leads {
		listings = append(listings, l.ListingFor(b.ID, b.HasSaved(l.ID)))
	}
	return listings, nil
}

// Purchase resolves the buyer and hands the purchase to the purchaser.
func (s *LeadServiceImpl) Purchase(ctx context.Context, mobile string, leadID uuid.UUID) (*purchase.Result, error) {
	b, err := s.buyers.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	return s.purchaser.Purchase(ctx, b.ID, leadID)
}

// Create stores a new Active lead.
func (s *LeadServiceImpl) Create(ctx context.Context, details lead.Details, uploadedBy string) (*lead.Lead, error) {
	l, err := lead.New(details, uploadedBy)
	if err != nil {
		return nil, invalidInput(err)
	}
	if err := s.leads.Create(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("Lead created", "lead_id", l.ID.String(), "category", l.Category, "location", l.Location)
	return l, nil
}

func (s *LeadServiceImpl) Get(ctx context.Context, id uuid.UUID) (*lead.Lead, error) {
	return s.leads.GetByID(ctx, id)
}

// Update replaces the lead's details. Purchase state is left untouched.
func (s *LeadServiceImpl) Update(ctx context.Context, id uuid.UUID, details lead.Details) (*lead.Lead, error) {
	l, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.Edit(details); err != nil {
		return nil, invalidInput(err)
	}
	if err := s.leads.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateStatus checks the transition against the current counter before the
// store re-checks it in its conditional update.
func (s *LeadServiceImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status lead.Status) (*lead.Lead, error) {
	l, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.ChangeStatus(status); err != nil {
		return nil, err
	}
	if err := s.leads.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	s.logger.Info("Lead status changed", "lead_id", id.String(), "status", status)
	return l, nil
}

func (s *LeadServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.leads.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Lead deleted", "lead_id", id.String())
	return nil
}

// List is the administrator lead search.
func (s *LeadServiceImpl) List(ctx context.Context, filter lead.Filter, page, perPage int) ([]*lead.Lead, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, shared.InvalidInput("unknown lead status %q", filter.Status)
	}
	return s.leads.List(ctx, filter, perPage, offsetOf(page, perPage))
}
