package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/lead"
	"github.com/lead-marketplace/internal/domain/shared"
)

// BuyerServiceImpl implements the BuyerService interface
type BuyerServiceImpl struct {
	buyers buyer.Repository
	leads  lead.Repository
	now    func() time.Time
	logger *slog.Logger
}

// NewBuyerService creates a new buyer service
func NewBuyerService(logger *slog.Logger, buyers buyer.Repository, leads lead.Repository) BuyerService {
	return &BuyerServiceImpl{
		buyers: buyers,
		leads:  leads,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// Register creates a Pending buyer with an empty profile.
func (s *BuyerServiceImpl) Register(ctx context.Context, mobile, email string) (*buyer.Buyer, error) {
	b, err := buyer.New(mobile, email)
	if err != nil {
		return nil, invalidInput(err)
	}
	if err := s.buyers.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("Buyer registered", "buyer_id", b.ID.String(), "mobile", b.Mobile)
	return b, nil
}

func (s *BuyerServiceImpl) GetProfile(ctx context.Context, mobile string) (*buyer.Buyer, error) {
	return s.buyers.GetByMobile(ctx, mobile)
}

// UpdateProfile applies the edit and submits a profile that just became
// complete for approval.
func (s *BuyerServiceImpl) UpdateProfile(ctx context.Context, mobile string, update buyer.ProfileUpdate) (*buyer.Buyer, error) {
	b, err := s.buyers.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	wasSubmitted := b.SubmittedForApproval

	if err := b.ApplyProfile(update); err != nil {
		return nil, invalidInput(err)
	}
	if err := s.buyers.UpdateProfile(ctx, b); err != nil {
		return nil, err
	}

	if b.SubmittedForApproval && !wasSubmitted {
		s.logger.Info("Buyer profile submitted for approval", "buyer_id", b.ID.String())
	}
	return b, nil
}

// GetDashboard counts the available leads only for buyers that may browse;
// others see zero rather than an error.
func (s *BuyerServiceImpl) GetDashboard(ctx context.Context, mobile string) (*Dashboard, error) {
	b, err := s.buyers.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		WalletBalance:     b.WalletBalance,
		TotalLeadsViewed:  b.TotalLeadsViewed,
		PurchasedLeads:    len(b.PurchasedLeads),
		SavedLeads:        len(b.SavedLeads),
		IsApproved:        b.IsApproved(),
		IsProfileComplete: b.IsProfileComplete,
	}
	if b.EligibleToBuy() == nil {
		available, err := availableLeads(ctx, s.leads, b)
		if err != nil {
			return nil, err
		}
		d.AvailableLeads = len(available)
	}
	return d, nil
}

// ListSavedLeads returns the saved leads as listings, hiding contact
// details of leads the buyer has not purchased.
func (s *BuyerServiceImpl) ListSavedLeads(ctx context.Context, mobile string) ([]lead.Listing, error) {
	b, err := s.buyers.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}

	leads, err := s.leads.GetByIDs(ctx, b.SavedLeads)
	if err != nil {
		return nil, err
	}
	listings := make([]lead.Listing, 0, len(leads))
	for _, l := range leads {
		listings = append(listings, l.ListingFor(b.ID, true))
	}
	return listings, nil
}

// SaveLead fails with NotFound for an unknown lead.
func (s *BuyerServiceImpl) SaveLead(ctx context.Context, mobile string, leadID uuid.UUID) error {
	b, err := s.buyers.GetByMobile(ctx, mobile)
	if err != nil {
		return err
	}
	if _, err := s.leads.GetByID(ctx, leadID); err != nil {
		return err
	}
	return s.buyers.AddSavedLead(ctx, b.ID, leadID)
}

func (s *BuyerServiceImpl) RemoveSavedLead(ctx context.Context, mobile string, leadID uuid.UUID) error {
	b, err := s.buyers.GetByMobile(ctx, mobile)
	if err != nil {
		return err
	}
	return s.buyers.RemoveSavedLead(ctx, b.ID, leadID)
}

// Approve records the reviewer and issues a verification id.
func (s *BuyerServiceImpl) Approve(ctx context.Context, buyerID uuid.UUID, reviewer, reason string) (*buyer.Buyer, error) {
	b, err := s.buyers.GetByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	b.Approve(reviewer, reason, s.now())
	if err := s.buyers.UpdateApproval(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("Buyer approved",
		"buyer_id", b.ID.String(),
		"reviewed_by", reviewer,
		"verification_id", b.VerificationID,
	)
	return b, nil
}

// Reject requires a reason.
func (s *BuyerServiceImpl) Reject(ctx context.Context, buyerID uuid.UUID, reviewer, reason string) (*buyer.Buyer, error) {
	b, err := s.buyers.GetByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	if err := b.Reject(reviewer, reason, s.now()); err != nil {
		return nil, invalidInput(err)
	}
	if err := s.buyers.UpdateApproval(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("Buyer rejected", "buyer_id", b.ID.String(), "reviewed_by", reviewer)
	return b, nil
}

// ListBuyers pages through every buyer, optionally by approval status.
func (s *BuyerServiceImpl) ListBuyers(ctx context.Context, filter buyer.Filter, page, perPage int) ([]*buyer.Buyer, int64, error) {
	switch filter.ApprovalStatus {
	case "", buyer.ApprovalPending, buyer.ApprovalApproved, buyer.ApprovalRejected:
	default:
		return nil, 0, shared.InvalidInput("unknown approval status %q", filter.ApprovalStatus)
	}
	return s.buyers.List(ctx, filter, perPage, offsetOf(page, perPage))
}

// ListForApproval is the review queue: complete profiles, newest first.
func (s *BuyerServiceImpl) ListForApproval(ctx context.Context, page, perPage int) ([]*buyer.Buyer, int64, error) {
	return s.buyers.List(ctx, buyer.Filter{CompleteOnly: true}, perPage, offsetOf(page, perPage))
}

// CreateBuyer onboards a buyer approved by reviewer with an empty wallet.
func (s *BuyerServiceImpl) CreateBuyer(ctx context.Context, details buyer.Details, reviewer string) (*buyer.Buyer, error) {
	b, err := buyer.NewOnboarded(details, reviewer, s.now())
	if err != nil {
		return nil, invalidInput(err)
	}
	if err := s.buyers.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("Buyer onboarded by administrator",
		"buyer_id", b.ID.String(),
		"mobile", b.Mobile,
		"reviewed_by", reviewer,
	)
	return b, nil
}

func (s *BuyerServiceImpl) UpdateBuyer(ctx context.Context, buyerID uuid.UUID, update buyer.AdminUpdate) (*buyer.Buyer, error) {
	b, err := s.buyers.GetByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if err := b.ApplyAdminUpdate(update); err != nil {
		return nil, invalidInput(err)
	}
	if err := s.buyers.UpdateProfile(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBuyer refuses buyers with wallet history.
func (s *BuyerServiceImpl) DeleteBuyer(ctx context.Context, buyerID uuid.UUID) error {
	if err := s.buyers.Delete(ctx, buyerID); err != nil {
		return err
	}
	s.logger.Info("Buyer deleted", "buyer_id", buyerID.String())
	return nil
}

// availableLeads applies the city match first and widens to the whole
// category when the city has nothing to offer.
func availableLeads(ctx context.Context, leads lead.Repository, b *buyer.Buyer) ([]*lead.Lead, error) {
	found, err := leads.ListAvailable(ctx, b.Category, b.City)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		return found, nil
	}
	return leads.ListAvailable(ctx, b.Category, "")
}
