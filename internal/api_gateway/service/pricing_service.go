package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/domain/pricing"
)

// PricingServiceImpl implements the PricingService interface
type PricingServiceImpl struct {
	repo   pricing.Repository
	logger *slog.Logger
}

// NewPricingService creates a new pricing service
func NewPricingService(logger *slog.Logger, repo pricing.Repository) PricingService {
	return &PricingServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

func (s *PricingServiceImpl) Get(ctx context.Context) (*pricing.Policy, error) {
	return s.repo.Get(ctx)
}

// checkPolicy applies change to the current policy so the domain rules reject
// an edit before anything is written. The repository enforces the same rules
// again with table constraints, which covers concurrent edits.
func (s *PricingServiceImpl) checkPolicy(ctx context.Context, change func(p *pricing.Policy, now time.Time) error) error {
	p, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}
	return invalidInput(change(p, time.Now().UTC()))
}

// SetGlobalPrice checks the change against the current policy before
// storing it.
func (s *PricingServiceImpl) SetGlobalPrice(ctx context.Context, price int64) (*pricing.Policy, error) {
	if price < 0 {
		return nil, invalidInput(pricing.ErrNegativePrice)
	}
	err := s.checkPolicy(ctx, func(p *pricing.Policy, now time.Time) error {
		return p.SetGlobalPrice(price, now)
	})
	if err != nil {
		return nil, err
	}

	p, err := s.repo.SetGlobalPrice(ctx, price)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Global lead price updated", "price", price)
	return p, nil
}

// AddCategoryPrice rejects a second rule for a category, ignoring case.
func (s *PricingServiceImpl) AddCategoryPrice(ctx context.Context, category string, price int64) (*pricing.CategoryPrice, error) {
	category, err := pricing.ValidateRule(category, price)
	if err != nil {
		return nil, invalidInput(err)
	}
	err = s.checkPolicy(ctx, func(p *pricing.Policy, now time.Time) error {
		_, err := p.AddCategory(category, price, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	cp, err := s.repo.AddCategoryPrice(ctx, category, price)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Category price added", "category", cp.Category, "price", cp.Price)
	return cp, nil
}

// UpdateCategoryPrice cannot rename a rule onto another rule's category.
func (s *PricingServiceImpl) UpdateCategoryPrice(ctx context.Context, id uuid.UUID, category string, price int64) (*pricing.CategoryPrice, error) {
	category, err := pricing.ValidateRule(category, price)
	if err != nil {
		return nil, invalidInput(err)
	}
	err = s.checkPolicy(ctx, func(p *pricing.Policy, now time.Time) error {
		_, err := p.UpdateCategory(id, category, price, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateCategoryPrice(ctx, id, category, price)
}

// DeleteCategoryPrice fails with NotFound for an unknown rule.
func (s *PricingServiceImpl) DeleteCategoryPrice(ctx context.Context, id uuid.UUID) error {
	err := s.checkPolicy(ctx, func(p *pricing.Policy, now time.Time) error {
		return p.RemoveCategory(id, now)
	})
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCategoryPrice(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Category price removed", "id", id.String())
	return nil
}
