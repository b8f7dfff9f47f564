package pricing

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/domain/shared"
)

// DefaultGlobalPrice is used when the policy is created for the first time.
const DefaultGlobalPrice int64 = 1000

var (
	ErrNegativePrice    = errors.New("price must not be negative")
	ErrCategoryRequired = errors.New("category is required")
)

// CategoryPrice overrides the global price for one lead category.
type CategoryPrice struct {
	ID       uuid.UUID `json:"id"`
	Category string    `json:"category"`
	Price    int64     `json:"price"`
}

// Policy is the single pricing configuration of the marketplace.
type Policy struct {
	GlobalPrice    int64           `json:"global_price"`
	CategoryPrices []CategoryPrice `json:"category_prices"`
	LastUpdated    time.Time       `json:"last_updated"`
}

// Default is the policy used before an administrator sets any price.
func Default(now time.Time) *Policy {
	return &Policy{
		GlobalPrice:    DefaultGlobalPrice,
		CategoryPrices: []CategoryPrice{},
		LastUpdated:    now,
	}
}

// PriceFor returns the category override, matched case-insensitively, or
// the global price.
func (p *Policy) PriceFor(category string) int64 {
	if i := p.indexOf(category); i >= 0 {
		return p.CategoryPrices[i].Price
	}
	return p.GlobalPrice
}

// SetGlobalPrice rejects negative prices. Zero makes uncategorised leads
// free.
func (p *Policy) SetGlobalPrice(price int64, now time.Time) error {
	if price < 0 {
		return ErrNegativePrice
	}
	p.GlobalPrice = price
	p.LastUpdated = now
	return nil
}

// AddCategory adds a rule for a category that has none yet.
func (p *Policy) AddCategory(category string, price int64, now time.Time) (CategoryPrice, error) {
	category, err := ValidateRule(category, price)
	if err != nil {
		return CategoryPrice{}, err
	}
	if p.indexOf(category) >= 0 {
		return CategoryPrice{}, shared.Conflict("price for category %q already exists", category)
	}
	cp := CategoryPrice{ID: uuid.New(), Category: category, Price: price}
	p.CategoryPrices = append(p.CategoryPrices, cp)
	p.LastUpdated = now
	return cp, nil
}

// UpdateCategory renames and reprices the rule with id.
func (p *Policy) UpdateCategory(id uuid.UUID, category string, price int64, now time.Time) (CategoryPrice, error) {
	category, err := ValidateRule(category, price)
	if err != nil {
		return CategoryPrice{}, err
	}
	for i := range p.CategoryPrices {
		if p.CategoryPrices[i].ID != id {
			continue
		}
		if j := p.indexOf(category); j >= 0 && j != i {
			return CategoryPrice{}, shared.Conflict("price for category %q already exists", category)
		}
		p.CategoryPrices[i].Category = category
		p.CategoryPrices[i].Price = price
		p.LastUpdated = now
		return p.CategoryPrices[i], nil
	}
	return CategoryPrice{}, shared.NotFound("category price %s not found", id)
}

// RemoveCategory deletes the rule with id.
func (p *Policy) RemoveCategory(id uuid.UUID, now time.Time) error {
	for i := range p.CategoryPrices {
		if p.CategoryPrices[i].ID == id {
			p.CategoryPrices = append(p.CategoryPrices[:i], p.CategoryPrices[i+1:]...)
			p.LastUpdated = now
			return nil
		}
	}
	return shared.NotFound("category price %s not found", id)
}

func (p *Policy) indexOf(category string) int {
	category = strings.TrimSpace(category)
	for i, cp := range p.CategoryPrices {
		if strings.EqualFold(cp.Category, category) {
			return i
		}
	}
	return -1
}

// ValidateRule trims the category and checks the override is usable.
func ValidateRule(category string, price int64) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return "", ErrCategoryRequired
	}
	if price < 0 {
		return "", ErrNegativePrice
	}
	return category, nil
}
