package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/pricing"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/platform/persistence"
)

// PricingRepository stores the pricing singleton in a one-row table guarded
// by a CHECK (id = 1) and the category overrides in category_prices.
type PricingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewPricingRepository(logger *slog.Logger, db *persistence.PostgresDB) pricing.Repository {
	return &PricingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *PricingRepository) WithTx(tx pgx.Tx) pricing.Repository {
	return &PricingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Get returns the policy, creating the default row on first use.
func (r *PricingRepository) Get(ctx context.Context) (*pricing.Policy, error) {
	policy := &pricing.Policy{}
	err := r.querier.QueryRow(ctx, `SELECT global_price, last_updated FROM pricing WHERE id = 1`).
		Scan(&policy.GlobalPrice, &policy.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		err = r.querier.QueryRow(ctx, `
			INSERT INTO pricing (id, global_price, last_updated)
			VALUES (1, $1, NOW())
			ON CONFLICT (id) DO UPDATE SET id = pricing.id
			RETURNING global_price, last_updated
		`, pricing.DefaultGlobalPrice).Scan(&policy.GlobalPrice, &policy.LastUpdated)
	}
	if err != nil {
		r.logger.Error("Failed to load pricing policy", "error", err)
		return nil, storeError("load pricing policy", err)
	}

	rows, err := r.querier.Query(ctx, `SELECT id, category, price FROM category_prices ORDER BY LOWER(category)`)
	if err != nil {
		r.logger.Error("Failed to load category prices", "error", err)
		return nil, storeError("load category prices", err)
	}
	defer rows.Close()

	policy.CategoryPrices = make([]pricing.CategoryPrice, 0)
	for rows.Next() {
		var cp pricing.CategoryPrice
		if err := rows.Scan(&cp.ID, &cp.Category, &cp.Price); err != nil {
			return nil, storeError("scan category price", err)
		}
		policy.CategoryPrices = append(policy.CategoryPrices, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate category prices", err)
	}
	return policy, nil
}

// PriceFor resolves the override, then the global price, then the default
// when the singleton has not been created yet.
func (r *PricingRepository) PriceFor(ctx context.Context, category string) (int64, error) {
	query := `
		SELECT COALESCE(
			(SELECT price FROM category_prices WHERE LOWER(category) = LOWER($1)),
			(SELECT global_price FROM pricing WHERE id = 1),
			$2
		)
	`

	var price int64
	if err := r.querier.QueryRow(ctx, query, category, pricing.DefaultGlobalPrice).Scan(&price); err != nil {
		r.logger.Error("Failed to resolve price", "category", category, "error", err)
		return 0, storeError("resolve price", err)
	}
	return price, nil
}

// SetGlobalPrice stores the price on the singleton settings row.
func (r *PricingRepository) SetGlobalPrice(ctx context.Context, price int64) (*pricing.Policy, error) {
	if price < 0 {
		return nil, pricing.ErrNegativePrice
	}
	query := `
		INSERT INTO pricing (id, global_price, last_updated)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET global_price = EXCLUDED.global_price, last_updated = EXCLUDED.last_updated
	`
	if _, err := r.querier.Exec(ctx, query, price); err != nil {
		r.logger.Error("Failed to set global price", "price", price, "error", err)
		return nil, storeError("set global price", err)
	}
	return r.Get(ctx)
}

// AddCategoryPrice relies on the case-insensitive unique index to reject a
// second rule for the same category.
func (r *PricingRepository) AddCategoryPrice(ctx context.Context, category string, price int64) (*pricing.CategoryPrice, error) {
	category, err := pricing.ValidateRule(category, price)
	if err != nil {
		return nil, err
	}

	cp := &pricing.CategoryPrice{ID: uuid.New(), Category: category, Price: price}
	_, err = r.querier.Exec(ctx,
		`INSERT INTO category_prices (id, category, price) VALUES ($1, $2, $3)`,
		cp.ID, cp.Category, cp.Price,
	)
	if err != nil {
		if _, ok := persistence.UniqueViolation(err); ok {
			return nil, shared.Conflict("price for category %q already exists", category)
		}
		r.logger.Error("Failed to add category price", "category", category, "error", err)
		return nil, storeError("add category price", err)
	}
	return cp, r.touch(ctx)
}

// UpdateCategoryPrice renames and reprices a rule in one statement.
func (r *PricingRepository) UpdateCategoryPrice(ctx context.Context, id uuid.UUID, category string, price int64) (*pricing.CategoryPrice, error) {
	category, err := pricing.ValidateRule(category, price)
	if err != nil {
		return nil, err
	}

	cp := &pricing.CategoryPrice{}
	err = r.querier.QueryRow(ctx,
		`UPDATE category_prices SET category = $2, price = $3 WHERE id = $1 RETURNING id, category, price`,
		id, category, price,
	).Scan(&cp.ID, &cp.Category, &cp.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("category price %s not found", id)
		}
		if _, ok := persistence.UniqueViolation(err); ok {
			return nil, shared.Conflict("price for category %q already exists", category)
		}
		r.logger.Error("Failed to update category price", "id", id.String(), "error", err)
		return nil, storeError("update category price", err)
	}
	return cp, r.touch(ctx)
}

// DeleteCategoryPrice removes a rule; its category falls back to the global
// price.
func (r *PricingRepository) DeleteCategoryPrice(ctx context.Context, id uuid.UUID) error {
	tag, err := r.querier.Exec(ctx, `DELETE FROM category_prices WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete category price", "id", id.String(), "error", err)
		return storeError("delete category price", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("category price %s not found", id)
	}
	return r.touch(ctx)
}

// touch stamps last_updated after a category change.
func (r *PricingRepository) touch(ctx context.Context) error {
	query := `
		INSERT INTO pricing (id, global_price, last_updated)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET last_updated = EXCLUDED.last_updated
	`
	if _, err := r.querier.Exec(ctx, query, pricing.DefaultGlobalPrice); err != nil {
		r.logger.Error("Failed to stamp pricing policy", "error", err)
		return storeError("stamp pricing policy", err)
	}
	return nil
}
