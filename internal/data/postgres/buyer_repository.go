package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/platform/persistence"
)

const buyerColumns = `id, mobile, email, business_name, owner_name, category, city,
		is_profile_complete, approval_status, submitted_for_approval, wallet_balance,
		total_leads_viewed, purchased_leads, saved_leads, approval_date, approval_reason,
		reviewed_by, verification_id, created_at, last_updated`

// BuyerRepository implements buyer.Repository for PostgreSQL
type BuyerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewBuyerRepository returns a buyer.Repository running on the pool.
func NewBuyerRepository(logger *slog.Logger, db *persistence.PostgresDB) buyer.Repository {
	return &BuyerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *BuyerRepository) WithTx(tx pgx.Tx) buyer.Repository {
	return &BuyerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanBuyer(row pgx.Row) (*buyer.Buyer, error) {
	var b buyer.Buyer
	err := row.Scan(
		&b.ID,
		&b.Mobile,
		&b.Email,
		&b.BusinessName,
		&b.OwnerName,
		&b.Category,
		&b.City,
		&b.IsProfileComplete,
		&b.ApprovalStatus,
		&b.SubmittedForApproval,
		&b.WalletBalance,
		&b.TotalLeadsViewed,
		&b.PurchasedLeads,
		&b.SavedLeads,
		&b.ApprovalDate,
		&b.ApprovalReason,
		&b.ReviewedBy,
		&b.VerificationID,
		&b.CreatedAt,
		&b.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a newly registered or administrator onboarded buyer.
// Mobile and email are unique.
func (r *BuyerRepository) Create(ctx context.Context, b *buyer.Buyer) error {
	query := `
		INSERT INTO buyers (id, mobile, email, business_name, owner_name, category, city,
			is_profile_complete, approval_status, submitted_for_approval, wallet_balance,
			approval_date, approval_reason, reviewed_by, verification_id, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.querier.Exec(ctx, query,
		b.ID,
		b.Mobile,
		b.Email,
		b.BusinessName,
		b.OwnerName,
		b.Category,
		b.City,
		b.IsProfileComplete,
		b.ApprovalStatus,
		b.SubmittedForApproval,
		b.WalletBalance,
		b.ApprovalDate,
		b.ApprovalReason,
		b.ReviewedBy,
		b.VerificationID,
		b.CreatedAt,
		b.LastUpdated,
	)
	if err != nil {
		if constraint, ok := persistence.UniqueViolation(err); ok {
			return duplicateBuyer(constraint, b)
		}
		r.logger.Error("Failed to create buyer", "mobile", b.Mobile, "error", err)
		return storeError("create buyer", err)
	}
	return nil
}

func duplicateBuyer(constraint string, b *buyer.Buyer) error {
	if constraint == "buyers_email_key" {
		return shared.Conflict("a buyer with email %s already exists", b.Email)
	}
	return shared.Conflict("a buyer with mobile %s already exists", b.Mobile)
}

func (r *BuyerRepository) GetByID(ctx context.Context, id uuid.UUID) (*buyer.Buyer, error) {
	query := `SELECT ` + buyerColumns + ` FROM buyers WHERE id = $1`

	b, err := scanBuyer(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("buyer %s not found", id)
		}
		r.logger.Error("Failed to get buyer", "id", id.String(), "error", err)
		return nil, storeError("get buyer", err)
	}
	return b, nil
}

func (r *BuyerRepository) GetByMobile(ctx context.Context, mobile string) (*buyer.Buyer, error) {
	query := `SELECT ` + buyerColumns + ` FROM buyers WHERE mobile = $1`

	b, err := scanBuyer(r.querier.QueryRow(ctx, query, mobile))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("buyer with mobile %s not found", mobile)
		}
		r.logger.Error("Failed to get buyer by mobile", "mobile", mobile, "error", err)
		return nil, storeError("get buyer by mobile", err)
	}
	return b, nil
}

// LockByID takes a row lock that serializes wallet changes of one buyer
// until the surrounding transaction ends.
func (r *BuyerRepository) LockByID(ctx context.Context, id uuid.UUID) (*buyer.Buyer, error) {
	query := `SELECT ` + buyerColumns + ` FROM buyers WHERE id = $1 FOR UPDATE`

	b, err := scanBuyer(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("buyer %s not found", id)
		}
		r.logger.Error("Failed to lock buyer", "id", id.String(), "error", err)
		return nil, storeError("lock buyer", err)
	}
	return b, nil
}

// List filters on approval status and profile completeness.
func (r *BuyerRepository) List(ctx context.Context, f buyer.Filter, limit, offset int) ([]*buyer.Buyer, int64, error) {
	var (
		conds []string
		args  []any
	)
	if f.ApprovalStatus != "" {
		args = append(args, f.ApprovalStatus)
		conds = append(conds, fmt.Sprintf("approval_status = $%d", len(args)))
	}
	if f.CompleteOnly {
		conds = append(conds, "is_profile_complete")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM buyers`+where, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count buyers", "error", err)
		return nil, 0, storeError("count buyers", err)
	}

	args = append(args, limit, offset)
	query := `SELECT ` + buyerColumns + ` FROM buyers` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list buyers", "error", err)
		return nil, 0, storeError("list buyers", err)
	}
	defer rows.Close()

	buyers := make([]*buyer.Buyer, 0)
	for rows.Next() {
		b, err := scanBuyer(rows)
		if err != nil {
			return nil, 0, storeError("scan buyer", err)
		}
		buyers = append(buyers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeError("scan buyers", err)
	}
	return buyers, total, nil
}

// Delete removes a buyer without wallet history. Ledger entries reference
// the buyer, so the foreign key rejects anything else.
func (r *BuyerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.querier.Exec(ctx, `DELETE FROM buyers WHERE id = $1`, id)
	if err != nil {
		if persistence.IsForeignKeyViolation(err) {
			return shared.Conflict("buyer %s has wallet history and cannot be deleted", id)
		}
		r.logger.Error("Failed to delete buyer", "id", id.String(), "error", err)
		return storeError("delete buyer", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("buyer %s not found", id)
	}
	return nil
}

// UpdateProfile writes the editable profile columns and the mobile.
func (r *BuyerRepository) UpdateProfile(ctx context.Context, b *buyer.Buyer) error {
	query := `
		UPDATE buyers
		SET email = $2, business_name = $3, owner_name = $4, category = $5, city = $6,
			is_profile_complete = $7, submitted_for_approval = $8, last_updated = $9
		WHERE id = $1
	`

	tag, err := r.querier.Exec(ctx, query,
		b.ID,
		b.Email,
		b.BusinessName,
		b.OwnerName,
		b.Category,
		b.City,
		b.IsProfileComplete,
		b.SubmittedForApproval,
		b.LastUpdated,
		b.Mobile,
	)
	if err != nil {
		if constraint, ok := persistence.UniqueViolation(err); ok {
			return duplicateBuyer(constraint, b)
		}
		r.logger.Error("Failed to update buyer profile", "id", b.ID.String(), "error", err)
		return storeError("update buyer profile", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("buyer %s not found", b.ID)
	}
	return nil
}

// UpdateApproval writes the review outcome and its audit fields.
func (r *BuyerRepository) UpdateApproval(ctx context.Context, b *buyer.Buyer) error {
	query := `
		UPDATE buyers
		SET approval_status = $2, approval_date = $3, approval_reason = $4,
			reviewed_by = $5, verification_id = $6, last_updated = $7
		WHERE id = $1
	`

	tag, err := r.querier.Exec(ctx, query,
		b.ID,
		b.ApprovalStatus,
		b.ApprovalDate,
		b.ApprovalReason,
		b.ReviewedBy,
		b.VerificationID,
		b.LastUpdated,
	)
	if err != nil {
		r.logger.Error("Failed to update buyer approval", "id", b.ID.String(), "error", err)
		return storeError("update buyer approval", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("buyer %s not found", b.ID)
	}
	return nil
}

// ApplyPurchase debits the wallet only when the balance covers cost, so the
// balance can never go negative even without a prior lock.
func (r *BuyerRepository) ApplyPurchase(ctx context.Context, buyerID, leadID uuid.UUID, cost int64) (int64, error) {
	query := `
		UPDATE buyers
		SET wallet_balance = wallet_balance - $3,
			total_leads_viewed = total_leads_viewed + 1,
			purchased_leads = array_append(purchased_leads, $2),
			last_updated = NOW()
		WHERE id = $1 AND wallet_balance >= $3
		RETURNING wallet_balance
	`

	var balance int64
	err := r.querier.QueryRow(ctx, query, buyerID, leadID, cost).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to debit buyer", "buyer_id", buyerID.String(), "lead_id", leadID.String(), "error", err)
		return 0, storeError("debit buyer", err)
	}

	err = r.querier.QueryRow(ctx, `SELECT wallet_balance FROM buyers WHERE id = $1`, buyerID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.NotFound("buyer %s not found", buyerID)
	}
	if err != nil {
		return 0, storeError("read buyer balance", err)
	}
	return 0, shared.InsufficientFunds("balance %d is below the lead price %d", balance, cost)
}

// Credit adds amount to the balance and returns the new balance.
func (r *BuyerRepository) Credit(ctx context.Context, buyerID uuid.UUID, amount int64) (int64, error) {
	query := `
		UPDATE buyers
		SET wallet_balance = wallet_balance + $2, last_updated = NOW()
		WHERE id = $1
		RETURNING wallet_balance
	`

	var balance int64
	err := r.querier.QueryRow(ctx, query, buyerID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.NotFound("buyer %s not found", buyerID)
		}
		r.logger.Error("Failed to credit buyer", "buyer_id", buyerID.String(), "error", err)
		return 0, storeError("credit buyer", err)
	}
	return balance, nil
}

// AddSavedLead appends the lead unless it is already saved.
func (r *BuyerRepository) AddSavedLead(ctx context.Context, buyerID, leadID uuid.UUID) error {
	query := `
		UPDATE buyers
		SET saved_leads = array_append(saved_leads, $2), last_updated = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(saved_leads))
	`

	tag, err := r.querier.Exec(ctx, query, buyerID, leadID)
	if err != nil {
		r.logger.Error("Failed to save lead", "buyer_id", buyerID.String(), "lead_id", leadID.String(), "error", err)
		return storeError("save lead", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var saved bool
	err = r.querier.QueryRow(ctx, `SELECT $2 = ANY(saved_leads) FROM buyers WHERE id = $1`, buyerID, leadID).Scan(&saved)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.NotFound("buyer %s not found", buyerID)
	}
	if err != nil {
		return storeError("check saved lead", err)
	}
	if !saved {
		return shared.Retryable(nil, "saved leads of buyer %s changed concurrently", buyerID)
	}
	return shared.Conflict("lead %s is already saved", leadID)
}

func (r *BuyerRepository) RemoveSavedLead(ctx context.Context, buyerID, leadID uuid.UUID) error {
	query := `
		UPDATE buyers
		SET saved_leads = array_remove(saved_leads, $2), last_updated = NOW()
		WHERE id = $1 AND $2 = ANY(saved_leads)
	`

	tag, err := r.querier.Exec(ctx, query, buyerID, leadID)
	if err != nil {
		r.logger.Error("Failed to remove saved lead", "buyer_id", buyerID.String(), "lead_id", leadID.String(), "error", err)
		return storeError("remove saved lead", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("lead %s is not in the saved list", leadID)
	}
	return nil
}
