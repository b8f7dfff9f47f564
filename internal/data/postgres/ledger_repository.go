package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/platform/persistence"
)

const (
	transactionIDConstraint = "wallet_transactions_transaction_id_key"
	buyerLeadConstraint     = "wallet_transactions_buyer_lead_purchase_key"
)

const entryColumns = `id, transaction_id, buyer_id, amount, type, payment_method, status,
		lead_id, failure_reason, correlation_id, created_at`

// LedgerRepository is the write-once wallet_transactions table. A trigger
// rejects UPDATE and DELETE on it, so the repository exposes neither.
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository returns a ledger.Repository running on the pool.
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Record inserts the entry. Unique violations map to the errors documented
// on ledger.Repository.
func (r *LedgerRepository) Record(ctx context.Context, e *ledger.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO wallet_transactions (id, transaction_id, buyer_id, amount, type, payment_method,
			status, lead_id, failure_reason, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		e.ID,
		e.TransactionID,
		e.BuyerID,
		e.Amount,
		e.Type,
		e.PaymentMethod,
		e.Status,
		e.LeadID,
		e.FailureReason,
		e.CorrelationID,
		e.CreatedAt,
	)
	if err == nil {
		return nil
	}

	if constraint, ok := persistence.UniqueViolation(err); ok {
		switch constraint {
		case buyerLeadConstraint:
			return shared.AlreadyPurchased("buyer %s already purchased lead %s", e.BuyerID, e.LeadID)
		default:
			r.logger.Warn("Transaction id collision", "transaction_id", e.TransactionID)
			return shared.RetryableConflict(err, "transaction id %s is already taken", e.TransactionID)
		}
	}
	if persistence.IsForeignKeyViolation(err) {
		return shared.NotFound("buyer %s not found", e.BuyerID)
	}
	r.logger.Error("Failed to record ledger entry", "transaction_id", e.TransactionID, "error", err)
	return storeError("record ledger entry", err)
}

func scanEntry(row pgx.Row, extra ...any) (*ledger.Entry, error) {
	var e ledger.Entry
	dest := append([]any{
		&e.ID,
		&e.TransactionID,
		&e.BuyerID,
		&e.Amount,
		&e.Type,
		&e.PaymentMethod,
		&e.Status,
		&e.LeadID,
		&e.FailureReason,
		&e.CorrelationID,
		&e.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *LedgerRepository) GetByTransactionID(ctx context.Context, transactionID string) (*ledger.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM wallet_transactions WHERE transaction_id = $1`

	e, err := scanEntry(r.querier.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("ledger entry %s not found", transactionID)
		}
		r.logger.Error("Failed to get ledger entry", "transaction_id", transactionID, "error", err)
		return nil, storeError("get ledger entry", err)
	}
	return e, nil
}

// ListByBuyer pages through a buyer's entries, newest first. An empty typ
// returns every type.
func (r *LedgerRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, typ shared.EntryType, limit, offset int) ([]*ledger.Entry, int64, error) {
	where := ` WHERE buyer_id = $1 AND ($2 = '' OR type = $2)`

	var total int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_transactions`+where, buyerID, typ).Scan(&total); err != nil {
		r.logger.Error("Failed to count buyer ledger entries", "buyer_id", buyerID.String(), "error", err)
		return nil, 0, storeError("count ledger entries", err)
	}

	query := `SELECT ` + entryColumns + ` FROM wallet_transactions` + where +
		` ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.querier.Query(ctx, query, buyerID, typ, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list buyer ledger entries", "buyer_id", buyerID.String(), "error", err)
		return nil, 0, storeError("list ledger entries", err)
	}
	defer rows.Close()

	entries := make([]*ledger.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, storeError("scan ledger entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeError("iterate ledger entries", err)
	}
	return entries, total, nil
}

// ListPurchases joins purchase entries with their buyer and, when it still
// exists, their lead, newest first.
func (r *LedgerRepository) ListPurchases(ctx context.Context, f ledger.PurchaseFilter, limit, offset int) ([]*ledger.PurchaseRecord, int64, error) {
	where, args := purchaseConditions(f)

	var total int64
	if err := r.querier.QueryRow(ctx,
		`SELECT COUNT(*) FROM wallet_transactions w
		JOIN buyers b ON b.id = w.buyer_id
		LEFT JOIN leads l ON l.id = w.lead_id`+where, args...,
	).Scan(&total); err != nil {
		r.logger.Error("Failed to count lead purchases", "error", err)
		return nil, 0, storeError("count lead purchases", err)
	}

	query := fmt.Sprintf(`
		SELECT w.id, w.transaction_id, w.buyer_id, w.amount, w.type, w.payment_method, w.status,
			w.lead_id, w.failure_reason, w.correlation_id, w.created_at,
			b.mobile, b.business_name, b.owner_name, b.email,
			COALESCE(l.title, ''), COALESCE(l.category, ''), COALESCE(l.location, '')
		FROM wallet_transactions w
		JOIN buyers b ON b.id = w.buyer_id
		LEFT JOIN leads l ON l.id = w.lead_id%s
		ORDER BY w.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	rows, err := r.querier.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		r.logger.Error("Failed to list lead purchases", "error", err)
		return nil, 0, storeError("list lead purchases", err)
	}
	defer rows.Close()

	records := make([]*ledger.PurchaseRecord, 0)
	for rows.Next() {
		var (
			mobile, business, owner string
			rec                     ledger.PurchaseRecord
		)
		e, err := scanEntry(rows,
			&mobile,
			&business,
			&owner,
			&rec.BuyerEmail,
			&rec.LeadTitle,
			&rec.LeadCategory,
			&rec.LeadLocation,
		)
		if err != nil {
			return nil, 0, storeError("scan lead purchase", err)
		}
		rec.Entry = *e
		rec.SetBuyer(mobile, business, owner)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeError("iterate lead purchases", err)
	}
	return records, total, nil
}

// purchaseConditions renders the report filter as a WHERE clause over the
// w, b and l aliases.
func purchaseConditions(f ledger.PurchaseFilter) (string, []any) {
	args := []any{shared.EntryTypeLeadPurchase}
	conds := []string{"w.type = $1"}

	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		args = append(args, "%"+escapeLike(term)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(b.business_name ILIKE $%[1]d OR b.owner_name ILIKE $%[1]d OR b.mobile ILIKE $%[1]d"+
				" OR b.email ILIKE $%[1]d OR l.title ILIKE $%[1]d OR w.transaction_id ILIKE $%[1]d)", n))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("w.status = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, fmt.Sprintf("w.created_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, fmt.Sprintf("w.created_at <= $%d", len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
