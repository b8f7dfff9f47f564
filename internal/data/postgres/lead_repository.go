package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/lead"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/platform/persistence"
)

const leadColumns = `id, title, location, category, budget, description, full_description,
		address, contact_name, contact_phone, contact_email, requirements, upload_date,
		COALESCE(status, ''), view_count, purchased_count, purchased_by, last_viewed, uploaded_by`

// LeadRepository implements lead.Repository for PostgreSQL
type LeadRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLeadRepository returns a lead.Repository running on the pool.
func NewLeadRepository(logger *slog.Logger, db *persistence.PostgresDB) lead.Repository {
	return &LeadRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *LeadRepository) WithTx(tx pgx.Tx) lead.Repository {
	return &LeadRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanLead(row pgx.Row) (*lead.Lead, error) {
	var l lead.Lead
	err := row.Scan(
		&l.ID,
		&l.Title,
		&l.Location,
		&l.Category,
		&l.Budget,
		&l.Description,
		&l.FullDescription,
		&l.Address,
		&l.ContactName,
		&l.ContactPhone,
		&l.ContactEmail,
		&l.Requirements,
		&l.UploadDate,
		&l.Status,
		&l.ViewCount,
		&l.PurchasedCount,
		&l.PurchasedBy,
		&l.LastViewed,
		&l.UploadedBy,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func collectLeads(rows pgx.Rows) ([]*lead.Lead, error) {
	defer rows.Close()

	leads := make([]*lead.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) Create(ctx context.Context, l *lead.Lead) error {
	query := `
		INSERT INTO leads (id, title, location, category, budget, description, full_description,
			address, contact_name, contact_phone, contact_email, requirements, upload_date,
			status, view_count, purchased_count, purchased_by, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.querier.Exec(ctx, query,
		l.ID,
		l.Title,
		l.Location,
		l.Category,
		l.Budget,
		l.Description,
		l.FullDescription,
		l.Address,
		l.ContactName,
		l.ContactPhone,
		l.ContactEmail,
		l.Requirements,
		l.UploadDate,
		l.Status,
		l.ViewCount,
		l.PurchasedCount,
		l.PurchasedBy,
		l.UploadedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create lead", "title", l.Title, "error", err)
		return storeError("create lead", err)
	}
	return nil
}

func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*lead.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	l, err := scanLead(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFound("lead %s not found", id)
		}
		r.logger.Error("Failed to get lead", "id", id.String(), "error", err)
		return nil, storeError("get lead", err)
	}
	return l, nil
}

// GetByIDs skips ids that no longer exist.
func (r *LeadRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*lead.Lead, error) {
	if len(ids) == 0 {
		return []*lead.Lead{}, nil
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = ANY($1) ORDER BY upload_date DESC`

	rows, err := r.querier.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error("Failed to get leads by ids", "count", len(ids), "error", err)
		return nil, storeError("get leads by ids", err)
	}
	leads, err := collectLeads(rows)
	if err != nil {
		return nil, storeError("scan leads", err)
	}
	return leads, nil
}

// Update rewrites the descriptive fields only. Counters, buyers and status
// are owned by ReserveCapacity and UpdateStatus.
func (r *LeadRepository) Update(ctx context.Context, l *lead.Lead) error {
	query := `
		UPDATE leads
		SET title = $2, location = $3, category = $4, budget = $5, description = $6,
			full_description = $7, address = $8, contact_name = $9, contact_phone = $10,
			contact_email = $11, requirements = $12
		WHERE id = $1
	`

	tag, err := r.querier.Exec(ctx, query,
		l.ID,
		l.Title,
		l.Location,
		l.Category,
		l.Budget,
		l.Description,
		l.FullDescription,
		l.Address,
		l.ContactName,
		l.ContactPhone,
		l.ContactEmail,
		l.Requirements,
	)
	if err != nil {
		r.logger.Error("Failed to update lead", "id", l.ID.String(), "error", err)
		return storeError("update lead", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("lead %s not found", l.ID)
	}
	return nil
}

// UpdateStatus refuses to touch a lead whose counter disagrees with the
// requested status; the table constraint would reject it anyway.
func (r *LeadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status lead.Status) error {
	query := `
		UPDATE leads
		SET status = $2
		WHERE id = $1 AND ((purchased_count >= $3) = ($2 = 'Sold Out'))
	`

	tag, err := r.querier.Exec(ctx, query, id, status, lead.MaxPurchasesPerLead)
	if err != nil {
		r.logger.Error("Failed to update lead status", "id", id.String(), "status", status, "error", err)
		return storeError("update lead status", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return shared.InvalidState("lead %s cannot move to status %s", id, status)
	}
	return nil
}

func (r *LeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.querier.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete lead", "id", id.String(), "error", err)
		return storeError("delete lead", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("lead %s not found", id)
	}
	return nil
}

// List applies the administrator filters and returns one page, newest first.
func (r *LeadRepository) List(ctx context.Context, f lead.Filter, limit, offset int) ([]*lead.Lead, int64, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		p := arg("%" + term + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %[1]s OR description ILIKE %[1]s OR location ILIKE %[1]s OR category ILIKE %[1]s)", p))
	}
	if f.Category != "" {
		conds = append(conds, "LOWER(category) = LOWER("+arg(f.Category)+")")
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(string(f.Status)))
	}
	if f.Location != "" {
		conds = append(conds, "location ILIKE "+arg("%"+f.Location+"%"))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count leads", "error", err)
		return nil, 0, storeError("count leads", err)
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + where +
		fmt.Sprintf(" ORDER BY upload_date DESC LIMIT %s OFFSET %s", arg(limit), arg(offset))

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list leads", "error", err)
		return nil, 0, storeError("list leads", err)
	}
	leads, err := collectLeads(rows)
	if err != nil {
		return nil, 0, storeError("scan leads", err)
	}
	return leads, total, nil
}

// ListAvailable returns the listable leads of a category, newest first.
func (r *LeadRepository) ListAvailable(ctx context.Context, category, city string) ([]*lead.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE LOWER(category) = LOWER($1)
			AND ($2 = '' OR LOWER(location) = LOWER($2))
			AND purchased_count < $3
			AND (status IS NULL OR status = 'Active')
		ORDER BY upload_date DESC
	`

	rows, err := r.querier.Query(ctx, query, strings.TrimSpace(category), strings.TrimSpace(city), lead.MaxPurchasesPerLead)
	if err != nil {
		r.logger.Error("Failed to list available leads", "category", category, "city", city, "error", err)
		return nil, storeError("list available leads", err)
	}
	leads, err := collectLeads(rows)
	if err != nil {
		return nil, storeError("scan leads", err)
	}
	return leads, nil
}

// ReserveCapacity adds the buyer in a single conditional UPDATE. Concurrent
// reservations of one lead queue on its row lock and each re-evaluates the
// WHERE clause against the committed counter, so at most
// MaxPurchasesPerLead of them can ever match.
func (r *LeadRepository) ReserveCapacity(ctx context.Context, leadID, buyerID uuid.UUID) (*lead.Lead, error) {
	query := `
		UPDATE leads
		SET purchased_count = purchased_count + 1,
			purchased_by = array_append(purchased_by, $2),
			view_count = view_count + 1,
			last_viewed = NOW(),
			status = CASE WHEN purchased_count + 1 >= $3 THEN 'Sold Out' ELSE status END
		WHERE id = $1
			AND purchased_count < $3
			AND NOT ($2 = ANY(purchased_by))
		RETURNING ` + leadColumns

	l, err := scanLead(r.querier.QueryRow(ctx, query, leadID, buyerID, lead.MaxPurchasesPerLead))
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to reserve lead capacity", "lead_id", leadID.String(), "buyer_id", buyerID.String(), "error", err)
		return nil, storeError("reserve lead capacity", err)
	}
	return nil, r.explainRejectedReservation(ctx, leadID, buyerID)
}

func (r *LeadRepository) explainRejectedReservation(ctx context.Context, leadID, buyerID uuid.UUID) error {
	var (
		count  int
		member bool
	)
	err := r.querier.QueryRow(ctx,
		`SELECT purchased_count, $2 = ANY(purchased_by) FROM leads WHERE id = $1`,
		leadID, buyerID,
	).Scan(&count, &member)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.NotFound("lead %s not found", leadID)
	}
	if err != nil {
		return storeError("read lead capacity", err)
	}

	candidate := lead.Lead{ID: leadID, PurchasedCount: count}
	if member {
		candidate.PurchasedBy = []uuid.UUID{buyerID}
	}
	if err := candidate.CheckPurchasable(buyerID); err != nil {
		return err
	}
	return shared.Retryable(nil, "lead %s changed during reservation", leadID)
}
