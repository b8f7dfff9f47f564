package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/shared"
)

const (
	// WalletLedgerCollection mirrors every committed wallet_transactions row
	// plus Failed recharges that never reached Postgres.
	WalletLedgerCollection = "wallet_ledger"
)

// AuditRepository implements ledger.AuditRepository on MongoDB.
type AuditRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

var _ ledger.AuditRepository = (*AuditRepository)(nil)

// NewAuditRepository uses the wallet_ledger collection of db.
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) *AuditRepository {
	return &AuditRepository{
		collection: db.Collection(WalletLedgerCollection),
		logger:     logger.With("component", "audit_repository"),
	}
}

// EnsureIndexes creates the unique transaction id index the upsert relies on
// and the indexes behind the log search.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}

// Upsert inserts the entry unless one with the same transaction id exists.
// Entries are immutable, so an existing document is left as it is.
func (r *AuditRepository) Upsert(ctx context.Context, entry *ledger.Entry) error {
	filter := bson.M{"transaction_id": entry.TransactionID}
	update := bson.M{"$setOnInsert": entry}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to upsert audit entry",
			"transaction_id", entry.TransactionID,
			"error", err)
		return mongoError("upsert audit entry", err)
	}
	return nil
}

func (r *AuditRepository) GetByTransactionID(ctx context.Context, transactionID string) (*ledger.Entry, error) {
	var entry ledger.Entry
	err := r.collection.FindOne(ctx, bson.M{"transaction_id": transactionID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.NotFound("audit entry %s not found", transactionID)
		}
		r.logger.Error("Failed to get audit entry",
			"transaction_id", transactionID,
			"error", err)
		return nil, mongoError("get audit entry", err)
	}
	return &entry, nil
}

// Search returns a page of matching entries, newest first, and the total
// number of matches.
func (r *AuditRepository) Search(ctx context.Context, q ledger.AuditQuery, limit, offset int) ([]*ledger.Entry, int64, error) {
	filter := auditFilter(q)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count audit entries", "error", err)
		return nil, 0, mongoError("count audit entries", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to search audit entries", "error", err)
		return nil, 0, mongoError("search audit entries", err)
	}
	defer cursor.Close(ctx)

	entries := make([]*ledger.Entry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode audit entries", "error", err)
		return nil, 0, mongoError("decode audit entries", err)
	}
	return entries, total, nil
}

func auditFilter(q ledger.AuditQuery) bson.M {
	filter := bson.M{}

	if term := strings.TrimSpace(q.SearchTerm); term != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"transaction_id": pattern},
			bson.M{"buyer_mobile": pattern},
			bson.M{"buyer_business_name": pattern},
			bson.M{"buyer_owner_name": pattern},
		}
	}
	if method := strings.TrimSpace(q.PaymentMethod); method != "" {
		filter["payment_method"] = primitive.Regex{Pattern: regexp.QuoteMeta(method), Options: "i"}
	}
	if q.Type != "" {
		filter["type"] = q.Type
	}

	created := bson.M{}
	if q.From != nil {
		created["$gte"] = *q.From
	}
	if q.To != nil {
		created["$lte"] = endOfDay(*q.To)
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return filter
}

// endOfDay makes an inclusive date bound cover the whole day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func mongoError(op string, err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return shared.Retryable(err, "failed to %s", op)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
