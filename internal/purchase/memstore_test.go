package purchase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/lead"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/outbox"
	"github.com/lead-marketplace/internal/domain/pricing"
	"github.com/lead-marketplace/internal/domain/shared"
)

// memStore is an in-memory stand-in for Postgres with row-level locking.
// A transaction buffers its writes and publishes them on commit; reads see
// committed state overlaid with the transaction's own writes. Locks taken on
// buyer and lead rows are held until commit or rollback, like SELECT ... FOR
// UPDATE. Nothing else serializes transactions, so a repository write that
// does not re-check its condition under the row lock races exactly as it
// would against Postgres.
type memStore struct {
	mu      sync.Mutex
	buyers  map[uuid.UUID]*buyer.Buyer
	leads   map[uuid.UUID]*lead.Lead
	policy  *pricing.Policy
	entries []*ledger.Entry
	outbox  []*outbox.Message
	rows    map[string]chan struct{}

	// hooks run before the named repository call and may fail it. Install
	// them before any goroutine starts.
	hooks map[string]func(ctx context.Context) error
}

func newMemStore() *memStore {
	return &memStore{
		buyers: make(map[uuid.UUID]*buyer.Buyer),
		leads:  make(map[uuid.UUID]*lead.Lead),
		policy: pricing.Default(time.Now().UTC()),
		rows:   make(map[string]chan struct{}),
		hooks:  make(map[string]func(ctx context.Context) error),
	}
}

func (s *memStore) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := s.begin()
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return tx.commit()
}

// autocommit runs fn in a transaction of its own, the way a repository call
// outside ExecuteTx behaves against the pool.
func (s *memStore) autocommit(ctx context.Context, fn func(tx *memTx) error) error {
	tx := s.begin()
	defer tx.release()
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (s *memStore) begin() *memTx {
	return &memTx{
		s:      s,
		held:   make(map[string]chan struct{}),
		buyers: make(map[uuid.UUID]*buyer.Buyer),
		leads:  make(map[uuid.UUID]*lead.Lead),
	}
}

func (s *memStore) hook(ctx context.Context, name string) error {
	if h, ok := s.hooks[name]; ok {
		return h(ctx)
	}
	return nil
}

func (s *memStore) repositories() Repositories {
	return Repositories{
		Buyers:  &memBuyers{memRepo{s: s}},
		Leads:   &memLeads{memRepo{s: s}},
		Pricing: &memPricing{memRepo{s: s}},
		Ledger:  &memLedger{memRepo{s: s}},
		Outbox:  &memOutbox{memRepo{s: s}},
	}
}

// seed helpers; call before any goroutine starts.

func (s *memStore) addBuyer(b *buyer.Buyer) *buyer.Buyer {
	s.buyers[b.ID] = cloneBuyer(b)
	return b
}

func (s *memStore) addLead(l *lead.Lead) *lead.Lead {
	s.leads[l.ID] = cloneLead(l)
	return l
}

// committed state readers for assertions.

func (s *memStore) buyer(id uuid.UUID) *buyer.Buyer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBuyer(s.buyers[id])
}

func (s *memStore) lead(id uuid.UUID) *lead.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLead(s.leads[id])
}

func (s *memStore) ledgerEntries() []*ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

func (s *memStore) outboxMessages() []*outbox.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.outbox)
}

// memTx is the pgx.Tx handed to repositories. Only its identity and write
// set are used; the embedded interface is never called.
type memTx struct {
	pgx.Tx

	s       *memStore
	held    map[string]chan struct{}
	buyers  map[uuid.UUID]*buyer.Buyer // nil marks a deleted row
	leads   map[uuid.UUID]*lead.Lead   // nil marks a deleted row
	policy  *pricing.Policy
	entries []*ledger.Entry
	outbox  []*outbox.Message
}

// lockRow blocks until the row is free or ctx ends. Locks are re-entrant
// within a transaction.
func (tx *memTx) lockRow(ctx context.Context, key string) error {
	if _, ok := tx.held[key]; ok {
		return nil
	}
	tx.s.mu.Lock()
	row, ok := tx.s.rows[key]
	if !ok {
		row = make(chan struct{}, 1)
		tx.s.rows[key] = row
	}
	tx.s.mu.Unlock()

	select {
	case row <- struct{}{}:
		tx.held[key] = row
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (tx *memTx) release() {
	for key, row := range tx.held {
		<-row
		delete(tx.held, key)
	}
}

// commit publishes the write set. The ledger constraints are checked again
// against everything committed since the transaction wrote its entries.
func (tx *memTx) commit() error {
	s := tx.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range tx.entries {
		if err := ledgerConstraint(e, s.entries); err != nil {
			return err
		}
	}
	for id, b := range tx.buyers {
		if b == nil {
			delete(s.buyers, id)
			continue
		}
		s.buyers[id] = b
	}
	for id, l := range tx.leads {
		if l == nil {
			delete(s.leads, id)
			continue
		}
		s.leads[id] = l
	}
	if tx.policy != nil {
		s.policy = tx.policy
	}
	s.entries = append(s.entries, tx.entries...)
	for _, m := range tx.outbox {
		m.ID = int64(len(s.outbox) + 1)
		s.outbox = append(s.outbox, m)
	}
	return nil
}

func (tx *memTx) buyer(id uuid.UUID) (*buyer.Buyer, bool) {
	if b, ok := tx.buyers[id]; ok {
		return cloneBuyer(b), b != nil
	}
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	b, ok := tx.s.buyers[id]
	return cloneBuyer(b), ok
}

func (tx *memTx) allBuyers() []*buyer.Buyer {
	tx.s.mu.Lock()
	merged := make(map[uuid.UUID]*buyer.Buyer, len(tx.s.buyers))
	for id, b := range tx.s.buyers {
		merged[id] = b
	}
	tx.s.mu.Unlock()
	for id, b := range tx.buyers {
		merged[id] = b
	}
	out := make([]*buyer.Buyer, 0, len(merged))
	for _, b := range merged {
		if b != nil {
			out = append(out, cloneBuyer(b))
		}
	}
	return out
}

func (tx *memTx) lead(id uuid.UUID) (*lead.Lead, bool) {
	if l, ok := tx.leads[id]; ok {
		return cloneLead(l), l != nil
	}
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	l, ok := tx.s.leads[id]
	return cloneLead(l), ok
}

func (tx *memTx) allLeads() []*lead.Lead {
	tx.s.mu.Lock()
	merged := make(map[uuid.UUID]*lead.Lead, len(tx.s.leads))
	for id, l := range tx.s.leads {
		merged[id] = l
	}
	tx.s.mu.Unlock()
	for id, l := range tx.leads {
		merged[id] = l
	}
	out := make([]*lead.Lead, 0, len(merged))
	for _, l := range merged {
		if l != nil {
			out = append(out, cloneLead(l))
		}
	}
	return out
}

func (tx *memTx) currentPolicy() *pricing.Policy {
	if tx.policy != nil {
		return clonePolicy(tx.policy)
	}
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	return clonePolicy(tx.s.policy)
}

func (tx *memTx) allEntries() []*ledger.Entry {
	tx.s.mu.Lock()
	out := slices.Clone(tx.s.entries)
	tx.s.mu.Unlock()
	return append(out, tx.entries...)
}

// ledgerConstraint mirrors the two unique constraints of wallet_transactions.
func ledgerConstraint(e *ledger.Entry, existing []*ledger.Entry) error {
	for _, other := range existing {
		if other.TransactionID == e.TransactionID {
			return shared.RetryableConflict(nil, "transaction id %s is already taken", e.TransactionID)
		}
		if e.Type == shared.EntryTypeLeadPurchase && other.Type == e.Type &&
			other.BuyerID == e.BuyerID && *other.LeadID == *e.LeadID {
			return shared.AlreadyPurchased("buyer %s already purchased lead %s", e.BuyerID, e.LeadID)
		}
	}
	return nil
}

func cloneBuyer(b *buyer.Buyer) *buyer.Buyer {
	if b == nil {
		return nil
	}
	c := *b
	c.PurchasedLeads = slices.Clone(b.PurchasedLeads)
	c.SavedLeads = slices.Clone(b.SavedLeads)
	return &c
}

func cloneLead(l *lead.Lead) *lead.Lead {
	if l == nil {
		return nil
	}
	c := *l
	c.PurchasedBy = slices.Clone(l.PurchasedBy)
	return &c
}

func clonePolicy(p *pricing.Policy) *pricing.Policy {
	c := *p
	c.CategoryPrices = slices.Clone(p.CategoryPrices)
	return &c
}

// memRepo binds a repository to the store and, after WithTx, to one
// transaction.
type memRepo struct {
	s  *memStore
	tx *memTx
}

func (r memRepo) bound(tx pgx.Tx) memRepo {
	return memRepo{s: r.s, tx: tx.(*memTx)}
}

func (r memRepo) run(ctx context.Context, fn func(tx *memTx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.s.autocommit(ctx, fn)
}

type memBuyers struct{ memRepo }

func (r *memBuyers) WithTx(tx pgx.Tx) buyer.Repository { return &memBuyers{r.bound(tx)} }

func (r *memBuyers) Create(ctx context.Context, b *buyer.Buyer) error {
	return r.run(ctx, func(tx *memTx) error {
		if err := tx.lockRow(ctx, "mobile:"+b.Mobile); err != nil {
			return err
		}
		for _, existing := range tx.allBuyers() {
			if existing.Mobile == b.Mobile {
				return shared.Conflict("a buyer with mobile %s already exists", b.Mobile)
			}
		}
		tx.buyers[b.ID] = cloneBuyer(b)
		return nil
	})
}

func (r *memBuyers) GetByID(ctx context.Context, id uuid.UUID) (*buyer.Buyer, error) {
	var out *buyer.Buyer
	err := r.run(ctx, func(tx *memTx) error {
		b, ok := tx.buyer(id)
		if !ok {
			return shared.NotFound("buyer %s not found", id)
		}
		out = b
		return nil
	})
	return out, err
}

func (r *memBuyers) GetByMobile(ctx context.Context, mobile string) (*buyer.Buyer, error) {
	var out *buyer.Buyer
	err := r.run(ctx, func(tx *memTx) error {
		for _, b := range tx.allBuyers() {
			if b.Mobile == mobile {
				out = b
				return nil
			}
		}
		return shared.NotFound("buyer %s not found", mobile)
	})
	return out, err
}

func (r *memBuyers) LockByID(ctx context.Context, id uuid.UUID) (*buyer.Buyer, error) {
	if err := r.s.hook(ctx, "buyers.LockByID"); err != nil {
		return nil, err
	}
	var out *buyer.Buyer
	err := r.run(ctx, func(tx *memTx) error {
		if err := tx.lockRow(ctx, "buyer:"+id.String()); err != nil {
			return err
		}
		b, ok := tx.buyer(id)
		if !ok {
			return shared.NotFound("buyer %s not found", id)
		}
		out = b
		return nil
	})
	return out, err
}

func (r *memBuyers) List(ctx context.Context, f buyer.Filter, limit, offset int) ([]*buyer.Buyer, int64, error) {
	var out []*buyer.Buyer
	err := r.run(ctx, func(tx *memTx) error {
		for _, b := range tx.allBuyers() {
			if (f.ApprovalStatus == "" || b.ApprovalStatus == f.ApprovalStatus) && (!f.CompleteOnly || b.IsProfileComplete) {
				out = append(out, b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	slices.SortFunc(out, func(a, b *buyer.Buyer) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *memBuyers) Delete(ctx context.Context, id uuid.UUID) error {
	return r.run(ctx, func(tx *memTx) error {
		if err := tx.lockRow(ctx, "buyer:"+id.String()); err != nil {
			return err
		}
		if _, ok := tx.buyer(id); !ok {
			return shared.NotFound("buyer %s not found", id)
		}
		for _, e := range tx.allEntries() {
			if e.BuyerID == id {
				return shared.Conflict("buyer %s has wallet history and cannot be deleted", id)
			}
		}
		tx.buyers[id] = nil
		return nil
	})
}

// update locks the buyer row and stores whatever change leaves behind.
func (r *memBuyers) update(ctx context.Context, id uuid.UUID, change func(b *buyer.Buyer) error) error {
	return r.run(ctx, func(tx *memTx) error {
		if err := tx.lockRow(ctx, "buyer:"+id.String()); err != nil {
			return err
		}
		b, ok := tx.buyer(id)
		if !ok {
			return shared.NotFound("buyer %s not found", id)
		}
		if err := change(b); err != nil {
			return err
		}
		tx.buyers[id] = b
		return nil
	})
}

func (r *memBuyers) UpdateProfile(ctx context.Context, b *buyer.Buyer) error {
	return r.update(ctx, b.ID, func(stored *buyer.Buyer) error {
		*stored = *cloneBuyer(b)
		return nil
	})
}

func (r *memBuyers) UpdateApproval(ctx context.Context, b *buyer.Buyer) error {
	return r.UpdateProfile(ctx, b)
}

func (r *memBuyers) ApplyPurchase(ctx context.Context, buyerID, leadID uuid.UUID, cost int64) (int64, error) {
	if err := r.s.hook(ctx, "buyers.ApplyPurchase"); err != nil {
		return 0, err
	}
	var balance int64
	err := r.update(ctx, buyerID, func(b *buyer.Buyer) error {
		if b.WalletBalance < cost {
			return shared.InsufficientFunds("balance %d is below the lead price %d", b.WalletBalance, cost)
		}
		b.WalletBalance -= cost
		b.TotalLeadsViewed++
		b.PurchasedLeads = append(b.PurchasedLeads, leadID)
		balance = b.WalletBalance
		return nil
	})
	return balance, err
}

func (r *memBuyers) Credit(ctx context.Context, buyerID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	err := r.update(ctx, buyerID, func(b *buyer.Buyer) error {
		b.WalletBalance += amount
		balance = b.WalletBalance
		return nil
	})
	return balance, err
}

func (r *memBuyers) AddSavedLead(ctx context.Context, buyerID, leadID uuid.UUID) error {
	return r.update(ctx, buyerID, func(b *buyer.Buyer) error {
		if b.HasSaved(leadID) {
			return shared.Conflict("lead %s is already saved", leadID)
		}
		b.SavedLeads = append(b.SavedLeads, leadID)
		return nil
	})
}

func (r *memBuyers) RemoveSavedLead(ctx context.Context, buyerID, leadID uuid.UUID) error {
	return r.update(ctx, buyerID, func(b *buyer.Buyer) error {
		if !b.HasSaved(leadID) {
			return shared.NotFound("lead %s is not in the saved list", leadID)
		}
		b.SavedLeads = slices.DeleteFunc(b.SavedLeads, func(id uuid.UUID) bool { return id == leadID })
		return nil
	})
}

type memLeads struct{ memRepo }

func (r *memLeads) WithTx(tx pgx.Tx) lead.Repository { return &memLeads{r.bound(tx)} }

func (r *memLeads) Create(ctx context.Context, l *lead.Lead) error {
	return r.run(ctx, func(tx *memTx) error {
		tx.leads[l.ID] = cloneLead(l)
		return nil
	})
}

func (r *memLeads) GetByID(ctx context.Context, id uuid.UUID) (*lead.Lead, error) {
	if err := r.s.hook(ctx, "leads.GetByID"); err != nil {
		return nil, err
	}
	var out *lead.Lead
	err := r.run(ctx, func(tx *memTx) error {
		l, ok := tx.lead(id)
		if !ok {
			return shared.NotFound("lead %s not found", id)
		}
		out = l
		return nil
	})
	return out, err
}

func (r *memLeads) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*lead.Lead, error) {
	out := make([]*lead.Lead, 0, len(ids))
	err := r.run(ctx, func(tx *memTx) error {
		for _, id := range ids {
			if l, ok := tx.lead(id); ok {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}

// update locks the lead row and stores whatever change leaves behind.
func (r *memLeads) update(ctx context.Context, id uuid.UUID, change func(l *lead.Lead) error) (*lead.Lead, error) {
	var out *lead.Lead
	err := r.run(ctx, func(tx *memTx) error {
		if err := tx.lockRow(ctx, "lead:"+id.String()); err != nil {
			return err
		}
		l, ok := tx.lead(id)
		if !ok {
			return shared.NotFound("lead %s not found", id)
		}
		if err := change(l); err != nil {
			return err
		}
		tx.leads[id] = l
		out = cloneLead(l)
		return nil
	})
	return out, err
}

func (r *memLeads) Update(ctx context.Context, l *lead.Lead) error {
	_, err := r.update(ctx, l.ID, func(stored *lead.Lead) error {
		*stored = *cloneLead(l)
		return nil
	})
	return err
}

func (r *memLeads) UpdateStatus(ctx context.Context, id uuid.UUID, status lead.Status) error {
	_, err := r.update(ctx, id, func(l *lead.Lead) error { return l.ChangeStatus(status) })
	return err
}

func (r *memLeads) Delete(ctx context.Context, id uuid.UUID) error {
	return r.run(ctx, func(tx *memTx) error {
		if err := tx.lockRow(ctx, "lead:"+id.String()); err != nil {
			return err
		}
		if _, ok := tx.lead(id); !ok {
			return shared.NotFound("lead %s not found", id)
		}
		tx.leads[id] = nil
		return nil
	})
}

func (r *memLeads) List(ctx context.Context, _ lead.Filter, limit, offset int) ([]*lead.Lead, int64, error) {
	var all []*lead.Lead
	err := r.run(ctx, func(tx *memTx) error {
		all = tx.allLeads()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page(all, limit, offset), int64(len(all)), nil
}

func (r *memLeads) ListAvailable(ctx context.Context, category, city string) ([]*lead.Lead, error) {
	out := make([]*lead.Lead, 0)
	err := r.run(ctx, func(tx *memTx) error {
		for _, l := range tx.allLeads() {
			if strings.EqualFold(l.Category, category) && (city == "" || strings.EqualFold(l.Location, city)) && l.IsListable() {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}

// ReserveCapacity applies lead.Reserve to the latest committed row while
// holding its lock, the in-memory form of the conditional UPDATE.
func (r *memLeads) ReserveCapacity(ctx context.Context, leadID, buyerID uuid.UUID) (*lead.Lead, error) {
	if err := r.s.hook(ctx, "leads.ReserveCapacity"); err != nil {
		return nil, err
	}
	return r.update(ctx, leadID, func(l *lead.Lead) error {
		return l.Reserve(buyerID, time.Now().UTC())
	})
}

type memPricing struct{ memRepo }

func (r *memPricing) WithTx(tx pgx.Tx) pricing.Repository { return &memPricing{r.bound(tx)} }

func (r *memPricing) Get(ctx context.Context) (*pricing.Policy, error) {
	var p *pricing.Policy
	err := r.run(ctx, func(tx *memTx) error {
		p = tx.currentPolicy()
		return nil
	})
	return p, err
}

func (r *memPricing) PriceFor(ctx context.Context, category string) (int64, error) {
	if err := r.s.hook(ctx, "pricing.PriceFor"); err != nil {
		return 0, err
	}
	p, err := r.Get(ctx)
	if err != nil {
		return 0, err
	}
	return p.PriceFor(category), nil
}

// change locks the policy row and stores whatever fn leaves behind.
func (r *memPricing) change(ctx context.Context, fn func(p *pricing.Policy, now time.Time) error) (*pricing.Policy, error) {
	var out *pricing.Policy
	err := r.run(ctx, func(tx *memTx) error {
		if err := tx.lockRow(ctx, "pricing"); err != nil {
			return err
		}
		p := tx.currentPolicy()
		if err := fn(p, time.Now().UTC()); err != nil {
			return err
		}
		tx.policy = p
		out = clonePolicy(p)
		return nil
	})
	return out, err
}

func (r *memPricing) SetGlobalPrice(ctx context.Context, price int64) (*pricing.Policy, error) {
	return r.change(ctx, func(p *pricing.Policy, now time.Time) error {
		return p.SetGlobalPrice(price, now)
	})
}

func (r *memPricing) AddCategoryPrice(ctx context.Context, category string, price int64) (*pricing.CategoryPrice, error) {
	var cp pricing.CategoryPrice
	_, err := r.change(ctx, func(p *pricing.Policy, now time.Time) (err error) {
		cp, err = p.AddCategory(category, price, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *memPricing) UpdateCategoryPrice(ctx context.Context, id uuid.UUID, category string, price int64) (*pricing.CategoryPrice, error) {
	var cp pricing.CategoryPrice
	_, err := r.change(ctx, func(p *pricing.Policy, now time.Time) (err error) {
		cp, err = p.UpdateCategory(id, category, price, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *memPricing) DeleteCategoryPrice(ctx context.Context, id uuid.UUID) error {
	_, err := r.change(ctx, func(p *pricing.Policy, now time.Time) error {
		return p.RemoveCategory(id, now)
	})
	return err
}

type memLedger struct{ memRepo }

func (r *memLedger) WithTx(tx pgx.Tx) ledger.Repository { return &memLedger{r.bound(tx)} }

// Record enforces the wallet_transactions unique constraints against what
// is visible now; commit checks them again.
func (r *memLedger) Record(ctx context.Context, e *ledger.Entry) error {
	if err := r.s.hook(ctx, "ledger.Record"); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	return r.run(ctx, func(tx *memTx) error {
		if err := ledgerConstraint(e, tx.allEntries()); err != nil {
			return err
		}
		c := *e
		tx.entries = append(tx.entries, &c)
		return nil
	})
}

func (r *memLedger) GetByTransactionID(ctx context.Context, transactionID string) (*ledger.Entry, error) {
	var out *ledger.Entry
	err := r.run(ctx, func(tx *memTx) error {
		for _, e := range tx.allEntries() {
			if e.TransactionID == transactionID {
				c := *e
				out = &c
				return nil
			}
		}
		return shared.NotFound("ledger entry %s not found", transactionID)
	})
	return out, err
}

func (r *memLedger) ListByBuyer(ctx context.Context, buyerID uuid.UUID, typ shared.EntryType, limit, offset int) ([]*ledger.Entry, int64, error) {
	var out []*ledger.Entry
	err := r.run(ctx, func(tx *memTx) error {
		for _, e := range tx.allEntries() {
			if e.BuyerID == buyerID && (typ == "" || e.Type == typ) {
				out = append(out, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *memLedger) ListPurchases(ctx context.Context, f ledger.PurchaseFilter, limit, offset int) ([]*ledger.PurchaseRecord, int64, error) {
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	var out []*ledger.PurchaseRecord
	err := r.run(ctx, func(tx *memTx) error {
		for _, e := range tx.allEntries() {
			if e.Type != shared.EntryTypeLeadPurchase ||
				(f.Status != "" && e.Status != f.Status) ||
				(f.From != nil && e.CreatedAt.Before(*f.From)) ||
				(f.To != nil && e.CreatedAt.After(*f.To)) {
				continue
			}
			b, ok := tx.buyer(e.BuyerID)
			if !ok {
				continue
			}
			rec := &ledger.PurchaseRecord{Entry: *e, BuyerEmail: b.Email}
			rec.SetBuyer(b.Mobile, b.BusinessName, b.OwnerName)
			if l, ok := tx.lead(*e.LeadID); ok {
				rec.LeadTitle, rec.LeadCategory, rec.LeadLocation = l.Title, l.Category, l.Location
			}
			if term == "" || slices.ContainsFunc(
				[]string{b.BusinessName, b.OwnerName, b.Mobile, b.Email, rec.LeadTitle, e.TransactionID},
				func(field string) bool { return strings.Contains(strings.ToLower(field), term) },
			) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page(out, limit, offset), int64(len(out)), nil
}

type memOutbox struct{ memRepo }

func (r *memOutbox) WithTx(tx pgx.Tx) outbox.Repository { return &memOutbox{r.bound(tx)} }

func (r *memOutbox) Create(ctx context.Context, m *outbox.Message) error {
	return r.run(ctx, func(tx *memTx) error {
		c := *m
		tx.outbox = append(tx.outbox, &c)
		return nil
	})
}

func (r *memOutbox) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*outbox.Message
	for _, m := range r.s.outbox {
		if m.Status == shared.OutboxStatusPending && len(out) < limit {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

// Relay bookkeeping is applied to committed messages directly; the purchase
// flow never updates a message it created.

func (r *memOutbox) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	return r.touch(id, func(m *outbox.Message) { m.Status = status })
}

func (r *memOutbox) IncrementAttempts(_ context.Context, id int64) error {
	return r.touch(id, func(m *outbox.Message) { m.Attempts++ })
}

func (r *memOutbox) touch(id int64, fn func(m *outbox.Message)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.outbox {
		if m.ID == id {
			fn(m)
			return nil
		}
	}
	return shared.NotFound("outbox message %d not found", id)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+limit, len(items))]
}
