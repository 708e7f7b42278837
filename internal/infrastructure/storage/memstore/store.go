// Package memstore is an in-memory implementation of every repository port,
// tx.Manager and numerator.Generator. Transactions are serialised and roll
// back by restoring a snapshot; constraint checks mirror the SQL schema.
package memstore

import (
	"context"
	"sync"
	"time"

	appctx "inventra/internal/core/context"
	"inventra/internal/core/id"
	"inventra/internal/core/numerator"
	"inventra/internal/core/tx"
	"inventra/internal/domain/audit"
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/pricetype"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/catalogs/supplier"
	"inventra/internal/domain/documents/purchase"
	"inventra/internal/domain/documents/transfer"
	"inventra/internal/domain/registers/prices"
	"inventra/internal/domain/registers/stock"
)

var (
	_ tx.Manager          = (*Store)(nil)
	_ numerator.Generator = (*Store)(nil)
	_ audit.Recorder      = (*Store)(nil)
)

type bpKey struct{ productID, branchID id.ID }

type priceKey struct{ productID, branchID, priceTypeID id.ID }

type expiryKey struct {
	productID id.ID
	date      string
}

// AuditRecord is a stored audit entry.
type AuditRecord struct {
	audit.Entry
	UserID    string
	CreatedAt time.Time
}

type state struct {
	branches       map[id.ID]branch.Branch
	priceTypes     map[id.ID]pricetype.PriceType
	suppliers      map[id.ID]supplier.Supplier
	products       map[id.ID]product.Product
	branchProducts map[bpKey]product.BranchProduct
	prices         map[priceKey]prices.Price
	purchases      map[string]purchase.Purchase
	expiries       map[expiryKey]purchase.ExpiryRecord
	transfers      map[string][]transfer.Line
	movements      []stock.Movement
	sequences      map[string]int64
	audit          []AuditRecord
}

func newState() *state {
	return &state{
		branches:       make(map[id.ID]branch.Branch),
		priceTypes:     make(map[id.ID]pricetype.PriceType),
		suppliers:      make(map[id.ID]supplier.Supplier),
		products:       make(map[id.ID]product.Product),
		branchProducts: make(map[bpKey]product.BranchProduct),
		prices:         make(map[priceKey]prices.Price),
		purchases:      make(map[string]purchase.Purchase),
		expiries:       make(map[expiryKey]purchase.ExpiryRecord),
		transfers:      make(map[string][]transfer.Line),
		sequences:      make(map[string]int64),
	}
}

func (st *state) clone() *state {
	c := &state{
		branches:       cloneMap(st.branches),
		priceTypes:     cloneMap(st.priceTypes),
		suppliers:      cloneMap(st.suppliers),
		products:       cloneMap(st.products),
		branchProducts: cloneMap(st.branchProducts),
		prices:         cloneMap(st.prices),
		purchases:      cloneMap(st.purchases),
		expiries:       cloneMap(st.expiries),
		transfers:      make(map[string][]transfer.Line, len(st.transfers)),
		movements:      append([]stock.Movement(nil), st.movements...),
		sequences:      cloneMap(st.sequences),
		audit:          append([]AuditRecord(nil), st.audit...),
	}
	for k, v := range st.transfers {
		c.transfers[k] = append([]transfer.Line(nil), v...)
	}
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Store holds the whole dataset. mu is held for the full length of a
// transaction and for every statement run outside one.
type Store struct {
	mu sync.Mutex
	st *state
}

// New creates an empty store.
func New() *Store {
	return &Store{st: newState()}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// RunInTransaction implements tx.Manager. Nested calls join the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.st = snap
		return err
	}
	return nil
}

// RunInSavepoint implements tx.Manager.
func (s *Store) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	if !inTx(ctx) {
		return s.RunInTransaction(ctx, fn)
	}

	snap := s.st.clone()
	if err := fn(ctx); err != nil {
		s.st = snap
		return err
	}
	return nil
}

// exec runs fn against the state, taking the lock when ctx carries no transaction.
func (s *Store) exec(ctx context.Context, fn func(st *state) error) error {
	if !inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.st)
}

// --- numerator.Generator ---

// NextNumber implements numerator.Generator.
func (s *Store) NextNumber(ctx context.Context, cfg numerator.Config, period time.Time) (string, error) {
	var n int64
	err := s.exec(ctx, func(st *state) error {
		key := cfg.Key(period)
		st.sequences[key]++
		n = st.sequences[key]
		return nil
	})
	if err != nil {
		return "", err
	}
	return cfg.Format(period, n), nil
}

// SetNextNumber implements numerator.Generator.
func (s *Store) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	return s.exec(ctx, func(st *state) error {
		st.sequences[cfg.Key(period)] = value
		return nil
	})
}

// --- audit.Recorder ---

// Record implements audit.Recorder.
func (s *Store) Record(ctx context.Context, entry audit.Entry) error {
	return s.exec(ctx, func(st *state) error {
		st.audit = append(st.audit, AuditRecord{
			Entry:     entry,
			UserID:    appctx.GetUserID(ctx),
			CreatedAt: time.Now().UTC(),
		})
		return nil
	})
}

// AuditRecords returns stored audit entries of entityType, oldest first.
func (s *Store) AuditRecords(entityType string) []AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []AuditRecord
	for _, r := range s.st.audit {
		if entityType == "" || r.EntityType == entityType {
			out = append(out, r)
		}
	}
	return out
}

// --- repository accessors ---

// Branches returns the branch repository.
func (s *Store) Branches() *BranchRepo { return &BranchRepo{s: s} }

// PriceTypes returns the price type repository.
func (s *Store) PriceTypes() *PriceTypeRepo { return &PriceTypeRepo{s: s} }

// Suppliers returns the supplier repository.
func (s *Store) Suppliers() *SupplierRepo { return &SupplierRepo{s: s} }

// Products returns the product repository.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Stock returns the stock ledger repository.
func (s *Store) Stock() *StockRepo { return &StockRepo{s: s} }

// Prices returns the price repository.
func (s *Store) Prices() *PriceRepo { return &PriceRepo{s: s} }

// Purchases returns the purchase repository.
func (s *Store) Purchases() *PurchaseRepo { return &PurchaseRepo{s: s} }

// Transfers returns the transfer repository.
func (s *Store) Transfers() *TransferRepo { return &TransferRepo{s: s} }
