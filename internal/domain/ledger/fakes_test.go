package ledger

import (
	"context"
	"errors"
	"sync"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/stock"
)

// memDB is an in-memory store whose transactions are serialized by one
// mutex and roll back to a snapshot on error.
type memDB struct {
	mu     sync.Mutex
	docs   map[id.ID]*documents.Document
	stock  map[entity.StockKey]int64
	ledger []Entry
}

func newMemDB() *memDB {
	return &memDB{
		docs:  map[id.ID]*documents.Document{},
		stock: map[entity.StockKey]int64{},
	}
}

type inTxKey struct{}

func inTx(ctx context.Context) bool {
	return ctx.Value(inTxKey{}) != nil
}

var errNoTx = apperror.NewInternal(errors.New("stock write requires transaction context"))

func copyDoc(d *documents.Document) *documents.Document {
	cp := *d
	cp.Lines = append([]documents.Line(nil), d.Lines...)
	return &cp
}

func (db *memDB) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	docs := make(map[id.ID]*documents.Document, len(db.docs))
	for k, v := range db.docs {
		docs[k] = copyDoc(v)
	}
	stockRows := make(map[entity.StockKey]int64, len(db.stock))
	for k, v := range db.stock {
		stockRows[k] = v
	}
	ledgerLen := len(db.ledger)

	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		db.docs = docs
		db.stock = stockRows
		db.ledger = db.ledger[:ledgerLen]
		return err
	}
	return nil
}

func (db *memDB) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.RunInTransaction(ctx, fn)
}

// --- documents.Repository ---

type memDocs struct{ db *memDB }

func (r memDocs) Create(_ context.Context, doc *documents.Document) error {
	r.db.docs[doc.ID] = copyDoc(doc)
	return nil
}

func (r memDocs) GetByID(_ context.Context, docID id.ID) (*documents.Document, error) {
	doc, ok := r.db.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("document", docID.String())
	}
	return copyDoc(doc), nil
}

func (r memDocs) GetForUpdate(ctx context.Context, docID id.ID) (*documents.Document, error) {
	return r.GetByID(ctx, docID)
}

func (r memDocs) UpdateHeader(_ context.Context, doc *documents.Document) error {
	lines := r.db.docs[doc.ID].Lines
	cp := copyDoc(doc)
	cp.Lines = lines
	r.db.docs[doc.ID] = cp
	return nil
}

func (r memDocs) UpdateStatus(_ context.Context, docID id.ID, status entity.Status) error {
	r.db.docs[docID].Status = status
	return nil
}

func (r memDocs) SaveLines(_ context.Context, docID id.ID, lines []documents.Line) error {
	r.db.docs[docID].Lines = append([]documents.Line(nil), lines...)
	return nil
}

func (r memDocs) Delete(_ context.Context, docID id.ID) error {
	delete(r.db.docs, docID)
	return nil
}

func (r memDocs) List(context.Context, documents.ListFilter) (domain.ListResult[*documents.Document], error) {
	return domain.ListResult[*documents.Document]{}, nil
}

// --- stock.Repository ---

type memStock struct{ db *memDB }

func (r memStock) Get(_ context.Context, key entity.StockKey) (int64, error) {
	return r.db.stock[key], nil
}

func (r memStock) Quantities(_ context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error) {
	out := make(map[entity.StockKey]int64, len(keys))
	for _, k := range keys {
		out[k] = r.db.stock[k]
	}
	return out, nil
}

func (r memStock) ListBalances(context.Context, stock.BalanceFilter) (domain.ListResult[stock.Level], error) {
	return domain.ListResult[stock.Level]{}, nil
}

func (r memStock) Totals(_ context.Context, productIDs []id.ID) (map[id.ID]int64, error) {
	out := make(map[id.ID]int64, len(productIDs))
	for _, pid := range productIDs {
		for k, q := range r.db.stock {
			if k.ProductID == pid {
				out[pid] += q
			}
		}
	}
	return out, nil
}

func (r memStock) LockForUpdate(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error) {
	if !inTx(ctx) {
		return nil, errNoTx
	}
	return r.Quantities(ctx, entity.SortedKeys(keys))
}

func (r memStock) ApplyDelta(ctx context.Context, key entity.StockKey, delta int64) (int64, error) {
	if !inTx(ctx) {
		return 0, errNoTx
	}
	next := r.db.stock[key] + delta
	if next < 0 {
		return 0, apperror.NewInsufficientStock(key.ProductID.String(), key.WarehouseID.String(), -delta, r.db.stock[key])
	}
	r.db.stock[key] = next
	return next, nil
}

func (r memStock) SetAbsolute(ctx context.Context, key entity.StockKey, value int64) (int64, error) {
	if !inTx(ctx) {
		return 0, errNoTx
	}
	delta := value - r.db.stock[key]
	r.db.stock[key] = value
	return delta, nil
}

// --- Repository ---

type memLedger struct {
	db        *memDB
	lastLimit int
}

func (r *memLedger) Append(ctx context.Context, entries []Entry) error {
	if !inTx(ctx) {
		return errNoTx
	}
	r.db.ledger = append(r.db.ledger, entries...)
	return nil
}

func (r *memLedger) List(_ context.Context, f Filter) (domain.ListResult[Entry], error) {
	r.lastLimit = f.Limit
	var out []Entry
	for i := len(r.db.ledger) - 1; i >= 0; i-- {
		e := r.db.ledger[i]
		if f.ProductID != nil && e.ProductID != *f.ProductID {
			continue
		}
		if f.WarehouseID != nil && e.WarehouseID != *f.WarehouseID {
			continue
		}
		if f.ReferenceID != nil && e.ReferenceID != *f.ReferenceID {
			continue
		}
		out = append(out, e)
	}
	total := int64(len(out))
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return domain.ListResult[Entry]{Items: out, TotalCount: total, Limit: f.Limit}, nil
}

func (r *memLedger) Sum(_ context.Context, key entity.StockKey) (int64, error) {
	var sum int64
	for _, e := range r.db.ledger {
		if e.Key() == key {
			sum += e.QuantityChange
		}
	}
	return sum, nil
}

// --- documents.References ---

type allRefs struct{}

func (allRefs) MissingProducts(context.Context, []id.ID) ([]id.ID, error)   { return nil, nil }
func (allRefs) MissingWarehouses(context.Context, []id.ID) ([]id.ID, error) { return nil, nil }

// keysOf returns the distinct stock keys seen in the ledger, sorted.
func keysOf(entries []Entry) []entity.StockKey {
	keys := make([]entity.StockKey, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key())
	}
	return entity.SortedKeys(keys)
}
