package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/domain/documents"
)

type harness struct {
	db     *memDB
	docs   memDocs
	ledger *memLedger
	engine *Engine
	seq    int
}

func newHarness(mode AdjustmentMode) *harness {
	db := newMemDB()
	h := &harness{db: db, docs: memDocs{db: db}, ledger: &memLedger{db: db}}
	h.engine = NewEngine(Config{
		Documents: h.docs,
		Stock:     memStock{db: db},
		Ledger:    h.ledger,
		TxManager: db,
		Mode:      mode,
	})
	return h
}

// addDoc stores a draft document directly, bypassing the document store.
func (h *harness) addDoc(kind documents.Kind, setup func(d *documents.Document)) id.ID {
	h.seq++
	d := documents.NewDocument(kind, "")
	d.Number = fmt.Sprintf("%s-20260309-%04d", kind.Prefix(), h.seq)
	setup(d)
	d.SetLines(d.Lines)
	h.db.docs[d.ID] = d
	return d.ID
}

func (h *harness) receipt(p, w id.ID, qty int64) id.ID {
	return h.addDoc(documents.KindReceipt, func(d *documents.Document) {
		d.WarehouseID = &w
		d.Lines = []documents.Line{{ProductID: p, Quantity: qty}}
	})
}

func (h *harness) delivery(w id.ID, lines ...documents.Line) id.ID {
	return h.addDoc(documents.KindDelivery, func(d *documents.Document) {
		d.WarehouseID = &w
		d.Lines = lines
	})
}

func (h *harness) transfer(from, to id.ID, lines ...documents.Line) id.ID {
	return h.addDoc(documents.KindTransfer, func(d *documents.Document) {
		d.FromWarehouseID = &from
		d.ToWarehouseID = &to
		d.Lines = lines
	})
}

func (h *harness) adjustment(w, p id.ID, recorded, physical int64, reason string) id.ID {
	return h.addDoc(documents.KindAdjustment, func(d *documents.Document) {
		d.WarehouseID = &w
		if reason != "" {
			d.Notes = &reason
		}
		d.Lines = []documents.Line{{ProductID: p, RecordedQuantity: &recorded, PhysicalQuantity: &physical}}
	})
}

func (h *harness) validate(t *testing.T, docID id.ID) {
	t.Helper()
	_, err := h.engine.Validate(context.Background(), docID)
	require.NoError(t, err)
}

func (h *harness) qty(p, w id.ID) int64 {
	return h.db.stock[entity.StockKey{ProductID: p, WarehouseID: w}]
}

func line(p id.ID, qty int64) documents.Line {
	return documents.Line{ProductID: p, Quantity: qty}
}

// assertLedgerInvariants checks that every pair's ledger sum equals its
// stock and that quantity_after follows the running balance.
func assertLedgerInvariants(t *testing.T, h *harness) {
	t.Helper()

	running := map[entity.StockKey]int64{}
	for _, e := range h.db.ledger {
		running[e.Key()] += e.QuantityChange
		assert.Equal(t, running[e.Key()], e.QuantityAfter, "quantity_after of %s", e.ReferenceNumber)
		assert.GreaterOrEqual(t, e.QuantityAfter, int64(0))
		assert.NotZero(t, e.QuantityChange)
		assert.Equal(t, entity.MovementTypeOf(e.QuantityChange), e.MovementType)
	}

	for _, key := range keysOf(h.db.ledger) {
		rec, err := h.engine.Reconcile(context.Background(), key)
		require.NoError(t, err)
		assert.True(t, rec.Consistent, "pair %v: stock %d, ledger %d", key, rec.StockQuantity, rec.LedgerSum)
	}
}

func TestReceiptDeliveryAndShortage(t *testing.T) {
	h := newHarness(ModeSnapshot)
	p, w := id.New(), id.New()

	h.validate(t, h.receipt(p, w, 100))
	assert.Equal(t, int64(100), h.qty(p, w))

	h.validate(t, h.delivery(w, line(p, 30)))
	assert.Equal(t, int64(70), h.qty(p, w))

	big := h.delivery(w, line(p, 1000))
	_, err := h.engine.Validate(context.Background(), big)
	require.True(t, apperror.IsInsufficientStock(err), "got %v", err)

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, p.String(), appErr.Details["product_id"])
	assert.Equal(t, w.String(), appErr.Details["warehouse_id"])
	assert.Equal(t, int64(1000), appErr.Details["requested"])
	assert.Equal(t, int64(70), appErr.Details["available"])

	assert.Equal(t, int64(70), h.qty(p, w))
	assert.Len(t, h.db.ledger, 2)
	assert.Equal(t, entity.StatusDraft, h.db.docs[big].Status)

	require.Len(t, h.db.ledger, 2)
	assert.Equal(t, entity.MovementIn, h.db.ledger[0].MovementType)
	assert.Equal(t, "Receipt validated", h.db.ledger[0].Notes)
	assert.Equal(t, int64(-30), h.db.ledger[1].QuantityChange)
	assert.Equal(t, int64(70), h.db.ledger[1].QuantityAfter)
	assert.Equal(t, "Delivery validated", h.db.ledger[1].Notes)

	assertLedgerInvariants(t, h)
}

func TestValidateTwiceIsAlreadyApplied(t *testing.T) {
	h := newHarness(ModeSnapshot)
	p, w := id.New(), id.New()

	doc := h.receipt(p, w, 10)
	h.validate(t, doc)

	_, err := h.engine.Validate(context.Background(), doc)
	assert.True(t, apperror.IsAlreadyApplied(err), "got %v", err)
	assert.Equal(t, int64(10), h.qty(p, w))
	assert.Len(t, h.db.ledger, 1)
}

func TestConcurrentValidationsApplyOnce(t *testing.T) {
	h := newHarness(ModeSnapshot)
	p, w := id.New(), id.New()
	doc := h.receipt(p, w, 25)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		applied  int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.Validate(context.Background(), doc)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				applied++
			case apperror.IsAlreadyApplied(err):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	assert.Equal(t, workers-1, rejected)
	assert.Equal(t, int64(25), h.qty(p, w))
	assert.Len(t, h.db.ledger, 1)
}

func TestShortageOnSecondLineRollsBackFirst(t *testing.T) {
	h := newHarness(ModeSnapshot)
	p1, p2, w := id.New(), id.New(), id.New()

	h.validate(t, h.receipt(p1, w, 10))
	h.validate(t, h.receipt(p2, w, 1))
	before := len(h.db.ledger)

	doc := h.delivery(w, line(p1, 5), line(p2, 2))
	_, err := h.engine.Validate(context.Background(), doc)
	require.True(t, apperror.IsInsufficientStock(err))

	assert.Equal(t, int64(10), h.qty(p1, w))
	assert.Equal(t, int64(1), h.qty(p2, w))
	assert.Len(t, h.db.ledger, before)
	assert.Equal(t, entity.StatusDraft, h.db.docs[doc].Status)
}

func TestRepeatedProductLinesAreCheckedCumulatively(t *testing.T) {
	h := newHarness(ModeSnapshot)
	p, w := id.New(), id.New()
	h.validate(t, h.receipt(p, w, 10))

	doc := h.delivery(w, line(p, 6), line(p, 6))
	_, err := h.engine.Validate(context.Background(), doc)
	require.True(t, apperror.IsInsufficientStock(err))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(6), appErr.Details["requested"])
	assert.Equal(t, int64(4), appErr.Details["available"])
	assert.Equal(t, int64(10), h.qty(p, w))
}

func TestTransferMovesStockBetweenWarehouses(t *testing.T) {
	h := newHarness(ModeSnapshot)
	p, w1, w2 := id.New(), id.New(), id.New()
	h.validate(t, h.receipt(p, w1, 50))

	doc := h.transfer(w1, w2, line(p, 20))
	h.validate(t, doc)

	assert.Equal(t, int64(30), h.qty(p, w1))
	assert.Equal(t, int64(20), h.qty(p, w2))

	res, err := h.engine.Query(context.Background(), Filter{ReferenceID: &doc})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)

	var sum int64
	for _, e := range res.Items {
		sum += e.QuantityChange
		assert.Equal(t, string(documents.KindTransfer), e.ReferenceType)
	}
	assert.Zero(t, sum)

	_, err = h.engine.Validate(context.Background(), h.transfer(w2, w1, line(p, 21)))
	assert.True(t, apperror.IsInsufficientStock(err))

	assertLedgerInvariants(t, h)
}

func TestAdjustmentAppliesDifference(t *testing.T) {
	h := newHarness(ModeSnapshot)
	p, w := id.New(), id.New()
	h.validate(t, h.receipt(p, w, 42))

	h.validate(t, h.adjustment(w, p, 42, 50, "Cycle count"))

	assert.Equal(t, int64(50), h.qty(p, w))
	last := h.db.ledger[len(h.db.ledger)-1]
	assert.Equal(t, int64(8), last.QuantityChange)
	assert.Equal(t, int64(50), last.QuantityAfter)
	assert.Equal(t, entity.MovementIn, last.MovementType)
	assert.Equal(t, "Cycle count", last.Notes)

	assertLedgerInvariants(t, h)
}

func TestAdjustmentWithoutDifferenceWritesNoEntry(t *testing.T) {
	h := newHarness(ModeSnapshot)
	p, w := id.New(), id.New()
	h.validate(t, h.receipt(p, w, 42))

	doc := h.adjustment(w, p, 42, 42, "")
	h.validate(t, doc)

	assert.Len(t, h.db.ledger, 1)
	assert.Equal(t, entity.StatusDone, h.db.docs[doc].Status)
}

func TestAdjustmentBelowZeroIsRefused(t *testing.T) {
	h := newHarness(ModeSnapshot)
	p, w := id.New(), id.New()
	h.validate(t, h.receipt(p, w, 5))
	h.validate(t, h.delivery(w, line(p, 5)))

	// recorded 10 was a stale snapshot; applying -10 to 0 must fail
	_, err := h.engine.Validate(context.Background(), h.adjustment(w, p, 10, 0, ""))
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Zero(t, h.qty(p, w))
}

func TestAbsoluteAdjustmentUsesLiveStock(t *testing.T) {
	h := newHarness(ModeAbsolute)
	p, w := id.New(), id.New()
	h.validate(t, h.receipt(p, w, 42))

	h.validate(t, h.adjustment(w, p, 30, 50, ""))

	assert.Equal(t, int64(50), h.qty(p, w))
	last := h.db.ledger[len(h.db.ledger)-1]
	assert.Equal(t, int64(8), last.QuantityChange)
	assert.Equal(t, "Stock adjustment", last.Notes)

	assertLedgerInvariants(t, h)
}

func TestLifecycleTransitions(t *testing.T) {
	h := newHarness(ModeSnapshot)
	p, w := id.New(), id.New()
	ctx := context.Background()
	doc := h.receipt(p, w, 3)

	_, err := h.engine.Transition(ctx, doc, entity.StatusWaiting)
	require.NoError(t, err)
	_, err = h.engine.Transition(ctx, doc, entity.StatusReady)
	require.NoError(t, err)

	_, err = h.engine.Transition(ctx, doc, entity.StatusWaiting)
	assert.True(t, apperror.IsInvalidState(err))

	got, err := h.engine.Transition(ctx, doc, entity.StatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCanceled, got.Status)

	_, err = h.engine.Validate(ctx, doc)
	assert.True(t, apperror.IsInvalidState(err))
	assert.Empty(t, h.db.ledger)
	assert.Zero(t, h.qty(p, w))

	_, err = h.engine.Validate(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestEntriesCarryActingUser(t *testing.T) {
	h := newHarness(ModeSnapshot)
	p, w := id.New(), id.New()
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "7f0c5b0e-0000-0000-0000-000000000001"})

	_, err := h.engine.Validate(ctx, h.receipt(p, w, 1))
	require.NoError(t, err)
	require.NotNil(t, h.db.ledger[0].UserID)
	assert.Equal(t, "7f0c5b0e-0000-0000-0000-000000000001", *h.db.ledger[0].UserID)
}

func TestQueryDefaultsAndValidation(t *testing.T) {
	h := newHarness(ModeSnapshot)
	ctx := context.Background()

	_, err := h.engine.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, h.ledger.lastLimit)

	_, err = h.engine.Query(ctx, Filter{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, h.ledger.lastLimit)

	from := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	_, err = h.engine.Query(ctx, Filter{From: &from, To: &to})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestRandomSequenceKeepsLedgerReconciled(t *testing.T) {
	h := newHarness(ModeSnapshot)
	rng := rand.New(rand.NewSource(42))
	products := []id.ID{id.New(), id.New(), id.New()}
	warehouses := []id.ID{id.New(), id.New()}

	for i := 0; i < 200; i++ {
		p := products[rng.Intn(len(products))]
		w := warehouses[rng.Intn(len(warehouses))]
		other := warehouses[(rng.Intn(len(warehouses)-1)+1+indexOf(warehouses, w))%len(warehouses)]
		qty := int64(rng.Intn(20) + 1)

		var doc id.ID
		switch rng.Intn(4) {
		case 0:
			doc = h.receipt(p, w, qty)
		case 1:
			doc = h.delivery(w, line(p, qty))
		case 2:
			doc = h.transfer(w, other, line(p, qty))
		default:
			current := h.qty(p, w)
			doc = h.adjustment(w, p, current, int64(rng.Intn(30)), "")
		}

		_, err := h.engine.Validate(context.Background(), doc)
		if err != nil {
			require.True(t, apperror.IsInsufficientStock(err), "step %d: %v", i, err)
		}
	}

	assertLedgerInvariants(t, h)
	for k, v := range h.db.stock {
		assert.GreaterOrEqual(t, v, int64(0), "pair %v", k)
	}
}

func indexOf(ids []id.ID, v id.ID) int {
	for i, x := range ids {
		if x == v {
			return i
		}
	}
	return -1
}

func TestOpeningStockCreatesValidatedReceipt(t *testing.T) {
	h := newHarness(ModeSnapshot)
	docs := documents.NewService(documents.Config{
		Repo:      h.docs,
		Refs:      allRefs{},
		Stock:     memStock{db: h.db},
		Numerator: &numerator.MockGenerator{},
		TxManager: h.db,
	})
	opening := NewOpeningStock(docs, h.engine)
	p, w := id.New(), id.New()

	require.NoError(t, opening.ReceiveInitialStock(context.Background(), p, w, 12))

	assert.Equal(t, int64(12), h.qty(p, w))
	require.Len(t, h.db.ledger, 1)
	assert.Equal(t, string(documents.KindReceipt), h.db.ledger[0].ReferenceType)
	assert.Contains(t, h.db.ledger[0].ReferenceNumber, "REC-")

	doc := h.db.docs[h.db.ledger[0].ReferenceID]
	require.NotNil(t, doc)
	assert.Equal(t, entity.StatusDone, doc.Status)
}
