package documents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/events"
)

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	docs map[id.ID]*Document
}

func (r *memRepo) Create(_ context.Context, doc *Document) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *memRepo) GetByID(_ context.Context, docID id.ID) (*Document, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("document", docID.String())
	}
	cp := *doc
	cp.Lines = append([]Line(nil), doc.Lines...)
	return &cp, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Document, error) {
	return r.GetByID(ctx, docID)
}

func (r *memRepo) UpdateHeader(_ context.Context, doc *Document) error {
	stored := r.docs[doc.ID]
	lines := stored.Lines
	cp := *doc
	cp.Lines = lines
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memRepo) UpdateStatus(_ context.Context, docID id.ID, status entity.Status) error {
	r.docs[docID].Status = status
	return nil
}

func (r *memRepo) SaveLines(_ context.Context, docID id.ID, lines []Line) error {
	r.docs[docID].Lines = append([]Line(nil), lines...)
	return nil
}

func (r *memRepo) Delete(_ context.Context, docID id.ID) error {
	delete(r.docs, docID)
	return nil
}

func (r *memRepo) List(context.Context, ListFilter) (domain.ListResult[*Document], error) {
	return domain.ListResult[*Document]{}, nil
}

type knownRefs struct {
	products, warehouses map[id.ID]bool
}

func missing(known map[id.ID]bool, ids []id.ID) []id.ID {
	var out []id.ID
	for _, v := range ids {
		if !known[v] {
			out = append(out, v)
		}
	}
	return out
}

func (k knownRefs) MissingProducts(_ context.Context, ids []id.ID) ([]id.ID, error) {
	return missing(k.products, ids), nil
}

func (k knownRefs) MissingWarehouses(_ context.Context, ids []id.ID) ([]id.ID, error) {
	return missing(k.warehouses, ids), nil
}

type fixedStock map[entity.StockKey]int64

func (f fixedStock) Quantities(_ context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error) {
	out := make(map[entity.StockKey]int64, len(keys))
	for _, k := range keys {
		out[k] = f[k]
	}
	return out, nil
}

type recordingPublisher struct{ events []events.Event }

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

type recordingAudit struct{ actions []audit.Action }

func (a *recordingAudit) LogChange(_ context.Context, _ string, _ id.ID, action audit.Action, _ map[string]any) error {
	a.actions = append(a.actions, action)
	return nil
}

type fixture struct {
	svc       *Service
	repo      *memRepo
	stock     fixedStock
	publisher *recordingPublisher
	audit     *recordingAudit
	product   id.ID
	warehouse id.ID
	other     id.ID
}

func newFixture() *fixture {
	f := &fixture{
		repo:      &memRepo{docs: map[id.ID]*Document{}},
		stock:     fixedStock{},
		publisher: &recordingPublisher{},
		audit:     &recordingAudit{},
		product:   id.New(),
		warehouse: id.New(),
		other:     id.New(),
	}
	f.svc = NewService(Config{
		Repo: f.repo,
		Refs: knownRefs{
			products:   map[id.ID]bool{f.product: true},
			warehouses: map[id.ID]bool{f.warehouse: true, f.other: true},
		},
		Stock:     f.stock,
		Numerator: &numerator.MockGenerator{},
		TxManager: passTx{},
		Publisher: f.publisher,
		Audit:     f.audit,
	})
	f.svc.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) receipt(qty int64) *Document {
	d := NewDocument(KindReceipt, "")
	d.WarehouseID = &f.warehouse
	d.Lines = []Line{{ProductID: f.product, Quantity: qty}}
	return d
}

func TestCreateNumbersPerKindAndDay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := f.receipt(5)
	require.NoError(t, f.svc.Create(ctx, first))
	second := f.receipt(6)
	require.NoError(t, f.svc.Create(ctx, second))

	assert.Equal(t, "REC-20260309-0001", first.Number)
	assert.Equal(t, "REC-20260309-0002", second.Number)
	assert.Equal(t, entity.StatusDraft, first.Status)
	assert.Equal(t, 1, first.Lines[0].LineNo)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, events.DocumentCreated, f.publisher.events[0].EventType)
	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionCreate}, f.audit.actions)
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	f := newFixture()

	d := f.receipt(1)
	d.Lines[0].ProductID = id.New()
	err := f.svc.Create(context.Background(), d)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Empty(t, f.repo.docs)

	unknown := id.New()
	d = f.receipt(1)
	d.WarehouseID = &unknown
	err = f.svc.Create(context.Background(), d)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCreateAdjustmentSnapshotsRecordedQuantity(t *testing.T) {
	f := newFixture()
	f.stock[entity.StockKey{ProductID: f.product, WarehouseID: f.warehouse}] = 42

	adj := NewDocument(KindAdjustment, "")
	adj.WarehouseID = &f.warehouse
	adj.Lines = []Line{{ProductID: f.product, PhysicalQuantity: ptr(int64(50))}}

	require.NoError(t, f.svc.Create(context.Background(), adj))
	assert.Equal(t, "ADJ-20260309-0001", adj.Number)
	require.NotNil(t, adj.Lines[0].RecordedQuantity)
	assert.Equal(t, int64(42), *adj.Lines[0].RecordedQuantity)
	assert.Equal(t, int64(8), adj.Lines[0].Difference())
}

func TestAdjustmentRejectsDuplicateProductLines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.stock[entity.StockKey{ProductID: f.product, WarehouseID: f.warehouse}] = 42

	adj := NewDocument(KindAdjustment, "")
	adj.WarehouseID = &f.warehouse
	adj.Lines = []Line{
		{ProductID: f.product, PhysicalQuantity: ptr(int64(50))},
		{ProductID: f.product, PhysicalQuantity: ptr(int64(50))},
	}
	err := f.svc.Create(ctx, adj)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)

	adj.Lines = adj.Lines[:1]
	require.NoError(t, f.svc.Create(ctx, adj))

	_, err = f.svc.ReplaceItems(ctx, adj.ID, []Line{
		{ProductID: f.product, PhysicalQuantity: ptr(int64(10))},
		{ProductID: f.product, PhysicalQuantity: ptr(int64(20))},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
}

func TestReplaceItemsOnlyInDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	d := f.receipt(5)
	require.NoError(t, f.svc.Create(ctx, d))

	updated, err := f.svc.ReplaceItems(ctx, d.ID, []Line{{ProductID: f.product, Quantity: 9}})
	require.NoError(t, err)
	assert.Equal(t, int64(9), updated.Lines[0].Quantity)

	require.NoError(t, f.repo.UpdateStatus(ctx, d.ID, entity.StatusReady))
	_, err = f.svc.ReplaceItems(ctx, d.ID, []Line{{ProductID: f.product, Quantity: 1}})
	assert.True(t, apperror.IsInvalidState(err), "got %v", err)
}

func TestUpdateFields(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	d := f.receipt(5)
	require.NoError(t, f.svc.Create(ctx, d))
	require.NoError(t, f.repo.UpdateStatus(ctx, d.ID, entity.StatusWaiting))

	updated, err := f.svc.UpdateFields(ctx, d.ID, Patch{Partner: ptr("Acme"), Notes: ptr("dock 4")})
	require.NoError(t, err)
	assert.Equal(t, "Acme", *updated.Partner)
	assert.Equal(t, "dock 4", *f.repo.docs[d.ID].Notes)
	assert.Len(t, f.repo.docs[d.ID].Lines, 1)
	assert.Contains(t, f.audit.actions, audit.ActionUpdate)

	_, err = f.svc.UpdateFields(ctx, d.ID, Patch{WarehouseID: &f.other})
	assert.True(t, apperror.IsInvalidState(err), "warehouse change outside draft: %v", err)

	require.NoError(t, f.repo.UpdateStatus(ctx, d.ID, entity.StatusCanceled))
	_, err = f.svc.UpdateFields(ctx, d.ID, Patch{Notes: ptr("late")})
	assert.True(t, apperror.IsInvalidState(err))
}

func TestDeleteRefusesDoneDocument(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	done := f.receipt(5)
	require.NoError(t, f.svc.Create(ctx, done))
	require.NoError(t, f.repo.UpdateStatus(ctx, done.ID, entity.StatusDone))
	assert.True(t, apperror.IsInvalidState(f.svc.Delete(ctx, done.ID)))

	draft := f.receipt(5)
	require.NoError(t, f.svc.Create(ctx, draft))
	require.NoError(t, f.svc.Delete(ctx, draft.ID))
	_, err := f.svc.Get(ctx, draft.ID)
	assert.True(t, apperror.IsNotFound(err))

	assert.Equal(t, events.DocumentDeleted, f.publisher.events[len(f.publisher.events)-1].EventType)
}
