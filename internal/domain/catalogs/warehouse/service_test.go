package warehouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	items      map[id.ID]*Warehouse
	referenced map[id.ID]bool
}

func (r *memRepo) Create(_ context.Context, w *Warehouse) error { r.items[w.ID] = w; return nil }
func (r *memRepo) Update(_ context.Context, w *Warehouse) error { r.items[w.ID] = w; return nil }
func (r *memRepo) Delete(_ context.Context, wid id.ID) error    { delete(r.items, wid); return nil }

func (r *memRepo) GetByID(_ context.Context, wid id.ID) (*Warehouse, error) {
	if w, ok := r.items[wid]; ok {
		return w, nil
	}
	return nil, apperror.NewNotFound("warehouse", wid)
}

func (r *memRepo) GetByKey(_ context.Context, code string) (*Warehouse, error) {
	for _, w := range r.items {
		if w.Code == code {
			return w, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse", code)
}

func (r *memRepo) List(context.Context, domain.ListFilter) (domain.ListResult[*Warehouse], error) {
	return domain.ListResult[*Warehouse]{}, nil
}

func (r *memRepo) Exists(_ context.Context, wid id.ID) (bool, error) {
	_, ok := r.items[wid]
	return ok, nil
}

func (r *memRepo) ExistsByKey(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByKey(ctx, code)
	return err == nil, nil
}

func (r *memRepo) IsReferenced(_ context.Context, wid id.ID) (bool, error) {
	return r.referenced[wid], nil
}

func newTestService() (*Service, *memRepo) {
	repo := &memRepo{items: map[id.ID]*Warehouse{}, referenced: map[id.ID]bool{}}
	return NewService(repo, fakeTx{}), repo
}

func TestCreateUppercasesCode(t *testing.T) {
	svc, _ := newTestService()

	wh := NewWarehouse(" wh-main ", "Main")
	require.NoError(t, svc.Create(context.Background(), wh))
	assert.Equal(t, "WH-MAIN", wh.Code)

	err := svc.Create(context.Background(), NewWarehouse("WH-MAIN", "Copy"))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestCreateRejectsBadCode(t *testing.T) {
	svc, _ := newTestService()

	err := svc.Create(context.Background(), NewWarehouse("main warehouse", "Main"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestDeleteReferencedWarehouse(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	wh := NewWarehouse("WH-2", "Second")
	require.NoError(t, svc.Create(ctx, wh))
	repo.referenced[wh.ID] = true

	err := svc.Delete(ctx, wh.ID)
	assert.True(t, apperror.IsInvalidState(err))

	err = svc.Delete(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}
