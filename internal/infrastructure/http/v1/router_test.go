package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/category"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/stock"
	"stockledger/pkg/logger"
)

type tokenValidator struct{}

func (tokenValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &appctx.UserContext{UserID: id.New().String(), LoginID: "alice"}, nil
}

type stubStock struct {
	levels map[entity.StockKey]int64
}

func (s *stubStock) Get(_ context.Context, productID, warehouseID id.ID) (stock.Level, error) {
	key := entity.StockKey{ProductID: productID, WarehouseID: warehouseID}
	return stock.Level{StockKey: key, Quantity: s.levels[key]}, nil
}

func (s *stubStock) List(_ context.Context, filter stock.BalanceFilter) (domain.ListResult[stock.Level], error) {
	var items []stock.Level
	for key, qty := range s.levels {
		items = append(items, stock.Level{StockKey: key, Quantity: qty})
	}
	return domain.ListResult[stock.Level]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit}, nil
}

type stubLedger struct {
	sums map[entity.StockKey]int64
}

func (l *stubLedger) Query(_ context.Context, filter ledger.Filter) (domain.ListResult[ledger.Entry], error) {
	return domain.ListResult[ledger.Entry]{Items: []ledger.Entry{}, Limit: filter.Limit}, nil
}

func (l *stubLedger) Reconcile(_ context.Context, key entity.StockKey) (ledger.Reconciliation, error) {
	sum := l.sums[key]
	return ledger.Reconciliation{StockKey: key, StockQuantity: sum, LedgerSum: sum, Consistent: true}, nil
}

type stubProducts struct {
	item *product.Product
}

func (s *stubProducts) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{Items: []*product.Product{s.item}, TotalCount: 1, Limit: filter.Limit}, nil
}

func (s *stubProducts) GetByID(_ context.Context, pid id.ID) (*product.Product, error) {
	if pid != s.item.ID {
		return nil, apperror.NewNotFound("product", pid)
	}
	return s.item, nil
}

func (s *stubProducts) Create(context.Context, *product.Product) error { return nil }
func (s *stubProducts) Update(context.Context, *product.Product) error { return nil }
func (s *stubProducts) Delete(context.Context, id.ID) error            { return nil }

func (s *stubProducts) CreateWithStock(context.Context, *product.Product, *product.InitialStock) error {
	return nil
}

type stubCategories struct{}

func (stubCategories) Create(_ context.Context, name string, description *string) (*category.Category, error) {
	return category.New(name, description), nil
}

func (stubCategories) List(context.Context) ([]category.Category, error) {
	return []category.Category{{Name: "tools", ProductCount: 1}}, nil
}

func newTestRouter() (http.Handler, entity.StockKey) {
	key := entity.StockKey{ProductID: id.New(), WarehouseID: id.New()}
	router := NewRouter(RouterConfig{
		Logger:       logger.NewFromZap(zap.NewNop()),
		JWTValidator: tokenValidator{},
		Stock:        &stubStock{levels: map[entity.StockKey]int64{key: 40}},
		Ledger:       &stubLedger{sums: map[entity.StockKey]int64{key: 40}},
	})
	return router, key
}

func get(h http.Handler, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	router, _ := newTestRouter()

	w, body := get(router, "/api/v1/stock", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, body["code"])

	w, _ = get(router, "/api/v1/stock", "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = get(router, "/api/v1/stock", "good")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, body["total_count"])
}

func TestRouter_StockRoutes(t *testing.T) {
	router, key := newTestRouter()

	w, body := get(router, "/api/v1/stock/"+key.ProductID.String()+"/"+key.WarehouseID.String(), "good")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 40, body["quantity"])

	w, body = get(router, "/api/v1/stock/reconcile?product_id="+key.ProductID.String()+"&warehouse_id="+key.WarehouseID.String(), "good")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["consistent"])
	assert.EqualValues(t, 40, body["ledger_sum"])

	w, _ = get(router, "/api/v1/stock/reconcile?product_id=x", "good")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = get(router, "/api/v1/ledger?limit=10", "good")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_UnconfiguredServicesAreNotRouted(t *testing.T) {
	router, _ := newTestRouter()

	w, _ := get(router, "/api/v1/receipts", "good")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = get(router, "/health", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CategoryListAndProductByID(t *testing.T) {
	p := product.NewProduct("BOLT-1", "Bolt")
	router := NewRouter(RouterConfig{
		Logger:       logger.NewFromZap(zap.NewNop()),
		JWTValidator: tokenValidator{},
		Products:     &stubProducts{item: p},
		Categories:   stubCategories{},
	})

	w, body := get(router, "/api/v1/products/categories/list", "good")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, body["items"], 1)

	w, body = get(router, "/api/v1/products/"+p.ID.String(), "good")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "BOLT-1", body["sku"])

	w, body = get(router, "/api/v1/products/"+id.New().String(), "good")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, body["code"])
}
