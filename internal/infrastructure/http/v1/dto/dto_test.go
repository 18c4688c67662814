package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/documents"
)

func strPtr(s string) *string { return &s }
func qtyPtr(v int64) *types.Quantity {
	q := types.Quantity(v)
	return &q
}

func TestCreateDocumentRequest_Receipt(t *testing.T) {
	wh := id.New()
	product := id.New()
	price := decimal.RequireFromString("12.50")

	req := CreateDocumentRequest{
		WarehouseID: strPtr(wh.String()),
		Supplier:    strPtr("Acme"),
		Customer:    strPtr("ignored"),
		Notes:       strPtr("first delivery"),
		Items:       []DocumentItemRequest{{ProductID: product.String(), Quantity: 4, UnitPrice: &price}},
	}

	doc, err := req.ToEntity(documents.KindReceipt, "user-1")
	require.NoError(t, err)

	assert.Equal(t, documents.KindReceipt, doc.Kind)
	assert.Equal(t, entity.StatusDraft, doc.Status)
	assert.Equal(t, wh, *doc.WarehouseID)
	assert.Equal(t, "Acme", *doc.Partner)
	assert.Equal(t, "first delivery", *doc.Notes)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, product, doc.Lines[0].ProductID)
	assert.Equal(t, "user-1", *doc.UserID)

	resp := FromDocument(doc)
	assert.Equal(t, "Acme", *resp.Supplier)
	assert.Nil(t, resp.Customer)
	assert.True(t, decimal.RequireFromString("50").Equal(*resp.TotalAmount))
}

func TestCreateDocumentRequest_TransferIgnoresSingleWarehouse(t *testing.T) {
	from, to := id.New(), id.New()
	req := CreateDocumentRequest{
		WarehouseID:     strPtr("not-used"),
		FromWarehouseID: strPtr(from.String()),
		ToWarehouseID:   strPtr(to.String()),
		Items:           []DocumentItemRequest{{ProductID: id.New().String(), Quantity: 1}},
	}

	doc, err := req.ToEntity(documents.KindTransfer, "")
	require.NoError(t, err)
	assert.Nil(t, doc.WarehouseID)
	assert.Equal(t, from, *doc.FromWarehouseID)
	assert.Equal(t, to, *doc.ToWarehouseID)
	assert.Nil(t, doc.UserID)
}

func TestDocumentItemRequest_QuantityAsString(t *testing.T) {
	var req CreateDocumentRequest
	body := `{"warehouse_id":"` + id.New().String() + `","items":[` +
		`{"product_id":"` + id.New().String() + `","quantity":"5"},` +
		`{"product_id":"` + id.New().String() + `","physical_quantity":0}]}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	doc, err := req.ToEntity(documents.KindAdjustment, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), doc.Lines[0].Quantity)
	assert.Nil(t, doc.Lines[0].PhysicalQuantity)
	require.NotNil(t, doc.Lines[1].PhysicalQuantity)
	assert.Equal(t, int64(0), *doc.Lines[1].PhysicalQuantity)

	assert.Error(t, json.Unmarshal([]byte(`{"items":[{"product_id":"x","quantity":2.5}]}`), &req))
}

func TestDocumentResponse_SnakeCaseKeys(t *testing.T) {
	doc := documents.NewDocument(documents.KindReceipt, "")
	wh := id.New()
	doc.WarehouseID = &wh
	price := decimal.NewFromInt(2)
	doc.Lines = []documents.Line{{LineNo: 1, ProductID: id.New(), Quantity: 3, UnitPrice: &price}}

	raw, err := json.Marshal(FromDocument(doc))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Contains(t, out, "warehouse_id")
	assert.Contains(t, out, "total_amount")
	assert.Contains(t, out, "created_at")
	assert.NotContains(t, out, "warehouseId")

	line := out["items"].([]any)[0].(map[string]any)
	for _, key := range []string{"line_no", "product_id", "unit_price"} {
		assert.Contains(t, line, key)
	}
}

func TestCreateDocumentRequest_AdjustmentReason(t *testing.T) {
	req := CreateDocumentRequest{
		WarehouseID: strPtr(id.New().String()),
		Reason:      strPtr("cycle count"),
		Notes:       strPtr("overridden"),
		Items:       []DocumentItemRequest{{ProductID: id.New().String(), PhysicalQuantity: qtyPtr(50)}},
	}

	doc, err := req.ToEntity(documents.KindAdjustment, "")
	require.NoError(t, err)
	assert.Equal(t, "cycle count", *doc.Notes)

	recorded := int64(42)
	doc.Lines[0].RecordedQuantity = &recorded
	resp := FromDocument(doc)
	assert.Equal(t, "cycle count", *resp.Reason)
	assert.Nil(t, resp.Notes)
	assert.Equal(t, int64(8), *resp.Items[0].Difference)
}

func TestCreateDocumentRequest_InvalidProductID(t *testing.T) {
	req := CreateDocumentRequest{
		WarehouseID: strPtr(id.New().String()),
		Items: []DocumentItemRequest{
			{ProductID: id.New().String(), Quantity: 1},
			{ProductID: "bogus", Quantity: 1},
		},
	}

	_, err := req.ToEntity(documents.KindDelivery, "")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, 2, appErr.Details["line_no"])
}

func TestUpdateDocumentRequest(t *testing.T) {
	status := "done"
	req := UpdateDocumentRequest{Status: &status}

	assert.False(t, req.HasFieldChanges())
	target, err := req.TargetStatus()
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, *target)

	req.Customer = strPtr("Globex")
	patch, err := req.ToPatch(documents.KindDelivery)
	require.NoError(t, err)
	assert.True(t, req.HasFieldChanges())
	assert.Equal(t, "Globex", *patch.Partner)
	assert.Nil(t, patch.Items)

	bad := "shipped"
	_, err = (&UpdateDocumentRequest{Status: &bad}).TargetStatus()
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestLedgerQuery(t *testing.T) {
	product := id.New()
	q := LedgerQuery{
		ProductID:    product.String(),
		MovementType: "out",
		From:         "2026-01-01",
		To:           "2026-01-31",
	}
	q.Limit = 20

	filter, err := q.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, product, *filter.ProductID)
	assert.Equal(t, entity.MovementOut, *filter.MovementType)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *filter.From)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), *filter.To)
	assert.Equal(t, 20, filter.Limit)
	assert.Nil(t, filter.WarehouseID)
}

func TestLedgerQuery_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		query LedgerQuery
	}{
		{"movement type", LedgerQuery{MovementType: "sideways"}},
		{"product id", LedgerQuery{ProductID: "p1"}},
		{"date", LedgerQuery{From: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.query.ToFilter()
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}

func TestCreateProductRequest_InitialStock(t *testing.T) {
	req := CreateProductRequest{SKU: "SKU-1", Name: "Bolt"}
	stock, err := req.ToInitialStock()
	require.NoError(t, err)
	assert.Nil(t, stock)

	req.InitialStock = 10
	_, err = req.ToInitialStock()
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	wh := id.New()
	req.WarehouseID = strPtr(wh.String())
	stock, err = req.ToInitialStock()
	require.NoError(t, err)
	assert.Equal(t, wh, stock.WarehouseID)
	assert.Equal(t, int64(10), stock.Quantity)

	p := req.ToEntity()
	assert.Equal(t, "pcs", p.UnitOfMeasure)
}
