package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/stock"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// StockReader answers stock table queries.
type StockReader interface {
	Get(ctx context.Context, productID, warehouseID id.ID) (stock.Level, error)
	List(ctx context.Context, filter stock.BalanceFilter) (domain.ListResult[stock.Level], error)
}

// LedgerReader answers ledger queries and reconciliations.
type LedgerReader interface {
	Query(ctx context.Context, filter ledger.Filter) (domain.ListResult[ledger.Entry], error)
	Reconcile(ctx context.Context, key entity.StockKey) (ledger.Reconciliation, error)
}

// StockHandler serves the read-only stock and ledger endpoints.
type StockHandler struct {
	*BaseHandler
	stock  StockReader
	ledger LedgerReader
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, stock StockReader, ledger LedgerReader) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		stock:       stock,
		ledger:      ledger,
	}
}

// List handles GET /stock?product_id&warehouse_id.
func (h *StockHandler) List(c *gin.Context) {
	var q dto.StockQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.stock.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromStockLevel))
}

// Get handles GET /stock/:productId/:warehouseId. A pair never stocked
// reports quantity 0.
func (h *StockHandler) Get(c *gin.Context) {
	productID, ok := h.ParamID(c, "productId")
	if !ok {
		return
	}
	warehouseID, ok := h.ParamID(c, "warehouseId")
	if !ok {
		return
	}

	level, err := h.stock.Get(c.Request.Context(), productID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockLevel(level))
}

// Reconcile handles GET /stock/reconcile?product_id&warehouse_id.
func (h *StockHandler) Reconcile(c *gin.Context) {
	productID, err := dto.ParseID("product_id", c.Query("product_id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	warehouseID, err := dto.ParseID("warehouse_id", c.Query("warehouse_id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.ledger.Reconcile(c.Request.Context(), entity.StockKey{ProductID: productID, WarehouseID: warehouseID})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReconciliation(rec))
}

// Ledger handles GET /ledger.
func (h *StockHandler) Ledger(c *gin.Context) {
	var q dto.LedgerQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.ledger.Query(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromLedgerEntry))
}
