package dto

import (
	"time"

	"stockledger/internal/core/entity"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/stock"
)

// --- Stock ---

// StockQuery holds the stock list query parameters.
type StockQuery struct {
	PageRequest
	ProductID   string `form:"product_id"`
	WarehouseID string `form:"warehouse_id"`
	IncludeZero bool   `form:"include_zero"`
}

// ToFilter converts the query into a balance filter.
func (q *StockQuery) ToFilter() (stock.BalanceFilter, error) {
	filter := stock.BalanceFilter{
		IncludeZero: q.IncludeZero,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	var err error
	if filter.ProductID, err = ParseOptionalID("product_id", &q.ProductID); err != nil {
		return filter, err
	}
	if filter.WarehouseID, err = ParseOptionalID("warehouse_id", &q.WarehouseID); err != nil {
		return filter, err
	}
	return filter, nil
}

// StockLevelResponse represents one stock row in API responses.
type StockLevelResponse struct {
	ProductID     string     `json:"product_id"`
	WarehouseID   string     `json:"warehouse_id"`
	Quantity      int64      `json:"quantity"`
	SKU           string     `json:"sku,omitempty"`
	ProductName   string     `json:"product_name,omitempty"`
	ReorderLevel  int64      `json:"reorder_level"`
	WarehouseCode string     `json:"warehouse_code,omitempty"`
	WarehouseName string     `json:"warehouse_name,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// FromStockLevel converts a stock row to response DTO.
func FromStockLevel(l stock.Level) StockLevelResponse {
	resp := StockLevelResponse{
		ProductID:     l.ProductID.String(),
		WarehouseID:   l.WarehouseID.String(),
		Quantity:      l.Quantity,
		SKU:           l.SKU,
		ProductName:   l.ProductName,
		ReorderLevel:  l.ReorderLevel,
		WarehouseCode: l.WarehouseCode,
		WarehouseName: l.WarehouseName,
	}
	// A pair never written has a zero timestamp; omit it instead of
	// returning 0001-01-01.
	if !l.UpdatedAt.IsZero() {
		updated := l.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// ReconcileResponse compares a stock row with its ledger sum.
type ReconcileResponse struct {
	ProductID     string `json:"product_id"`
	WarehouseID   string `json:"warehouse_id"`
	StockQuantity int64  `json:"stock_quantity"`
	LedgerSum     int64  `json:"ledger_sum"`
	Consistent    bool   `json:"consistent"`
}

// FromReconciliation converts the engine result.
func FromReconciliation(r ledger.Reconciliation) ReconcileResponse {
	return ReconcileResponse{
		ProductID:     r.ProductID.String(),
		WarehouseID:   r.WarehouseID.String(),
		StockQuantity: r.StockQuantity,
		LedgerSum:     r.LedgerSum,
		Consistent:    r.Consistent,
	}
}

// --- Ledger ---

// LedgerQuery holds the ledger query parameters. From and To accept
// RFC 3339 timestamps or plain dates.
type LedgerQuery struct {
	PageRequest
	ProductID     string `form:"product_id"`
	WarehouseID   string `form:"warehouse_id"`
	MovementType  string `form:"movement_type"`
	ReferenceType string `form:"reference_type"`
	ReferenceID   string `form:"reference_id"`
	From          string `form:"from"`
	To            string `form:"to"`
}

// ToFilter converts the query into a ledger filter.
func (q *LedgerQuery) ToFilter() (ledger.Filter, error) {
	filter := ledger.Filter{Limit: q.Limit, Offset: q.Offset}

	var err error
	if filter.ProductID, err = ParseOptionalID("product_id", &q.ProductID); err != nil {
		return filter, err
	}
	if filter.WarehouseID, err = ParseOptionalID("warehouse_id", &q.WarehouseID); err != nil {
		return filter, err
	}
	if filter.ReferenceID, err = ParseOptionalID("reference_id", &q.ReferenceID); err != nil {
		return filter, err
	}

	switch entity.MovementType(q.MovementType) {
	case "":
	case entity.MovementIn, entity.MovementOut:
		mt := entity.MovementType(q.MovementType)
		filter.MovementType = &mt
	default:
		return filter, validationField("movement_type", "movement type must be in or out", q.MovementType)
	}

	if q.ReferenceType != "" {
		rt := q.ReferenceType
		filter.ReferenceType = &rt
	}

	if filter.From, err = parseTime("from", q.From, false); err != nil {
		return filter, err
	}
	if filter.To, err = parseTime("to", q.To, true); err != nil {
		return filter, err
	}
	return filter, nil
}

// LedgerEntryResponse represents a ledger row in API responses.
type LedgerEntryResponse struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"product_id"`
	SKU             *string   `json:"sku,omitempty"`
	ProductName     *string   `json:"product_name,omitempty"`
	WarehouseID     string    `json:"warehouse_id"`
	WarehouseName   *string   `json:"warehouse_name,omitempty"`
	MovementType    string    `json:"movement_type"`
	ReferenceType   string    `json:"reference_type"`
	ReferenceID     string    `json:"reference_id"`
	ReferenceNumber string    `json:"reference_number"`
	QuantityChange  int64     `json:"quantity_change"`
	QuantityAfter   int64     `json:"quantity_after"`
	UserID          *string   `json:"user_id,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// FromLedgerEntry converts a ledger entry to response DTO.
func FromLedgerEntry(e ledger.Entry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:              e.ID.String(),
		ProductID:       e.ProductID.String(),
		SKU:             e.SKU,
		ProductName:     e.ProductName,
		WarehouseID:     e.WarehouseID.String(),
		WarehouseName:   e.WarehouseName,
		MovementType:    string(e.MovementType),
		ReferenceType:   e.ReferenceType,
		ReferenceID:     e.ReferenceID.String(),
		ReferenceNumber: e.ReferenceNumber,
		QuantityChange:  e.QuantityChange,
		QuantityAfter:   e.QuantityAfter,
		UserID:          e.UserID,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
	}
}
