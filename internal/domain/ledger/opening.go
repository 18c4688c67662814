package ledger

import (
	"context"

	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents"
)

// OpeningStock books the initial quantity of a new product as a validated
// receipt, so it shows up in the ledger like any other movement.
type OpeningStock struct {
	docs   *documents.Service
	engine *Engine
}

// NewOpeningStock creates an opening stock receiver.
func NewOpeningStock(docs *documents.Service, engine *Engine) *OpeningStock {
	return &OpeningStock{docs: docs, engine: engine}
}

// ReceiveInitialStock creates a receipt for quantity and validates it.
func (o *OpeningStock) ReceiveInitialStock(ctx context.Context, productID, warehouseID id.ID, quantity int64) error {
	doc := documents.NewDocument(documents.KindReceipt, appctx.GetUserID(ctx))
	doc.WarehouseID = &warehouseID
	notes := "Initial stock"
	doc.Notes = &notes
	doc.Lines = []documents.Line{{ProductID: productID, Quantity: quantity}}

	if err := o.docs.Create(ctx, doc); err != nil {
		return err
	}
	_, err := o.engine.Validate(ctx, doc.ID)
	return err
}
