// Package documents provides the movement documents (receipts, deliveries,
// transfers and adjustments) and their line items.
//
// Documents are edited freely while pending. Stock is only touched by the
// ledger engine when a document is validated.
package documents

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Kind is the document type.
type Kind string

const (
	KindReceipt    Kind = "receipt"
	KindDelivery   Kind = "delivery"
	KindTransfer   Kind = "transfer"
	KindAdjustment Kind = "adjustment"
)

// Kinds lists every document kind.
var Kinds = []Kind{KindReceipt, KindDelivery, KindTransfer, KindAdjustment}

// ParseKind validates a raw kind value.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	switch k {
	case KindReceipt, KindDelivery, KindTransfer, KindAdjustment:
		return k, nil
	}
	return "", apperror.NewValidation("unknown document kind").
		WithDetail("field", "kind").
		WithDetail("value", s)
}

// Prefix returns the numbering prefix of the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindReceipt:
		return "REC"
	case KindDelivery:
		return "DEL"
	case KindTransfer:
		return "TRF"
	default:
		return "ADJ"
	}
}

// Document is a movement document with its lines.
type Document struct {
	entity.Document

	Kind Kind `db:"kind" json:"kind"`

	// WarehouseID is set for receipts, deliveries and adjustments
	WarehouseID *id.ID `db:"warehouse_id" json:"warehouse_id,omitempty"`

	// FromWarehouseID and ToWarehouseID are set for transfers
	FromWarehouseID *id.ID `db:"from_warehouse_id" json:"from_warehouse_id,omitempty"`
	ToWarehouseID   *id.ID `db:"to_warehouse_id" json:"to_warehouse_id,omitempty"`

	// Partner is the supplier of a receipt or the customer of a delivery
	Partner *string `db:"partner" json:"partner,omitempty"`

	// Notes is free text; for adjustments it holds the reason
	Notes *string `db:"notes" json:"notes,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one item of a document.
type Line struct {
	LineNo    int   `db:"line_no" json:"line_no"`
	ProductID id.ID `db:"product_id" json:"product_id"`

	// Quantity of receipt, delivery and transfer lines
	Quantity int64 `db:"quantity" json:"quantity"`

	// UnitPrice is only used by receipts
	UnitPrice *decimal.Decimal `db:"unit_price" json:"unit_price,omitempty"`

	// RecordedQuantity is the stock snapshot taken when an adjustment line
	// was written; PhysicalQuantity is the counted amount.
	RecordedQuantity *int64 `db:"recorded_quantity" json:"recorded_quantity,omitempty"`
	PhysicalQuantity *int64 `db:"physical_quantity" json:"physical_quantity,omitempty"`
}

// Difference returns physical - recorded for adjustment lines.
func (l Line) Difference() int64 {
	var recorded, physical int64
	if l.RecordedQuantity != nil {
		recorded = *l.RecordedQuantity
	}
	if l.PhysicalQuantity != nil {
		physical = *l.PhysicalQuantity
	}
	return physical - recorded
}

// Amount returns unit price * quantity, zero without a price.
func (l Line) Amount() decimal.Decimal {
	if l.UnitPrice == nil {
		return decimal.Zero
	}
	return types.LineAmount(*l.UnitPrice, types.Quantity(l.Quantity))
}

// NewDocument creates a draft document of the given kind.
func NewDocument(kind Kind, userID string) *Document {
	return &Document{
		Document: entity.NewDocument(userID),
		Kind:     kind,
		Lines:    make([]Line, 0),
	}
}

// SetLines replaces the lines and renumbers them from 1.
func (d *Document) SetLines(lines []Line) {
	d.Lines = make([]Line, len(lines))
	for i, l := range lines {
		l.LineNo = i + 1
		d.Lines[i] = l
	}
}

// TotalAmount sums the line amounts of a receipt.
func (d *Document) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.Amount())
	}
	return total
}

// Warehouses returns every warehouse the document refers to.
func (d *Document) Warehouses() []id.ID {
	var out []id.ID
	for _, w := range []*id.ID{d.WarehouseID, d.FromWarehouseID, d.ToWarehouseID} {
		if w != nil {
			out = append(out, *w)
		}
	}
	return out
}

// ProductIDs returns the distinct products of the lines.
func (d *Document) ProductIDs() []id.ID {
	seen := make(map[id.ID]struct{}, len(d.Lines))
	out := make([]id.ID, 0, len(d.Lines))
	for _, l := range d.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		out = append(out, l.ProductID)
	}
	return out
}

// Validate checks the shape of the document without database access.
func (d *Document) Validate(ctx context.Context) error {
	if _, err := ParseKind(string(d.Kind)); err != nil {
		return err
	}

	if d.Kind == KindTransfer {
		if d.FromWarehouseID == nil || id.IsNil(*d.FromWarehouseID) {
			return apperror.NewValidation("source warehouse is required").
				WithDetail("field", "from_warehouse_id")
		}
		if d.ToWarehouseID == nil || id.IsNil(*d.ToWarehouseID) {
			return apperror.NewValidation("destination warehouse is required").
				WithDetail("field", "to_warehouse_id")
		}
		if *d.FromWarehouseID == *d.ToWarehouseID {
			return apperror.NewValidation("source and destination warehouse must differ").
				WithDetail("field", "to_warehouse_id")
		}
	} else if d.WarehouseID == nil || id.IsNil(*d.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouse_id")
	}

	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	seen := make(map[id.ID]struct{}, len(d.Lines))
	for _, line := range d.Lines {
		if err := d.validateLine(line); err != nil {
			return err
		}
		// Each counted product has one recorded snapshot.
		if d.Kind == KindAdjustment {
			if _, dup := seen[line.ProductID]; dup {
				return apperror.NewValidation("product is listed more than once").
					WithDetail("field", "items").
					WithDetail("line_no", line.LineNo).
					WithDetail("product_id", line.ProductID.String())
			}
			seen[line.ProductID] = struct{}{}
		}
	}

	return nil
}

// maxUnitPrice is the first value that does not fit NUMERIC(10,2).
var maxUnitPrice = decimal.New(1, 8)

func (d *Document) validateLine(line Line) error {
	if id.IsNil(line.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "items").
			WithDetail("line_no", line.LineNo)
	}

	if d.Kind == KindAdjustment {
		if line.PhysicalQuantity == nil || *line.PhysicalQuantity < 0 {
			return apperror.NewValidation("physical quantity must be zero or more").
				WithDetail("field", "items").
				WithDetail("line_no", line.LineNo)
		}
		return nil
	}

	if line.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "items").
			WithDetail("line_no", line.LineNo)
	}

	if line.UnitPrice != nil {
		if d.Kind != KindReceipt {
			return apperror.NewValidation("unit price is only allowed on receipts").
				WithDetail("field", "items").
				WithDetail("line_no", line.LineNo)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "items").
				WithDetail("line_no", line.LineNo)
		}
		if !line.UnitPrice.Equal(line.UnitPrice.Round(2)) {
			return apperror.NewValidation("unit price has more than 2 decimal places").
				WithDetail("field", "items").
				WithDetail("line_no", line.LineNo)
		}
		if line.UnitPrice.GreaterThanOrEqual(maxUnitPrice) {
			return apperror.NewValidation("unit price is too large").
				WithDetail("field", "items").
				WithDetail("line_no", line.LineNo).
				WithDetail("max", "99999999.99")
		}
	}

	return nil
}

// Deltas returns the stock changes applying the document would cause, one
// per line and warehouse, in line order. Adjustment lines with no
// difference produce no delta.
func (d *Document) Deltas() []entity.StockDelta {
	deltas := make([]entity.StockDelta, 0, len(d.Lines)*2)

	for _, l := range d.Lines {
		switch d.Kind {
		case KindReceipt:
			deltas = append(deltas, delta(l.ProductID, *d.WarehouseID, l.Quantity, "Receipt validated"))
		case KindDelivery:
			deltas = append(deltas, delta(l.ProductID, *d.WarehouseID, -l.Quantity, "Delivery validated"))
		case KindTransfer:
			deltas = append(deltas,
				delta(l.ProductID, *d.FromWarehouseID, -l.Quantity, "Transfer to warehouse "+d.ToWarehouseID.String()),
				delta(l.ProductID, *d.ToWarehouseID, l.Quantity, "Transfer from warehouse "+d.FromWarehouseID.String()),
			)
		case KindAdjustment:
			if diff := l.Difference(); diff != 0 {
				deltas = append(deltas, delta(l.ProductID, *d.WarehouseID, diff, d.AdjustmentReason()))
			}
		}
	}

	return deltas
}

// AdjustmentReason returns the ledger note of an adjustment.
func (d *Document) AdjustmentReason() string {
	if d.Notes != nil && strings.TrimSpace(*d.Notes) != "" {
		return *d.Notes
	}
	return "Stock adjustment"
}

func delta(productID, warehouseID id.ID, change int64, notes string) entity.StockDelta {
	return entity.StockDelta{
		StockKey: entity.StockKey{ProductID: productID, WarehouseID: warehouseID},
		Change:   change,
		Notes:    notes,
	}
}
