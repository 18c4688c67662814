package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/documents"
	"stockledger/internal/infrastructure/storage/postgres"
)

// --- Request DTOs ---

// DocumentItemRequest is one line of a create or replace request.
// Quantity is used by receipts, deliveries and transfers, PhysicalQuantity
// by adjustments. Both accept a JSON integer or a numeric string.
type DocumentItemRequest struct {
	ProductID        string           `json:"product_id" binding:"required"`
	Quantity         types.Quantity   `json:"quantity"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	PhysicalQuantity *types.Quantity  `json:"physical_quantity,omitempty"`
}

func toLines(items []DocumentItemRequest) ([]documents.Line, error) {
	lines := make([]documents.Line, len(items))
	for i, item := range items {
		productID, err := ParseID("product_id", item.ProductID)
		if err != nil {
			return nil, withLine(err, i+1)
		}
		lines[i] = documents.Line{
			ProductID:        productID,
			Quantity:         item.Quantity.Int64(),
			UnitPrice:        item.UnitPrice,
			PhysicalQuantity: item.PhysicalQuantity.Int64Ptr(),
		}
	}
	return lines, nil
}

func withLine(err error, lineNo int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("line_no", lineNo)
	}
	return err
}

// CreateDocumentRequest is the body of POST on every document kind.
// Supplier applies to receipts, Customer to deliveries, Reason to
// adjustments; transfers take the from/to warehouse pair.
type CreateDocumentRequest struct {
	WarehouseID     *string               `json:"warehouse_id"`
	FromWarehouseID *string               `json:"from_warehouse_id"`
	ToWarehouseID   *string               `json:"to_warehouse_id"`
	Supplier        *string               `json:"supplier"`
	Customer        *string               `json:"customer"`
	Reason          *string               `json:"reason"`
	Notes           *string               `json:"notes"`
	Items           []DocumentItemRequest `json:"items" binding:"dive"`
}

// ToEntity builds a draft document of kind owned by userID.
func (r *CreateDocumentRequest) ToEntity(kind documents.Kind, userID string) (*documents.Document, error) {
	doc := documents.NewDocument(kind, userID)

	var err error
	if kind == documents.KindTransfer {
		if doc.FromWarehouseID, err = ParseOptionalID("from_warehouse_id", r.FromWarehouseID); err != nil {
			return nil, err
		}
		if doc.ToWarehouseID, err = ParseOptionalID("to_warehouse_id", r.ToWarehouseID); err != nil {
			return nil, err
		}
	} else if doc.WarehouseID, err = ParseOptionalID("warehouse_id", r.WarehouseID); err != nil {
		return nil, err
	}

	doc.Partner = partnerOf(kind, r.Supplier, r.Customer)
	doc.Notes = notesOf(kind, r.Reason, r.Notes)

	if doc.Lines, err = toLines(r.Items); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDocumentRequest is the body of PUT /:id. Omitted fields keep their
// value. Status, when present, is applied through the ledger engine after
// the field changes.
type UpdateDocumentRequest struct {
	WarehouseID     *string               `json:"warehouse_id"`
	FromWarehouseID *string               `json:"from_warehouse_id"`
	ToWarehouseID   *string               `json:"to_warehouse_id"`
	Supplier        *string               `json:"supplier"`
	Customer        *string               `json:"customer"`
	Reason          *string               `json:"reason"`
	Notes           *string               `json:"notes"`
	Items           []DocumentItemRequest `json:"items" binding:"omitempty,dive"`
	Status          *string               `json:"status"`
}

// ToPatch converts the field changes for a document of kind.
func (r *UpdateDocumentRequest) ToPatch(kind documents.Kind) (documents.Patch, error) {
	var (
		patch documents.Patch
		err   error
	)

	if kind == documents.KindTransfer {
		if patch.FromWarehouseID, err = ParseOptionalID("from_warehouse_id", r.FromWarehouseID); err != nil {
			return patch, err
		}
		if patch.ToWarehouseID, err = ParseOptionalID("to_warehouse_id", r.ToWarehouseID); err != nil {
			return patch, err
		}
	} else if patch.WarehouseID, err = ParseOptionalID("warehouse_id", r.WarehouseID); err != nil {
		return patch, err
	}

	patch.Partner = partnerOf(kind, r.Supplier, r.Customer)
	patch.Notes = notesOf(kind, r.Reason, r.Notes)

	if r.Items != nil {
		if patch.Items, err = toLines(r.Items); err != nil {
			return patch, err
		}
	}
	return patch, nil
}

// TargetStatus returns the requested status, nil when none was sent.
func (r *UpdateDocumentRequest) TargetStatus() (*entity.Status, error) {
	if r.Status == nil || *r.Status == "" {
		return nil, nil
	}
	status, err := entity.ParseStatus(*r.Status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// HasFieldChanges reports whether anything other than status was sent.
func (r *UpdateDocumentRequest) HasFieldChanges() bool {
	return r.WarehouseID != nil || r.FromWarehouseID != nil || r.ToWarehouseID != nil ||
		r.Supplier != nil || r.Customer != nil || r.Reason != nil || r.Notes != nil ||
		r.Items != nil
}

// ReplaceItemsRequest is the body of PUT /:id/items.
type ReplaceItemsRequest struct {
	Items []DocumentItemRequest `json:"items" binding:"required,dive"`
}

// ToLines converts the items.
func (r *ReplaceItemsRequest) ToLines() ([]documents.Line, error) {
	return toLines(r.Items)
}

// TransitionRequest is the body of POST /:id/transition.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListDocumentsQuery holds the list query parameters.
type ListDocumentsQuery struct {
	PageRequest
	Status      string `form:"status"`
	WarehouseID string `form:"warehouse_id"`
	Search      string `form:"search"`
	OrderBy     string `form:"order_by"`
}

func partnerOf(kind documents.Kind, supplier, customer *string) *string {
	switch kind {
	case documents.KindReceipt:
		return supplier
	case documents.KindDelivery:
		return customer
	}
	return nil
}

func notesOf(kind documents.Kind, reason, notes *string) *string {
	if kind == documents.KindAdjustment && reason != nil {
		return reason
	}
	return notes
}

// --- Response DTOs ---

// DocumentItemResponse is one line of a document response.
type DocumentItemResponse struct {
	LineNo           int              `json:"line_no"`
	ProductID        string           `json:"product_id"`
	Quantity         int64            `json:"quantity,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	RecordedQuantity *int64           `json:"recorded_quantity,omitempty"`
	PhysicalQuantity *int64           `json:"physical_quantity,omitempty"`
	Difference       *int64           `json:"difference,omitempty"`
}

// DocumentResponse represents a movement document in API responses.
type DocumentResponse struct {
	ID              string                 `json:"id"`
	Kind            documents.Kind         `json:"kind"`
	Number          string                 `json:"number"`
	Status          entity.Status          `json:"status"`
	WarehouseID     *string                `json:"warehouse_id,omitempty"`
	FromWarehouseID *string                `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   *string                `json:"to_warehouse_id,omitempty"`
	Supplier        *string                `json:"supplier,omitempty"`
	Customer        *string                `json:"customer,omitempty"`
	Reason          *string                `json:"reason,omitempty"`
	Notes           *string                `json:"notes,omitempty"`
	UserID          *string                `json:"user_id,omitempty"`
	TotalAmount     *decimal.Decimal       `json:"total_amount,omitempty"`
	Items           []DocumentItemResponse `json:"items"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// FromDocument converts domain entity to response DTO.
func FromDocument(doc *documents.Document) *DocumentResponse {
	resp := &DocumentResponse{
		ID:        doc.ID.String(),
		Kind:      doc.Kind,
		Number:    doc.Number,
		Status:    doc.Status,
		UserID:    doc.UserID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}

	if doc.WarehouseID != nil {
		s := doc.WarehouseID.String()
		resp.WarehouseID = &s
	}
	if doc.FromWarehouseID != nil {
		s := doc.FromWarehouseID.String()
		resp.FromWarehouseID = &s
	}
	if doc.ToWarehouseID != nil {
		s := doc.ToWarehouseID.String()
		resp.ToWarehouseID = &s
	}

	switch doc.Kind {
	case documents.KindReceipt:
		resp.Supplier = doc.Partner
		total := doc.TotalAmount()
		resp.TotalAmount = &total
	case documents.KindDelivery:
		resp.Customer = doc.Partner
	case documents.KindAdjustment:
		resp.Reason = doc.Notes
	}
	if doc.Kind != documents.KindAdjustment {
		resp.Notes = doc.Notes
	}

	resp.Items = make([]DocumentItemResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		item := DocumentItemResponse{
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
		}
		if doc.Kind == documents.KindAdjustment {
			diff := line.Difference()
			item.RecordedQuantity = line.RecordedQuantity
			item.PhysicalQuantity = line.PhysicalQuantity
			item.Difference = &diff
		} else {
			item.Quantity = line.Quantity
		}
		if line.UnitPrice != nil {
			amount := line.Amount()
			item.UnitPrice = line.UnitPrice
			item.Amount = &amount
		}
		resp.Items[i] = item
	}

	return resp
}

// AuditEntryResponse is one entry of a document history.
type AuditEntryResponse struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	UserID    string          `json:"user_id,omitempty"`
	Changes   json.RawMessage `json:"changes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// FromAuditEntry converts a stored audit entry.
func FromAuditEntry(e postgres.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        e.ID.String(),
		Action:    string(e.Action),
		UserID:    e.UserID,
		Changes:   e.Changes,
		CreatedAt: e.CreatedAt,
	}
}
