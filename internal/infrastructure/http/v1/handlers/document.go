package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/documents"
	"stockledger/internal/infrastructure/http/v1/dto"
	"stockledger/internal/infrastructure/storage/postgres"
)

// DocumentService is the document store used by DocumentHandler.
type DocumentService interface {
	Create(ctx context.Context, doc *documents.Document) error
	Get(ctx context.Context, docID id.ID) (*documents.Document, error)
	List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*documents.Document], error)
	ReplaceItems(ctx context.Context, docID id.ID, lines []documents.Line) (*documents.Document, error)
	UpdateFields(ctx context.Context, docID id.ID, patch documents.Patch) (*documents.Document, error)
	Delete(ctx context.Context, docID id.ID) error
}

// Transitioner changes document status; moving to done applies stock.
type Transitioner interface {
	Transition(ctx context.Context, docID id.ID, target entity.Status) (*documents.Document, error)
}

// HistoryReader returns the audit trail of an entity, newest first.
type HistoryReader interface {
	GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// DocumentHandler serves one document kind. Every route checks that the
// addressed document is of that kind, so /receipts/:id never returns a
// delivery.
type DocumentHandler struct {
	*BaseHandler
	kind    documents.Kind
	docs    DocumentService
	engine  Transitioner
	history HistoryReader
}

// NewDocumentHandler creates a handler for documents of kind.
func NewDocumentHandler(base *BaseHandler, kind documents.Kind, docs DocumentService, engine Transitioner) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: base,
		kind:        kind,
		docs:        docs,
		engine:      engine,
	}
}

// WithHistory enables GET /:id/history.
func (h *DocumentHandler) WithHistory(history HistoryReader) *DocumentHandler {
	h.history = history
	return h
}

// List handles GET / with status, warehouse_id and search filters.
func (h *DocumentHandler) List(c *gin.Context) {
	var q dto.ListDocumentsQuery
	if !h.BindQuery(c, &q) {
		return
	}

	kind := h.kind
	filter := documents.ListFilter{Kind: &kind}
	filter.Search = q.Search
	filter.OrderBy = q.OrderBy
	filter.Limit = q.Limit
	filter.Offset = q.Offset

	if q.Status != "" {
		status, err := entity.ParseStatus(q.Status)
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.Status = &status
	}

	warehouseID, err := dto.ParseOptionalID("warehouse_id", &q.WarehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	filter.WarehouseID = warehouseID

	result, err := h.docs.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromDocument))
}

// Create handles POST /.
func (h *DocumentHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := req.ToEntity(h.kind, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.docs.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromDocument(doc))
}

// Get handles GET /:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	h.OK(c, dto.FromDocument(doc))
}

// Update handles PUT /:id. Field changes are saved first; a status in the
// body is then handed to the ledger engine, so "status": "done" validates
// the document. A repeated done or canceled always reaches the engine and
// fails there; repeating an open status alongside field edits is a no-op.
func (h *DocumentHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	target, err := req.TargetStatus()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, ok := h.load(c)
	if !ok {
		return
	}

	if req.HasFieldChanges() {
		patch, err := req.ToPatch(h.kind)
		if err != nil {
			h.Error(c, err)
			return
		}
		if doc, err = h.docs.UpdateFields(ctx, doc.ID, patch); err != nil {
			h.Error(c, err)
			return
		}
	}

	if target != nil && (*target != doc.Status || target.IsTerminal()) {
		if doc, err = h.engine.Transition(ctx, doc.ID, *target); err != nil {
			h.Error(c, err)
			return
		}
	}

	h.OK(c, dto.FromDocument(doc))
}

// ReplaceItems handles PUT /:id/items.
func (h *DocumentHandler) ReplaceItems(c *gin.Context) {
	var req dto.ReplaceItemsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := req.ToLines()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, ok := h.load(c)
	if !ok {
		return
	}

	if doc, err = h.docs.ReplaceItems(c.Request.Context(), doc.ID, lines); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDocument(doc))
}

// Transition handles POST /:id/transition.
func (h *DocumentHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	target, err := entity.ParseStatus(req.Status)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, ok := h.load(c)
	if !ok {
		return
	}

	if doc, err = h.engine.Transition(c.Request.Context(), doc.ID, target); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDocument(doc))
}

// Delete handles DELETE /:id.
func (h *DocumentHandler) Delete(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}

	if err := h.docs.Delete(c.Request.Context(), doc.ID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// History handles GET /:id/history?limit.
func (h *DocumentHandler) History(c *gin.Context) {
	if h.history == nil {
		h.Error(c, apperror.NewNotFound("history", c.Param("id")))
		return
	}

	doc, ok := h.load(c)
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	entries, err := h.history.GetEntityHistory(c.Request.Context(), string(doc.Kind), doc.ID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.FromAuditEntry(e)
	}
	h.OK(c, out)
}

// load fetches the :id document and checks its kind.
func (h *DocumentHandler) load(c *gin.Context) (*documents.Document, bool) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return nil, false
	}

	doc, err := h.docs.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}

	if doc.Kind != h.kind {
		h.Error(c, apperror.NewNotFound(string(h.kind), docID.String()))
		return nil, false
	}
	return doc, true
}
