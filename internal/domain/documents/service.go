package documents

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/events"
	"stockledger/pkg/logger"
)

// Service is the document store: creation, editing and deletion of
// pending documents. Status changes go through the ledger engine.
type Service struct {
	repo      Repository
	refs      References
	stock     StockReader
	numerator numerator.Generator
	txManager tx.Manager
	publisher events.Publisher
	audit     audit.Logger
	now       func() time.Time
}

// Config wires the service dependencies. Publisher and Audit default to no-ops.
type Config struct {
	Repo      Repository
	Refs      References
	Stock     StockReader
	Numerator numerator.Generator
	TxManager tx.Manager
	Publisher events.Publisher
	Audit     audit.Logger
}

// NewService creates a new document service.
func NewService(cfg Config) *Service {
	s := &Service{
		repo:      cfg.Repo,
		refs:      cfg.Refs,
		stock:     cfg.Stock,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		publisher: cfg.Publisher,
		audit:     cfg.Audit,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.audit == nil {
		s.audit = audit.NopLogger{}
	}
	return s
}

// Create validates the document, numbers it and stores it as a draft.
// The number is allocated inside the same transaction, so a failed create
// does not consume it.
func (s *Service) Create(ctx context.Context, doc *Document) error {
	doc.Status = entity.StatusDraft
	doc.SetLines(doc.Lines)

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkReferences(ctx, doc.Warehouses(), doc.ProductIDs()); err != nil {
			return err
		}

		if doc.Kind == KindAdjustment {
			if err := s.snapshotRecorded(ctx, doc); err != nil {
				return err
			}
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(doc.Kind.Prefix()), s.now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}

		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		if err := s.publish(ctx, doc, events.DocumentCreated, map[string]any{"number": doc.Number}); err != nil {
			return err
		}

		return s.audit.LogChange(ctx, string(doc.Kind), doc.ID, audit.ActionCreate, doc.auditState())
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "document created",
		"kind", doc.Kind,
		"id", doc.ID.String(),
		"number", doc.Number,
		"lines", len(doc.Lines))

	return nil
}

// Get retrieves a document with lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*Document, error) {
	return s.repo.GetByID(ctx, docID)
}

// List returns documents newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	return s.repo.List(ctx, filter)
}

// ReplaceItems replaces all lines of a draft document.
func (s *Service) ReplaceItems(ctx context.Context, docID id.ID, lines []Line) (*Document, error) {
	var doc *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if doc.Status != entity.StatusDraft {
			return apperror.NewInvalidState(string(doc.Kind), doc.ID.String(), string(doc.Status), "replace items of")
		}

		before := doc.auditState()
		doc.SetLines(lines)
		if err := doc.Validate(ctx); err != nil {
			return err
		}

		return s.saveEdited(ctx, doc, before, nil, true)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Patch holds optional header changes. Nil fields are left unchanged.
type Patch struct {
	Partner         *string
	Notes           *string
	WarehouseID     *id.ID
	FromWarehouseID *id.ID
	ToWarehouseID   *id.ID

	// Items replaces the lines when non-nil (draft only)
	Items []Line
}

func (p Patch) touchesStructure() bool {
	return p.WarehouseID != nil || p.FromWarehouseID != nil || p.ToWarehouseID != nil || p.Items != nil
}

// UpdateFields merges the patch into a pending document. Warehouses and
// items can only change while the document is a draft.
func (s *Service) UpdateFields(ctx context.Context, docID id.ID, patch Patch) (*Document, error) {
	var doc *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if !doc.IsEditable() {
			return apperror.NewInvalidState(string(doc.Kind), doc.ID.String(), string(doc.Status), "update")
		}
		if patch.touchesStructure() && doc.Status != entity.StatusDraft {
			return apperror.NewInvalidState(string(doc.Kind), doc.ID.String(), string(doc.Status), "change warehouses or items of")
		}

		before := doc.auditState()

		if patch.Partner != nil {
			doc.Partner = patch.Partner
		}
		if patch.Notes != nil {
			doc.Notes = patch.Notes
		}
		if patch.WarehouseID != nil {
			doc.WarehouseID = patch.WarehouseID
		}
		if patch.FromWarehouseID != nil {
			doc.FromWarehouseID = patch.FromWarehouseID
		}
		if patch.ToWarehouseID != nil {
			doc.ToWarehouseID = patch.ToWarehouseID
		}
		if patch.Items != nil {
			doc.SetLines(patch.Items)
		}

		if err := doc.Validate(ctx); err != nil {
			return err
		}

		var warehouses []id.ID
		if patch.WarehouseID != nil || patch.FromWarehouseID != nil || patch.ToWarehouseID != nil {
			warehouses = doc.Warehouses()
		}
		return s.saveEdited(ctx, doc, before, warehouses, patch.touchesStructure())
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// saveEdited checks references, re-snapshots adjustments and writes the
// header and, when linesChanged, the lines.
func (s *Service) saveEdited(ctx context.Context, doc *Document, before map[string]any, warehouses []id.ID, linesChanged bool) error {
	var products []id.ID
	if linesChanged {
		products = doc.ProductIDs()
	}
	if err := s.checkReferences(ctx, warehouses, products); err != nil {
		return err
	}

	if linesChanged && doc.Kind == KindAdjustment {
		if err := s.snapshotRecorded(ctx, doc); err != nil {
			return err
		}
	}

	doc.Touch()
	if err := s.repo.UpdateHeader(ctx, doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	if linesChanged {
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
	}

	changes := audit.Diff(before, doc.auditState())
	if len(changes) == 0 {
		return nil
	}
	return s.audit.LogChange(ctx, string(doc.Kind), doc.ID, audit.ActionUpdate, changes)
}

// Delete removes a document that has not been validated.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if doc.Status == entity.StatusDone {
			return apperror.NewInvalidState(string(doc.Kind), doc.ID.String(), string(doc.Status), "delete")
		}

		if err := s.repo.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}

		if err := s.publish(ctx, doc, events.DocumentDeleted, map[string]any{"number": doc.Number}); err != nil {
			return err
		}

		return s.audit.LogChange(ctx, string(doc.Kind), doc.ID, audit.ActionDelete, doc.auditState())
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "document deleted", "id", docID.String())
	return nil
}

// checkReferences maps missing warehouses or products to validation errors.
func (s *Service) checkReferences(ctx context.Context, warehouses, products []id.ID) error {
	if len(warehouses) > 0 {
		missing, err := s.refs.MissingWarehouses(ctx, warehouses)
		if err != nil {
			return fmt.Errorf("check warehouses: %w", err)
		}
		if len(missing) > 0 {
			return apperror.NewValidation("warehouse not found").
				WithDetail("field", "warehouse_id").
				WithDetail("ids", idStrings(missing))
		}
	}

	if len(products) > 0 {
		missing, err := s.refs.MissingProducts(ctx, products)
		if err != nil {
			return fmt.Errorf("check products: %w", err)
		}
		if len(missing) > 0 {
			return apperror.NewValidation("product not found").
				WithDetail("field", "items").
				WithDetail("ids", idStrings(missing))
		}
	}

	return nil
}

// snapshotRecorded copies the current stock of each adjustment line into
// its recorded quantity.
func (s *Service) snapshotRecorded(ctx context.Context, doc *Document) error {
	keys := make([]entity.StockKey, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		keys = append(keys, entity.StockKey{ProductID: l.ProductID, WarehouseID: *doc.WarehouseID})
	}

	quantities, err := s.stock.Quantities(ctx, keys)
	if err != nil {
		return fmt.Errorf("read stock: %w", err)
	}

	for i := range doc.Lines {
		q := quantities[keys[i]]
		doc.Lines[i].RecordedQuantity = &q
	}
	return nil
}

func (s *Service) publish(ctx context.Context, doc *Document, eventType string, payload map[string]any) error {
	payload["kind"] = doc.Kind
	payload["status"] = doc.Status
	return s.publisher.Publish(ctx, events.Event{
		AggregateType: string(doc.Kind),
		AggregateID:   doc.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

func (d *Document) auditState() map[string]any {
	state := map[string]any{
		"number": d.Number,
		"status": string(d.Status),
		"lines":  d.Lines,
	}
	if d.WarehouseID != nil {
		state["warehouse_id"] = d.WarehouseID.String()
	}
	if d.FromWarehouseID != nil {
		state["from_warehouse_id"] = d.FromWarehouseID.String()
	}
	if d.ToWarehouseID != nil {
		state["to_warehouse_id"] = d.ToWarehouseID.String()
	}
	if d.Partner != nil {
		state["partner"] = *d.Partner
	}
	if d.Notes != nil {
		state["notes"] = *d.Notes
	}
	return state
}

func idStrings(ids []id.ID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}
