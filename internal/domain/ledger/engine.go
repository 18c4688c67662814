package ledger

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/events"
	"stockledger/internal/domain/stock"
	"stockledger/pkg/logger"
)

// AdjustmentMode selects how adjustment documents change stock.
type AdjustmentMode string

const (
	// ModeSnapshot applies physical - recorded, recorded being the stock
	// seen when the line was written.
	ModeSnapshot AdjustmentMode = "snapshot"

	// ModeAbsolute sets stock to the physical count and records the
	// difference to live stock.
	ModeAbsolute AdjustmentMode = "absolute"
)

// Engine moves documents through their lifecycle and, on validation,
// applies their stock changes and appends the ledger entries in one
// transaction.
type Engine struct {
	docs      DocumentStore
	stock     stock.Repository
	ledger    Repository
	txManager tx.ReadOnlyManager
	publisher events.Publisher
	audit     audit.Logger
	mode      AdjustmentMode
	now       func() time.Time
}

// Config wires the engine. Publisher and Audit default to no-ops, Mode to
// ModeSnapshot.
type Config struct {
	Documents DocumentStore
	Stock     stock.Repository
	Ledger    Repository
	TxManager tx.ReadOnlyManager
	Publisher events.Publisher
	Audit     audit.Logger
	Mode      AdjustmentMode
}

// NewEngine creates a new ledger engine.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		docs:      cfg.Documents,
		stock:     cfg.Stock,
		ledger:    cfg.Ledger,
		txManager: cfg.TxManager,
		publisher: cfg.Publisher,
		audit:     cfg.Audit,
		mode:      cfg.Mode,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if e.publisher == nil {
		e.publisher = events.NopPublisher{}
	}
	if e.audit == nil {
		e.audit = audit.NopLogger{}
	}
	if e.mode == "" {
		e.mode = ModeSnapshot
	}
	return e
}

// Transition moves the document to target.
//
// The document row is locked first, so of two concurrent validations the
// second waits and then fails with AlreadyApplied. Moving to done applies
// the stock deltas; any error rolls back stock, ledger and status together.
func (e *Engine) Transition(ctx context.Context, docID id.ID, target entity.Status) (*documents.Document, error) {
	var (
		doc     *documents.Document
		from    entity.Status
		entries []Entry
	)

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = e.docs.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if err := doc.CheckTransition(string(doc.Kind), target); err != nil {
			return err
		}
		from = doc.Status

		if target == entity.StatusDone {
			entries, err = e.apply(ctx, doc)
			if err != nil {
				return err
			}
		}

		if err := e.docs.UpdateStatus(ctx, doc.ID, target); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		doc.Status = target
		doc.UpdatedAt = e.now()

		return e.record(ctx, doc, from, len(entries))
	})
	if err != nil {
		if apperror.IsInsufficientStock(err) || apperror.IsAlreadyApplied(err) {
			logger.Warn(ctx, "document transition refused",
				"id", docID.String(), "target", target, "error", err)
		}
		return nil, err
	}

	logger.Info(ctx, "document transitioned",
		"kind", doc.Kind,
		"id", doc.ID.String(),
		"number", doc.Number,
		"from", from,
		"to", target,
		"ledger_entries", len(entries))

	return doc, nil
}

// Validate is Transition(docID, done).
func (e *Engine) Validate(ctx context.Context, docID id.ID) (*documents.Document, error) {
	return e.Transition(ctx, docID, entity.StatusDone)
}

// apply changes stock for every delta of doc and appends the ledger rows.
func (e *Engine) apply(ctx context.Context, doc *documents.Document) ([]Entry, error) {
	if doc.Kind == documents.KindAdjustment && e.mode == ModeAbsolute {
		return e.applyAbsolute(ctx, doc)
	}

	deltas := doc.Deltas()
	if len(deltas) == 0 {
		return nil, nil
	}

	keys := make([]entity.StockKey, len(deltas))
	for i, d := range deltas {
		keys[i] = d.StockKey
	}

	balances, err := e.stock.LockForUpdate(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("lock stock: %w", err)
	}

	if err := checkAvailability(balances, deltas); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(deltas))
	for _, d := range deltas {
		after, err := e.stock.ApplyDelta(ctx, d.StockKey, d.Change)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e.newEntry(ctx, doc, d, after))
	}

	if err := e.ledger.Append(ctx, entries); err != nil {
		return nil, fmt.Errorf("append ledger: %w", err)
	}
	return entries, nil
}

// applyAbsolute forces each adjustment line to its physical count.
func (e *Engine) applyAbsolute(ctx context.Context, doc *documents.Document) ([]Entry, error) {
	keys := make([]entity.StockKey, len(doc.Lines))
	for i, l := range doc.Lines {
		keys[i] = entity.StockKey{ProductID: l.ProductID, WarehouseID: *doc.WarehouseID}
	}

	if _, err := e.stock.LockForUpdate(ctx, keys); err != nil {
		return nil, fmt.Errorf("lock stock: %w", err)
	}

	entries := make([]Entry, 0, len(doc.Lines))
	for i, l := range doc.Lines {
		physical := *l.PhysicalQuantity
		applied, err := e.stock.SetAbsolute(ctx, keys[i], physical)
		if err != nil {
			return nil, err
		}
		if applied == 0 {
			continue
		}
		d := entity.StockDelta{StockKey: keys[i], Change: applied, Notes: doc.AdjustmentReason()}
		entries = append(entries, e.newEntry(ctx, doc, d, physical))
	}

	if len(entries) == 0 {
		return nil, nil
	}
	if err := e.ledger.Append(ctx, entries); err != nil {
		return nil, fmt.Errorf("append ledger: %w", err)
	}
	return entries, nil
}

// checkAvailability replays deltas over the locked balances in line order.
// The first pair that would go negative is reported with the quantity
// still available at that point.
func checkAvailability(balances map[entity.StockKey]int64, deltas []entity.StockDelta) error {
	running := make(map[entity.StockKey]int64, len(balances))
	for k, v := range balances {
		running[k] = v
	}

	for _, d := range deltas {
		available := running[d.StockKey]
		next := available + d.Change
		if next < 0 {
			return apperror.NewInsufficientStock(
				d.ProductID.String(),
				d.WarehouseID.String(),
				-d.Change,
				available,
			)
		}
		running[d.StockKey] = next
	}
	return nil
}

func (e *Engine) newEntry(ctx context.Context, doc *documents.Document, d entity.StockDelta, after int64) Entry {
	return Entry{
		ID:              id.New(),
		ProductID:       d.ProductID,
		WarehouseID:     d.WarehouseID,
		MovementType:    entity.MovementTypeOf(d.Change),
		ReferenceType:   string(doc.Kind),
		ReferenceID:     doc.ID,
		ReferenceNumber: doc.Number,
		QuantityChange:  d.Change,
		QuantityAfter:   after,
		UserID:          actingUser(ctx, doc),
		Notes:           d.Notes,
		CreatedAt:       e.now(),
	}
}

// actingUser prefers the user of the request over the document author.
func actingUser(ctx context.Context, doc *documents.Document) *string {
	if uid := appctx.GetUserID(ctx); uid != "" {
		return &uid
	}
	return doc.UserID
}

func (e *Engine) record(ctx context.Context, doc *documents.Document, from entity.Status, entries int) error {
	eventType := events.DocumentTransitioned
	action := audit.ActionTransition
	if doc.Status == entity.StatusDone {
		eventType = events.DocumentValidated
		action = audit.ActionValidate
	}

	err := e.publisher.Publish(ctx, events.Event{
		AggregateType: string(doc.Kind),
		AggregateID:   doc.ID,
		EventType:     eventType,
		Payload: map[string]any{
			"number":         doc.Number,
			"from":           from,
			"to":             doc.Status,
			"ledger_entries": entries,
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	return e.audit.LogChange(ctx, string(doc.Kind), doc.ID, action, map[string]any{
		"status": map[string]any{"old": string(from), "new": string(doc.Status)},
	})
}

// Query returns ledger entries newest first.
func (e *Engine) Query(ctx context.Context, filter Filter) (domain.ListResult[Entry], error) {
	filter.normalize()
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return domain.ListResult[Entry]{}, apperror.NewValidation("from must not be after to").
			WithDetail("field", "from")
	}
	return e.ledger.List(ctx, filter)
}

// Reconcile compares a stock row with the sum of its ledger entries.
// Both reads share one snapshot.
func (e *Engine) Reconcile(ctx context.Context, key entity.StockKey) (Reconciliation, error) {
	rec := Reconciliation{StockKey: key}
	err := e.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		balances, err := e.stock.Quantities(ctx, []entity.StockKey{key})
		if err != nil {
			return fmt.Errorf("read stock: %w", err)
		}
		rec.StockQuantity = balances[key]

		rec.LedgerSum, err = e.ledger.Sum(ctx, key)
		if err != nil {
			return fmt.Errorf("sum ledger: %w", err)
		}
		return nil
	})
	if err != nil {
		return Reconciliation{}, err
	}
	rec.Consistent = rec.StockQuantity == rec.LedgerSum
	return rec, nil
}
