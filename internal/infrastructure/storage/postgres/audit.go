package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID                id.ID           `db:"id" json:"id"`
	EntityType        string          `db:"entity_type" json:"entity_type"`
	EntityID          id.ID           `db:"entity_id" json:"entity_id"`
	Action            audit.Action    `db:"action" json:"action"`
	UserID            string          `db:"user_id" json:"user_id"`
	Changes           json.RawMessage `db:"changes" json:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// AuditService stores document changes in sys_audit.
// Snapshots above the threshold (a document with many lines) are stored
// zstd-compressed.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Logger = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Log records an audit entry.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	if entry.UserID == "" {
		entry.UserID = appctx.GetUserID(ctx)
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.compress(&entry)

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action, entry.UserID,
		entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// LogChange implements audit.Logger.
func (s *AuditService) LogChange(
	ctx context.Context,
	entityType string,
	entityID id.ID,
	action audit.Action,
	changes map[string]any,
) error {
	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	return s.Log(ctx, AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changesJSON,
	})
}

// GetEntityHistory retrieves audit history for an entity, newest first.
func (s *AuditService) GetEntityHistory(
	ctx context.Context,
	entityType string,
	entityID id.ID,
	limit int,
) ([]AuditEntry, error) {
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, entity_type, entity_id, action, user_id,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.UserID,
			&e.Changes, &e.ChangesCompressed, &e.CompressionAlgo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if err := s.decompress(&e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *AuditService) compress(entry *AuditEntry) {
	entry.CompressionAlgo = CompressionNone
	if len(entry.Changes) > s.compressThreshold {
		entry.ChangesCompressed = s.encoder.EncodeAll(entry.Changes, nil)
		entry.Changes = nil
		entry.CompressionAlgo = CompressionZstd
	}
}

func (s *AuditService) decompress(entry *AuditEntry) error {
	if entry.CompressionAlgo != CompressionZstd || len(entry.ChangesCompressed) == 0 {
		return nil
	}
	decompressed, err := s.decoder.DecodeAll(entry.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress changes: %w", err)
	}
	entry.Changes = decompressed
	entry.ChangesCompressed = nil
	return nil
}
