package postgres

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
)

// InTransaction reports whether ctx carries an open transaction.
func (m *TxManager) InTransaction(ctx context.Context) bool {
	return m.GetTx(ctx) != nil
}

// RequireTx returns the transaction carried by ctx.
// Stock writes go through it so they can never run in autocommit mode.
func (m *TxManager) RequireTx(ctx context.Context, op string) (*Tx, error) {
	tx := m.GetTx(ctx)
	if tx == nil {
		return nil, apperror.NewInternal(fmt.Errorf("%s requires transaction context", op))
	}
	return tx, nil
}
