// Package audit defines the audit trail contract of document changes.
// The PostgreSQL implementation lives in infrastructure/storage/postgres.
package audit

import (
	"context"
	"fmt"
	"reflect"

	"stockledger/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionTransition Action = "transition"
	ActionValidate   Action = "validate"
)

// Logger records audit entries. Implementations write through the
// transaction in ctx when there is one.
type Logger interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// NopLogger discards entries.
type NopLogger struct{}

func (NopLogger) LogChange(context.Context, string, id.ID, Action, map[string]any) error {
	return nil
}

// Diff calculates the difference between old and new entity states.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}

func equal(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
