// Package events defines the domain events written to the transactional
// outbox when documents change state.
package events

import (
	"context"

	"stockledger/internal/core/id"
)

// Event types
const (
	DocumentCreated      = "document.created"
	DocumentTransitioned = "document.transitioned"
	DocumentValidated    = "document.validated"
	DocumentDeleted      = "document.deleted"
)

// Event is published inside the transaction that caused it.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// Publisher writes events. Publish must be called with a transaction in ctx.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
