// Package events publishes mutation events so downstream consumers
// (reporting, audit) can react to dashboard changes without polling the
// office API.
package events

import (
	"context"
	"time"
)

// MutationEvent describes one completed write against the office API.
type MutationEvent struct {
	ID         string      `json:"id"`
	Resource   string      `json:"resource"`
	Action     string      `json:"action"`
	RecordID   string      `json:"recordId,omitempty"`
	ActorEmail string      `json:"actorEmail,omitempty"`
	ActorRole  string      `json:"actorRole,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionSubmit = "submit"
)

// Publisher emits mutation events.
type Publisher interface {
	Publish(ctx context.Context, event MutationEvent) error
	Close() error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, MutationEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
