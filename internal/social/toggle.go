// Package social implements the idempotent relationship edges of the
// platform: channel subscriptions and likes. Both are driven by the same
// toggle primitive over an (actor, target) pair.
package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidTarget indicates a toggle request whose target type or identifier
// is not well formed.
var ErrInvalidTarget = errors.New("invalid toggle target")

// Edge identifies a single actor/target relationship.
type Edge struct {
	ActorID    string
	TargetType string
	TargetID   string
}

// State reports which side of the toggle a call landed on.
type State string

const (
	// StateCreated means the edge now exists.
	StateCreated State = "created"
	// StateRemoved means the edge no longer exists.
	StateRemoved State = "removed"
)

// EdgeStore persists edges with a uniqueness constraint over the defining
// tuple. Insert reports false, nil when a concurrent duplicate already holds
// the slot; Delete reports false, nil when there was nothing to remove.
type EdgeStore interface {
	InsertEdge(ctx context.Context, edge Edge) (inserted bool, err error)
	DeleteEdge(ctx context.Context, edge Edge) (deleted bool, err error)
}

// Toggler flips an edge between absent and present. Each call inverts the
// previous one for the same pair.
type Toggler struct {
	store   EdgeStore
	targets map[string]struct{}
}

// NewToggler constructs a Toggler over the store, accepting only the listed
// target types.
func NewToggler(store EdgeStore, targetTypes ...string) *Toggler {
	if store == nil {
		panic("social: edge store must not be nil")
	}
	targets := make(map[string]struct{}, len(targetTypes))
	for _, t := range targetTypes {
		targets[t] = struct{}{}
	}
	return &Toggler{store: store, targets: targets}
}

// Toggle removes the edge if it exists, otherwise creates it. The delete and
// create branches are each a single atomic store operation, so concurrent
// toggles for the same pair never leave more than one stored edge. When a
// concurrent duplicate wins the create race the loser still reports
// StateCreated: the user-visible outcome ("now liked") is the same.
func (t *Toggler) Toggle(ctx context.Context, edge Edge) (State, error) {
	if edge.ActorID == "" {
		return "", fmt.Errorf("%w: actor id is required", ErrInvalidTarget)
	}
	if _, ok := t.targets[edge.TargetType]; !ok {
		return "", fmt.Errorf("%w: unknown target type %q", ErrInvalidTarget, edge.TargetType)
	}
	if _, err := uuid.Parse(edge.TargetID); err != nil {
		return "", fmt.Errorf("%w: target id %q", ErrInvalidTarget, edge.TargetID)
	}

	deleted, err := t.store.DeleteEdge(ctx, edge)
	if err != nil {
		return "", fmt.Errorf("delete edge: %w", err)
	}
	if deleted {
		return StateRemoved, nil
	}

	if _, err := t.store.InsertEdge(ctx, edge); err != nil {
		return "", fmt.Errorf("insert edge: %w", err)
	}
	return StateCreated, nil
}
