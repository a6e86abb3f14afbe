// Package eventbus mirrors ingested events to external observers.
package eventbus

import (
	"context"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

// Mirror receives a copy of every ingested event. Implementations are best
// effort; a failing mirror never affects run state.
type Mirror interface {
	Publish(ctx context.Context, runID string, ev domain.Event) error
	Close() error
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) Publish(context.Context, string, domain.Event) error { return nil }

func (NoOp) Close() error { return nil }
