package nop

import (
	"context"

	"github.com/provtagio/provtag/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishItem validates input and otherwise does nothing.
func (p *Publisher) PublishItem(_ context.Context, event *eventstream.ItemEvent) error {
	if event == nil {
		return eventstream.ErrNilItemEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
