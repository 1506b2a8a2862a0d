package eventstream

import "context"

// Publisher publishes item events to an event stream backend.
type Publisher interface {
	PublishItem(ctx context.Context, event *ItemEvent) error
	Close() error
}
