package history

import (
	"context"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/poll"
)

// Recorder persists the observed state stream. It satisfies
// poll.StreamConsumer so it can be wired straight into the loop.
type Recorder interface {
	Consume(ctx context.Context, record *poll.StateRecord) error
	Close() error
}

// Repository defines the interface for observation storage
type Repository interface {
	Store(ctx context.Context, record *poll.StateRecord) error
	Close() error
}
