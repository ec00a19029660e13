package poll

import (
	"context"
	"time"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/device"
)

// Outcome classifies one loop iteration.
type Outcome string

const (
	OutcomeDelta    Outcome = "delta"
	OutcomeNoChange Outcome = "no_change"
	OutcomeError    Outcome = "error"
)

// StateRecord is the enriched state emitted once per successful poll,
// in poll order.
type StateRecord struct {
	SiteID    string
	Mode      device.Mode
	Timestamp time.Time
	State     device.State
}

// StreamConsumer receives enriched state records. Consumer failures are
// logged by the loop and never affect polling.
type StreamConsumer interface {
	Consume(ctx context.Context, record *StateRecord) error
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the real time package.
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}
