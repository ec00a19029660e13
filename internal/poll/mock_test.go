package poll_test

import (
	"context"
	"sync"
	"time"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/device"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/logger"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/poll"
)

func init() {
	logger.Init(false, false, true)
}

// fakeClient scripts status/vitals responses by call number.
type fakeClient struct {
	mu          sync.Mutex
	statusFn    func(call int) (device.State, error)
	vitalsFn    func(call int) (device.State, error)
	statusCalls int
	vitalsCalls int
}

func (c *fakeClient) FetchStatus(_ context.Context) (device.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCalls++
	return c.statusFn(c.statusCalls)
}

func (c *fakeClient) FetchVitals(_ context.Context) (device.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vitalsCalls++
	if c.vitalsFn == nil {
		return device.State{}, nil
	}
	return c.vitalsFn(c.vitalsCalls)
}

// captureConsumer records emitted state records in order.
type captureConsumer struct {
	mu      sync.Mutex
	records []*poll.StateRecord
	err     error
}

func (c *captureConsumer) Consume(_ context.Context, record *poll.StateRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.records = append(c.records, record)
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fastPolicy keeps retry tests quick.
func fastPolicy(maxTries uint) poll.RetryPolicy {
	return poll.RetryPolicy{
		InitialInterval:     time.Millisecond,
		MaxInterval:         5 * time.Millisecond,
		Multiplier:          2,
		RandomizationFactor: 0,
		MaxTries:            maxTries,
	}
}

func staticState(soe float64) func(int) (device.State, error) {
	return func(int) (device.State, error) {
		return device.State{"soe": soe}, nil
	}
}
