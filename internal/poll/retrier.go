package poll

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/device"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/metrics"
)

// RetryPolicy bounds the backoff applied inside one logical attempt.
type RetryPolicy struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	MaxTries            uint
}

// DefaultRetryPolicy doubles the delay between tries up to a 120s cap
// and gives up after 10 tries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval:     time.Second,
		MaxInterval:         120 * time.Second,
		Multiplier:          2,
		RandomizationFactor: 0.1,
		MaxTries:            10,
	}
}

// Retrier performs one logical poll: fetch primary status, fetch
// vitals, merge, retrying transient failures with bounded exponential
// backoff. Each try is timed into the latency histogram and carries a
// tracing span.
type Retrier struct {
	client device.Client
	sink   metrics.Sink
	policy RetryPolicy
	siteID string
	mode   device.Mode
	tracer trace.Tracer
}

func NewRetrier(client device.Client, sink metrics.Sink, policy RetryPolicy, siteID string, mode device.Mode) *Retrier {
	return &Retrier{
		client: client,
		sink:   sink,
		policy: policy,
		siteID: siteID,
		mode:   mode,
		tracer: otel.Tracer("powerwall-exporter/poll"),
	}
}

// Attempt runs the logical poll. After the retry budget is exhausted
// the failure surfaces as a retry-exhausted error; it is never silently
// swallowed.
func (r *Retrier) Attempt(ctx context.Context) (device.State, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.policy.InitialInterval
	bo.MaxInterval = r.policy.MaxInterval
	bo.Multiplier = r.policy.Multiplier
	bo.RandomizationFactor = r.policy.RandomizationFactor

	operation := func() (device.State, error) {
		return r.fetchOnce(ctx)
	}

	state, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(r.policy.MaxTries),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.New().Wrap(ErrRetryExhausted, err)
	}

	return state, nil
}

// fetchOnce is a single try: both sub-fetches must succeed for the try
// to count. The latency observation happens on every exit path.
func (r *Retrier) fetchOnce(ctx context.Context) (device.State, error) {
	ctx, span := r.tracer.Start(ctx, "poll.attempt", trace.WithAttributes(
		attribute.String("site_id", r.siteID),
		attribute.String("mode", r.mode.String()),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		r.sink.Observe(metrics.MetricAPILatency, time.Since(start).Seconds(),
			metrics.Labels{"site_id": r.siteID})
	}()

	status, err := r.client.FetchStatus(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch status failed")
		return nil, errors.New().Wrap(ErrAttemptFailed, err)
	}

	vitals, err := r.client.FetchVitals(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch vitals failed")
		return nil, errors.New().Wrap(ErrAttemptFailed, err)
	}

	status["vitals"] = vitals

	return status, nil
}
