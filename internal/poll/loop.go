package poll

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/logger"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/metrics"
)

// Sleep jitter bounds. Skewed longer on purpose so independent sites
// drift apart instead of polling in lockstep.
const (
	jitterLow  = -0.2
	jitterHigh = 0.3
)

// Loop drives one site: attempt, classify, meter, emit, sleep, repeat.
// It never terminates because of an iteration failure; only context
// cancellation stops it.
type Loop struct {
	session  *Session
	retrier  *Retrier
	sink     metrics.Sink
	consumer StreamConsumer
	interval time.Duration
	clock    Clock
}

func NewLoop(session *Session, retrier *Retrier, sink metrics.Sink, consumer StreamConsumer, interval time.Duration, clock Clock) *Loop {
	if clock == nil {
		clock = realClock{}
	}

	return &Loop{
		session:  session,
		retrier:  retrier,
		sink:     sink,
		consumer: consumer,
		interval: interval,
		clock:    clock,
	}
}

// Run polls until ctx is canceled. Cancellation is observed both during
// the device call and during the sleep.
func (l *Loop) Run(ctx context.Context) {
	logger.Info().
		Str("site_id", l.session.SiteID).
		Str("mode", l.session.Mode.String()).
		Dur("interval", l.interval).
		Msg("poll loop started")

	for {
		l.RunOnce(ctx)

		if !l.sleep(ctx) {
			logger.Info().Str("site_id", l.session.SiteID).Msg("poll loop stopped")
			return
		}
	}
}

// RunOnce executes a single iteration. All iteration-local failures are
// classified and metered here; none propagate.
func (l *Loop) RunOnce(ctx context.Context) {
	labels := metrics.Labels{"site_id": l.session.SiteID}

	// Heartbeat counts every iteration, success or failure. A stalled
	// heartbeat means the process is dead, not merely erroring.
	defer l.sink.IncCounter(metrics.MetricHeartbeat, labels)

	state, err := l.retrier.Attempt(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}

		logger.Error().
			Err(err).
			Str("site_id", l.session.SiteID).
			Msg("poll attempt exhausted retries")
		l.sink.IncCounter(metrics.MetricPollOutcomes, outcomeLabels(labels, OutcomeError))
		l.sink.SetGauge(metrics.MetricExporterUp, 0, labels)

		return
	}

	outcome, canon, err := Classify(state, l.session.lastCanonical)
	if err != nil {
		logger.Error().
			Err(err).
			Str("site_id", l.session.SiteID).
			Msg("failed to canonicalize device state")
		l.sink.IncCounter(metrics.MetricPollOutcomes, outcomeLabels(labels, OutcomeError))
		l.sink.SetGauge(metrics.MetricExporterUp, 0, labels)

		return
	}

	l.session.lastCanonical = canon
	l.sink.IncCounter(metrics.MetricPollOutcomes, outcomeLabels(labels, outcome))

	l.session.liveness.RecordSuccess(l.clock.Now())
	l.sink.SetGauge(metrics.MetricExporterUp, 1, labels)

	logger.Debug().
		Str("site_id", l.session.SiteID).
		Str("outcome", string(outcome)).
		Msg("poll completed")

	if l.consumer != nil {
		record := &StateRecord{
			SiteID:    l.session.SiteID,
			Mode:      l.session.Mode,
			Timestamp: time.Now().UTC(),
			State:     state,
		}
		if err := l.consumer.Consume(ctx, record); err != nil {
			logger.Warn().
				Err(err).
				Str("site_id", l.session.SiteID).
				Msg("state stream consumer failed")
		}
	}
}

// sleep waits out the jittered interval. Returns false when ctx was
// canceled before the interval elapsed.
func (l *Loop) sleep(ctx context.Context) bool {
	timer := time.NewTimer(jitteredInterval(l.interval))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func jitteredInterval(interval time.Duration) time.Duration {
	u := jitterLow + rand.Float64()*(jitterHigh-jitterLow)
	return time.Duration(float64(interval) * (1 + u))
}

func outcomeLabels(base metrics.Labels, outcome Outcome) metrics.Labels {
	labels := make(metrics.Labels, len(base)+1)
	for k, v := range base {
		labels[k] = v
	}
	labels["outcome"] = string(outcome)

	return labels
}
