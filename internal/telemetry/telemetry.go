// Package telemetry registers the game's OpenTelemetry instruments.
//
// Instruments come from the global meter provider, which is a no-op unless
// a binary installs an SDK.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tomz197/invaders/internal/telemetry"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics groups the instruments shared by sessions and services.
type Metrics struct {
	sessions       metric.Int64UpDownCounter
	frameTime      metric.Float64Histogram
	submissions    metric.Int64Counter
	tauntFallbacks metric.Int64Counter
}

// New creates the instruments.
func New() (*Metrics, error) {
	m := meter()
	var (
		mt  Metrics
		err error
	)

	mt.sessions, err = m.Int64UpDownCounter(
		"invaders.sessions.active",
		metric.WithDescription("Game sessions currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions counter: %w", err)
	}

	mt.frameTime, err = m.Float64Histogram(
		"invaders.frame.duration",
		metric.WithDescription("Time spent simulating and rendering one frame"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frame histogram: %w", err)
	}

	mt.submissions, err = m.Int64Counter(
		"invaders.scores.submitted",
		metric.WithDescription("Score submissions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating submissions counter: %w", err)
	}

	mt.tauntFallbacks, err = m.Int64Counter(
		"invaders.taunts.fallback",
		metric.WithDescription("Taunts served from local templates"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating taunt counter: %w", err)
	}

	return &mt, nil
}

// Nop returns metrics whose instruments record nothing. A nil *Metrics
// behaves the same way.
func Nop() *Metrics { return nil }

// SessionStarted records a new session and returns the matching end hook.
func (m *Metrics) SessionStarted(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}
	m.sessions.Add(ctx, 1)
	return func() { m.sessions.Add(context.WithoutCancel(ctx), -1) }
}

// Frame records the duration of one frame.
func (m *Metrics) Frame(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.frameTime.Record(ctx, float64(d.Microseconds())/1000)
}

// ScoreSubmitted records a submission outcome: "ok", "rejected" or "error".
func (m *Metrics) ScoreSubmitted(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// TauntFallback records a taunt served without the language model.
func (m *Metrics) TauntFallback(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.tauntFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
