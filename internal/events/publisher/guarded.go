package publisher

import (
	"context"
	"errors"
	"log/slog"

	"donationpool/internal/pool/models"
	"donationpool/pkg/platform/circuit"
)

var ErrCircuitOpen = errors.New("sink circuit open")

// GuardedSink skips a failing sink while its breaker is open so a broker
// outage does not stall the delivery queue.
type GuardedSink struct {
	sink    Sink
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func Guard(sink Sink, breaker *circuit.Breaker, logger *slog.Logger) *GuardedSink {
	return &GuardedSink{sink: sink, breaker: breaker, logger: logger}
}

func (g *GuardedSink) Publish(ctx context.Context, events []models.Event) error {
	if !g.breaker.Allow() {
		return ErrCircuitOpen
	}
	if err := g.sink.Publish(ctx, events); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened && g.logger != nil {
			g.logger.WarnContext(ctx, "event sink circuit opened", "sink", g.breaker.Name(), "error", err)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed && g.logger != nil {
		g.logger.InfoContext(ctx, "event sink circuit closed", "sink", g.breaker.Name())
	}
	return nil
}
