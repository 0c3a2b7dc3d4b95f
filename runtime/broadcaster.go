package runtime

import (
	"context"
	"log/slog"
	"time"

	"collab-hub/domain/event"
)

// Broadcaster fans a document event out to the session's live sinks.
// Delivery is best-effort per connection: no cross-participant ordering,
// no acknowledgment, no retry. A slow consumer loses events rather than
// stalling the session.
type Broadcaster struct {
	registry    *Registry
	log         *slog.Logger
	sinkTimeout time.Duration
}

func NewBroadcaster(log *slog.Logger, registry *Registry, sinkTimeout time.Duration) *Broadcaster {
	return &Broadcaster{registry: registry, log: log, sinkTimeout: sinkTimeout}
}

// Broadcast delivers to every member of the event's session except the
// excluded connection. Pass exclude == "" to reach everyone, author
// included (comments render through the broadcast channel).
func (b *Broadcaster) Broadcast(ctx context.Context, evt event.DomainEvent, exclude string) {
	sinks := b.registry.SinksExcept(evt.DocumentID(), exclude)
	if len(sinks) == 0 {
		return
	}
	deliveryCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
	defer cancel()
	for _, sink := range sinks {
		if err := sink.Consume(deliveryCtx, evt); err != nil {
			b.log.Debug("event dropped for slow connection",
				"event", evt.Name(), "doc_id", evt.DocumentID(), "error", err)
		}
	}
}

// Direct delivers to a single connection, bypassing session membership.
// Used for snapshots, denials, conflicts and error events.
func (b *Broadcaster) Direct(ctx context.Context, connID string, evt event.DomainEvent) {
	sink, ok := b.registry.SinkOf(connID)
	if !ok {
		return
	}
	deliveryCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
	defer cancel()
	if err := sink.Consume(deliveryCtx, evt); err != nil {
		b.log.Debug("event dropped for slow connection",
			"event", evt.Name(), "conn_id", connID, "error", err)
	}
}
