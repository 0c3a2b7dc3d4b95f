// Package sink bridges the broadcaster to individual connections.
package sink

import (
	"context"

	"collab-hub/domain/event"
)

// ConnSink is one connection's buffered delivery channel. The write pump
// drains Events; the broadcaster feeds it. Consume never blocks past the
// delivery context: when the buffer is full the event is dropped for this
// connection only (best-effort delivery, no retry).
//
// Events is never closed. Once the connection is unregistered the write
// pump stops draining and the channel becomes garbage; a broadcast that
// raced the unregister lands in a buffer nobody reads, which is exactly
// the no-guarantee delivery the contract allows.
type ConnSink struct {
	Events chan event.DomainEvent
}

func NewConnSink(bufferSize int) *ConnSink {
	return &ConnSink{Events: make(chan event.DomainEvent, bufferSize)}
}

func (s *ConnSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
