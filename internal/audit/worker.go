package audit

import (
	"context"
	"time"
)

// Worker consumes audit events from a channel and persists them. It keeps
// the request path free of store latency: handlers enqueue and move on.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

// InboxPublisher enqueues events for a Worker. Emit blocks when the inbox is
// full rather than dropping compliance events.
type InboxPublisher struct {
	inbox chan<- Event
}

func NewInboxPublisher(inbox chan<- Event) *InboxPublisher {
	return &InboxPublisher{inbox: inbox}
}

func (p *InboxPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.inbox <- event:
		return nil
	}
}
