package audit

import "context"

// Emitter is any sink that accepts audit events.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// MultiPublisher forwards every event to all sinks. The first failing sink
// aborts the emit so callers see the error.
type MultiPublisher struct {
	sinks []Emitter
}

func NewMultiPublisher(sinks ...Emitter) *MultiPublisher {
	return &MultiPublisher{sinks: sinks}
}

func (p *MultiPublisher) Emit(ctx context.Context, event Event) error {
	for _, sink := range p.sinks {
		if err := sink.Emit(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
