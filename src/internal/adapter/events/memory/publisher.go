package memory

import (
	"context"
	"sync"
)

type PublishedEvent struct {
	Topic string
	Event any
}

// Publisher captures events in memory for tests and local wiring.
type Publisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{Topic: topic, Event: event})
	return nil
}

func (p *Publisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *Publisher) EventsFor(topic string) []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []PublishedEvent
	for _, event := range p.events {
		if event.Topic == topic {
			out = append(out, event)
		}
	}
	return out
}
