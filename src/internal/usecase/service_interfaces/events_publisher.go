package service_interfaces

import "context"

type EventsPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}
