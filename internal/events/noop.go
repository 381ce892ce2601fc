package events

import "context"

var _ Publisher = NoopPublisher{}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishPostPublished(context.Context, PostPublished) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
