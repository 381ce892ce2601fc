package events

import "context"

// Publisher announces store changes to other services. Implementations must
// be safe for concurrent use.
type Publisher interface {
	PublishPostPublished(ctx context.Context, e PostPublished) error
}
