package posts

import (
	"context"
	"io"
)

// Repository is the durable side of the post store. One unit per post keyed
// by ID, plus raw attachments addressed by generated paths.
type Repository interface {
	LoadAll(ctx context.Context) ([]*Post, error)
	Store(ctx context.Context, p *Post) error
	// Remove deletes the post's unit. Removing a missing post is not an error.
	Remove(ctx context.Context, p *Post) error

	// StoreAttachment saves data and returns a path like "/files/<name>".
	// suffix is optional; when empty a content hash is used.
	StoreAttachment(ctx context.Context, data []byte, fileName, suffix string) (string, error)
	ListAttachments(ctx context.Context) ([]string, error)
	OpenAttachment(ctx context.Context, path string) (io.ReadCloser, error)
}
