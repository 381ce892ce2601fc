package posts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/jeremyjsx/miniblog/internal/storage"
)

var _ Repository = (*BlobRepository)(nil)

// BlobRepository keeps each post as a markdown document at posts/<id>.md and
// attachments under files/, on any object storage.
type BlobRepository struct {
	store storage.Storage
}

func NewBlobRepository(store storage.Storage) *BlobRepository {
	return &BlobRepository{store: store}
}

func (r *BlobRepository) LoadAll(ctx context.Context) ([]*Post, error) {
	keys, err := r.store.List(ctx, postKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]*Post, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, postKeySuffix) {
			continue
		}
		data, err := r.read(ctx, key)
		if err != nil {
			return nil, err
		}
		p, err := UnmarshalPost(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (r *BlobRepository) Store(ctx context.Context, p *Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	data, err := MarshalPost(p)
	if err != nil {
		return err
	}
	if err := r.store.Upload(ctx, postKey(p.ID), bytes.NewReader(data), "text/markdown"); err != nil {
		return fmt.Errorf("upload post %s: %w", p.ID, err)
	}
	return nil
}

func (r *BlobRepository) Remove(ctx context.Context, p *Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, postKey(p.ID)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete post %s: %w", p.ID, err)
	}
	return nil
}

func (r *BlobRepository) StoreAttachment(ctx context.Context, data []byte, fileName, suffix string) (string, error) {
	name, err := AttachmentName(data, fileName, suffix)
	if err != nil {
		return "", err
	}
	key := attachmentKeyPrefix + name
	if err := r.store.Upload(ctx, key, bytes.NewReader(data), contentType(name)); err != nil {
		return "", fmt.Errorf("upload attachment %s: %w", name, err)
	}
	return attachmentURL(key), nil
}

func (r *BlobRepository) ListAttachments(ctx context.Context) ([]string, error) {
	keys, err := r.store.List(ctx, attachmentKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	paths := make([]string, len(keys))
	for i, k := range keys {
		paths[i] = attachmentURL(k)
	}
	return paths, nil
}

func (r *BlobRepository) OpenAttachment(ctx context.Context, p string) (io.ReadCloser, error) {
	key, err := AttachmentKey(p)
	if err != nil {
		return nil, err
	}
	return r.store.Download(ctx, key)
}

func (r *BlobRepository) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := r.store.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
