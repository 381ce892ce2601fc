package posts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyjsx/miniblog/internal/events"
)

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublisher sets where post.published events go. Defaults to a no-op.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock replaces time.Now for visibility checks and timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Service is the post store. Reads are served from the in-memory cache and
// filtered per caller; writes go to the repository first and only then to
// the cache.
type Service struct {
	repo      Repository
	cache     *Cache
	publisher events.Publisher
	logger    *slog.Logger
	clock     func() time.Time

	// writeMu serializes Save and Delete end to end so repository order and
	// cache order agree.
	writeMu sync.Mutex
}

// NewService loads every post from repo into memory.
func NewService(ctx context.Context, repo Repository, opts ...Option) (*Service, error) {
	s := &Service{
		repo:      repo,
		publisher: events.NoopPublisher{},
		logger:    slog.Default(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	s.cache = NewCache(loaded)
	s.logger.InfoContext(ctx, "post cache loaded", "posts", len(loaded))
	return s, nil
}

// Reload replaces the cache with a fresh LoadAll, for use after the
// repository was written behind the service's back (a backup restore).
func (s *Service) Reload(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	loaded, err := s.repo.LoadAll(ctx)
	if err != nil {
		return persistenceError("reload posts", err)
	}
	s.cache.Replace(loaded)
	s.logger.InfoContext(ctx, "post cache reloaded", "posts", len(loaded))
	return nil
}

// ListRecent returns up to count visible posts, newest first, after skipping
// skip of them. Negative or out-of-range arguments give an empty result.
func (s *Service) ListRecent(isAdmin bool, count, skip int) []*Post {
	out := make([]*Post, 0)
	if count <= 0 || skip < 0 {
		return out
	}
	now := s.clock()

	s.cache.View(func(posts []*Post) {
		for _, p := range posts {
			if !Visible(p, isAdmin, now) {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			out = append(out, p.Clone())
			if len(out) == count {
				return
			}
		}
	})
	return out
}

// ListByCategory returns the visible posts filed under category, ignoring case.
func (s *Service) ListByCategory(isAdmin bool, category string) []*Post {
	return s.filter(isAdmin, func(p *Post) bool { return p.HasCategory(category) })
}

// GetBySlug returns the first visible post, in cache order, whose slug
// matches case-insensitively. Slugs are not enforced unique.
func (s *Service) GetBySlug(isAdmin bool, slug string) (*Post, bool) {
	return s.first(isAdmin, func(p *Post) bool { return strings.EqualFold(p.Slug, slug) })
}

// GetByID returns the first visible post whose id matches case-insensitively.
func (s *Service) GetByID(isAdmin bool, id string) (*Post, bool) {
	return s.first(isAdmin, func(p *Post) bool { return strings.EqualFold(p.ID, id) })
}

// ListCategories returns the distinct lower-cased categories of visible
// posts in order of first appearance.
func (s *Service) ListCategories(isAdmin bool) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	now := s.clock()

	s.cache.View(func(posts []*Post) {
		for _, p := range posts {
			if !Visible(p, isAdmin, now) {
				continue
			}
			for _, c := range p.Categories {
				c = strings.ToLower(c)
				if _, ok := seen[c]; ok {
					continue
				}
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	})
	return out
}

// Save creates or updates p. A missing ID is generated and a missing slug
// derived from the title; an ID already in the store makes this an update
// that replaces every other field. On success p holds the stored values.
func (s *Service) Save(ctx context.Context, p *Post) error {
	if err := validatePost(p); err != nil {
		return err
	}

	stored, announce, err := s.save(ctx, p)
	if err != nil {
		return err
	}
	*p = *stored

	if announce {
		e := events.NewPostPublished(stored.ID, stored.Slug, stored.Title, stored.Link(), stored.PubDate)
		if err := s.publisher.PublishPostPublished(ctx, e); err != nil {
			s.logger.WarnContext(ctx, "publish post event failed", "post_id", stored.ID, "error", err)
		}
	}
	return nil
}

func (s *Service) save(ctx context.Context, p *Post) (*Post, bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.clock().UTC().Truncate(time.Microsecond)
	next := p.Clone()
	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	prev, exists := s.cache.Get(next.ID)
	if exists {
		// ids match case-insensitively; keep the stored spelling.
		next.ID = prev.ID
	}

	if next.Slug != "" {
		next.Slug = CreateSlug(next.Slug)
	} else {
		next.Slug = CreateSlug(next.Title)
	}
	if next.Slug == "" {
		next.Slug = fallbackSlug(next.ID)
	}
	if next.PubDate.IsZero() {
		next.PubDate = now
	}
	next.PubDate = next.PubDate.UTC().Truncate(time.Microsecond)
	next.LastModified = now
	next.Categories = normalizeCategories(next.Categories)

	if err := s.repo.Store(ctx, next); err != nil {
		return nil, false, persistenceError("store post "+next.ID, err)
	}
	s.cache.Upsert(next)

	s.logger.InfoContext(ctx, "post saved",
		"post_id", next.ID,
		"slug", next.Slug,
		"update", exists,
		"published", next.IsPublished,
	)

	wasPublic := exists && Visible(prev, false, now)
	return next, Visible(next, false, now) && !wasPublic, nil
}

// Delete removes p from the repository and the cache. Deleting a post that
// is not stored succeeds without doing anything.
func (s *Service) Delete(ctx context.Context, p *Post) error {
	if p == nil || p.ID == "" {
		return &ValidationError{Fields: map[string]string{"id": "required"}}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, ok := s.cache.Get(p.ID)
	if !ok {
		return nil
	}
	if err := s.repo.Remove(ctx, existing); err != nil {
		return persistenceError("remove post "+existing.ID, err)
	}
	s.cache.Remove(existing.ID)

	s.logger.InfoContext(ctx, "post deleted", "post_id", existing.ID, "slug", existing.Slug)
	return nil
}

// StoreAttachment saves a file referenced by posts and returns its public path.
func (s *Service) StoreAttachment(ctx context.Context, data []byte, fileName, suffix string) (string, error) {
	fields := make(map[string]string)
	if len(data) == 0 {
		fields["data"] = "required"
	}
	if strings.TrimSpace(fileName) == "" {
		fields["file_name"] = "required"
	}
	if len(fields) > 0 {
		return "", &ValidationError{Fields: fields}
	}

	path, err := s.repo.StoreAttachment(ctx, data, fileName, suffix)
	if err != nil {
		if errors.Is(err, ErrInvalidPost) {
			return "", err
		}
		return "", persistenceError("store attachment "+fileName, err)
	}
	return path, nil
}

// OpenAttachment streams a previously stored attachment.
func (s *Service) OpenAttachment(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.repo.OpenAttachment(ctx, path)
}

func (s *Service) filter(isAdmin bool, match func(*Post) bool) []*Post {
	out := make([]*Post, 0)
	now := s.clock()
	s.cache.View(func(posts []*Post) {
		for _, p := range posts {
			if Visible(p, isAdmin, now) && match(p) {
				out = append(out, p.Clone())
			}
		}
	})
	return out
}

func (s *Service) first(isAdmin bool, match func(*Post) bool) (*Post, bool) {
	var found *Post
	now := s.clock()
	s.cache.View(func(posts []*Post) {
		for _, p := range posts {
			if Visible(p, isAdmin, now) && match(p) {
				found = p.Clone()
				return
			}
		}
	})
	return found, found != nil
}

func validatePost(p *Post) error {
	if p == nil {
		return &ValidationError{Fields: map[string]string{"post": "required"}}
	}
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Fields: map[string]string{"title": "required"}}
	}
	if p.ID != "" {
		return ValidateID(p.ID)
	}
	return nil
}
