// Package metaweblog implements the operations of the MetaWeblog remote
// publishing API on top of the post store. Transport encoding is left to the
// caller; every operation authenticates its own credentials.
package metaweblog

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jeremyjsx/miniblog/internal/posts"
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrNotSupported = errors.New("operation not supported")
)

// Store is the part of posts.Service the adapter needs.
type Store interface {
	ListRecent(isAdmin bool, count, skip int) []*posts.Post
	GetByID(isAdmin bool, id string) (*posts.Post, bool)
	ListCategories(isAdmin bool) []string
	Save(ctx context.Context, p *posts.Post) error
	Delete(ctx context.Context, p *posts.Post) error
	StoreAttachment(ctx context.Context, data []byte, fileName, suffix string) (string, error)
}

// Authenticator validates a username and password, returning
// auth.ErrUnauthorized on mismatch.
type Authenticator interface {
	Validate(username, password string) error
}

type Post struct {
	PostID      string    `json:"postid"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Slug        string    `json:"wp_slug,omitempty"`
	Categories  []string  `json:"categories"`
	DateCreated time.Time `json:"dateCreated"`
	Permalink   string    `json:"permalink,omitempty"`
}

type BlogInfo struct {
	BlogID   string `json:"blogid"`
	BlogName string `json:"blogName"`
	URL      string `json:"url"`
}

type CategoryInfo struct {
	CategoryID string `json:"categoryid"`
	Title      string `json:"title"`
}

// MediaObject is an uploaded file; Bits is base64 encoded.
type MediaObject struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Bits string `json:"bits"`
}

type MediaObjectInfo struct {
	URL string `json:"url"`
}

type Service struct {
	store    Store
	auth     Authenticator
	blogName string
	baseURL  string
	logger   *slog.Logger
}

func NewService(store Store, auth Authenticator, blogName, baseURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		auth:     auth,
		blogName: blogName,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
	}
}

func (s *Service) GetUsersBlogs(_ context.Context, _, username, password string) ([]BlogInfo, error) {
	if err := s.auth.Validate(username, password); err != nil {
		return nil, err
	}
	return []BlogInfo{{BlogID: "1", BlogName: s.blogName, URL: s.baseURL}}, nil
}

// NewPost creates a post and returns its id. An empty slug is derived from
// the title and a zero DateCreated publishes at the time of the call.
func (s *Service) NewPost(ctx context.Context, _, username, password string, post Post, publish bool) (string, error) {
	if err := s.auth.Validate(username, password); err != nil {
		return "", err
	}

	p := &posts.Post{
		Title:       post.Title,
		Slug:        post.Slug,
		Content:     post.Description,
		Categories:  post.Categories,
		PubDate:     post.DateCreated,
		IsPublished: publish,
	}
	if err := s.store.Save(ctx, p); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "metaweblog post created", "post_id", p.ID, "user", username)
	return p.ID, nil
}

// EditPost replaces title, slug, body, categories and published state of an
// existing post. A zero DateCreated keeps the current publication date.
func (s *Service) EditPost(ctx context.Context, postID, username, password string, post Post, publish bool) error {
	if err := s.auth.Validate(username, password); err != nil {
		return err
	}

	existing, err := s.lookup(postID)
	if err != nil {
		return err
	}
	existing.Title = post.Title
	existing.Slug = post.Slug
	existing.Content = post.Description
	existing.Categories = post.Categories
	existing.IsPublished = publish
	if !post.DateCreated.IsZero() {
		existing.PubDate = post.DateCreated
	}
	return s.store.Save(ctx, existing)
}

func (s *Service) DeletePost(ctx context.Context, _, postID, username, password string) error {
	if err := s.auth.Validate(username, password); err != nil {
		return err
	}

	existing, err := s.lookup(postID)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, existing)
}

func (s *Service) GetPost(_ context.Context, postID, username, password string) (*Post, error) {
	if err := s.auth.Validate(username, password); err != nil {
		return nil, err
	}

	p, err := s.lookup(postID)
	if err != nil {
		return nil, err
	}
	out := s.toPost(p)
	return &out, nil
}

func (s *Service) GetRecentPosts(_ context.Context, _, username, password string, count int) ([]Post, error) {
	if err := s.auth.Validate(username, password); err != nil {
		return nil, err
	}

	recent := s.store.ListRecent(true, count, 0)
	out := make([]Post, len(recent))
	for i, p := range recent {
		out[i] = s.toPost(p)
	}
	return out, nil
}

func (s *Service) GetCategories(_ context.Context, _, username, password string) ([]CategoryInfo, error) {
	if err := s.auth.Validate(username, password); err != nil {
		return nil, err
	}

	categories := s.store.ListCategories(true)
	out := make([]CategoryInfo, len(categories))
	for i, c := range categories {
		out[i] = CategoryInfo{CategoryID: c, Title: c}
	}
	return out, nil
}

func (s *Service) NewMediaObject(ctx context.Context, _, username, password string, media MediaObject) (*MediaObjectInfo, error) {
	if err := s.auth.Validate(username, password); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(media.Bits)
	if err != nil {
		return nil, &posts.ValidationError{Fields: map[string]string{"bits": "invalid base64"}}
	}
	path, err := s.store.StoreAttachment(ctx, data, media.Name, "")
	if err != nil {
		return nil, err
	}
	return &MediaObjectInfo{URL: path}, nil
}

func (s *Service) GetUserInfo(_ context.Context, _, username, password string) error {
	if err := s.auth.Validate(username, password); err != nil {
		return err
	}
	return ErrNotSupported
}

func (s *Service) AddCategory(_ context.Context, _, username, password, _ string) error {
	if err := s.auth.Validate(username, password); err != nil {
		return err
	}
	return ErrNotSupported
}

func (s *Service) lookup(postID string) (*posts.Post, error) {
	p, ok := s.store.GetByID(true, postID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, postID)
	}
	return p, nil
}

func (s *Service) toPost(p *posts.Post) Post {
	return Post{
		PostID:      p.ID,
		Title:       p.Title,
		Description: p.Content,
		Slug:        p.Slug,
		Categories:  p.Categories,
		DateCreated: p.PubDate,
		Permalink:   s.baseURL + p.Link(),
	}
}
