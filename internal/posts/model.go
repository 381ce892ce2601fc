package posts

import (
	"slices"
	"strings"
	"time"
	"unicode"
)

// Post is a single blog entry. ID is assigned once and never changes.
type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Excerpt      string    `json:"excerpt,omitempty"`
	Content      string    `json:"content"`
	Categories   []string  `json:"categories"`
	PubDate      time.Time `json:"pub_date"`
	LastModified time.Time `json:"last_modified"`
	IsPublished  bool      `json:"is_published"`
}

// Clone returns a deep copy of p.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Categories = slices.Clone(p.Categories)
	return &c
}

// Link is the public path of the post.
func (p *Post) Link() string {
	return "/posts/" + p.Slug
}

// HasCategory reports whether the post is filed under category, ignoring case.
func (p *Post) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// ValidateID rejects ids that cannot serve as a single storage key: path
// separators, dot segments, control characters, surrounding whitespace.
func ValidateID(id string) error {
	if id == "" {
		return &ValidationError{Fields: map[string]string{"id": "required"}}
	}
	invalid := id != strings.TrimSpace(id) ||
		strings.ContainsAny(id, `/\`) ||
		strings.Contains(id, "..") ||
		strings.ContainsFunc(id, unicode.IsControl)
	if invalid {
		return &ValidationError{Fields: map[string]string{"id": "invalid id"}}
	}
	return nil
}

func normalizeCategories(categories []string) []string {
	out := make([]string, 0, len(categories))
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
