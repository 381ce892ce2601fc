package posts

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	frontMatterDelim = []byte("---\n")
	frontMatterEnd   = []byte("\n---\n")
)

var errNoFrontMatter = errors.New("missing front matter")

type frontMatter struct {
	ID           string    `yaml:"id"`
	Title        string    `yaml:"title"`
	Slug         string    `yaml:"slug"`
	Excerpt      string    `yaml:"excerpt,omitempty"`
	Categories   []string  `yaml:"categories"`
	PubDate      time.Time `yaml:"pub_date"`
	LastModified time.Time `yaml:"last_modified"`
	Published    bool      `yaml:"published"`
}

// MarshalPost encodes p as a markdown document: YAML front matter holding
// the metadata, followed by the content verbatim.
func MarshalPost(p *Post) ([]byte, error) {
	header, err := yaml.Marshal(frontMatter{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Excerpt:      p.Excerpt,
		Categories:   p.Categories,
		PubDate:      p.PubDate.UTC(),
		LastModified: p.LastModified.UTC(),
		Published:    p.IsPublished,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(header) + len(p.Content) + 2*len(frontMatterDelim))
	buf.Write(frontMatterDelim)
	buf.Write(header)
	buf.Write(frontMatterDelim)
	buf.WriteString(p.Content)
	return buf.Bytes(), nil
}

// UnmarshalPost decodes a document written by MarshalPost.
func UnmarshalPost(data []byte) (*Post, error) {
	if !bytes.HasPrefix(data, frontMatterDelim) {
		return nil, errNoFrontMatter
	}
	rest := data[len(frontMatterDelim):]
	end := bytes.Index(rest, frontMatterEnd)
	if end < 0 {
		return nil, errNoFrontMatter
	}

	var fm frontMatter
	if err := yaml.Unmarshal(rest[:end+1], &fm); err != nil {
		return nil, fmt.Errorf("unmarshal front matter: %w", err)
	}
	if fm.ID == "" {
		return nil, fmt.Errorf("front matter has no id")
	}
	if err := ValidateID(fm.ID); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}

	return &Post{
		ID:           fm.ID,
		Title:        fm.Title,
		Slug:         fm.Slug,
		Excerpt:      fm.Excerpt,
		Content:      string(rest[end+len(frontMatterEnd):]),
		Categories:   normalizeCategories(fm.Categories),
		PubDate:      fm.PubDate.UTC(),
		LastModified: fm.LastModified.UTC(),
		IsPublished:  fm.Published,
	}, nil
}
