package posts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeremyjsx/miniblog/internal/db"
	"github.com/jeremyjsx/miniblog/internal/storage"
)

var _ Repository = (*SQLRepository)(nil)

// SQLRepository keeps posts in the posts table and attachment bytes in
// object storage, indexed by the attachments table. Queries run unchanged
// on PostgreSQL and SQLite.
type SQLRepository struct {
	db    *sql.DB
	files storage.Storage
}

func NewSQLRepository(conn *sql.DB, files storage.Storage) *SQLRepository {
	return &SQLRepository{db: conn, files: files}
}

const loadAllPostsQuery = `
	SELECT id, title, slug, excerpt, content, categories, pub_date, last_modified, is_published
	FROM posts
	ORDER BY pub_date DESC
`

func (r *SQLRepository) LoadAll(ctx context.Context) ([]*Post, error) {
	rows, err := r.db.QueryContext(ctx, loadAllPostsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*Post, 0)
	for rows.Next() {
		var row postRow
		if err := rows.Scan(
			&row.ID,
			&row.Title,
			&row.Slug,
			&row.Excerpt,
			&row.Content,
			&row.Categories,
			&row.PubDate,
			&row.LastModified,
			&row.IsPublished,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}
	return posts, nil
}

const upsertPostQuery = `
	INSERT INTO posts (id, title, slug, excerpt, content, categories, pub_date, last_modified, is_published)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		slug = excluded.slug,
		excerpt = excluded.excerpt,
		content = excluded.content,
		categories = excluded.categories,
		pub_date = excluded.pub_date,
		last_modified = excluded.last_modified,
		is_published = excluded.is_published
`

func (r *SQLRepository) Store(ctx context.Context, p *Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	categories, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	_, err = db.GetExecutor(ctx, r.db).ExecContext(ctx, upsertPostQuery,
		p.ID,
		p.Title,
		p.Slug,
		p.Excerpt,
		p.Content,
		string(categories),
		p.PubDate.UTC(),
		p.LastModified.UTC(),
		p.IsPublished,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert post: %w", err)
	}
	return nil
}

func (r *SQLRepository) Remove(ctx context.Context, p *Post) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("post ID cannot be empty")
	}
	if _, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, p.ID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

const upsertAttachmentQuery = `
	INSERT INTO attachments (path, hash, size, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (path) DO UPDATE SET
		hash = excluded.hash,
		size = excluded.size
`

// StoreAttachment records the attachment row and uploads the bytes in one
// transaction; a failed upload rolls the row back.
func (r *SQLRepository) StoreAttachment(ctx context.Context, data []byte, fileName, suffix string) (string, error) {
	name, err := AttachmentName(data, fileName, suffix)
	if err != nil {
		return "", err
	}
	key := attachmentKeyPrefix + name
	sum := sha256.Sum256(data)

	err = db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		_, err := db.GetExecutor(txCtx, r.db).ExecContext(txCtx, upsertAttachmentQuery,
			attachmentURL(key),
			hex.EncodeToString(sum[:]),
			len(data),
			time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert attachment record: %w", err)
		}
		if err := r.files.Upload(txCtx, key, bytes.NewReader(data), contentType(name)); err != nil {
			return fmt.Errorf("failed to upload attachment: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return attachmentURL(key), nil
}

func (r *SQLRepository) ListAttachments(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT path FROM attachments ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan attachment row: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (r *SQLRepository) OpenAttachment(ctx context.Context, p string) (io.ReadCloser, error) {
	key, err := AttachmentKey(p)
	if err != nil {
		return nil, err
	}
	return r.files.Download(ctx, key)
}

type postRow struct {
	ID           string
	Title        string
	Slug         string
	Excerpt      string
	Content      string
	Categories   string
	PubDate      time.Time
	LastModified time.Time
	IsPublished  bool
}

func (pr *postRow) toDomain() (*Post, error) {
	var categories []string
	if pr.Categories != "" {
		if err := json.Unmarshal([]byte(pr.Categories), &categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories of %s: %w", pr.ID, err)
		}
	}
	return &Post{
		ID:           pr.ID,
		Title:        pr.Title,
		Slug:         pr.Slug,
		Excerpt:      pr.Excerpt,
		Content:      pr.Content,
		Categories:   normalizeCategories(categories),
		PubDate:      pr.PubDate.UTC(),
		LastModified: pr.LastModified.UTC(),
		IsPublished:  pr.IsPublished,
	}, nil
}
