package posts

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jeremyjsx/miniblog/internal/db"
	"github.com/jeremyjsx/miniblog/internal/storage"
)

// Both backends must satisfy the same contract.
func repositories(t *testing.T) map[string]Repository {
	t.Helper()
	blobStore, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	fileStore, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	conn, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return map[string]Repository{
		"blob": NewBlobRepository(blobStore),
		"sql":  NewSQLRepository(conn, fileStore),
	}
}

func samplePost(id string, pub time.Time) *Post {
	return &Post{
		ID:           id,
		Title:        "Title " + id,
		Slug:         "title-" + id,
		Excerpt:      "excerpt",
		Content:      "# Heading\n\nBody of " + id + "\n",
		Categories:   []string{"Go", "testing"},
		PubDate:      pub,
		LastModified: pub.Add(time.Minute),
		IsPublished:  true,
	}
}

func TestRepository_StoreLoadRemove(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 30, 0, 123000, time.UTC)

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			a := samplePost("a", base)
			b := samplePost("b", base.Add(time.Hour))
			b.IsPublished = false
			b.Categories = []string{}
			for _, p := range []*Post{a, b} {
				if err := repo.Store(ctx, p); err != nil {
					t.Fatalf("Store(%s): %v", p.ID, err)
				}
			}

			// Overwrite a.
			a.Title = "Updated"
			if err := repo.Store(ctx, a); err != nil {
				t.Fatalf("Store(update): %v", err)
			}

			got, err := repo.LoadAll(ctx)
			if err != nil {
				t.Fatalf("LoadAll: %v", err)
			}
			sortByID := cmpopts.SortSlices(func(x, y *Post) bool { return x.ID < y.ID })
			if diff := cmp.Diff([]*Post{a, b}, got, sortByID); diff != "" {
				t.Errorf("LoadAll mismatch (-want +got):\n%s", diff)
			}

			if err := repo.Remove(ctx, a); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if err := repo.Remove(ctx, a); err != nil {
				t.Errorf("Remove of missing post: %v", err)
			}
			got, err = repo.LoadAll(ctx)
			if err != nil {
				t.Fatalf("LoadAll: %v", err)
			}
			if diff := cmp.Diff([]string{"b"}, ids(got)); diff != "" {
				t.Errorf("after Remove (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRepository_Attachments(t *testing.T) {
	ctx := context.Background()

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			first, err := repo.StoreAttachment(ctx, []byte("one"), "diagram.svg", "")
			if err != nil {
				t.Fatalf("StoreAttachment: %v", err)
			}
			again, err := repo.StoreAttachment(ctx, []byte("one"), "diagram.svg", "")
			if err != nil {
				t.Fatalf("StoreAttachment: %v", err)
			}
			other, err := repo.StoreAttachment(ctx, []byte("two"), "diagram.svg", "")
			if err != nil {
				t.Fatalf("StoreAttachment: %v", err)
			}

			if first != again {
				t.Errorf("same content: %q != %q", first, again)
			}
			if first == other {
				t.Errorf("different content collided on %q", first)
			}

			paths, err := repo.ListAttachments(ctx)
			if err != nil {
				t.Fatalf("ListAttachments: %v", err)
			}
			if diff := cmp.Diff([]string{first, other}, paths, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
				t.Errorf("ListAttachments mismatch (-want +got):\n%s", diff)
			}

			rc, err := repo.OpenAttachment(ctx, other)
			if err != nil {
				t.Fatalf("OpenAttachment: %v", err)
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(data) != "two" {
				t.Errorf("content = %q", data)
			}

			if _, err := repo.OpenAttachment(ctx, "/files/missing.png"); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("missing attachment err = %v", err)
			}
			if _, err := repo.OpenAttachment(ctx, "/files/../posts/a.md"); err == nil {
				t.Error("escaping path accepted")
			}
		})
	}
}

type failingStorage struct {
	storage.Storage
}

func (failingStorage) Upload(context.Context, string, io.Reader, string) error {
	return errors.New("bucket unavailable")
}

func TestSQLRepository_AttachmentRollsBackOnUploadFailure(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	repo := NewSQLRepository(conn, failingStorage{})
	if _, err := repo.StoreAttachment(ctx, []byte("x"), "a.txt", ""); err == nil {
		t.Fatal("expected upload error")
	}

	paths, err := repo.ListAttachments(ctx)
	if err != nil {
		t.Fatalf("ListAttachments: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("attachment row kept after failed upload: %v", paths)
	}
}

func TestBlobRepository_SkipsForeignKeys(t *testing.T) {
	ctx := context.Background()
	st, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	if err := st.Upload(ctx, "posts/README.txt", strings.NewReader("notes"), "text/plain"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	repo := NewBlobRepository(st)
	if err := repo.Store(ctx, samplePost("a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, ids(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRepository_StoreRejectsUnsafeID(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			p := samplePost("../files/evil", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			if err := repo.Store(ctx, p); !errors.Is(err, ErrInvalidPost) {
				t.Fatalf("Store err = %v, want ErrInvalidPost", err)
			}
			files, err := repo.ListAttachments(ctx)
			if err != nil {
				t.Fatalf("ListAttachments: %v", err)
			}
			if len(files) != 0 {
				t.Errorf("attachments = %v", files)
			}
		})
	}
}
