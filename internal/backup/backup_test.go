package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jeremyjsx/miniblog/internal/posts"
	"github.com/jeremyjsx/miniblog/internal/storage"
	"github.com/klauspost/compress/zip"
)

func newRepo(t *testing.T) *posts.BlobRepository {
	t.Helper()
	st, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	return posts.NewBlobRepository(st)
}

func byID(a, b *posts.Post) bool { return a.ID < b.ID }

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newRepo(t)

	pub := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	want := []*posts.Post{
		{
			ID: "one", Title: "One", Slug: "one", Content: "first\n",
			Categories: []string{"go"}, PubDate: pub, LastModified: pub, IsPublished: true,
		},
		{
			ID: "two", Title: "Two", Slug: "two", Excerpt: "draft", Content: "![img](/files/x_1.png)",
			Categories: []string{}, PubDate: pub.Add(48 * time.Hour), LastModified: pub,
		},
	}
	for _, p := range want {
		if err := src.Store(ctx, p); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
	attachment, err := src.StoreAttachment(ctx, []byte("png bytes"), "Chart Final.png", "")
	if err != nil {
		t.Fatalf("StoreAttachment: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := newRepo(t)
	stats, err := Import(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()), dst)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats != (Stats{Posts: 2, Attachments: 1}) {
		t.Errorf("stats = %+v", stats)
	}

	got, err := dst.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.SortSlices(byID)); diff != "" {
		t.Errorf("restored posts mismatch (-want +got):\n%s", diff)
	}

	paths, err := dst.ListAttachments(ctx)
	if err != nil {
		t.Fatalf("ListAttachments: %v", err)
	}
	if diff := cmp.Diff([]string{attachment}, paths); diff != "" {
		t.Errorf("restored attachments mismatch (-want +got):\n%s", diff)
	}
	rc, err := dst.OpenAttachment(ctx, attachment)
	if err != nil {
		t.Fatalf("OpenAttachment: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "png bytes" {
		t.Errorf("attachment content = %q", data)
	}
}

func TestExport_Layout(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Store(ctx, &posts.Post{ID: "abc", Title: "T", Slug: "t", Categories: []string{}}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, err := repo.StoreAttachment(ctx, []byte("x"), "a.txt", "v1"); err != nil {
		t.Fatalf("StoreAttachment: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(ctx, repo, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"posts/abc.md", "files/a_v1.txt"}, names); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestExport_EmptyRepository(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(context.Background(), newRepo(t), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	if len(zr.File) != 0 {
		t.Errorf("entries = %d", len(zr.File))
	}
}

func TestImport_RejectsGarbage(t *testing.T) {
	data := []byte("not a zip")
	if _, err := Import(context.Background(), bytes.NewReader(data), int64(len(data)), newRepo(t)); err == nil {
		t.Fatal("expected error")
	}
}

func archiveOf(t *testing.T, entries map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		if _, err := io.WriteString(w, body); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestImport_RejectsUnsafePostEntries(t *testing.T) {
	doc := func(id string) string {
		return "---\nid: " + id + "\ntitle: Evil\nslug: evil\npublished: true\n---\nbody"
	}
	tests := []struct {
		name  string
		entry string
		id    string
	}{
		{"id escapes posts dir", "posts/x.md", "../files/evil"},
		{"id with separator", "posts/a.md", "a/b"},
		{"entry name differs from id", "posts/other.md", "good"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dst := newRepo(t)
			r := archiveOf(t, map[string]string{tt.entry: doc(tt.id)})

			stats, err := Import(ctx, r, r.Size(), dst)
			if !errors.Is(err, posts.ErrInvalidPost) {
				t.Fatalf("Import err = %v, want ErrInvalidPost", err)
			}
			if stats.Posts != 0 {
				t.Errorf("Posts = %d", stats.Posts)
			}
			loaded, err := dst.LoadAll(ctx)
			if err != nil {
				t.Fatalf("LoadAll: %v", err)
			}
			files, err := dst.ListAttachments(ctx)
			if err != nil {
				t.Fatalf("ListAttachments: %v", err)
			}
			if len(loaded) != 0 || len(files) != 0 {
				t.Errorf("import wrote posts=%d files=%v", len(loaded), files)
			}
		})
	}
}

type failingRepo struct {
	posts.Repository
}

func (failingRepo) LoadAll(context.Context) ([]*posts.Post, error) {
	return nil, errors.New("backend down")
}

func TestExport_LoadFailure(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(context.Background(), failingRepo{}, &buf); err == nil {
		t.Fatal("expected error")
	}
}

func TestSplitAttachmentName(t *testing.T) {
	tests := []struct {
		name, fileName, suffix string
	}{
		{"photo_abc123.png", "photo.png", "abc123"},
		{"my_photo_v1.jpg", "my_photo.jpg", "v1"},
		{"noext_s", "noext", "s"},
		{"plain.txt", "plain.txt", ""},
		{"trailing_.txt", "trailing_.txt", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, s := splitAttachmentName(tt.name)
			if f != tt.fileName || s != tt.suffix {
				t.Errorf("splitAttachmentName(%q) = %q, %q", tt.name, f, s)
			}
		})
	}
}
