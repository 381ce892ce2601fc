package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFileStorage_UploadDownload(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	if err := s.Upload(ctx, "posts/a.md", strings.NewReader("hello"), "text/markdown"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	rc, err := s.Download(ctx, "posts/a.md")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "hello" {
		t.Errorf("body = %q", body)
	}

	ok, err := s.Exists(ctx, "posts/a.md")
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
}

func TestFileStorage_DownloadMissing(t *testing.T) {
	s, _ := NewFileStorage(t.TempDir())
	_, err := s.Download(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got err %v", err)
	}
}

func TestFileStorage_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStorage(t.TempDir())
	_ = s.Upload(ctx, "files/x.png", strings.NewReader("x"), "image/png")

	for i := 0; i < 2; i++ {
		if err := s.Delete(ctx, "files/x.png"); err != nil {
			t.Fatalf("Delete #%d: %v", i, err)
		}
	}
	ok, _ := s.Exists(ctx, "files/x.png")
	if ok {
		t.Error("object still exists")
	}
}

func TestFileStorage_List(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStorage(t.TempDir())
	for _, k := range []string{"posts/b.md", "files/a.png", "posts/a.md"} {
		if err := s.Upload(ctx, k, strings.NewReader(k), ""); err != nil {
			t.Fatalf("Upload %s: %v", k, err)
		}
	}

	got, err := s.List(ctx, "posts/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"posts/a.md", "posts/b.md"}, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStorage_RejectsEscapingKeys(t *testing.T) {
	s, _ := NewFileStorage(t.TempDir())
	for _, key := range []string{"", "..", "../etc/passwd", "/abs"} {
		if err := s.Upload(context.Background(), key, strings.NewReader("x"), ""); err == nil {
			t.Errorf("Upload(%q) succeeded", key)
		}
	}
}
