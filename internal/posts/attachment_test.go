package posts

import (
	"errors"
	"testing"
)

func TestAttachmentName(t *testing.T) {
	a1, err := AttachmentName([]byte("one"), "My Photo.JPG", "")
	if err != nil {
		t.Fatalf("AttachmentName: %v", err)
	}
	a2, _ := AttachmentName([]byte("one"), "My Photo.JPG", "")
	b, _ := AttachmentName([]byte("two"), "My Photo.JPG", "")

	if a1 != a2 {
		t.Errorf("same content got %q and %q", a1, a2)
	}
	if a1 == b {
		t.Errorf("different content collided on %q", a1)
	}
	if got, _ := AttachmentName([]byte("x"), `C:\Users\me\shot.png`, "123"); got != "shot_123.png" {
		t.Errorf("windows path name = %q", got)
	}
	if got, _ := AttachmentName([]byte("x"), "../../etc/passwd", "s"); got != "passwd_s" {
		t.Errorf("traversal name = %q", got)
	}
}

func TestAttachmentName_RequiresName(t *testing.T) {
	for _, name := range []string{"", ".png", "***"} {
		if _, err := AttachmentName([]byte("x"), name, ""); !errors.Is(err, ErrInvalidPost) {
			t.Errorf("AttachmentName(%q) err = %v", name, err)
		}
	}
}

func TestAttachmentKey(t *testing.T) {
	if key, err := AttachmentKey("/files/a_1.png"); err != nil || key != "files/a_1.png" {
		t.Errorf("AttachmentKey = %q, %v", key, err)
	}
	for _, bad := range []string{"/files/", "/files/../posts/x.md", "/files/a/b", ".."} {
		if _, err := AttachmentKey(bad); err == nil {
			t.Errorf("AttachmentKey(%q) accepted", bad)
		}
	}
}
