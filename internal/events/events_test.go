package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewPostPublished(t *testing.T) {
	pub := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	e := NewPostPublished("id-1", "hello-world", "Hello, World!", "/posts/hello-world", pub)

	if e.Type != TypePostPublished {
		t.Errorf("Type = %q", e.Type)
	}
	if e.Payload.PubDate.Location() != time.UTC || !e.Payload.PubDate.Equal(pub) {
		t.Errorf("PubDate = %v", e.Payload.PubDate)
	}

	body, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded PostPublished
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Payload.Slug != "hello-world" || decoded.Payload.PostID != "id-1" {
		t.Errorf("decoded %+v", decoded.Payload)
	}
}
