package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jeremyjsx/miniblog/internal/events"
)

func TestParseNotification(t *testing.T) {
	e := events.NewPostPublished("id-1", "hello", "Hello", "/posts/hello", time.Now())
	body, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := parseNotification("https://blog.example.com/", body)
	if err != nil {
		t.Fatalf("parseNotification: %v", err)
	}
	want := &notification{PostID: "id-1", Title: "Hello", URL: "https://blog.example.com/posts/hello"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNotification_OtherTypes(t *testing.T) {
	got, err := parseNotification("", []byte(`{"type":"post.deleted","payload":{"post_id":"x"}}`))
	if err != nil || got != nil {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestParseNotification_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   `{`,
		"missing id": `{"type":"post.published","payload":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := parseNotification("", []byte(body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
