package events

import (
	"time"
)

const TypePostPublished = "post.published"

type PostPublishedPayload struct {
	PostID  string    `json:"post_id"`
	Slug    string    `json:"slug"`
	Title   string    `json:"title"`
	Link    string    `json:"link"`
	PubDate time.Time `json:"pub_date"`
}

type PostPublished struct {
	Type      string               `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   PostPublishedPayload `json:"payload"`
}

func NewPostPublished(postID, slug, title, link string, pubDate time.Time) PostPublished {
	return PostPublished{
		Type:      TypePostPublished,
		Timestamp: time.Now().UTC(),
		Payload: PostPublishedPayload{
			PostID:  postID,
			Slug:    slug,
			Title:   title,
			Link:    link,
			PubDate: pubDate.UTC(),
		},
	}
}
