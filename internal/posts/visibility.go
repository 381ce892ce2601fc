package posts

import "time"

// Visible reports whether p may be shown to a caller. Nobody sees a post
// before its publication date; past that, administrators also see drafts.
func Visible(p *Post, isAdmin bool, now time.Time) bool {
	return !p.PubDate.After(now) && (p.IsPublished || isAdmin)
}
