package xapi

import (
	"time"

	"github.com/ainergiz/xfeed/internal/render/text"
)

// User is the subset of account fields rendered by the client.
type User struct {
	ID        string `json:"id"`
	Handle    string `json:"handle"`
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	Followers int    `json:"followers_count"`
	Following int    `json:"following_count"`
	Verified  bool   `json:"verified"`
}

// Tweet carries the server-reported liked/bookmarked flags. Those are only
// used to seed the action state store; the store is the source of truth
// once a tweet has been shown.
type Tweet struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Author       User      `json:"author"`
	CreatedAt    time.Time `json:"created_at"`
	LikeCount    int       `json:"like_count"`
	RetweetCount int       `json:"retweet_count"`
	ReplyCount   int       `json:"reply_count"`
	Liked        bool      `json:"favorited"`
	Bookmarked   bool      `json:"bookmarked"`
	InReplyToID  string    `json:"in_reply_to_id"`
}

// URL is the public permalink of the tweet.
func (t Tweet) URL() string {
	handle := t.Author.Handle
	if handle == "" {
		handle = "i"
	}
	return "https://x.com/" + handle + "/status/" + t.ID
}

// Notification is a single activity item. TweetID is empty for follows.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	Actor     User      `json:"actor"`
	TweetID   string    `json:"tweet_id"`
	CreatedAt time.Time `json:"created_at"`
}

type listEnvelope[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor"`
}

type errorEnvelope struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e errorEnvelope) message() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Message
}

func normalizeTweet(t *Tweet) {
	t.Text = text.Flatten(t.Text)
	t.Author.Bio = text.Flatten(t.Author.Bio)
}

func normalizeNotification(n *Notification) {
	n.Text = text.Flatten(n.Text)
}
