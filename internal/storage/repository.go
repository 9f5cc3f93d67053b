package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/ainergiz/xfeed/internal/xapi"
)

// Preferences are the UI toggles persisted between sessions.
type Preferences struct {
	RelativeTime bool
	Compact      bool
}

func DefaultPreferences() Preferences {
	return Preferences{RelativeTime: true}
}

// SaveFeed replaces the cached first page of feed with tweets, in order.
func (r *Repository) SaveFeed(ctx context.Context, feed string, tweets []xapi.Tweet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertTweets(ctx, tx, tweets); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM feed_entries WHERE feed = ?`, feed); err != nil {
		return fmt.Errorf("clear feed %s: %w", feed, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO feed_entries (feed, position, tweet_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare feed statement: %w", err)
	}
	defer stmt.Close()

	for i, tweet := range tweets {
		if _, err := stmt.ExecContext(ctx, feed, i, tweet.ID); err != nil {
			return fmt.Errorf("save feed entry %s: %w", tweet.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func upsertTweets(ctx context.Context, tx *sql.Tx, tweets []xapi.Tweet) error {
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO tweets (id, author_id, author_handle, author_name, text, created_at, like_count, retweet_count, reply_count, liked, bookmarked, in_reply_to_id, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  author_id=excluded.author_id,
  author_handle=excluded.author_handle,
  author_name=excluded.author_name,
  text=excluded.text,
  created_at=excluded.created_at,
  like_count=excluded.like_count,
  retweet_count=excluded.retweet_count,
  reply_count=excluded.reply_count,
  liked=excluded.liked,
  bookmarked=excluded.bookmarked,
  in_reply_to_id=excluded.in_reply_to_id,
  fetched_at=excluded.fetched_at
`)
	if err != nil {
		return fmt.Errorf("prepare tweet statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, t := range tweets {
		_, err := stmt.ExecContext(ctx,
			t.ID,
			t.Author.ID,
			t.Author.Handle,
			t.Author.Name,
			t.Text,
			t.CreatedAt.UTC().Format(time.RFC3339Nano),
			t.LikeCount,
			t.RetweetCount,
			t.ReplyCount,
			t.Liked,
			t.Bookmarked,
			t.InReplyToID,
			now,
		)
		if err != nil {
			return fmt.Errorf("save tweet %s: %w", t.ID, err)
		}
	}
	return nil
}

// ListFeed returns the cached page of feed in its original order.
func (r *Repository) ListFeed(ctx context.Context, feed string, limit int) ([]xapi.Tweet, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT t.id, t.author_id, t.author_handle, t.author_name, t.text, t.created_at,
       t.like_count, t.retweet_count, t.reply_count, t.liked, t.bookmarked, t.in_reply_to_id
FROM feed_entries f
JOIN tweets t ON t.id = f.tweet_id
WHERE f.feed = ?
ORDER BY f.position ASC
LIMIT ?
`, feed, limit)
	if err != nil {
		return nil, fmt.Errorf("query feed %s: %w", feed, err)
	}
	defer rows.Close()

	tweets := make([]xapi.Tweet, 0, limit)
	for rows.Next() {
		var t xapi.Tweet
		var createdAt string
		if err := rows.Scan(
			&t.ID,
			&t.Author.ID,
			&t.Author.Handle,
			&t.Author.Name,
			&t.Text,
			&createdAt,
			&t.LikeCount,
			&t.RetweetCount,
			&t.ReplyCount,
			&t.Liked,
			&t.Bookmarked,
			&t.InReplyToID,
		); err != nil {
			return nil, fmt.Errorf("scan tweet: %w", err)
		}
		t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for tweet %s: %w", t.ID, err)
		}
		tweets = append(tweets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed %s: %w", feed, err)
	}
	return tweets, nil
}

// RemoveFromFeed drops tweetID from the cached page of feed.
func (r *Repository) RemoveFromFeed(ctx context.Context, feed, tweetID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM feed_entries WHERE feed = ? AND tweet_id = ?`, feed, tweetID); err != nil {
		return fmt.Errorf("remove %s from feed %s: %w", tweetID, feed, err)
	}
	return nil
}

// SetLiked updates the cached flag. Unknown tweets are ignored.
func (r *Repository) SetLiked(ctx context.Context, tweetID string, liked bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE tweets SET liked = ? WHERE id = ?`, liked, tweetID); err != nil {
		return fmt.Errorf("update liked state for %s: %w", tweetID, err)
	}
	return nil
}

func (r *Repository) SetBookmarked(ctx context.Context, tweetID string, bookmarked bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE tweets SET bookmarked = ? WHERE id = ?`, bookmarked, tweetID); err != nil {
		return fmt.Errorf("update bookmarked state for %s: %w", tweetID, err)
	}
	return nil
}

// SaveNotifications replaces the cached notifications page.
func (r *Repository) SaveNotifications(ctx context.Context, notifications []xapi.Notification) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notifications`); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO notifications (id, position, kind, text, actor_handle, actor_name, tweet_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("prepare notification statement: %w", err)
	}
	defer stmt.Close()

	for i, n := range notifications {
		_, err := stmt.ExecContext(ctx,
			n.ID,
			i,
			n.Kind,
			n.Text,
			n.Actor.Handle,
			n.Actor.Name,
			n.TweetID,
			n.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("save notification %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) ListNotifications(ctx context.Context, limit int) ([]xapi.Notification, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, kind, text, actor_handle, actor_name, tweet_id, created_at
FROM notifications
ORDER BY position ASC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := make([]xapi.Notification, 0, limit)
	for rows.Next() {
		var n xapi.Notification
		var createdAt string
		if err := rows.Scan(&n.ID, &n.Kind, &n.Text, &n.Actor.Handle, &n.Actor.Name, &n.TweetID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for notification %s: %w", n.ID, err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (r *Repository) LoadPreferences(ctx context.Context) (Preferences, error) {
	prefs := DefaultPreferences()
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM preferences`)
	if err != nil {
		return prefs, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return prefs, fmt.Errorf("scan preference: %w", err)
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			continue
		}
		switch key {
		case "relative_time":
			prefs.RelativeTime = b
		case "compact":
			prefs.Compact = b
		}
	}
	if err := rows.Err(); err != nil {
		return prefs, fmt.Errorf("iterate preferences: %w", err)
	}
	return prefs, nil
}

func (r *Repository) SavePreferences(ctx context.Context, prefs Preferences) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	values := map[string]bool{
		"relative_time": prefs.RelativeTime,
		"compact":       prefs.Compact,
	}
	for key, value := range values {
		_, err := tx.ExecContext(ctx, `
INSERT INTO preferences (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value
`, key, strconv.FormatBool(value))
		if err != nil {
			return fmt.Errorf("save preference %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
