package view

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	humanize "github.com/dustin/go-humanize"

	"github.com/ainergiz/xfeed/internal/tui/actionstate"
	tuitheme "github.com/ainergiz/xfeed/internal/tui/theme"
	"github.com/ainergiz/xfeed/internal/xapi"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

var shortMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "now", DivBy: time.Second},
	{D: time.Hour, Format: "%dm", DivBy: time.Minute},
	{D: humanize.Day, Format: "%dh", DivBy: time.Hour},
	{D: time.Duration(math.MaxInt64), Format: "%dd", DivBy: humanize.Day},
}

type TweetLineParams struct {
	Tweet        xapi.Tweet
	State        actionstate.State
	Now          time.Time
	RelativeTime bool
	Compact      bool
	Active       bool
	Width        int
}

func RenderTweetLine(p TweetLineParams, th tuitheme.Theme) string {
	cursorMarker := " "
	if p.Active {
		cursorMarker = ">"
	}
	markers := th.Markers(p.State.Liked, p.State.LikePending, p.State.Bookmarked, p.State.BookmarkPending)
	prefix := fmt.Sprintf(" %s %s ", cursorMarker, markers)

	author := "@" + p.Tweet.Author.Handle
	if !p.Compact && p.Tweet.Author.Name != "" {
		author = p.Tweet.Author.Name + " " + author
	}
	body := oneLine(p.Tweet.Text)
	if p.Tweet.InReplyToID != "" && !p.Compact {
		body = "↩ " + body
	}
	right := "[" + TimestampLabel(p.Now, p.Tweet.CreatedAt, p.RelativeTime) + "]"
	if !p.Compact {
		right = CountsLabel(p.Tweet) + " " + right
	}

	available := p.Width - visibleLen(prefix) - visibleLen(right) - 1
	if available < 1 {
		available = 1
	}
	label := truncateRunes(author+"  "+body, available)
	styled := label
	if strings.HasPrefix(label, author) {
		styled = th.Author.Render(author) + th.Body.Render(label[len(author):])
	}
	gap := p.Width - visibleLen(prefix) - visibleLen(label) - visibleLen(right)
	if gap < 1 {
		gap = 1
	}
	return th.RenderActiveLine(p.Active, prefix+styled+strings.Repeat(" ", gap)+th.MetaLabel.Render(right))
}

type NotificationLineParams struct {
	Notification xapi.Notification
	Now          time.Time
	RelativeTime bool
	Active       bool
	Width        int
}

func RenderNotificationLine(p NotificationLineParams, th tuitheme.Theme) string {
	cursorMarker := " "
	if p.Active {
		cursorMarker = ">"
	}
	prefix := fmt.Sprintf(" %s %s ", cursorMarker, NotificationIcon(p.Notification.Kind))
	right := "[" + TimestampLabel(p.Now, p.Notification.CreatedAt, p.RelativeTime) + "]"

	label := oneLine(NotificationLabel(p.Notification))
	available := p.Width - visibleLen(prefix) - visibleLen(right) - 1
	if available < 1 {
		available = 1
	}
	label = truncateRunes(label, available)
	gap := p.Width - visibleLen(prefix) - visibleLen(label) - visibleLen(right)
	if gap < 1 {
		gap = 1
	}
	return th.RenderActiveLine(p.Active, prefix+th.Body.Render(label)+strings.Repeat(" ", gap)+th.MetaLabel.Render(right))
}

func NotificationIcon(kind string) string {
	switch kind {
	case "like":
		return "♥"
	case "retweet":
		return "⟳"
	case "follow":
		return "+"
	case "reply":
		return "↩"
	case "mention":
		return "@"
	}
	return "•"
}

func NotificationLabel(n xapi.Notification) string {
	actor := n.Actor.Name
	if actor == "" {
		actor = "@" + n.Actor.Handle
	}
	text := strings.TrimSpace(n.Text)
	switch {
	case text == "":
		return actor
	case strings.HasPrefix(text, actor):
		return text
	}
	return actor + ": " + text
}

// CountsLabel renders reply, repost and like counts.
func CountsLabel(t xapi.Tweet) string {
	return fmt.Sprintf("↩%s ⟳%s ♥%s",
		humanize.Comma(int64(t.ReplyCount)),
		humanize.Comma(int64(t.RetweetCount)),
		humanize.Comma(int64(t.LikeCount)),
	)
}

func TimestampLabel(now, then time.Time, relative bool) string {
	if !relative {
		if then.IsZero() {
			return "unknown"
		}
		return then.UTC().Format(time.DateOnly)
	}
	return RelativeTimeLabel(now, then)
}

// RelativeTimeLabel is the short form used in list rows ("now", "5m", "3h", "2d").
func RelativeTimeLabel(now, then time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	if then.IsZero() {
		return "unknown"
	}
	if then.After(now) {
		return "now"
	}
	return humanize.CustomRelTime(then, now, "", "", shortMagnitudes)
}

// RenderListBody renders rows start..end, one line each.
func RenderListBody(start, end, cursor int, renderLine func(i int, active bool) string) string {
	if start < 0 || start >= end {
		return ""
	}
	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderLine(i, i == cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return strings.Repeat(".", maxLen)
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(stripANSIText(s))
}

func stripANSIText(s string) string {
	return reANSICodes.ReplaceAllString(s, "")
}
