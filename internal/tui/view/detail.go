package view

import (
	"fmt"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/ainergiz/xfeed/internal/render/text"
	"github.com/ainergiz/xfeed/internal/tui/actionstate"
	"github.com/ainergiz/xfeed/internal/xapi"
)

type DetailParams struct {
	Tweet        xapi.Tweet
	State        actionstate.State
	Now          time.Time
	RelativeTime bool
	Width        int
	Margin       int
}

func DetailLines(p DetailParams) []string {
	width := p.Width - 2*p.Margin
	if width < 10 {
		width = 10
	}
	lines := make([]string, 0, 16)

	header := "@" + p.Tweet.Author.Handle
	if p.Tweet.Author.Name != "" {
		header = p.Tweet.Author.Name + " (" + header + ")"
	}
	lines = append(lines, text.Lines(header, width)...)
	lines = append(lines, strings.Repeat("=", max(1, min(width, len([]rune(header))))))
	lines = append(lines, "")

	if p.Tweet.InReplyToID != "" {
		lines = append(lines, "Replying to "+p.Tweet.InReplyToID, "")
	}
	lines = append(lines, text.Lines(p.Tweet.Text, width)...)
	lines = append(lines, "")

	lines = append(lines, "Posted: "+postedLabel(p.Now, p.Tweet.CreatedAt, p.RelativeTime))
	lines = append(lines, fmt.Sprintf("Replies: %s  Reposts: %s  Likes: %s",
		humanize.Comma(int64(p.Tweet.ReplyCount)),
		humanize.Comma(int64(p.Tweet.RetweetCount)),
		humanize.Comma(int64(p.Tweet.LikeCount)),
	))
	lines = append(lines, "Liked: "+flagLabel(p.State.Liked, p.State.LikePending))
	lines = append(lines, "Bookmarked: "+flagLabel(p.State.Bookmarked, p.State.BookmarkPending))
	lines = append(lines, text.Lines("URL: "+p.Tweet.URL(), width)...)

	if links := text.Links(p.Tweet.Text); len(links) > 0 {
		lines = append(lines, "", "Links:")
		for i, link := range links {
			lines = append(lines, fmt.Sprintf("  [%d] %s", i+1, link))
		}
	}
	return leftPadLines(lines, p.Margin)
}

// ProfileLines is the header shown above a user's tweets.
func ProfileLines(user xapi.User, width int) []string {
	name := user.Name
	if name == "" {
		name = user.Handle
	}
	title := name + " (@" + user.Handle + ")"
	if user.Verified {
		title += " ✓"
	}
	lines := []string{title}
	lines = append(lines, text.Lines(user.Bio, width)...)
	lines = append(lines, fmt.Sprintf("%s followers · %s following",
		humanize.Comma(int64(user.Followers)),
		humanize.Comma(int64(user.Following)),
	))
	return lines
}

func DetailMaxTop(linesLen, bodyHeight int) int {
	maxTop := linesLen - bodyHeight
	if maxTop < 0 {
		return 0
	}
	return maxTop
}

func RenderDetailLines(lines []string, top, maxLines int) string {
	if len(lines) == 0 {
		return ""
	}
	if top < 0 {
		top = 0
	}
	if top > len(lines)-1 {
		top = len(lines) - 1
	}
	end := len(lines)
	if maxLines > 0 && top+maxLines < end {
		end = top + maxLines
	}
	return strings.Join(lines[top:end], "\n") + "\n"
}

func postedLabel(now, then time.Time, relative bool) string {
	if then.IsZero() {
		return "unknown"
	}
	if !relative {
		return then.UTC().Format(time.RFC3339)
	}
	if now.IsZero() {
		now = time.Now()
	}
	return humanize.RelTime(then, now, "ago", "from now")
}

func flagLabel(on, pending bool) string {
	label := "no"
	if on {
		label = "yes"
	}
	if pending {
		label += " (saving)"
	}
	return label
}

func leftPadLines(lines []string, padding int) []string {
	if padding <= 0 || len(lines) == 0 {
		return lines
	}
	prefix := strings.Repeat(" ", padding)
	out := make([]string, len(lines))
	for i, line := range lines {
		if line == "" {
			continue
		}
		out[i] = prefix + line
	}
	return out
}
