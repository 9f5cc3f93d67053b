package view

import (
	"strings"
	"testing"
	"time"

	"github.com/ainergiz/xfeed/internal/tui/actionstate"
	"github.com/ainergiz/xfeed/internal/xapi"
)

func TestDetailLines(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	tweet := sampleTweet(now)
	tweet.Text = "read this https://example.com/a. and https://example.com/a again"

	lines := DetailLines(DetailParams{
		Tweet:        tweet,
		State:        actionstate.State{Liked: true, LikePending: true},
		Now:          now,
		RelativeTime: true,
		Width:        80,
		Margin:       2,
	})
	joined := strings.Join(lines, "\n")
	for _, want := range []string{
		"  Jack (@jack)",
		"Posted: 2 hours ago",
		"Likes: 1,234",
		"Liked: yes (saving)",
		"Bookmarked: no",
		"URL: https://x.com/jack/status/42",
		"[1] https://example.com/a",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in detail:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "[2]") {
		t.Fatalf("duplicate links must collapse:\n%s", joined)
	}
}

func TestDetailLines_AbsoluteTime(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	lines := DetailLines(DetailParams{Tweet: sampleTweet(now), Now: now, Width: 80})
	if !strings.Contains(strings.Join(lines, "\n"), "Posted: 2026-02-09T10:00:00Z") {
		t.Fatalf("expected RFC3339 timestamp, got %v", lines)
	}
}

func TestProfileLines(t *testing.T) {
	lines := ProfileLines(xapi.User{Handle: "jack", Name: "Jack", Bio: "builder", Followers: 12000, Following: 3, Verified: true}, 40)
	if lines[0] != "Jack (@jack) ✓" {
		t.Fatalf("unexpected title %q", lines[0])
	}
	if lines[len(lines)-1] != "12,000 followers · 3 following" {
		t.Fatalf("unexpected counts %q", lines[len(lines)-1])
	}
}

func TestRenderDetailLines_Window(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}
	if got := RenderDetailLines(lines, 1, 2); got != "b\nc\n" {
		t.Fatalf("unexpected window %q", got)
	}
	if got := RenderDetailLines(lines, 9, 2); got != "d\n" {
		t.Fatalf("top must clamp, got %q", got)
	}
	if DetailMaxTop(4, 10) != 0 || DetailMaxTop(10, 4) != 6 {
		t.Fatal("unexpected max top")
	}
}
