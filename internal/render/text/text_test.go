package text

import (
	"strings"
	"testing"
)

func TestFlatten_DecodesEntitiesAndBreaks(t *testing.T) {
	got := Flatten("fish &amp; chips<br/>at <a href=\"https://x.com\">noon</a>")
	if got != "fish & chips\nat noon" {
		t.Fatalf("unexpected flatten output: %q", got)
	}
}

func TestFlatten_PlainTextCollapsesSpaces(t *testing.T) {
	got := Flatten("  hello    world \n\n\n second  line ")
	if got != "hello world\n\nsecond line" {
		t.Fatalf("unexpected flatten output: %q", got)
	}
}

func TestFlatten_DropsScriptBodies(t *testing.T) {
	got := Flatten("<p>before</p><script>alert(1)</script><p>after</p>")
	if strings.Contains(got, "alert") {
		t.Fatalf("script content leaked: %q", got)
	}
	if got != "before\nafter" {
		t.Fatalf("unexpected flatten output: %q", got)
	}
}

func TestFlatten_KeepsLessThanInProse(t *testing.T) {
	if got := Flatten("a < b"); got != "a < b" {
		t.Fatalf("unexpected flatten output: %q", got)
	}
}

func TestFlatten_KeepsLessThanBeforeLetter(t *testing.T) {
	if got := Flatten("x<y then z"); got != "x<y then z" {
		t.Fatalf("unexpected flatten output: %q", got)
	}
	if got := Flatten("if a<b &amp;&amp; c"); got != "if a<b && c" {
		t.Fatalf("unexpected flatten output: %q", got)
	}
	if got := Flatten("x<y then <b>bold</b>"); got != "x<y then bold" {
		t.Fatalf("unexpected flatten output: %q", got)
	}
}

func TestFlatten_LeavesBareAmpersand(t *testing.T) {
	if got := Flatten("Q&A today"); got != "Q&A today" {
		t.Fatalf("unexpected flatten output: %q", got)
	}
}

func TestLines_WrapsAtWidth(t *testing.T) {
	lines := Lines("one two three four five", 9)
	if len(lines) < 3 {
		t.Fatalf("expected wrapping, got %#v", lines)
	}
	for _, line := range lines {
		if len(line) > 9 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
}

func TestLines_EmptyInput(t *testing.T) {
	if lines := Lines("   ", 20); lines != nil {
		t.Fatalf("expected nil lines, got %#v", lines)
	}
}

func TestLinks_DeduplicatesAndTrimsPunctuation(t *testing.T) {
	links := Links("see https://a.example/x, and https://a.example/x. also http://b.example")
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %#v", links)
	}
	if links[0] != "https://a.example/x" || links[1] != "http://b.example" {
		t.Fatalf("unexpected links: %#v", links)
	}
}
