package theme

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestMarkers_ByState(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI)
	th := Default()

	if got := th.Markers(false, false, false, false); got != "  " {
		t.Fatalf("expected blank markers, got %q", got)
	}

	liked := th.Markers(true, false, false, false)
	if !strings.Contains(liked, "♥") || !strings.Contains(liked, "\x1b[") {
		t.Fatalf("expected styled like marker, got %q", liked)
	}

	both := th.Markers(true, false, true, true)
	if !strings.Contains(both, "♥") || !strings.Contains(both, "★") {
		t.Fatalf("expected both markers, got %q", both)
	}
}

func TestRenderActiveLine(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI)
	th := Default()
	if got := th.RenderActiveLine(false, "plain"); got != "plain" {
		t.Fatalf("inactive line must be unchanged, got %q", got)
	}
	if got := th.RenderActiveLine(true, "plain"); !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected styled active line, got %q", got)
	}
}
