package view

import (
	"fmt"
	"strings"

	humanize "github.com/dustin/go-humanize"

	tuitheme "github.com/ainergiz/xfeed/internal/tui/theme"
)

// Tab is one main view in the header.
type Tab struct {
	Label  string
	Active bool
}

func Tabs(tabs []Tab, th tuitheme.Theme) string {
	parts := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		label := fmt.Sprintf("%d %s", i+1, tab.Label)
		if tab.Active {
			parts = append(parts, th.TabActive.Render(label))
			continue
		}
		parts = append(parts, th.Tab.Render(label))
	}
	return strings.Join(parts, " ")
}

// Breadcrumb renders the navigation stack bottom to top.
func Breadcrumb(labels []string, th tuitheme.Theme) string {
	if len(labels) < 2 {
		return ""
	}
	return th.Crumb.Render(strings.Join(labels, " › "))
}

func Toolbar(screen string) string {
	switch screen {
	case "post":
		return "j/k scroll | l like | b bookmark | t thread | p profile | o open | y copy | esc back | ? help"
	case "profile", "thread":
		return "j/k move | enter open | l like | b bookmark | r refresh | n more | esc back | ? help"
	case "notifications":
		return "j/k move | enter open | p profile | r refresh | n more | tab views | ? help"
	}
	return "j/k move | enter open | l like | b bookmark | r refresh | n more | tab views | ? help"
}

// FooterParams describes the pagination state of the visible list.
type FooterParams struct {
	Shown          int
	HasMore        bool
	Loading        bool
	LoadingMore    bool
	RetryCountdown int
	LoadMoreFailed bool
}

func Footer(p FooterParams, th tuitheme.Theme) string {
	parts := []string{th.MetaValue.Render(humanize.Comma(int64(p.Shown)) + " shown")}
	switch {
	case p.Loading:
		parts = append(parts, th.StateLoad.Render("loading"))
	case p.LoadingMore:
		parts = append(parts, th.StateLoad.Render("loading more"))
	case p.LoadMoreFailed:
		parts = append(parts, th.StateWarn.Render("could not load more, press r to refresh"))
	case !p.HasMore && p.Shown > 0:
		parts = append(parts, th.MetaLabel.Render("end of list"))
	}
	if p.RetryCountdown > 0 {
		parts = append(parts, th.StateWarn.Render(fmt.Sprintf("rate limited, retry in %ds", p.RetryCountdown)))
	}
	return strings.Join(parts, " • ")
}

func StatusMessage(loading bool, status, warning string, th tuitheme.Theme) string {
	stateLabel := th.StateIdle.Render("state")
	state := "idle"
	if loading {
		stateLabel = th.StateLoad.Render("state")
		state = "loading"
	}
	if warning != "" {
		stateLabel = th.StateWarn.Render("state")
		state = "warning"
	}
	main := "Ready"
	if status != "" {
		main = status
	} else if warning != "" {
		main = warning
	}
	return fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
}
