package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainergiz/xfeed/internal/tui/paginate"
	"github.com/ainergiz/xfeed/internal/tui/state"
	"github.com/ainergiz/xfeed/internal/tui/view"
	"github.com/ainergiz/xfeed/internal/xapi"
)

type View string

const (
	ViewTimeline      View = "timeline"
	ViewBookmarks     View = "bookmarks"
	ViewNotifications View = "notifications"
	ViewPost          View = "post"
	ViewThread        View = "thread"
	ViewProfile       View = "profile"
)

// Route is one navigation stack entry. Arg is the tweet id for post and
// thread, the handle for profile, and empty for the main views.
type Route struct {
	View View
	Arg  string
}

var mainRoutes = []Route{
	{View: ViewTimeline},
	{View: ViewBookmarks},
	{View: ViewNotifications},
}

// ParseView maps a config start-view value to a main view.
func ParseView(s string) (View, bool) {
	for _, r := range mainRoutes {
		if string(r.View) == s {
			return r.View, true
		}
	}
	return "", false
}

func (r Route) Label() string {
	switch r.View {
	case ViewTimeline:
		return "Timeline"
	case ViewBookmarks:
		return "Bookmarks"
	case ViewNotifications:
		return "Notifications"
	case ViewPost:
		return "Post"
	case ViewThread:
		return "Thread"
	case ViewProfile:
		return "@" + r.Arg
	}
	return string(r.View)
}

// screen is the per-route state. Tweet lists and the notification list each
// own a private controller; the post view has neither.
type screen struct {
	route   Route
	tweets  *paginate.Controller[xapi.Tweet]
	notifs  *paginate.Controller[xapi.Notification]
	cursor  int
	scroll  int
	started bool
}

func (s *screen) isList() bool {
	return s.tweets != nil || s.notifs != nil
}

func (s *screen) size() int {
	switch {
	case s.tweets != nil:
		return s.tweets.Len()
	case s.notifs != nil:
		return s.notifs.Len()
	}
	return 0
}

func (s *screen) start() tea.Cmd {
	if s.started {
		return nil
	}
	s.started = true
	switch {
	case s.tweets != nil:
		return s.tweets.Init()
	case s.notifs != nil:
		return s.notifs.Init()
	}
	return nil
}

func (s *screen) refresh() tea.Cmd {
	switch {
	case s.tweets != nil:
		return s.tweets.Refresh()
	case s.notifs != nil:
		return s.notifs.Refresh()
	}
	return nil
}

func (s *screen) loadMore() tea.Cmd {
	switch {
	case s.tweets != nil:
		return s.tweets.LoadMore()
	case s.notifs != nil:
		return s.notifs.LoadMore()
	}
	return nil
}

func (s *screen) update(msg tea.Msg) (bool, tea.Cmd) {
	switch {
	case s.tweets != nil:
		return s.tweets.Update(msg)
	case s.notifs != nil:
		return s.notifs.Update(msg)
	}
	return false, nil
}

func (s *screen) unmount() {
	switch {
	case s.tweets != nil:
		s.tweets.Unmount()
	case s.notifs != nil:
		s.notifs.Unmount()
	}
}

// itemID is the identity of the row under the cursor.
func (s *screen) itemID() string {
	switch {
	case s.tweets != nil:
		if items := s.tweets.Items(); s.cursor >= 0 && s.cursor < len(items) {
			return items[s.cursor].ID
		}
	case s.notifs != nil:
		if items := s.notifs.Items(); s.cursor >= 0 && s.cursor < len(items) {
			return items[s.cursor].ID
		}
	}
	return ""
}

func (s *screen) indexOf(id string) int {
	switch {
	case s.tweets != nil:
		return state.IndexByID(s.tweets.Items(), tweetID, id)
	case s.notifs != nil:
		return state.IndexByID(s.notifs.Items(), notificationID, id)
	}
	return -1
}

func (s *screen) loading() bool {
	switch {
	case s.tweets != nil:
		return s.tweets.Loading() || s.tweets.LoadingMore()
	case s.notifs != nil:
		return s.notifs.Loading() || s.notifs.LoadingMore()
	}
	return false
}

func (s *screen) footer() view.FooterParams {
	switch {
	case s.tweets != nil:
		return footerParams(s.tweets)
	case s.notifs != nil:
		return footerParams(s.notifs)
	}
	return view.FooterParams{}
}

func footerParams[T any](c *paginate.Controller[T]) view.FooterParams {
	return view.FooterParams{
		Shown:          c.Len(),
		HasMore:        c.HasMore(),
		Loading:        c.Loading(),
		LoadingMore:    c.LoadingMore(),
		RetryCountdown: c.RetryCountdown(),
		LoadMoreFailed: c.LoadMoreErr() != nil,
	}
}

// failure is the error message shown in place of an empty list.
func (s *screen) failure() string {
	switch {
	case s.tweets != nil && s.tweets.Err() != nil:
		return s.tweets.ErrorMessage()
	case s.notifs != nil && s.notifs.Err() != nil:
		return s.notifs.ErrorMessage()
	}
	return ""
}

// retryable reports whether a failed first load may succeed on a manual
// refresh right now.
func (s *screen) retryable() bool {
	var apiErr *xapi.APIError
	switch {
	case s.tweets != nil:
		apiErr = s.tweets.APIError()
		if s.tweets.RetryBlocked() {
			return false
		}
	case s.notifs != nil:
		apiErr = s.notifs.APIError()
		if s.notifs.RetryBlocked() {
			return false
		}
	}
	return apiErr != nil && apiErr.Transient()
}

func tweetID(t xapi.Tweet) string { return t.ID }

func notificationID(n xapi.Notification) string { return n.ID }
