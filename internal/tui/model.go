package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainergiz/xfeed/internal/storage"
	tuiactions "github.com/ainergiz/xfeed/internal/tui/actions"
	"github.com/ainergiz/xfeed/internal/tui/actionstate"
	"github.com/ainergiz/xfeed/internal/tui/nav"
	"github.com/ainergiz/xfeed/internal/tui/paginate"
	"github.com/ainergiz/xfeed/internal/tui/platform"
	"github.com/ainergiz/xfeed/internal/tui/state"
	tuitheme "github.com/ainergiz/xfeed/internal/tui/theme"
	"github.com/ainergiz/xfeed/internal/tui/view"
	"github.com/ainergiz/xfeed/internal/xapi"
)

const (
	statusTTL         = 4 * time.Second
	prefetchThreshold = 3
)

type Service interface {
	HomeTimeline(ctx context.Context, cursor string) ([]xapi.Tweet, string, error)
	Bookmarks(ctx context.Context, cursor string) ([]xapi.Tweet, string, error)
	Notifications(ctx context.Context, cursor string) ([]xapi.Notification, string, error)
	Replies(ctx context.Context, tweetID, cursor string) ([]xapi.Tweet, string, error)
	UserTweets(ctx context.Context, handle, cursor string) ([]xapi.Tweet, string, error)
	tuiactions.Service
}

// Options are the startup inputs: the first view, the cached first pages
// and the persisted preferences.
type Options struct {
	StartView     View
	Home          []xapi.Tweet
	Bookmarks     []xapi.Tweet
	Notifications []xapi.Notification
	Preferences   storage.Preferences
	FetchTimeout  time.Duration
}

type Model struct {
	service  Service
	store    *actionstate.Store
	status   *StatusLine
	nav      *nav.History[Route]
	screens  map[Route]*screen
	tweets   map[string]xapi.Tweet
	profiles map[string]xapi.User
	keys     KeyMap
	spinner  spinner.Model
	theme    tuitheme.Theme

	relativeTime bool
	compact      bool
	showHelp     bool
	width        int
	height       int
	fetchTimeout time.Duration

	openURLFn func(string) error
	copyURLFn func(string) error
	nowFn     func() time.Time
}

func NewModel(service Service, store *actionstate.Store, status *StatusLine, opts Options) Model {
	if status == nil {
		status = NewStatusLine()
	}
	start := opts.StartView
	if start == "" {
		start = ViewTimeline
	}
	th := tuitheme.Default()
	m := Model{
		service:      service,
		store:        store,
		status:       status,
		nav:          nav.NewHistory(Route{View: start}, mainRoutes...),
		screens:      make(map[Route]*screen),
		tweets:       make(map[string]xapi.Tweet),
		profiles:     make(map[string]xapi.User),
		keys:         DefaultKeyMap(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(th.StateLoad)),
		theme:        th,
		relativeTime: opts.Preferences.RelativeTime,
		compact:      opts.Preferences.Compact,
		fetchTimeout: opts.FetchTimeout,
		openURLFn:    platform.OpenURLInBrowser,
		copyURLFn:    platform.CopyURLToClipboard,
		nowFn:        time.Now,
	}
	for _, r := range mainRoutes {
		m.screens[r] = m.newScreen(r)
	}
	m.seed(ViewTimeline, opts.Home)
	m.seed(ViewBookmarks, opts.Bookmarks)
	if len(opts.Notifications) > 0 {
		m.screens[Route{View: ViewNotifications}].notifs.Seed(opts.Notifications)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.currentScreen().start())
}

// Update schedules the status line to clear whenever a message changed it.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	seq := m.status.seq
	next, cmd := m.update(msg)
	if m.status.seq != seq && m.status.Text() != "" {
		cmd = tea.Batch(cmd, clearStatusCmd(m.status.seq, statusTTL))
	}
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case clearStatusMsg:
		m.status.clear(msg.id)
		return m, nil
	case actionstate.ResultMsg:
		m.store.Update(msg)
		m.afterMutation(msg)
		return m, nil
	case tuiactions.TweetLoadedMsg:
		observeTweets(m.tweets, m.store)([]xapi.Tweet{msg.Tweet})
		return m, nil
	case tuiactions.TweetLoadErrorMsg:
		m.status.Error("Could not load post: " + xapi.Describe(msg.Err))
		return m, nil
	case tuiactions.ProfileLoadedMsg:
		m.profiles[msg.Handle] = msg.User
		return m, nil
	case tuiactions.ProfileErrorMsg:
		m.status.Error("Could not load profile: " + xapi.Describe(msg.Err))
		return m, nil
	case tuiactions.PreferencesSavedMsg:
		m.status.Success(msg.Status)
		return m, nil
	case tuiactions.PreferencesErrorMsg:
		m.status.Error("Could not persist UI preferences")
		return m, nil
	case tuiactions.OpenURLSuccessMsg:
		m.status.Success(msg.Status)
		return m, nil
	case tuiactions.OpenURLErrorMsg:
		m.status.Error(msg.Err.Error())
		return m, nil
	}
	return m.routeToScreens(msg)
}

// routeToScreens hands controller messages to the screen that owns them and
// keeps that screen's cursor on the same item.
func (m Model) routeToScreens(msg tea.Msg) (Model, tea.Cmd) {
	for _, sc := range m.screens {
		anchor := sc.itemID()
		handled, cmd := sc.update(msg)
		if !handled {
			continue
		}
		restoreCursor(sc, anchor)
		return m, cmd
	}
	return m, nil
}

// afterMutation drops a tweet from the bookmarks list once its bookmark is
// confirmed removed.
func (m Model) afterMutation(res actionstate.ResultMsg) {
	if res.Kind != actionstate.KindBookmark {
		return
	}
	st := m.store.Get(res.ID)
	if st.Bookmarked || st.BookmarkPending {
		return
	}
	sc := m.screens[Route{View: ViewBookmarks}]
	if sc == nil || !sc.tweets.RemoveItem(res.ID) {
		return
	}
	sc.cursor = state.ClampCursor(sc.cursor, sc.size())
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Back) {
			m.showHelp = false
		}
		return m, nil
	}

	sc := m.currentScreen()
	switch {
	case key.Matches(msg, m.keys.NextView):
		return m.cycle(1)
	case key.Matches(msg, m.keys.PrevView):
		return m.cycle(-1)
	case key.Matches(msg, m.keys.Timeline):
		return m.jump(mainRoutes[0])
	case key.Matches(msg, m.keys.Bookmarks):
		return m.jump(mainRoutes[1])
	case key.Matches(msg, m.keys.Notifications):
		return m.jump(mainRoutes[2])
	case key.Matches(msg, m.keys.Back):
		return m.back()
	case key.Matches(msg, m.keys.Up):
		return m.move(sc, -1)
	case key.Matches(msg, m.keys.Down):
		return m.move(sc, 1)
	case key.Matches(msg, m.keys.PageUp):
		return m.move(sc, -state.PageStep(m.height, m.status.Text() != ""))
	case key.Matches(msg, m.keys.PageDown):
		return m.move(sc, state.PageStep(m.height, m.status.Text() != ""))
	case key.Matches(msg, m.keys.Top):
		sc.cursor = 0
		sc.scroll = 0
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		if sc.isList() {
			sc.cursor = state.ClampCursor(sc.size()-1, sc.size())
			return m, m.prefetch(sc)
		}
		sc.scroll = view.DetailMaxTop(len(m.postLines(sc)), m.bodyHeight(sc))
		return m, nil
	case key.Matches(msg, m.keys.Open):
		return m.openSelected(sc)
	case key.Matches(msg, m.keys.Like):
		if id := m.selectedTweetID(sc); id != "" {
			return m, m.store.ToggleLike(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.Bookmark):
		if id := m.selectedTweetID(sc); id != "" {
			return m, m.store.ToggleBookmark(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.Thread):
		if id := m.selectedTweetID(sc); id != "" {
			return m.push(Route{View: ViewThread, Arg: id})
		}
		return m, nil
	case key.Matches(msg, m.keys.Profile):
		if handle := m.selectedHandle(sc); handle != "" {
			return m.push(Route{View: ViewProfile, Arg: handle})
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh(sc)
	case key.Matches(msg, m.keys.LoadMore):
		return m, sc.loadMore()
	case key.Matches(msg, m.keys.OpenURL):
		if t, ok := m.selectedTweet(sc); ok {
			return m, tuiactions.OpenURLCmd(t.URL(), m.openURLFn, m.copyURLFn)
		}
		return m, nil
	case key.Matches(msg, m.keys.CopyURL):
		if t, ok := m.selectedTweet(sc); ok {
			return m, tuiactions.CopyURLCmd(t.URL(), m.copyURLFn)
		}
		return m, nil
	case key.Matches(msg, m.keys.RelativeTime):
		m.relativeTime = !m.relativeTime
		return m, tuiactions.SavePreferencesCmd(m.service, m.preferences())
	case key.Matches(msg, m.keys.Compact):
		m.compact = !m.compact
		return m, tuiactions.SavePreferencesCmd(m.service, m.preferences())
	}
	return m, nil
}

func (m Model) cycle(direction int) (Model, tea.Cmd) {
	if !m.nav.Cycle(direction) {
		return m, nil
	}
	return m, m.enter(m.nav.Current())
}

// jump replaces the current main view. It does nothing on top of an overlay.
func (m Model) jump(route Route) (Model, tea.Cmd) {
	if !m.nav.IsMainView(m.nav.Current()) || m.nav.Current() == route {
		return m, nil
	}
	m.nav.Replace(route)
	return m, m.enter(route)
}

// push adds route on top of the stack, even when it is already current.
// Duplicate entries share one screen.
func (m Model) push(route Route) (Model, tea.Cmd) {
	m.nav.Push(route)
	return m, m.enter(route)
}

// back pops one entry and unmounts the screens no longer on the stack.
func (m Model) back() (Model, tea.Cmd) {
	if !m.nav.Pop() {
		return m, nil
	}
	for route, sc := range m.screens {
		if m.nav.IsMainView(route) || m.nav.Contains(route) {
			continue
		}
		sc.unmount()
		delete(m.screens, route)
	}
	return m, nil
}

// enter makes sure route has a screen and starts its first load.
func (m Model) enter(route Route) tea.Cmd {
	sc, ok := m.screens[route]
	if !ok {
		sc = m.newScreen(route)
		m.screens[route] = sc
	}
	cmds := []tea.Cmd{sc.start()}
	switch route.View {
	case ViewPost:
		if _, ok := m.tweets[route.Arg]; !ok {
			cmds = append(cmds, tuiactions.LoadTweetCmd(m.service, route.Arg))
		}
	case ViewProfile:
		if _, ok := m.profiles[route.Arg]; !ok {
			cmds = append(cmds, tuiactions.LoadProfileCmd(m.service, route.Arg))
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) refresh(sc *screen) (Model, tea.Cmd) {
	if !sc.isList() {
		if sc.route.View == ViewPost {
			return m, tuiactions.LoadTweetCmd(m.service, sc.route.Arg)
		}
		return m, nil
	}
	sc.started = true
	cmd := sc.refresh()
	if cmd == nil {
		if wait := sc.footer().RetryCountdown; wait > 0 {
			m.status.Error(fmt.Sprintf("Rate limited, retry in %ds", wait))
		}
	}
	return m, cmd
}

func (m Model) move(sc *screen, delta int) (Model, tea.Cmd) {
	if !sc.isList() {
		maxTop := view.DetailMaxTop(len(m.postLines(sc)), m.bodyHeight(sc))
		sc.scroll = min(max(sc.scroll+delta, 0), maxTop)
		return m, nil
	}
	sc.cursor = state.ClampCursor(sc.cursor+delta, sc.size())
	return m, m.prefetch(sc)
}

// prefetch asks for the next page once the cursor nears the end.
func (m Model) prefetch(sc *screen) tea.Cmd {
	if !sc.isList() || !state.ShouldPrefetch(sc.cursor, sc.size(), prefetchThreshold) {
		return nil
	}
	return sc.loadMore()
}

func (m Model) openSelected(sc *screen) (Model, tea.Cmd) {
	switch {
	case sc.tweets != nil:
		if id := sc.itemID(); id != "" {
			return m.push(Route{View: ViewPost, Arg: id})
		}
	case sc.notifs != nil:
		items := sc.notifs.Items()
		if sc.cursor >= len(items) {
			return m, nil
		}
		n := items[sc.cursor]
		if n.TweetID != "" {
			return m.push(Route{View: ViewPost, Arg: n.TweetID})
		}
		if n.Actor.Handle != "" {
			return m.push(Route{View: ViewProfile, Arg: n.Actor.Handle})
		}
	}
	return m, nil
}

func (m Model) selectedTweetID(sc *screen) string {
	switch {
	case sc.route.View == ViewPost:
		return sc.route.Arg
	case sc.tweets != nil:
		return sc.itemID()
	case sc.notifs != nil:
		if items := sc.notifs.Items(); sc.cursor < len(items) {
			return items[sc.cursor].TweetID
		}
	}
	return ""
}

func (m Model) selectedTweet(sc *screen) (xapi.Tweet, bool) {
	id := m.selectedTweetID(sc)
	if id == "" {
		return xapi.Tweet{}, false
	}
	t, ok := m.tweets[id]
	return t, ok
}

func (m Model) selectedHandle(sc *screen) string {
	if sc.notifs != nil {
		if items := sc.notifs.Items(); sc.cursor < len(items) {
			return items[sc.cursor].Actor.Handle
		}
		return ""
	}
	t, ok := m.selectedTweet(sc)
	if !ok {
		return ""
	}
	return t.Author.Handle
}

func (m Model) newScreen(route Route) *screen {
	sc := &screen{route: route}
	opts := []paginate.Option{paginate.WithNotifier(m.status), paginate.WithTimeout(m.fetchTimeout)}
	switch route.View {
	case ViewTimeline:
		sc.tweets = paginate.New(pages(m.service.HomeTimeline), tweetID, opts...)
	case ViewBookmarks:
		sc.tweets = paginate.New(pages(m.service.Bookmarks), tweetID, opts...)
	case ViewNotifications:
		sc.notifs = paginate.New(pages(m.service.Notifications), notificationID, opts...)
	case ViewThread:
		id := route.Arg
		sc.tweets = paginate.New(pages(func(ctx context.Context, cursor string) ([]xapi.Tweet, string, error) {
			return m.service.Replies(ctx, id, cursor)
		}), tweetID, opts...)
	case ViewProfile:
		handle := route.Arg
		sc.tweets = paginate.New(pages(func(ctx context.Context, cursor string) ([]xapi.Tweet, string, error) {
			return m.service.UserTweets(ctx, handle, cursor)
		}), tweetID, opts...)
	}
	if sc.tweets != nil {
		sc.tweets.OnPage(observeTweets(m.tweets, m.store))
	}
	return sc
}

func (m Model) seed(v View, tweets []xapi.Tweet) {
	if len(tweets) == 0 {
		return
	}
	observeTweets(m.tweets, m.store)(tweets)
	m.screens[Route{View: v}].tweets.Seed(tweets)
}

// observeTweets indexes tweets by id and feeds their server flags to the
// action-state store.
func observeTweets(index map[string]xapi.Tweet, store *actionstate.Store) func([]xapi.Tweet) {
	return func(tweets []xapi.Tweet) {
		for _, t := range tweets {
			index[t.ID] = t
			store.Init(t.ID, t.Liked, t.Bookmarked)
		}
	}
}

func pages[T any](fn func(ctx context.Context, cursor string) ([]T, string, error)) paginate.FetchFunc[T] {
	return func(ctx context.Context, cursor string) (paginate.Page[T], error) {
		items, next, err := fn(ctx, cursor)
		if err != nil {
			return paginate.Page[T]{}, err
		}
		return paginate.Page[T]{Items: items, NextCursor: next}, nil
	}
}

func restoreCursor(sc *screen, anchor string) {
	if anchor != "" {
		if i := sc.indexOf(anchor); i >= 0 {
			sc.cursor = i
			return
		}
	}
	sc.cursor = state.ClampCursor(sc.cursor, sc.size())
}

func (m Model) currentScreen() *screen {
	route := m.nav.Current()
	sc, ok := m.screens[route]
	if !ok {
		sc = m.newScreen(route)
		m.screens[route] = sc
	}
	return sc
}

func (m Model) preferences() storage.Preferences {
	return storage.Preferences{RelativeTime: m.relativeTime, Compact: m.compact}
}

// Route reports the route on top of the navigation stack.
func (m Model) Route() Route {
	return m.nav.Current()
}

func (m Model) View() string {
	var b strings.Builder
	sc := m.currentScreen()

	b.WriteString(m.theme.Title.Render("xfeed") + "  " + view.Tabs(m.tabs(), m.theme) + "\n")
	if crumb := view.Breadcrumb(m.crumbs(), m.theme); crumb != "" {
		b.WriteString(crumb + "\n")
	}
	b.WriteString(view.Toolbar(string(sc.route.View)) + "\n\n")

	if m.showHelp {
		b.WriteString("Help (? to close)\n\n")
		b.WriteString(strings.Join(m.keys.HelpLines(), "\n"))
		b.WriteString("\n")
	} else if sc.isList() {
		b.WriteString(m.listView(sc))
	} else {
		b.WriteString(m.postView(sc))
	}

	b.WriteString("\n")
	b.WriteString(m.messagePanel(sc))
	b.WriteString("\n")
	if sc.isList() {
		b.WriteString(view.Footer(sc.footer(), m.theme))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) listView(sc *screen) string {
	var b strings.Builder
	header := m.listHeader(sc)
	for _, line := range header {
		b.WriteString(line + "\n")
	}
	if len(header) > 0 {
		b.WriteString("\n")
	}

	if sc.size() == 0 {
		switch {
		case sc.loading():
			b.WriteString(m.spinner.View() + " Loading...\n")
		case sc.failure() != "":
			b.WriteString("Could not load: " + sc.failure() + "\n")
			if sc.retryable() {
				b.WriteString("Press r to try again.\n")
			}
		default:
			b.WriteString("Nothing here yet.\n")
		}
		return b.String()
	}

	start, end := state.CenteredWindow(sc.size(), sc.cursor, m.bodyHeight(sc))
	b.WriteString(view.RenderListBody(start, end, sc.cursor, m.rowRenderer(sc)))
	return b.String()
}

func (m Model) listHeader(sc *screen) []string {
	switch sc.route.View {
	case ViewProfile:
		if user, ok := m.profiles[sc.route.Arg]; ok {
			return view.ProfileLines(user, m.contentWidth())
		}
		return []string{"@" + sc.route.Arg}
	case ViewThread:
		if root, ok := m.tweets[sc.route.Arg]; ok {
			return []string{view.RenderTweetLine(view.TweetLineParams{
				Tweet:        root,
				State:        m.store.Get(root.ID),
				Now:          m.nowFn(),
				RelativeTime: m.relativeTime,
				Compact:      true,
				Width:        m.contentWidth(),
			}, m.theme), m.theme.Section.Render("Replies")}
		}
		return []string{m.theme.Section.Render("Replies")}
	}
	return nil
}

func (m Model) rowRenderer(sc *screen) func(i int, active bool) string {
	now := m.nowFn()
	width := m.contentWidth()
	if sc.notifs != nil {
		items := sc.notifs.Items()
		return func(i int, active bool) string {
			return view.RenderNotificationLine(view.NotificationLineParams{
				Notification: items[i],
				Now:          now,
				RelativeTime: m.relativeTime,
				Active:       active,
				Width:        width,
			}, m.theme)
		}
	}
	items := sc.tweets.Items()
	return func(i int, active bool) string {
		return view.RenderTweetLine(view.TweetLineParams{
			Tweet:        items[i],
			State:        m.store.Get(items[i].ID),
			Now:          now,
			RelativeTime: m.relativeTime,
			Compact:      m.compact,
			Active:       active,
			Width:        width,
		}, m.theme)
	}
}

func (m Model) postView(sc *screen) string {
	lines := m.postLines(sc)
	if len(lines) == 0 {
		return m.spinner.View() + " Loading post...\n"
	}
	return view.RenderDetailLines(lines, sc.scroll, m.bodyHeight(sc))
}

func (m Model) postLines(sc *screen) []string {
	t, ok := m.tweets[sc.route.Arg]
	if !ok {
		return nil
	}
	return view.DetailLines(view.DetailParams{
		Tweet:        t,
		State:        m.store.Get(t.ID),
		Now:          m.nowFn(),
		RelativeTime: m.relativeTime,
		Width:        m.contentWidth(),
		Margin:       1,
	})
}

func (m Model) messagePanel(sc *screen) string {
	loading := sc.loading()
	var panel string
	if m.status.IsError() {
		panel = view.StatusMessage(loading, "", m.status.Text(), m.theme)
	} else {
		panel = view.StatusMessage(loading, m.status.Text(), "", m.theme)
	}
	if loading {
		panel = m.spinner.View() + " " + panel
	}
	return panel
}

func (m Model) tabs() []view.Tab {
	base := m.nav.Stack()[0]
	tabs := make([]view.Tab, 0, len(mainRoutes))
	for _, r := range mainRoutes {
		tabs = append(tabs, view.Tab{Label: r.Label(), Active: r == base})
	}
	return tabs
}

func (m Model) crumbs() []string {
	stack := m.nav.Stack()
	labels := make([]string, 0, len(stack))
	for _, r := range stack {
		labels = append(labels, r.Label())
	}
	return labels
}

func (m Model) contentWidth() int {
	if m.width > 0 {
		return m.width - 1
	}
	return 100
}

func (m Model) bodyHeight(sc *screen) int {
	if m.height <= 0 {
		return 20
	}
	used := 7
	if m.nav.CanGoBack() {
		used++
	}
	if sc.isList() {
		if header := len(m.listHeader(sc)); header > 0 {
			used += header + 1
		}
	}
	if h := m.height - used; h > 3 {
		return h
	}
	return 3
}
