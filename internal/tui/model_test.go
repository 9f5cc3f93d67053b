package tui

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainergiz/xfeed/internal/storage"
	"github.com/ainergiz/xfeed/internal/tui/actionstate"
	"github.com/ainergiz/xfeed/internal/xapi"
)

type page struct {
	tweets        []xapi.Tweet
	notifications []xapi.Notification
	next          string
	err           error
}

type fakeService struct {
	mu     sync.Mutex
	pages  map[string]page
	tweets map[string]xapi.Tweet
	calls  []string
	saved  []storage.Preferences
}

func newFakeService() *fakeService {
	return &fakeService{pages: map[string]page{}, tweets: map[string]xapi.Tweet{}}
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeService) list(key string) ([]xapi.Tweet, string, error) {
	f.record(key)
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.pages[key]
	return p.tweets, p.next, p.err
}

func (f *fakeService) HomeTimeline(_ context.Context, cursor string) ([]xapi.Tweet, string, error) {
	return f.list("home:" + cursor)
}

func (f *fakeService) Bookmarks(_ context.Context, cursor string) ([]xapi.Tweet, string, error) {
	return f.list("bookmarks:" + cursor)
}

func (f *fakeService) Replies(_ context.Context, id, cursor string) ([]xapi.Tweet, string, error) {
	return f.list("replies/" + id + ":" + cursor)
}

func (f *fakeService) UserTweets(_ context.Context, handle, cursor string) ([]xapi.Tweet, string, error) {
	return f.list("user/" + handle + ":" + cursor)
}

func (f *fakeService) Notifications(_ context.Context, cursor string) ([]xapi.Notification, string, error) {
	key := "notifications:" + cursor
	f.record(key)
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.pages[key]
	return p.notifications, p.next, p.err
}

func (f *fakeService) Profile(_ context.Context, handle string) (xapi.User, error) {
	f.record("profile/" + handle)
	return xapi.User{Handle: handle, Name: strings.ToUpper(handle)}, nil
}

func (f *fakeService) Tweet(_ context.Context, id string) (xapi.Tweet, error) {
	f.record("tweet/" + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tweets[id], nil
}

func (f *fakeService) VerifySession(context.Context) (xapi.User, error) {
	return xapi.User{Handle: "me"}, nil
}

func (f *fakeService) SavePreferences(_ context.Context, prefs storage.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, prefs)
	return nil
}

func (f *fakeService) mutation(name string) actionstate.MutationFunc {
	return func(_ context.Context, id string) error {
		f.record(name + ":" + id)
		return nil
	}
}

func (f *fakeService) mutations() actionstate.Mutations {
	return actionstate.Mutations{
		Like:       f.mutation("like"),
		Unlike:     f.mutation("unlike"),
		Bookmark:   f.mutation("bookmark"),
		Unbookmark: f.mutation("unbookmark"),
	}
}

func tweet(id, handle string) xapi.Tweet {
	return xapi.Tweet{
		ID:        id,
		Text:      "post " + id,
		Author:    xapi.User{Handle: handle, Name: handle},
		CreatedAt: time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC),
	}
}

var ansiSeq = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func ansiStripped(s string) string {
	return ansiSeq.ReplaceAllString(s, "")
}

func newTestModel(t *testing.T, svc *fakeService, opts Options) Model {
	t.Helper()
	status := NewStatusLine()
	store := actionstate.NewStore(svc.mutations(), status)
	m := NewModel(svc, store, status, opts)
	m.nowFn = func() time.Time { return time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC) }
	m.openURLFn = func(string) error { return nil }
	m.copyURLFn = func(string) error { return nil }
	return m
}

// collect runs cmd and returns the messages it produced. Commands that do
// not finish quickly (timers) are abandoned.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// settle feeds the results of cmd back into the model until nothing but
// timers is left.
func settle(m Model, cmd tea.Cmd) Model {
	for i := 0; i < 8 && cmd != nil; i++ {
		var next []tea.Cmd
		for _, msg := range collect(cmd) {
			if _, ok := msg.(spinner.TickMsg); ok {
				continue
			}
			updated, c := m.Update(msg)
			m = updated.(Model)
			next = append(next, c)
		}
		cmd = tea.Batch(next...)
	}
	return m
}

func press(m Model, keys string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func pressAndSettle(m Model, keys string) Model {
	m, cmd := press(m, keys)
	return settle(m, cmd)
}

func homeFeed(svc *fakeService) {
	liked := tweet("1", "jack")
	liked.Liked = true
	svc.pages["home:"] = page{tweets: []xapi.Tweet{liked, tweet("2", "jill")}}
}

func TestModel_InitLoadsStartViewOnly(t *testing.T) {
	svc := newFakeService()
	homeFeed(svc)
	m := newTestModel(t, svc, Options{})
	m = settle(m, m.Init())

	sc := m.currentScreen()
	if sc.size() != 2 {
		t.Fatalf("expected 2 timeline items, got %d", sc.size())
	}
	if !m.store.Get("1").Liked {
		t.Fatal("expected server liked flag to seed the store")
	}
	if svc.called("bookmarks:") || svc.called("notifications:") {
		t.Fatalf("other main views must load lazily, calls=%v", svc.calls)
	}
}

func TestModel_CachedItemsShowBeforeRefresh(t *testing.T) {
	svc := newFakeService()
	m := newTestModel(t, svc, Options{Home: []xapi.Tweet{tweet("9", "cache")}})
	if m.currentScreen().size() != 1 {
		t.Fatal("expected cached tweets to be visible before any fetch")
	}
	m.width = 100
	if !strings.Contains(ansiStripped(m.View()), "post 9") {
		t.Fatalf("expected cached tweet in view:\n%s", m.View())
	}
}

func TestModel_TabCyclesMainViewsAndLoadsLazily(t *testing.T) {
	svc := newFakeService()
	homeFeed(svc)
	svc.pages["bookmarks:"] = page{tweets: []xapi.Tweet{tweet("5", "jack")}}
	m := newTestModel(t, svc, Options{})
	m = settle(m, m.Init())

	m = pressAndSettle(m, "tab")
	if got := m.Route(); got.View != ViewBookmarks {
		t.Fatalf("expected bookmarks after tab, got %+v", got)
	}
	if m.nav.Len() != 1 {
		t.Fatalf("cycling must not grow the stack, len=%d", m.nav.Len())
	}
	if !svc.called("bookmarks:") || m.currentScreen().size() != 1 {
		t.Fatalf("expected bookmarks to load on first visit, calls=%v", svc.calls)
	}

	m = pressAndSettle(m, "shift+tab")
	if m.Route().View != ViewTimeline {
		t.Fatalf("expected timeline after shift+tab, got %+v", m.Route())
	}
}

func TestModel_OpenPostAndBack(t *testing.T) {
	svc := newFakeService()
	homeFeed(svc)
	m := newTestModel(t, svc, Options{})
	m = settle(m, m.Init())

	m = pressAndSettle(m, "enter")
	if got := m.Route(); got != (Route{View: ViewPost, Arg: "1"}) {
		t.Fatalf("expected post route, got %+v", got)
	}
	if svc.called("tweet/1") {
		t.Fatal("known tweet must not be fetched again")
	}
	if !strings.Contains(ansiStripped(m.View()), "Timeline › Post") {
		t.Fatalf("expected breadcrumb in view:\n%s", m.View())
	}

	m = pressAndSettle(m, "2")
	if m.Route().View != ViewPost {
		t.Fatal("jumping to a main view must not replace an overlay")
	}

	m = pressAndSettle(m, "esc")
	if m.Route().View != ViewTimeline || m.nav.Len() != 1 {
		t.Fatalf("expected timeline after back, got %+v len=%d", m.Route(), m.nav.Len())
	}
	m = pressAndSettle(m, "esc")
	if m.nav.Len() != 1 {
		t.Fatal("the last entry must never be popped")
	}
}

func TestModel_ThreadScreenIsDroppedOnPop(t *testing.T) {
	svc := newFakeService()
	homeFeed(svc)
	svc.pages["replies/1:"] = page{tweets: []xapi.Tweet{tweet("11", "amy"), tweet("12", "bo")}}
	m := newTestModel(t, svc, Options{})
	m = settle(m, m.Init())

	m = pressAndSettle(m, "t")
	route := Route{View: ViewThread, Arg: "1"}
	if m.Route() != route {
		t.Fatalf("expected thread route, got %+v", m.Route())
	}
	if m.currentScreen().size() != 2 {
		t.Fatalf("expected 2 replies, got %d", m.currentScreen().size())
	}
	thread := m.screens[route]

	m = pressAndSettle(m, "esc")
	if _, ok := m.screens[route]; ok {
		t.Fatal("popped overlay screen must be dropped")
	}
	if cmd := thread.tweets.Refresh(); cmd != nil {
		t.Fatal("popped overlay controller must be unmounted")
	}
}

func TestModel_ProfileLoadsHeaderAndTweets(t *testing.T) {
	svc := newFakeService()
	homeFeed(svc)
	svc.pages["user/jack:"] = page{tweets: []xapi.Tweet{tweet("1", "jack"), tweet("3", "jack")}}
	m := newTestModel(t, svc, Options{})
	m = settle(m, m.Init())

	m = pressAndSettle(m, "p")
	if m.Route() != (Route{View: ViewProfile, Arg: "jack"}) {
		t.Fatalf("expected jack's profile, got %+v", m.Route())
	}
	if _, ok := m.profiles["jack"]; !ok {
		t.Fatal("expected profile header to load")
	}
	if m.currentScreen().size() != 2 {
		t.Fatalf("expected 2 profile tweets, got %d", m.currentScreen().size())
	}
}

func TestModel_OpeningCurrentProfileAgainPushesDuplicate(t *testing.T) {
	svc := newFakeService()
	homeFeed(svc)
	svc.pages["user/jack:"] = page{tweets: []xapi.Tweet{tweet("1", "jack")}}
	m := newTestModel(t, svc, Options{})
	m = settle(m, m.Init())

	m = pressAndSettle(m, "p")
	m = pressAndSettle(m, "p")
	jack := Route{View: ViewProfile, Arg: "jack"}
	want := []Route{{View: ViewTimeline}, jack, jack}
	if got := m.nav.Stack(); len(got) != 3 || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if m.currentScreen().size() != 1 {
		t.Fatal("duplicate entries must share the loaded screen")
	}

	m = pressAndSettle(m, "esc")
	if m.Route() != jack {
		t.Fatalf("expected jack's profile after one back, got %+v", m.Route())
	}
	if _, ok := m.screens[jack]; !ok {
		t.Fatal("screen still on the stack must be kept")
	}
	m = pressAndSettle(m, "esc")
	if _, ok := m.screens[jack]; ok || m.Route().View != ViewTimeline {
		t.Fatal("expected profile screen dropped once no entry remains")
	}
}

func TestModel_LikeIsOptimistic(t *testing.T) {
	svc := newFakeService()
	homeFeed(svc)
	m := newTestModel(t, svc, Options{})
	m = settle(m, m.Init())
	m = pressAndSettle(m, "j")

	m, cmd := press(m, "l")
	if st := m.store.Get("2"); !st.Liked || !st.LikePending {
		t.Fatalf("expected optimistic pending like, got %+v", st)
	}
	if _, again := press(m, "l"); again != nil {
		t.Fatal("second toggle while pending must be a no-op")
	}
	m = settle(m, cmd)
	if st := m.store.Get("2"); !st.Liked || st.LikePending {
		t.Fatalf("expected settled like, got %+v", st)
	}
	if !svc.called("like:2") || m.status.Text() != "Liked" {
		t.Fatalf("expected like call and status, calls=%v status=%q", svc.calls, m.status.Text())
	}
}

func TestModel_UnbookmarkRemovesFromBookmarks(t *testing.T) {
	svc := newFakeService()
	saved := tweet("5", "jack")
	saved.Bookmarked = true
	svc.pages["bookmarks:"] = page{tweets: []xapi.Tweet{saved, tweet("6", "jill")}}
	m := newTestModel(t, svc, Options{StartView: ViewBookmarks})
	m = settle(m, m.Init())
	if m.currentScreen().size() != 2 {
		t.Fatalf("expected 2 bookmarks, got %d", m.currentScreen().size())
	}

	m = pressAndSettle(m, "b")
	if !svc.called("unbookmark:5") {
		t.Fatalf("expected unbookmark call, calls=%v", svc.calls)
	}
	sc := m.currentScreen()
	if sc.size() != 1 || sc.itemID() != "6" {
		t.Fatalf("expected tweet 5 removed from bookmarks, got %d items", sc.size())
	}
}

func TestModel_RefreshRefusedWhileRateLimited(t *testing.T) {
	svc := newFakeService()
	svc.pages["home:"] = page{err: &xapi.APIError{Kind: xapi.KindRateLimit, RetryAfter: 30 * time.Second}}
	m := newTestModel(t, svc, Options{})
	m = settle(m, m.Init())

	sc := m.currentScreen()
	if !sc.tweets.RetryBlocked() {
		t.Fatal("expected countdown after rate limit")
	}
	m, cmd := press(m, "r")
	if cmd == nil {
		t.Fatal("expected a status clear command")
	}
	if !strings.Contains(m.status.Text(), "retry in 30s") || !m.status.IsError() {
		t.Fatalf("unexpected status %q", m.status.Text())
	}
	m.width = 100
	if !strings.Contains(ansiStripped(m.View()), "rate limited, retry in 30s") {
		t.Fatalf("expected countdown in footer:\n%s", m.View())
	}
	if strings.Contains(m.View(), "Press r to try again") {
		t.Fatal("retry hint must not show while refresh is blocked")
	}
}

func TestModel_TransientFailureOffersRetry(t *testing.T) {
	svc := newFakeService()
	svc.pages["home:"] = page{err: &xapi.APIError{Kind: xapi.KindNetwork, Message: "connection reset"}}
	m := newTestModel(t, svc, Options{})
	m = settle(m, m.Init())

	out := ansiStripped(m.View())
	if !strings.Contains(out, "Could not load: ") || !strings.Contains(out, "Press r to try again.") {
		t.Fatalf("expected failure with retry hint:\n%s", out)
	}

	svc.mu.Lock()
	svc.pages["home:"] = page{tweets: []xapi.Tweet{tweet("1", "jack")}}
	svc.mu.Unlock()
	m = pressAndSettle(m, "r")
	if m.currentScreen().size() != 1 || strings.Contains(m.View(), "Could not load") {
		t.Fatalf("expected refresh to recover:\n%s", m.View())
	}
}

func TestModel_PermanentFailureHasNoRetryHint(t *testing.T) {
	svc := newFakeService()
	svc.pages["home:"] = page{err: &xapi.APIError{Kind: xapi.KindAuthExpired, StatusCode: 401}}
	m := newTestModel(t, svc, Options{})
	m = settle(m, m.Init())

	out := ansiStripped(m.View())
	if !strings.Contains(out, "Session expired") || strings.Contains(out, "Press r to try again") {
		t.Fatalf("unexpected failure view:\n%s", out)
	}
}

func TestModel_NotificationOpensUnknownPost(t *testing.T) {
	svc := newFakeService()
	svc.pages["notifications:"] = page{notifications: []xapi.Notification{
		{ID: "n1", Kind: "like", Actor: xapi.User{Handle: "amy"}, TweetID: "9"},
		{ID: "n2", Kind: "follow", Actor: xapi.User{Handle: "bo"}},
	}}
	svc.tweets["9"] = tweet("9", "me")
	m := newTestModel(t, svc, Options{StartView: ViewNotifications})
	m = settle(m, m.Init())

	m = pressAndSettle(m, "enter")
	if m.Route() != (Route{View: ViewPost, Arg: "9"}) {
		t.Fatalf("expected post 9, got %+v", m.Route())
	}
	if !svc.called("tweet/9") {
		t.Fatal("expected unknown tweet to be fetched")
	}
	if !strings.Contains(ansiStripped(m.View()), "post 9") {
		t.Fatalf("expected post body in view:\n%s", m.View())
	}

	m = pressAndSettle(m, "esc")
	m = pressAndSettle(m, "j")
	m = pressAndSettle(m, "enter")
	if m.Route() != (Route{View: ViewProfile, Arg: "bo"}) {
		t.Fatalf("follow notification must open the profile, got %+v", m.Route())
	}
}

func TestModel_CursorNearEndLoadsMore(t *testing.T) {
	svc := newFakeService()
	svc.pages["home:"] = page{tweets: []xapi.Tweet{
		tweet("1", "a"), tweet("2", "b"), tweet("3", "c"), tweet("4", "d"), tweet("5", "e"), tweet("6", "f"),
	}, next: "c1"}
	svc.pages["home:c1"] = page{tweets: []xapi.Tweet{tweet("6", "f"), tweet("7", "g")}}
	m := newTestModel(t, svc, Options{})
	m = settle(m, m.Init())

	m = pressAndSettle(m, "j")
	if svc.called("home:c1") {
		t.Fatal("prefetch must wait until the cursor is near the end")
	}
	m = pressAndSettle(m, "j")
	if !svc.called("home:c1") {
		t.Fatal("expected next page once the cursor nears the end")
	}
	sc := m.currentScreen()
	if sc.size() != 7 || sc.tweets.HasMore() {
		t.Fatalf("expected 7 deduplicated items and no more pages, got %d hasMore=%v", sc.size(), sc.tweets.HasMore())
	}
	if sc.itemID() != "3" {
		t.Fatalf("cursor must stay on the same item, got %s", sc.itemID())
	}
}

func TestModel_TogglePreferencesPersists(t *testing.T) {
	svc := newFakeService()
	m := newTestModel(t, svc, Options{Preferences: storage.Preferences{RelativeTime: true}})

	m = pressAndSettle(m, "R")
	if m.relativeTime {
		t.Fatal("expected relative time off")
	}
	if len(svc.saved) != 1 || svc.saved[0].RelativeTime {
		t.Fatalf("expected preferences saved, got %+v", svc.saved)
	}
	if m.status.Text() != "Absolute timestamps" {
		t.Fatalf("unexpected status %q", m.status.Text())
	}
}

func TestModel_OpenURLUsesTweetPermalink(t *testing.T) {
	svc := newFakeService()
	homeFeed(svc)
	m := newTestModel(t, svc, Options{})
	var opened string
	m.openURLFn = func(u string) error { opened = u; return nil }
	m = settle(m, m.Init())

	m = pressAndSettle(m, "o")
	if opened != "https://x.com/jack/status/1" {
		t.Fatalf("unexpected url %q", opened)
	}
	if m.status.Text() != "Opened in browser" {
		t.Fatalf("unexpected status %q", m.status.Text())
	}
}

func TestModel_StaleClearStatusIgnored(t *testing.T) {
	m := newTestModel(t, newFakeService(), Options{})
	m.status.Success("first")
	old := m.status.seq
	m.status.Success("second")

	updated, _ := m.Update(clearStatusMsg{id: old})
	m = updated.(Model)
	if m.status.Text() != "second" {
		t.Fatal("stale clear must not wipe a newer status")
	}
	updated, _ = m.Update(clearStatusMsg{id: m.status.seq})
	if updated.(Model).status.Text() != "" {
		t.Fatal("expected status cleared")
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	m := newTestModel(t, newFakeService(), Options{})
	m, _ = press(m, "?")
	if !strings.Contains(m.View(), "like / unlike") {
		t.Fatalf("expected key help:\n%s", m.View())
	}
	m, _ = press(m, "esc")
	if m.showHelp {
		t.Fatal("esc must close help")
	}
}

func TestParseView(t *testing.T) {
	if v, ok := ParseView("bookmarks"); !ok || v != ViewBookmarks {
		t.Fatalf("unexpected %v %v", v, ok)
	}
	if _, ok := ParseView("post"); ok {
		t.Fatal("overlays are not start views")
	}
}
