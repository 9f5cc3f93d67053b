// Package paginate drives cursor-paginated lists inside the bubbletea loop.
//
// A Controller owns the items, the dedup index and the cursor for one list.
// Fetches run as tea.Cmds and their results come back through Update; each
// result carries the generation it was started under, so anything that
// resets the list makes older responses land on the floor.
package paginate

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainergiz/xfeed/internal/xapi"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoadingMore
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoadingMore:
		return "loading-more"
	}
	return "idle"
}

// Page is one fetch result. An empty NextCursor means the end of the list.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// IdentityFunc returns the dedup key of an item.
type IdentityFunc[T any] func(T) string

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type Option func(*settings)

type settings struct {
	notifier Notifier
	timeout  time.Duration
	now      func() time.Time
	deps     []any
}

func WithNotifier(n Notifier) Option {
	return func(s *settings) { s.notifier = n }
}

// WithTimeout bounds a single fetch. Default is 10s.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock replaces time.Now when converting rate-limit reset times.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithDeps records the initial dependency values compared by SetDeps.
func WithDeps(deps ...any) Option {
	return func(s *settings) { s.deps = append([]any(nil), deps...) }
}

type fetchKind int

const (
	fetchRefresh fetchKind = iota
	fetchMore
)

type pageMsg[T any] struct {
	id         int
	generation int
	kind       fetchKind
	page       Page[T]
	err        error
}

type countdownTickMsg struct {
	id  int
	tag int
}

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

type Controller[T any] struct {
	id       int
	fetch    FetchFunc[T]
	identity IdentityFunc[T]
	notifier Notifier
	timeout  time.Duration
	now      func() time.Time
	onPage   func([]T)

	items   []T
	seen    map[string]struct{}
	cursor  string
	hasMore bool
	status  Status
	err     error
	moreErr error

	countdown    int
	countdownTag int
	generation   int
	unmounted    bool
	deps         []any
}

func New[T any](fetch FetchFunc[T], identity IdentityFunc[T], opts ...Option) *Controller[T] {
	cfg := settings{timeout: 10 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Controller[T]{
		id:       nextID(),
		fetch:    fetch,
		identity: identity,
		notifier: cfg.notifier,
		timeout:  cfg.timeout,
		now:      cfg.now,
		seen:     make(map[string]struct{}),
		hasMore:  true,
		deps:     cfg.deps,
	}
}

// OnPage registers fn to receive the items of every accepted page, before
// dedup. It runs on the event loop.
func (c *Controller[T]) OnPage(fn func([]T)) {
	c.onPage = fn
}

// Init starts the first load.
func (c *Controller[T]) Init() tea.Cmd {
	return c.Refresh()
}

// Refresh reloads from the first page. It is refused while a rate-limit
// countdown is running. Items stay visible until the response arrives.
func (c *Controller[T]) Refresh() tea.Cmd {
	if c.unmounted || c.RetryBlocked() {
		return nil
	}
	c.generation++
	clear(c.seen)
	c.cursor = ""
	c.hasMore = true
	c.moreErr = nil
	c.status = StatusLoading
	return c.fetchCmd(fetchRefresh, "")
}

// LoadMore fetches the page after the current cursor. It does nothing with
// no cursor, with nothing left, or while another page is loading.
func (c *Controller[T]) LoadMore() tea.Cmd {
	if c.unmounted || c.cursor == "" || !c.hasMore || c.status == StatusLoadingMore {
		return nil
	}
	c.status = StatusLoadingMore
	return c.fetchCmd(fetchMore, c.cursor)
}

// Reset clears the list and invalidates anything in flight. A running
// countdown is kept.
func (c *Controller[T]) Reset() {
	c.generation++
	c.items = nil
	c.seen = make(map[string]struct{})
	c.cursor = ""
	c.hasMore = true
	c.status = StatusIdle
	c.err = nil
	c.moreErr = nil
}

// SetDeps resets and refetches when deps differ from the last recorded set.
func (c *Controller[T]) SetDeps(deps ...any) tea.Cmd {
	if reflect.DeepEqual(c.deps, deps) {
		return nil
	}
	c.deps = append([]any(nil), deps...)
	c.Reset()
	return c.Refresh()
}

// Unmount discards every later result, including countdown ticks.
func (c *Controller[T]) Unmount() {
	c.unmounted = true
	c.generation++
	c.countdownTag++
	c.countdown = 0
}

// Seed shows items before the first fetch completes.
func (c *Controller[T]) Seed(items []T) {
	c.items, c.seen = c.dedup(items)
}

// RemoveItem drops the item with identity id from the list and the seen set.
func (c *Controller[T]) RemoveItem(id string) bool {
	for i, item := range c.items {
		if c.identity(item) != id {
			continue
		}
		next := make([]T, 0, len(c.items)-1)
		next = append(next, c.items[:i]...)
		c.items = append(next, c.items[i+1:]...)
		delete(c.seen, id)
		return true
	}
	return false
}

// Update consumes messages addressed to this controller. handled is false
// for anything else.
func (c *Controller[T]) Update(msg tea.Msg) (handled bool, cmd tea.Cmd) {
	switch msg := msg.(type) {
	case pageMsg[T]:
		if msg.id != c.id {
			return false, nil
		}
		return true, c.applyPage(msg)
	case countdownTickMsg:
		if msg.id != c.id {
			return false, nil
		}
		return true, c.tick(msg.tag)
	}
	return false, nil
}

// Items is read-only for callers.
func (c *Controller[T]) Items() []T { return c.items }

func (c *Controller[T]) Len() int { return len(c.items) }

func (c *Controller[T]) Cursor() string { return c.cursor }

func (c *Controller[T]) HasMore() bool { return c.hasMore }

func (c *Controller[T]) Status() Status { return c.status }

func (c *Controller[T]) Loading() bool { return c.status == StatusLoading }

func (c *Controller[T]) LoadingMore() bool { return c.status == StatusLoadingMore }

// Err is the last refresh failure. It is cleared by a successful refresh.
func (c *Controller[T]) Err() error { return c.err }

// LoadMoreErr is the failure that ended pagination, if any.
func (c *Controller[T]) LoadMoreErr() error { return c.moreErr }

func (c *Controller[T]) ErrorMessage() string {
	if c.err == nil {
		return ""
	}
	return xapi.Describe(c.err)
}

// APIError returns the typed form of Err.
func (c *Controller[T]) APIError() *xapi.APIError {
	var apiErr *xapi.APIError
	if errors.As(c.err, &apiErr) {
		return apiErr
	}
	return nil
}

// RetryCountdown is the number of seconds until refresh is allowed again.
func (c *Controller[T]) RetryCountdown() int { return c.countdown }

func (c *Controller[T]) RetryBlocked() bool { return c.countdown > 0 }

func (c *Controller[T]) fetchCmd(kind fetchKind, cursor string) tea.Cmd {
	id, generation := c.id, c.generation
	fetch, timeout := c.fetch, c.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		page, err := fetch(ctx, cursor)
		return pageMsg[T]{id: id, generation: generation, kind: kind, page: page, err: err}
	}
}

func (c *Controller[T]) applyPage(msg pageMsg[T]) tea.Cmd {
	if c.unmounted || msg.generation != c.generation {
		return nil
	}
	c.status = StatusIdle

	if msg.err != nil {
		if msg.kind == fetchRefresh {
			return c.failRefresh(msg.err)
		}
		c.hasMore = false
		c.moreErr = msg.err
		return nil
	}

	if c.onPage != nil {
		c.onPage(msg.page.Items)
	}
	switch msg.kind {
	case fetchRefresh:
		c.items, c.seen = c.dedup(msg.page.Items)
		c.err = nil
		c.stopCountdown()
	case fetchMore:
		for _, item := range msg.page.Items {
			key := c.identity(item)
			if _, dup := c.seen[key]; dup {
				continue
			}
			c.seen[key] = struct{}{}
			c.items = append(c.items, item)
		}
	}
	c.cursor = msg.page.NextCursor
	c.hasMore = c.cursor != "" && len(msg.page.Items) > 0
	return nil
}

// failRefresh keeps the visible items and rebuilds the seen set from them.
func (c *Controller[T]) failRefresh(err error) tea.Cmd {
	c.err = err
	c.hasMore = false
	_, c.seen = c.dedup(c.items)
	if c.notifier != nil {
		c.notifier.Error(xapi.Describe(err))
	}
	return c.countdownFor(err)
}

func (c *Controller[T]) countdownFor(err error) tea.Cmd {
	var apiErr *xapi.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != xapi.KindRateLimit {
		return nil
	}
	delay := apiErr.RetryDelay(c.now())
	if delay <= 0 {
		return nil
	}
	c.countdown = int(math.Ceil(delay.Seconds()))
	c.countdownTag++
	return c.tickCmd()
}

func (c *Controller[T]) tickCmd() tea.Cmd {
	id, tag := c.id, c.countdownTag
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return countdownTickMsg{id: id, tag: tag}
	})
}

func (c *Controller[T]) tick(tag int) tea.Cmd {
	if tag != c.countdownTag || c.countdown <= 0 {
		return nil
	}
	c.countdown--
	if c.countdown == 0 {
		return nil
	}
	return c.tickCmd()
}

func (c *Controller[T]) stopCountdown() {
	c.countdown = 0
	c.countdownTag++
}

func (c *Controller[T]) dedup(items []T) ([]T, map[string]struct{}) {
	out := make([]T, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := c.identity(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out, seen
}
