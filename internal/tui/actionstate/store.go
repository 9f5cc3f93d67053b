// Package actionstate holds the liked and bookmarked flags of every tweet
// shown in the session, applies toggles optimistically and reconciles them
// with the server's answer.
package actionstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainergiz/xfeed/internal/xapi"
)

type State struct {
	Liked           bool
	Bookmarked      bool
	LikePending     bool
	BookmarkPending bool
}

type Kind int

const (
	KindLike Kind = iota
	KindBookmark
)

func (k Kind) String() string {
	if k == KindBookmark {
		return "bookmark"
	}
	return "like"
}

type MutationFunc func(ctx context.Context, id string) error

type Mutations struct {
	Like       MutationFunc
	Unlike     MutationFunc
	Bookmark   MutationFunc
	Unbookmark MutationFunc
}

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// ResultMsg reports a finished mutation. Feed it back through Update.
type ResultMsg struct {
	Kind     Kind
	ID       string
	Desired  bool
	Previous bool
	Err      error
}

var errNoMutation = errors.New("mutation not configured")

type Store struct {
	mu        sync.Mutex
	states    map[string]State
	mutations Mutations
	notifier  Notifier
	timeout   time.Duration
}

func NewStore(mutations Mutations, notifier Notifier) *Store {
	return &Store{
		states:    make(map[string]State),
		mutations: mutations,
		notifier:  notifier,
		timeout:   10 * time.Second,
	}
}

// Get returns the state for id. Unknown ids read as all false.
func (s *Store) Get(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[id]
}

// Init records the server-reported flags for id. Pending flags are kept.
func (s *Store) Init(id string, liked, bookmarked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[id]
	st.Liked = liked
	st.Bookmarked = bookmarked
	s.states[id] = st
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// ToggleLike flips the liked flag now and returns the command that sends
// the mutation. It returns nil while a like mutation for id is in flight.
func (s *Store) ToggleLike(id string) tea.Cmd {
	return s.toggle(KindLike, id)
}

// ToggleBookmark is ToggleLike for the bookmarked flag.
func (s *Store) ToggleBookmark(id string) tea.Cmd {
	return s.toggle(KindBookmark, id)
}

// Update applies a ResultMsg and reports whether msg was one.
func (s *Store) Update(msg tea.Msg) bool {
	res, ok := msg.(ResultMsg)
	if !ok {
		return false
	}
	s.apply(res)
	return true
}

func (s *Store) toggle(kind Kind, id string) tea.Cmd {
	s.mu.Lock()
	st := s.states[id]
	if st.pending(kind) {
		s.mu.Unlock()
		return nil
	}
	previous := st.value(kind)
	desired := !previous
	st.set(kind, desired)
	st.setPending(kind, true)
	s.states[id] = st
	s.mu.Unlock()

	mutate := s.mutationFor(kind, desired)
	timeout := s.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := errNoMutation
		if mutate != nil {
			err = mutate(ctx, id)
		}
		return ResultMsg{Kind: kind, ID: id, Desired: desired, Previous: previous, Err: err}
	}
}

func (s *Store) mutationFor(kind Kind, desired bool) MutationFunc {
	switch {
	case kind == KindLike && desired:
		return s.mutations.Like
	case kind == KindLike:
		return s.mutations.Unlike
	case desired:
		return s.mutations.Bookmark
	}
	return s.mutations.Unbookmark
}

func (s *Store) apply(res ResultMsg) {
	final := res.Desired
	failed, reconciled := false, false
	switch {
	case res.Err == nil:
	case res.Desired && errors.Is(res.Err, xapi.ErrAlreadyApplied):
		reconciled = true
	case !res.Desired && errors.Is(res.Err, xapi.ErrTargetNotFound):
		reconciled = true
	default:
		final = res.Previous
		failed = true
	}

	s.mu.Lock()
	st := s.states[res.ID]
	st.set(res.Kind, final)
	st.setPending(res.Kind, false)
	s.states[res.ID] = st
	notifier := s.notifier
	s.mu.Unlock()

	if notifier == nil {
		return
	}
	if failed {
		notifier.Error(fmt.Sprintf("Could not %s tweet: %s", verb(res.Kind, res.Desired), xapi.Describe(res.Err)))
		return
	}
	if reconciled {
		notifier.Success(alreadyMessage(res.Kind, res.Desired))
		return
	}
	notifier.Success(successMessage(res.Kind, res.Desired))
}

func verb(kind Kind, desired bool) string {
	switch {
	case kind == KindLike && desired:
		return "like"
	case kind == KindLike:
		return "unlike"
	case desired:
		return "bookmark"
	}
	return "remove bookmark from"
}

func successMessage(kind Kind, desired bool) string {
	switch {
	case kind == KindLike && desired:
		return "Liked"
	case kind == KindLike:
		return "Unliked"
	case desired:
		return "Bookmarked"
	}
	return "Removed bookmark"
}

// alreadyMessage is shown when the server reported the toggle as already done.
func alreadyMessage(kind Kind, desired bool) string {
	switch {
	case kind == KindLike && desired:
		return "Already liked"
	case kind == KindLike:
		return "Already unliked"
	case desired:
		return "Already bookmarked"
	}
	return "Bookmark already removed"
}

func (st State) value(kind Kind) bool {
	if kind == KindBookmark {
		return st.Bookmarked
	}
	return st.Liked
}

func (st State) pending(kind Kind) bool {
	if kind == KindBookmark {
		return st.BookmarkPending
	}
	return st.LikePending
}

func (st *State) set(kind Kind, v bool) {
	if kind == KindBookmark {
		st.Bookmarked = v
		return
	}
	st.Liked = v
}

func (st *State) setPending(kind Kind, v bool) {
	if kind == KindBookmark {
		st.BookmarkPending = v
		return
	}
	st.LikePending = v
}
