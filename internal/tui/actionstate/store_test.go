package actionstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ainergiz/xfeed/internal/xapi"
)

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *recordingNotifier) Error(msg string)   { n.errors = append(n.errors, msg) }

type fakeAPI struct {
	calls []string
	err   error
}

func (f *fakeAPI) call(name string) MutationFunc {
	return func(_ context.Context, id string) error {
		f.calls = append(f.calls, name+":"+id)
		return f.err
	}
}

func (f *fakeAPI) mutations() Mutations {
	return Mutations{
		Like:       f.call("like"),
		Unlike:     f.call("unlike"),
		Bookmark:   f.call("bookmark"),
		Unbookmark: f.call("unbookmark"),
	}
}

func newTestStore() (*Store, *fakeAPI, *recordingNotifier) {
	api := &fakeAPI{}
	notifier := &recordingNotifier{}
	return NewStore(api.mutations(), notifier), api, notifier
}

func TestStore_GetUnknownIsDefault(t *testing.T) {
	s, _, _ := newTestStore()
	if got := s.Get("nope"); got != (State{}) {
		t.Fatalf("expected zero state, got %+v", got)
	}
}

func TestStore_InitIsIdempotentAndKeepsPending(t *testing.T) {
	s, _, _ := newTestStore()
	s.Init("1", true, false)
	once := s.Get("1")
	s.Init("1", true, false)
	if s.Get("1") != once {
		t.Fatalf("expected idempotent init, got %+v vs %+v", s.Get("1"), once)
	}

	if cmd := s.ToggleBookmark("1"); cmd == nil {
		t.Fatal("expected bookmark command")
	}
	s.Init("1", false, false)
	st := s.Get("1")
	if !st.BookmarkPending {
		t.Fatal("init must not clear pending flags")
	}
	if st.Liked || st.Bookmarked {
		t.Fatalf("expected init to overwrite flags, got %+v", st)
	}
}

func TestStore_ToggleLikeOptimisticThenSuccess(t *testing.T) {
	s, api, notifier := newTestStore()
	cmd := s.ToggleLike("7")
	if cmd == nil {
		t.Fatal("expected mutation command")
	}
	st := s.Get("7")
	if !st.Liked || !st.LikePending {
		t.Fatalf("expected optimistic liked+pending, got %+v", st)
	}

	if !s.Update(cmd()) {
		t.Fatal("expected store to handle its result")
	}
	st = s.Get("7")
	if !st.Liked || st.LikePending {
		t.Fatalf("expected liked and settled, got %+v", st)
	}
	if len(api.calls) != 1 || api.calls[0] != "like:7" {
		t.Fatalf("unexpected calls: %v", api.calls)
	}
	if len(notifier.successes) != 1 || notifier.successes[0] != "Liked" {
		t.Fatalf("unexpected notifications: %v", notifier.successes)
	}
}

func TestStore_DoubleToggleIssuesOneMutation(t *testing.T) {
	s, api, _ := newTestStore()
	first := s.ToggleLike("7")
	if second := s.ToggleLike("7"); second != nil {
		t.Fatal("expected second toggle to be a no-op while pending")
	}
	s.Update(first())
	if len(api.calls) != 1 {
		t.Fatalf("expected exactly one mutation, got %v", api.calls)
	}
	if !s.Get("7").Liked {
		t.Fatal("expected tweet to stay liked")
	}
}

func TestStore_LikeAndBookmarkPendingAreIndependent(t *testing.T) {
	s, _, _ := newTestStore()
	if s.ToggleLike("7") == nil {
		t.Fatal("expected like command")
	}
	if s.ToggleBookmark("7") == nil {
		t.Fatal("expected bookmark to proceed while like is pending")
	}
}

func TestStore_AlreadyFavoritedReconcilesAsSuccess(t *testing.T) {
	s, api, notifier := newTestStore()
	api.err = &xapi.APIError{Kind: xapi.KindUnknown, Message: "You have already favorited this status.", Err: xapi.ErrAlreadyApplied}

	s.Update(s.ToggleLike("7")())
	st := s.Get("7")
	if !st.Liked || st.LikePending {
		t.Fatalf("expected liked=true pending=false, got %+v", st)
	}
	if len(notifier.errors) != 0 || len(notifier.successes) != 1 || notifier.successes[0] != "Already liked" {
		t.Fatalf("expected soft success notification only, got ok=%v err=%v", notifier.successes, notifier.errors)
	}
}

func TestStore_UnbookmarkNotFoundReconcilesAsSuccess(t *testing.T) {
	s, api, notifier := newTestStore()
	s.Init("7", false, true)
	api.err = fmt.Errorf("unbookmark: %w", xapi.ErrTargetNotFound)

	s.Update(s.ToggleBookmark("7")())
	st := s.Get("7")
	if st.Bookmarked || st.BookmarkPending {
		t.Fatalf("expected bookmarked=false pending=false, got %+v", st)
	}
	if len(notifier.errors) != 0 {
		t.Fatalf("unexpected error notification: %v", notifier.errors)
	}
	if api.calls[0] != "unbookmark:7" {
		t.Fatalf("unexpected call: %v", api.calls)
	}
	if len(notifier.successes) != 1 || notifier.successes[0] != "Bookmark already removed" {
		t.Fatalf("unexpected success notification: %v", notifier.successes)
	}
}

func TestStore_ReconciledMessages(t *testing.T) {
	cases := []struct {
		name     string
		bookmark bool
		initial  bool
		err      error
		want     string
	}{
		{"like", false, false, xapi.ErrAlreadyApplied, "Already liked"},
		{"unlike", false, true, xapi.ErrTargetNotFound, "Already unliked"},
		{"bookmark", true, false, xapi.ErrAlreadyApplied, "Already bookmarked"},
		{"unbookmark", true, true, xapi.ErrTargetNotFound, "Bookmark already removed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, api, notifier := newTestStore()
			s.Init("7", tc.initial, tc.initial)
			api.err = fmt.Errorf("%s: %w", tc.name, tc.err)
			if tc.bookmark {
				s.Update(s.ToggleBookmark("7")())
			} else {
				s.Update(s.ToggleLike("7")())
			}
			if len(notifier.errors) != 0 || len(notifier.successes) != 1 || notifier.successes[0] != tc.want {
				t.Fatalf("expected %q, got ok=%v err=%v", tc.want, notifier.successes, notifier.errors)
			}
		})
	}
}

func TestStore_PlainSuccessMessages(t *testing.T) {
	s, _, notifier := newTestStore()
	s.Init("7", true, true)
	s.Update(s.ToggleLike("7")())
	s.Update(s.ToggleBookmark("7")())
	if want := []string{"Unliked", "Removed bookmark"}; strings.Join(notifier.successes, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %v, got %v", want, notifier.successes)
	}
}

func TestStore_NotFoundOnCreateReverts(t *testing.T) {
	s, api, notifier := newTestStore()
	api.err = xapi.ErrTargetNotFound

	s.Update(s.ToggleLike("7")())
	if s.Get("7").Liked {
		t.Fatal("expected like to revert when the target is gone")
	}
	if len(notifier.errors) != 1 {
		t.Fatalf("expected error notification, got %v", notifier.errors)
	}
}

func TestStore_OtherErrorRevertsAndNotifies(t *testing.T) {
	s, api, notifier := newTestStore()
	s.Init("7", true, false)
	api.err = errors.New("boom")

	s.Update(s.ToggleLike("7")())
	st := s.Get("7")
	if !st.Liked || st.LikePending {
		t.Fatalf("expected revert to liked=true, got %+v", st)
	}
	if len(notifier.errors) != 1 || !strings.Contains(notifier.errors[0], "unlike") {
		t.Fatalf("unexpected error notifications: %v", notifier.errors)
	}
	if len(notifier.successes) != 0 {
		t.Fatalf("unexpected success notifications: %v", notifier.successes)
	}
}

func TestStore_MissingMutationReverts(t *testing.T) {
	s := NewStore(Mutations{}, nil)
	s.Update(s.ToggleBookmark("7")())
	st := s.Get("7")
	if st.Bookmarked || st.BookmarkPending {
		t.Fatalf("expected revert without a mutation, got %+v", st)
	}
}

func TestStore_SharedAcrossReaders(t *testing.T) {
	s, _, _ := newTestStore()
	s.Update(s.ToggleBookmark("7")())
	s.Init("8", false, false)
	if !s.Get("7").Bookmarked {
		t.Fatal("expected bookmark to be visible through Get")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}
}

func TestStore_UpdateIgnoresOtherMessages(t *testing.T) {
	s, _, _ := newTestStore()
	if s.Update("not a result") {
		t.Fatal("expected foreign message to be ignored")
	}
}
