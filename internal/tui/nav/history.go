// Package nav keeps the screen history of the TUI.
//
// The history is a stack whose bottom entry is always present. Main views
// are the top-level tabs; cycling between them replaces the top entry
// instead of pushing, so tab switches never grow the stack.
package nav

// History is a stack of views that never becomes empty. It is not safe for
// concurrent use; the TUI only touches it from Update.
type History[V comparable] struct {
	stack     []V
	mainViews []V
}

// NewHistory starts a history at initial. mainViews lists the tab views in
// cycling order.
func NewHistory[V comparable](initial V, mainViews ...V) *History[V] {
	return &History[V]{
		stack:     []V{initial},
		mainViews: append([]V(nil), mainViews...),
	}
}

// Push appends v. Pushing a view equal to the current one is allowed.
func (h *History[V]) Push(v V) {
	h.stack = append(h.stack, v)
}

// Pop removes the top entry and reports whether anything was removed. The
// last remaining entry is never popped.
func (h *History[V]) Pop() bool {
	if len(h.stack) <= 1 {
		return false
	}
	var zero V
	h.stack[len(h.stack)-1] = zero
	h.stack = h.stack[:len(h.stack)-1]
	return true
}

// Replace swaps the top entry for v without changing depth.
func (h *History[V]) Replace(v V) {
	h.stack[len(h.stack)-1] = v
}

// Cycle moves the top entry to the next (direction > 0) or previous
// (direction < 0) main view, wrapping around. It does nothing unless the
// current view is a main view.
func (h *History[V]) Cycle(direction int) bool {
	idx := h.mainIndex(h.Current())
	if idx < 0 || direction == 0 {
		return false
	}
	step := 1
	if direction < 0 {
		step = -1
	}
	n := len(h.mainViews)
	h.Replace(h.mainViews[(idx+step+n)%n])
	return true
}

// Current is the top entry.
func (h *History[V]) Current() V {
	return h.stack[len(h.stack)-1]
}

// Previous returns the entry below the top, if any.
func (h *History[V]) Previous() (V, bool) {
	if len(h.stack) < 2 {
		var zero V
		return zero, false
	}
	return h.stack[len(h.stack)-2], true
}

// CanGoBack reports whether Pop would remove an entry.
func (h *History[V]) CanGoBack() bool { return len(h.stack) > 1 }

// Len is the stack depth, at least 1.
func (h *History[V]) Len() int { return len(h.stack) }

// IsMainView reports whether v is one of the tab views.
func (h *History[V]) IsMainView(v V) bool { return h.mainIndex(v) >= 0 }

// Contains reports whether v is anywhere on the stack.
func (h *History[V]) Contains(v V) bool {
	for _, entry := range h.stack {
		if entry == v {
			return true
		}
	}
	return false
}

// Stack returns a copy of the entries, bottom first.
func (h *History[V]) Stack() []V {
	return append([]V(nil), h.stack...)
}

func (h *History[V]) mainIndex(v V) int {
	for i, candidate := range h.mainViews {
		if candidate == v {
			return i
		}
	}
	return -1
}
