// Package state holds the cursor and window arithmetic of list screens.
package state

func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

func PageStep(height int, hasStatus bool) int {
	if height <= 0 {
		return 10
	}
	headerLines := 6
	if hasStatus {
		headerLines += 2
	}
	step := height - headerLines
	if step < 3 {
		step = 3
	}
	return step
}

func CenteredWindow(totalRows, cursor, height int) (int, int) {
	if totalRows <= 0 {
		return 0, 0
	}
	if height <= 0 || totalRows <= height {
		return 0, totalRows
	}
	cursor = ClampCursor(cursor, totalRows)
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	maxStart := totalRows - height
	if start > maxStart {
		start = maxStart
	}
	return start, start + height
}

// ShouldPrefetch reports whether the cursor is within threshold rows of
// the end of the list.
func ShouldPrefetch(cursor, size, threshold int) bool {
	if size <= 0 {
		return false
	}
	if threshold < 0 {
		threshold = 0
	}
	return cursor >= size-1-threshold
}

// IndexByID returns the position of the first item whose key is id, or -1.
func IndexByID[T any](items []T, key func(T) string, id string) int {
	for i, item := range items {
		if key(item) == id {
			return i
		}
	}
	return -1
}
