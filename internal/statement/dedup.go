package statement

// IsDuplicate reports whether an offered file is already tracked.
// Identity is the (name, size) pair; content is never inspected. Pure,
// no side effects.
func IsDuplicate(trackers []FileTracker, name string, size int64) bool {
	for _, t := range trackers {
		if t.FileName == name && t.FileSize == size {
			return true
		}
	}
	return false
}
