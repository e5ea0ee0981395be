package probe

import "sync"

// ErrorEntry is one recorded per-document failure.
type ErrorEntry struct {
	DocID   string `json:"doc_id"`
	Path    string `json:"path"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// ErrorLog counts every error but keeps only the first capacity entries.
type ErrorLog struct {
	mu       sync.Mutex
	capacity int
	total    int
	entries  []ErrorEntry
}

func NewErrorLog(capacity int) *ErrorLog {
	return &ErrorLog{capacity: max(capacity, 0)}
}

func (l *ErrorLog) Add(e ErrorEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total++
	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, e)
	}
}

// Total is the number of errors seen, including those not kept.
func (l *ErrorLog) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Entries returns a copy of the kept sample.
func (l *ErrorLog) Entries() []ErrorEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ErrorEntry(nil), l.entries...)
}
