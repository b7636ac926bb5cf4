package poster

import (
	"context"
	"log/slog"
	"sync"
)

// Staged is a resolved external poster waiting to be stored locally.
type Staged struct {
	Identity string
	URL      string
}

// WriteBackQueue collects posters resolved during one pipeline run.
// An identity is staged at most once per queue.
type WriteBackQueue struct {
	mu    sync.Mutex
	seen  map[string]bool
	items []Staged
}

// NewWriteBackQueue creates an empty queue.
func NewWriteBackQueue() *WriteBackQueue {
	return &WriteBackQueue{seen: make(map[string]bool)}
}

// Stage adds (identity, url) unless identity was already staged. Reports whether it was added.
func (q *WriteBackQueue) Stage(identity, url string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.seen[identity] {
		return false
	}
	q.seen[identity] = true
	q.items = append(q.items, Staged{Identity: identity, URL: url})
	return true
}

// Len returns the number of pending items.
func (q *WriteBackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain returns pending items in staging order and empties the queue.
func (q *WriteBackQueue) Drain() []Staged {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Flush drains q and stores each item with put. A failing item is logged and skipped.
func Flush(ctx context.Context, q *WriteBackQueue, put func(context.Context, Staged) error, log *slog.Logger) (stored, failed int) {
	for _, item := range q.Drain() {
		if err := put(ctx, item); err != nil {
			failed++
			writeBackTotal.WithLabelValues("error").Inc()
			log.Error("failed to cache poster", "identity", item.Identity, "url", item.URL, "error", err)
			continue
		}
		stored++
		writeBackTotal.WithLabelValues("stored").Inc()
	}
	return stored, failed
}
