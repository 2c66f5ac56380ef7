// Package queue implements the ordered request queue (spec §3, §4.1): a
// bounded FIFO of unique domain.Request values with selective retain and
// extract. Grounded on original_source/src/queue/queue.rs, which builds the
// same contract on a doubly-linked list of reference-counted cells; per
// spec §9 that representation is replaced here with a dense slice and an
// in-place compaction for Retain, since no consumer depends on node
// identity.
package queue

import "github.com/harmelin-systems/elevator-core/internal/domain"

// Queue is a bounded, duplicate-free, insertion-ordered sequence of
// requests.
type Queue struct {
	items []domain.Request
	limit int
}

// New constructs an empty queue with the given capacity.
func New(limit int) *Queue {
	return &Queue{items: make([]domain.Request, 0, limit), limit: limit}
}

// IsEmpty reports whether the queue holds no requests.
func (q *Queue) IsEmpty() bool {
	return len(q.items) == 0
}

// Size returns the number of requests currently queued.
func (q *Queue) Size() int {
	return len(q.items)
}

// Peek returns the head request without removing it.
func (q *Queue) Peek() (domain.Request, bool) {
	if q.IsEmpty() {
		return domain.Request{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the head request.
func (q *Queue) Pop() (domain.Request, bool) {
	if q.IsEmpty() {
		return domain.Request{}, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// PushUnique appends r at the tail. It returns false and leaves the queue
// unchanged if the queue is at capacity or r is already present — the
// uniqueness check the original left as a TODO but spec §4.1/§8 require.
func (q *Queue) PushUnique(r domain.Request) bool {
	if len(q.items) == q.limit {
		return false
	}
	for _, existing := range q.items {
		if existing.Equal(r) {
			return false
		}
	}
	q.items = append(q.items, r)
	return true
}

// Retain removes every request for which pred returns false, preserving
// the relative order of the requests that remain, and returns the removed
// requests in their original order. Retain(always-true) is a no-op;
// Retain(always-false) empties the queue.
func (q *Queue) Retain(pred func(domain.Request) bool) []domain.Request {
	kept := q.items[:0]
	var removed []domain.Request
	for _, r := range q.items {
		if pred(r) {
			kept = append(kept, r)
		} else {
			removed = append(removed, r)
		}
	}
	q.items = kept
	return removed
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.items = q.items[:0]
}
