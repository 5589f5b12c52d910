package client

import (
	"sync"
)

// messageQueue holds serialized frames that cannot be sent yet because the
// session is not connected. FIFO, unbounded.
type messageQueue struct {
	mu      sync.Mutex
	entries [][]byte
}

func newMessageQueue() *messageQueue {
	return &messageQueue{}
}

func (q *messageQueue) push(frame []byte) {
	q.mu.Lock()
	q.entries = append(q.entries, frame)
	q.mu.Unlock()
}

// drain returns the queued frames in insertion order and empties the queue.
// The caller iterates the returned snapshot, so a send that re-enqueues
// while the flush is in progress lands in the next drain instead of
// invalidating this one.
func (q *messageQueue) drain() [][]byte {
	q.mu.Lock()
	entries := q.entries
	q.entries = nil
	q.mu.Unlock()

	return entries
}

func (q *messageQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries)
}
