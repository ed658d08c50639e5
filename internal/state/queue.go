// Package state combines the persistent Store with the in-memory priority
// queue that schedules which order to work on next, and implements crash
// recovery by re-hydrating the queue from persisted state on startup.
package state

import (
	"container/heap"
	"sync"

	"github.com/oif-labs/intentsolver/internal/solvererr"
)

// queueItem is one entry in the priority heap: an order_id keyed by an i32
// priority score, with a monotonic sequence number breaking ties FIFO.
type queueItem struct {
	orderID  [32]byte
	priority int32
	seq      uint64
	index    int // heap index, maintained by container/heap callbacks
}

type itemHeap []*queueItem

func (h itemHeap) Len() int { return len(h) }
func (h itemHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority // max-heap
	}
	return h[i].seq < h[j].seq // FIFO tiebreak
}
func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *itemHeap) Push(x interface{}) {
	item := x.(*queueItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// PriorityQueue is a thread-safe bounded max-heap keyed by order_id.
type PriorityQueue struct {
	mu       sync.Mutex
	h        itemHeap
	byID     map[[32]byte]*queueItem
	capacity int
	nextSeq  uint64
}

// NewPriorityQueue returns an empty queue bounded at capacity entries. A
// capacity <= 0 means unbounded.
func NewPriorityQueue(capacity int) *PriorityQueue {
	return &PriorityQueue{byID: make(map[[32]byte]*queueItem), capacity: capacity}
}

// Push inserts orderID with priority. Returns solvererr.QueueFull if the
// queue is at capacity and orderID is not already present (re-priority of
// an existing id is always allowed).
func (q *PriorityQueue) Push(orderID [32]byte, priority int32) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if existing, ok := q.byID[orderID]; ok {
		existing.priority = priority
		heap.Fix(&q.h, existing.index)
		return nil
	}
	if q.capacity > 0 && len(q.h) >= q.capacity {
		return solvererr.QueueFull
	}
	item := &queueItem{orderID: orderID, priority: priority, seq: q.nextSeq}
	q.nextSeq++
	heap.Push(&q.h, item)
	q.byID[orderID] = item
	return nil
}

// Pop removes and returns the highest-priority order_id. ok is false if the
// queue is empty.
func (q *PriorityQueue) Pop() (id [32]byte, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return id, false
	}
	item := heap.Pop(&q.h).(*queueItem)
	delete(q.byID, item.orderID)
	return item.orderID, true
}

// Peek returns the highest-priority order_id without removing it.
func (q *PriorityQueue) Peek() (id [32]byte, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return id, false
	}
	return q.h[0].orderID, true
}

// ChangePriority updates the priority of an entry already in the queue. A
// no-op if the id is not present.
func (q *PriorityQueue) ChangePriority(orderID [32]byte, priority int32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if item, ok := q.byID[orderID]; ok {
		item.priority = priority
		heap.Fix(&q.h, item.index)
	}
}

// Remove deletes orderID from the queue if present.
func (q *PriorityQueue) Remove(orderID [32]byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if item, ok := q.byID[orderID]; ok {
		heap.Remove(&q.h, item.index)
		delete(q.byID, orderID)
	}
}

// Contains reports whether orderID currently has a queue entry.
func (q *PriorityQueue) Contains(orderID [32]byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byID[orderID]
	return ok
}

// Len returns the current queue size.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}
