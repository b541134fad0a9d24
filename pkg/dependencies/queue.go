package dependencies

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// WorkItem is a pending (search directory, dependency name) pair.
type WorkItem struct {
	SearchDir string
	Name      string
}

// WorkQueue is the FIFO driving the breadth-first walk.
type WorkQueue struct {
	q *linkedlistqueue.Queue
}

// NewWorkQueue returns an empty queue.
func NewWorkQueue() *WorkQueue {
	return &WorkQueue{q: linkedlistqueue.New()}
}

// PushBack appends an item at the tail.
func (w *WorkQueue) PushBack(searchDir, name string) {
	w.q.Enqueue(WorkItem{SearchDir: searchDir, Name: name})
}

// PopFront removes and returns the head item; ok is false when the queue is empty.
func (w *WorkQueue) PopFront() (WorkItem, bool) {
	v, ok := w.q.Dequeue()
	if !ok {
		return WorkItem{}, false
	}
	return v.(WorkItem), true
}

// Len is the number of pending items.
func (w *WorkQueue) Len() int { return w.q.Size() }

// Clear drops every pending item.
func (w *WorkQueue) Clear() { w.q.Clear() }
