package session

import (
	"sync"

	"github.com/danmuck/linkctl/internal/graph"
)

// eventQueue is an unbounded FIFO between the transport and the control
// loop. Add and Remove never block; pump forwards events to out in order and
// closes out once the queue is closed and drained.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []graph.Event
	closed bool
	out    chan graph.Event
}

func newEventQueue() *eventQueue {
	q := &eventQueue{out: make(chan graph.Event)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *eventQueue) Add(id graph.ObjectID, props map[string]string) {
	q.push(graph.Added(id, props))
}

func (q *eventQueue) Remove(id graph.ObjectID) {
	q.push(graph.Removed(id))
}

func (q *eventQueue) push(ev graph.Event) {
	q.mu.Lock()
	if !q.closed {
		q.items = append(q.items, ev)
	}
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *eventQueue) pump(stop <-chan struct{}) {
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		ev := q.items[0]
		q.items[0] = graph.Event{}
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- ev:
		case <-stop:
			return
		}
	}
}
