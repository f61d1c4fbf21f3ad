package engine

// DefaultQueueCapacity bounds how many inputs one player can have pending.
const DefaultQueueCapacity = 8

// Queue is a fixed-capacity FIFO ring of pending inputs for one player.
// It is not safe for concurrent use.
type Queue struct {
	buf  []Input
	head int // Next slot to read
	size int
}

// NewQueue creates a queue holding at most capacity inputs.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{buf: make([]Input, capacity)}
}

// Push appends an input. Returns false, dropping the input, when full.
func (q *Queue) Push(in Input) bool {
	if q.size == len(q.buf) {
		return false
	}
	q.buf[(q.head+q.size)%len(q.buf)] = in
	q.size++
	return true
}

// Pop removes and returns the oldest input, or a nil Input when empty.
func (q *Queue) Pop() Input {
	if q.size == 0 {
		return Input{}
	}
	in := q.buf[q.head]
	q.buf[q.head] = Input{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return in
}

// Len returns the number of pending inputs.
func (q *Queue) Len() int {
	return q.size
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Reset drops every pending input.
func (q *Queue) Reset() {
	for q.size > 0 {
		q.Pop()
	}
	q.head = 0
}
