package workerpool

// taskItem is one entry in the pool's internal priority queue.
type taskItem struct {
	task      Task
	out       chan Result
	seq       int64 // submission order, used as a stable tie-breaker
	cancelled bool
	index     int
}

// taskHeap is a stable priority queue: higher Task.Priority pops first;
// equal priority pops in submission (seq) order, satisfying spec.md
// §4.E's "stable priority queue (higher priority first, FIFO within
// equal priority)" requirement via container/heap.
type taskHeap struct {
	items []*taskItem
}

func newTaskHeap() *taskHeap {
	return &taskHeap{}
}

func (h *taskHeap) Len() int { return len(h.items) }

func (h *taskHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.task.Priority != b.task.Priority {
		return a.task.Priority > b.task.Priority
	}
	return a.seq < b.seq
}

func (h *taskHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *taskHeap) Push(x any) {
	item := x.(*taskItem)
	item.index = len(h.items)
	h.items = append(h.items, item)
}

func (h *taskHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	h.items = old[:n-1]
	return item
}
