package search

import "github.com/wricardo/gridpath/game/grid"

type openItem struct {
	pos   grid.Position
	f     float64
	h     float64
	seq   int // first insertion order
	index int
}

// openQueue orders cells by ascending f, then ascending h, then first
// insertion. The order is total, so pops are deterministic within a run.
type openQueue []*openItem

func (q openQueue) Len() int { return len(q) }

func (q openQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].h != q[j].h {
		return q[i].h < q[j].h
	}
	return q[i].seq < q[j].seq
}

func (q openQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *openQueue) Push(x any) {
	item := x.(*openItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *openQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}
