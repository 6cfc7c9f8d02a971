package solver

import (
	"container/heap"

	"github.com/wricardo/mcp-training/boxpusher/game/engine"
)

// candidate is one frontier entry
type candidate struct {
	actions []engine.Direction
	state   engine.DynamicState
	score   int
	hash    string
	pushes  int
	seq     uint64
}

// candidateHeap orders by score, then by insertion
type candidateHeap []*candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].seq < h[j].seq
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(*candidate))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}

// frontier is a min-priority queue of candidates
type frontier struct {
	items candidateHeap
	seq   uint64
}

func (f *frontier) push(c *candidate) {
	c.seq = f.seq
	f.seq++
	heap.Push(&f.items, c)
}

func (f *frontier) pop() *candidate {
	return heap.Pop(&f.items).(*candidate)
}

func (f *frontier) size() int {
	return f.items.Len()
}
