package vectorindex

type candidate struct {
	entry *entry
	score float64
}

// better orders by descending score, then ascending ordinal, then ascending document id.
func better(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	pa, pb := &a.entry.passage, &b.entry.passage
	if pa.Ordinal != pb.Ordinal {
		return pa.Ordinal < pb.Ordinal
	}
	return pa.DocumentID < pb.DocumentID
}

// topK is a min-heap under better: the root is the weakest kept candidate.
type topK []candidate

func (h topK) Len() int           { return len(h) }
func (h topK) Less(i, j int) bool { return better(h[j], h[i]) }
func (h topK) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *topK) Push(x any) { *h = append(*h, x.(candidate)) }

func (h *topK) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
