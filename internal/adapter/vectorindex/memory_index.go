// Package vectorindex holds the in-process, per-institution passage index.
package vectorindex

import (
	"container/heap"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"edurag/internal/domain"
)

// MemoryIndex keeps passages and their vectors in memory, partitioned by
// institution. Each partition has its own lock, so writes to one institution
// never block searches in another. The registry lock only guards partition
// lookup and creation.
//
// Search is an exact scan with a bounded heap, O(n log k) per query.
type MemoryIndex struct {
	mu         sync.RWMutex
	partitions map[string]*partition

	// dimension is fixed by the first successful insert unless preset.
	dimension atomic.Int64
}

type partition struct {
	mu       sync.RWMutex
	docs     map[string][]entry
	passages int
	version  uint64
}

type entry struct {
	passage domain.Passage
	norm    float64
}

// NewMemoryIndex creates an empty index. A dimension of 0 is learned from the
// first insert.
func NewMemoryIndex(dimension int) *MemoryIndex {
	idx := &MemoryIndex{partitions: make(map[string]*partition)}
	if dimension > 0 {
		idx.dimension.Store(int64(dimension))
	}
	return idx
}

func (idx *MemoryIndex) lookup(institutionID string) *partition {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.partitions[institutionID]
}

func (idx *MemoryIndex) partitionFor(institutionID string) *partition {
	if p := idx.lookup(institutionID); p != nil {
		return p
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	p, ok := idx.partitions[institutionID]
	if !ok {
		p = &partition{docs: make(map[string][]entry)}
		idx.partitions[institutionID] = p
	}
	return p
}

// Insert replaces every passage of documentID in the institution's partition.
// The new set is validated and prepared before the partition is locked, so a
// failure leaves the previous set untouched.
func (idx *MemoryIndex) Insert(institutionID, documentID string, passages []domain.Passage) error {
	if institutionID == "" || documentID == "" {
		return fmt.Errorf("%w: institution and document ids are required", domain.ErrIndexWriteFailed)
	}

	entries, err := idx.prepare(institutionID, documentID, passages)
	if err != nil {
		return err
	}

	p := idx.partitionFor(institutionID)
	p.mu.Lock()
	defer p.mu.Unlock()

	p.passages -= len(p.docs[documentID])
	if len(entries) == 0 {
		delete(p.docs, documentID)
	} else {
		p.docs[documentID] = entries
		p.passages += len(entries)
	}
	p.version++
	return nil
}

func (idx *MemoryIndex) prepare(institutionID, documentID string, passages []domain.Passage) ([]entry, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	dim := len(passages[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("%w: passage %d has no vector", domain.ErrIndexWriteFailed, passages[0].Ordinal)
	}

	seen := make(map[int]struct{}, len(passages))
	entries := make([]entry, 0, len(passages))
	for _, ps := range passages {
		if ps.InstitutionID != institutionID || ps.DocumentID != documentID {
			return nil, fmt.Errorf("%w: passage %d belongs to %s/%s, not %s/%s",
				domain.ErrIndexWriteFailed, ps.Ordinal, ps.InstitutionID, ps.DocumentID, institutionID, documentID)
		}
		if _, dup := seen[ps.Ordinal]; dup {
			return nil, fmt.Errorf("%w: duplicate ordinal %d", domain.ErrIndexWriteFailed, ps.Ordinal)
		}
		seen[ps.Ordinal] = struct{}{}
		if len(ps.Vector) != dim {
			return nil, fmt.Errorf("%w: %w: passage %d has %d components, expected %d",
				domain.ErrIndexWriteFailed, domain.ErrDimensionMismatch, ps.Ordinal, len(ps.Vector), dim)
		}

		ps.Vector = slices.Clone(ps.Vector)
		entries = append(entries, entry{passage: ps, norm: norm(ps.Vector)})
	}

	if !idx.dimension.CompareAndSwap(0, int64(dim)) {
		if want := int(idx.dimension.Load()); want != dim {
			return nil, fmt.Errorf("%w: %w: got %d components, index holds %d",
				domain.ErrIndexWriteFailed, domain.ErrDimensionMismatch, dim, want)
		}
	}

	return entries, nil
}

// Search returns at most k passages of the institution, best first. Ties are
// broken by ascending ordinal, then ascending document id.
func (idx *MemoryIndex) Search(institutionID string, query []float32, k int) ([]domain.ScoredPassage, error) {
	p := idx.lookup(institutionID)
	if p == nil || k <= 0 {
		return []domain.ScoredPassage{}, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.passages == 0 {
		return []domain.ScoredPassage{}, nil
	}
	if want := int(idx.dimension.Load()); len(query) != want {
		return nil, fmt.Errorf("%w: query has %d components, index holds %d",
			domain.ErrDimensionMismatch, len(query), want)
	}

	qnorm := norm(query)
	h := make(topK, 0, min(k, p.passages))
	for _, entries := range p.docs {
		for i := range entries {
			e := &entries[i]
			c := candidate{entry: e, score: cosine(query, e.passage.Vector, qnorm, e.norm)}
			if h.Len() < k {
				heap.Push(&h, c)
				continue
			}
			if better(c, h[0]) {
				h[0] = c
				heap.Fix(&h, 0)
			}
		}
	}

	sort.Slice(h, func(i, j int) bool { return better(h[i], h[j]) })

	results := make([]domain.ScoredPassage, len(h))
	for i, c := range h {
		ps := c.entry.passage
		ps.Vector = slices.Clone(ps.Vector)
		results[i] = domain.ScoredPassage{Passage: ps, Score: c.score}
	}
	return results, nil
}

// Remove deletes all passages of documentID. Absent documents are ignored.
func (idx *MemoryIndex) Remove(institutionID, documentID string) error {
	p := idx.lookup(institutionID)
	if p == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	entries, ok := p.docs[documentID]
	if !ok {
		return nil
	}
	p.passages -= len(entries)
	delete(p.docs, documentID)
	p.version++
	return nil
}

// Stats summarizes the institution's partition.
func (idx *MemoryIndex) Stats(institutionID string) domain.IndexStats {
	stats := domain.IndexStats{
		InstitutionID: institutionID,
		Dimension:     int(idx.dimension.Load()),
	}
	p := idx.lookup(institutionID)
	if p == nil {
		return stats
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	stats.Documents = len(p.docs)
	stats.Passages = p.passages
	return stats
}

// Version returns a counter bumped on every write to the institution's partition.
func (idx *MemoryIndex) Version(institutionID string) uint64 {
	p := idx.lookup(institutionID)
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

// Institutions lists the institutions that have a partition, sorted.
func (idx *MemoryIndex) Institutions() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.partitions))
	for id := range idx.partitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CosineSimilarity returns dot(a,b) / (|a| |b|), or 0 when either vector has
// zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	return cosine(a, b, norm(a), norm(b))
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
