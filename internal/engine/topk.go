package engine

import (
	"sort"

	"go-cost-insights/internal/model"
)

// Candidate pairs a record with its original input index. The index breaks
// cost ties: for equal costs the earlier record ranks higher.
type Candidate struct {
	Index  int
	Record model.WorkloadRecord
}

// CandidateSet keeps the K highest-cost records seen so far in O(K) space.
// Items stay strictly sorted (cost descending, index ascending) after every
// mutation.
type CandidateSet struct {
	capacity  int
	threshold float64
	items     []Candidate
}

// NewCandidateSet creates a set with the given capacity. Records whose cost
// is below costThreshold are rejected outright.
func NewCandidateSet(capacity int, costThreshold float64) *CandidateSet {
	if capacity < 0 {
		capacity = 0
	}
	return &CandidateSet{
		capacity:  capacity,
		threshold: costThreshold,
		items:     make([]Candidate, 0, capacity),
	}
}

// Admit offers a record to the set and reports whether it was kept. Once
// the set is full, the current minimum is found with a linear scan and
// replaced only when the newcomer's cost is strictly greater.
func (cs *CandidateSet) Admit(index int, rec model.WorkloadRecord) bool {
	if cs.capacity == 0 || rec.MonthlyCost < cs.threshold {
		return false
	}

	if len(cs.items) < cs.capacity {
		cs.items = append(cs.items, Candidate{Index: index, Record: rec})
		cs.sortItems()
		return true
	}

	minAt := 0
	for i := 1; i < len(cs.items); i++ {
		if ranksBelow(cs.items[i], cs.items[minAt]) {
			minAt = i
		}
	}
	if rec.MonthlyCost <= cs.items[minAt].Record.MonthlyCost {
		return false
	}

	cs.items[minAt] = Candidate{Index: index, Record: rec}
	cs.sortItems()
	return true
}

// Len returns the number of candidates currently held.
func (cs *CandidateSet) Len() int {
	return len(cs.items)
}

// Result returns a copy of the candidates, cost descending.
func (cs *CandidateSet) Result() []Candidate {
	out := make([]Candidate, len(cs.items))
	copy(out, cs.items)
	return out
}

func (cs *CandidateSet) sortItems() {
	sort.Slice(cs.items, func(i, j int) bool {
		return ranksBelow(cs.items[j], cs.items[i])
	})
}

// ranksBelow reports whether a sorts below b: lower cost, or equal cost and
// a later input index.
func ranksBelow(a, b Candidate) bool {
	if a.Record.MonthlyCost != b.Record.MonthlyCost {
		return a.Record.MonthlyCost < b.Record.MonthlyCost
	}
	return a.Index > b.Index
}
