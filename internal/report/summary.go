// Package report aggregates mistake events into the summary returned to
// callers. Summaries are built per worker partition and merged; merge is
// commutative and associative so partition order never matters.
package report

import (
	"sort"

	"github.com/blunderlab/api/internal/classify"
)

// DefaultTopLimit caps the ranked lists at finalize time.
const DefaultTopLimit = 10

// OpeningCount tallies mistakes and blunders for one opening.
type OpeningCount struct {
	Mistakes int `json:"mistakes"`
	Blunders int `json:"blunders"`
}

// Summary is the sole externally visible artifact of an analysis run.
type Summary struct {
	Inaccuracies int                     `json:"inaccuracies"`
	Mistakes     int                     `json:"mistakes"`
	Blunders     int                     `json:"blunders"`
	Bootstrapped int                     `json:"bootstrapped,omitempty"`
	ByOpening    map[string]OpeningCount `json:"byOpening,omitempty"`
	TopBlunders  []classify.MistakeEvent `json:"topBlunders"`
	TopMistakes  []classify.MistakeEvent `json:"topMistakes"`
}

// New returns an empty summary ready to accumulate events.
func New() *Summary {
	return &Summary{ByOpening: make(map[string]OpeningCount)}
}

// Add folds one event into the totals and ranked lists.
func (s *Summary) Add(ev classify.MistakeEvent) {
	switch ev.Severity {
	case classify.Blunder:
		s.Blunders++
	case classify.Mistake:
		s.Mistakes++
	case classify.Inaccuracy:
		s.Inaccuracies++
	}
	if ev.Bootstrapped {
		s.Bootstrapped++
	}
	if ev.Opening != "" && (ev.Severity == classify.Mistake || ev.Severity == classify.Blunder) {
		oc := s.ByOpening[ev.Opening]
		if ev.Severity == classify.Blunder {
			oc.Blunders++
		} else {
			oc.Mistakes++
		}
		s.ByOpening[ev.Opening] = oc
	}

	// Bootstrapped events rank only among mistakes: inferred judgments must
	// not displace directly observed blunders in the blunder list.
	switch {
	case ev.Bootstrapped:
		s.TopMistakes = append(s.TopMistakes, ev)
	case ev.Severity == classify.Blunder:
		s.TopBlunders = append(s.TopBlunders, ev)
	case ev.Severity == classify.Mistake:
		s.TopMistakes = append(s.TopMistakes, ev)
	}
}

// Merge folds other into s. Totals sum, opening counts union by addition, and
// the ranked lists concatenate; Finalize re-sorts afterwards.
func (s *Summary) Merge(other *Summary) {
	if other == nil {
		return
	}
	s.Inaccuracies += other.Inaccuracies
	s.Mistakes += other.Mistakes
	s.Blunders += other.Blunders
	s.Bootstrapped += other.Bootstrapped
	for opening, oc := range other.ByOpening {
		cur := s.ByOpening[opening]
		cur.Mistakes += oc.Mistakes
		cur.Blunders += oc.Blunders
		s.ByOpening[opening] = cur
	}
	s.TopBlunders = append(s.TopBlunders, other.TopBlunders...)
	s.TopMistakes = append(s.TopMistakes, other.TopMistakes...)
}

// Finalize sorts the ranked lists by centipawn loss descending (stable, so
// ties keep emission order) and truncates them to limit entries.
// limit <= 0 means DefaultTopLimit.
func (s *Summary) Finalize(limit int) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	byLossDesc := func(list []classify.MistakeEvent) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CPLoss > list[j].CPLoss
		})
	}
	byLossDesc(s.TopBlunders)
	byLossDesc(s.TopMistakes)
	if len(s.TopBlunders) > limit {
		s.TopBlunders = s.TopBlunders[:limit]
	}
	if len(s.TopMistakes) > limit {
		s.TopMistakes = s.TopMistakes[:limit]
	}
}
