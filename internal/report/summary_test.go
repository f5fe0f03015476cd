package report

import (
	"testing"

	"github.com/blunderlab/api/internal/classify"
	"github.com/blunderlab/api/internal/game"
)

func ev(id string, ply, loss int, sev classify.Severity, opening string) classify.MistakeEvent {
	return classify.MistakeEvent{
		GameID:     id,
		Ply:        ply,
		MoveNumber: game.MoveNumber(ply),
		Side:       game.SideForPly(ply),
		Severity:   sev,
		CPLoss:     loss,
		Opening:    opening,
	}
}

func TestAddTotalsAndRouting(t *testing.T) {
	s := New()
	s.Add(ev("a", 2, 300, classify.Blunder, "Caro-Kann"))
	s.Add(ev("a", 5, 180, classify.Mistake, "Caro-Kann"))
	s.Add(ev("b", 3, 70, classify.Inaccuracy, "Italian Game"))

	if s.Blunders != 1 || s.Mistakes != 1 || s.Inaccuracies != 1 {
		t.Errorf("totals = %d/%d/%d", s.Blunders, s.Mistakes, s.Inaccuracies)
	}
	if len(s.TopBlunders) != 1 || len(s.TopMistakes) != 1 {
		t.Errorf("top lists = %d/%d, want 1/1 (inaccuracies rank in neither)",
			len(s.TopBlunders), len(s.TopMistakes))
	}
	oc := s.ByOpening["Caro-Kann"]
	if oc.Blunders != 1 || oc.Mistakes != 1 {
		t.Errorf("Caro-Kann counts = %+v", oc)
	}
	if _, ok := s.ByOpening["Italian Game"]; ok {
		t.Error("inaccuracy should not create an opening count")
	}
}

func TestBootstrappedEventsNeverRankAsBlunders(t *testing.T) {
	s := New()
	e := ev("a", 4, 400, classify.Blunder, "Ruy Lopez")
	e.Bootstrapped = true
	s.Add(e)

	if len(s.TopBlunders) != 0 {
		t.Errorf("bootstrapped blunder leaked into TopBlunders")
	}
	if len(s.TopMistakes) != 1 {
		t.Errorf("bootstrapped blunder missing from TopMistakes")
	}
	if s.Blunders != 1 || s.Bootstrapped != 1 {
		t.Errorf("totals = blunders %d bootstrapped %d", s.Blunders, s.Bootstrapped)
	}
}

func TestMergeCommutative(t *testing.T) {
	build := func(events ...classify.MistakeEvent) *Summary {
		s := New()
		for _, e := range events {
			s.Add(e)
		}
		return s
	}
	e1 := ev("a", 2, 300, classify.Blunder, "Caro-Kann")
	e2 := ev("b", 4, 500, classify.Blunder, "Caro-Kann")
	e3 := ev("c", 1, 160, classify.Mistake, "Italian Game")

	ab := build(e1, e2)
	ab.Merge(build(e3))

	ba := build(e3)
	ba.Merge(build(e1, e2))

	if ab.Blunders != ba.Blunders || ab.Mistakes != ba.Mistakes || ab.Inaccuracies != ba.Inaccuracies {
		t.Errorf("merge totals differ: %+v vs %+v", ab, ba)
	}
	if ab.ByOpening["Caro-Kann"] != ba.ByOpening["Caro-Kann"] {
		t.Errorf("opening counts differ")
	}

	ab.Finalize(0)
	ba.Finalize(0)
	if len(ab.TopBlunders) != len(ba.TopBlunders) {
		t.Fatalf("top blunder lengths differ")
	}
	for i := range ab.TopBlunders {
		if ab.TopBlunders[i] != ba.TopBlunders[i] {
			t.Errorf("sorted top blunders differ at %d: %+v vs %+v",
				i, ab.TopBlunders[i], ba.TopBlunders[i])
		}
	}
}

func TestFinalizeSortsDescendingStable(t *testing.T) {
	s := New()
	s.Add(ev("a", 1, 260, classify.Blunder, ""))
	s.Add(ev("b", 2, 900, classify.Blunder, ""))
	s.Add(ev("c", 3, 260, classify.Blunder, ""))
	s.Finalize(0)

	if s.TopBlunders[0].GameID != "b" {
		t.Errorf("largest loss should sort first, got %s", s.TopBlunders[0].GameID)
	}
	// Ties keep emission order: a before c.
	if s.TopBlunders[1].GameID != "a" || s.TopBlunders[2].GameID != "c" {
		t.Errorf("tie order broken: %s, %s", s.TopBlunders[1].GameID, s.TopBlunders[2].GameID)
	}
}

func TestFinalizeTruncates(t *testing.T) {
	s := New()
	for i := 0; i < 30; i++ {
		s.Add(ev("g", 2, 250+i, classify.Blunder, ""))
	}
	s.Finalize(0)
	if len(s.TopBlunders) != DefaultTopLimit {
		t.Errorf("len = %d, want %d", len(s.TopBlunders), DefaultTopLimit)
	}
	s2 := New()
	for i := 0; i < 30; i++ {
		s2.Add(ev("g", 2, 250+i, classify.Blunder, ""))
	}
	s2.Finalize(3)
	if len(s2.TopBlunders) != 3 {
		t.Errorf("len = %d, want 3", len(s2.TopBlunders))
	}
}
