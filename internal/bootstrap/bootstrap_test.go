package bootstrap

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/blunderlab/api/internal/classify"
	"github.com/blunderlab/api/internal/game"
)

func TestSignatureDropsIrrelevantState(t *testing.T) {
	sigs := ReplayPositions("e4")
	if len(sigs) != 2 {
		t.Fatalf("got %d signatures, want 2", len(sigs))
	}
	sig := string(sigs[1])
	if !strings.HasSuffix(sig, " b") {
		t.Errorf("signature should end with side-to-move, got %q", sig)
	}
	// Castling rights, en-passant square, and clocks must not leak in.
	if strings.Contains(sig, "KQkq") || strings.Contains(sig, "e3") {
		t.Errorf("signature carries irrelevant state: %q", sig)
	}
	if len(strings.Fields(sig)) != 2 {
		t.Errorf("signature should be exactly placement + side, got %q", sig)
	}
}

func TestReplayStopsAtMalformedMove(t *testing.T) {
	sigs := ReplayPositions("e4 zz9 e5")
	if len(sigs) != 2 {
		t.Errorf("got %d signatures, want starting position + e4 only", len(sigs))
	}
	if sigs := ReplayPositions("not a game at all"); len(sigs) != 1 {
		t.Errorf("got %d signatures, want just the starting position", len(sigs))
	}
}

func TestReplayHandlesMoveNumbersAndResult(t *testing.T) {
	a := ReplayPositions("1. e4 e5 2. Nf3 Nc6 1-0")
	b := ReplayPositions("e4 e5 Nf3 Nc6")
	if len(a) != 5 || len(b) != 5 {
		t.Fatalf("lengths = %d, %d, want 5", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("signatures diverge at ply %d", i)
		}
	}
}

// evaluatedGame builds a game whose ply-4 move is a 300cp blunder by black.
func evaluatedGame(id, opening, moveText string) game.GameRecord {
	return game.GameRecord{
		ID:       id,
		Opening:  opening,
		MoveText: moveText,
		Moves: []game.AnalyzedMove{
			{Ply: 1, HasEval: true, EvalCP: 30},
			{Ply: 2, HasEval: true, EvalCP: 30},
			{Ply: 3, HasEval: true, EvalCP: 35},
			{Ply: 4, HasEval: true, EvalCP: 335},
		},
	}
}

func TestBootstrapPropagatesJudgment(t *testing.T) {
	const opening = "King's Knight Opening"
	a := evaluatedGame("a", opening, "e4 e5 Nf3 Nc6")
	b := game.GameRecord{ID: "b", Opening: opening, MoveText: "e4 e5 Nf3 Nc6 Bc4"}

	events := classify.Game(&a, "")
	if len(events) != 1 || events[0].Severity != classify.Blunder {
		t.Fatalf("setup: expected one blunder from game a, got %+v", events)
	}

	eng := New(zerolog.Nop())
	out := eng.Run([]game.GameRecord{a, b}, events, opening)
	if len(out) != 1 {
		t.Fatalf("got %d bootstrapped events, want 1: %+v", len(out), out)
	}
	ev := out[0]
	if ev.GameID != "b" || !ev.Bootstrapped {
		t.Errorf("event = %+v, want bootstrapped event for game b", ev)
	}
	if ev.Ply != 4 || ev.Side != game.Black || ev.Severity != classify.Blunder || ev.CPLoss != 300 {
		t.Errorf("event = %+v, want black blunder 300 at ply 4", ev)
	}
}

func TestBootstrapRespectsOpening(t *testing.T) {
	a := evaluatedGame("a", "King's Knight Opening", "e4 e5 Nf3 Nc6")
	// Same moves, different opening label: must never inherit.
	c := game.GameRecord{ID: "c", Opening: "Scotch Game", MoveText: "e4 e5 Nf3 Nc6"}

	events := classify.Game(&a, "")
	eng := New(zerolog.Nop())

	if out := eng.Run([]game.GameRecord{a, c}, events, "Scotch Game"); len(out) != 0 {
		t.Errorf("judgment crossed openings: %+v", out)
	}
	if out := eng.Run([]game.GameRecord{a, c}, events, "King's Knight Opening"); len(out) != 0 {
		t.Errorf("no unevaluated game in the requested opening, got %+v", out)
	}
}

func TestBootstrapSkipsEvaluatedGames(t *testing.T) {
	const opening = "King's Knight Opening"
	a := evaluatedGame("a", opening, "e4 e5 Nf3 Nc6")
	// d is already evaluated; it must not receive inferred events.
	d := evaluatedGame("d", opening, "e4 e5 Nf3 Nc6")

	events := classify.Game(&a, "")
	eng := New(zerolog.Nop())
	if out := eng.Run([]game.GameRecord{a, d}, events, opening); len(out) != 0 {
		t.Errorf("evaluated game received bootstrapped events: %+v", out)
	}
}

func TestIndexKeepsMostSevere(t *testing.T) {
	const opening = "King's Knight Opening"
	a := evaluatedGame("a", opening, "e4 e5 Nf3 Nc6")

	// Second evaluated game reaching the same ply-4 position, but only a
	// mistake there. The blunder must win the index slot.
	m := game.GameRecord{
		ID:       "m",
		Opening:  opening,
		MoveText: "e4 e5 Nf3 Nc6",
		Moves: []game.AnalyzedMove{
			{Ply: 1, HasEval: true, EvalCP: 10},
			{Ply: 2, HasEval: true, EvalCP: 10},
			{Ply: 3, HasEval: true, EvalCP: 10},
			{Ply: 4, HasEval: true, EvalCP: 170},
		},
	}
	b := game.GameRecord{ID: "b", Opening: opening, MoveText: "e4 e5 Nf3 Nc6"}

	events := classify.Game(&a, "")
	events = append(events, classify.Game(&m, "")...)

	eng := New(zerolog.Nop())
	out := eng.Run([]game.GameRecord{a, m, b}, events, opening)
	if len(out) != 1 {
		t.Fatalf("got %d events, want 1", len(out))
	}
	if out[0].Severity != classify.Blunder || out[0].CPLoss != 300 {
		t.Errorf("event = %+v, want the more severe blunder", out[0])
	}
}
