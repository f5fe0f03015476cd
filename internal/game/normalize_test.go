package game

import "testing"

func TestNormalizeAliases(t *testing.T) {
	raws := []Raw{
		{
			"gameId":       "abc",
			"opening_name": "Ruy Lopez",
			"white":        "alice",
			"blackPlayer":  "bob",
			"pgn":          "e4 e5",
			"moves": []any{
				map[string]any{"ply": float64(1), "cp": float64(30)},
				map[string]any{"ply": float64(2), "judgment": "Blunder", "centipawnLoss": float64(310)},
			},
		},
	}
	games, skipped := Normalize(raws)
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if len(games) != 1 {
		t.Fatalf("got %d games, want 1", len(games))
	}
	g := games[0]
	if g.ID != "abc" || g.Opening != "Ruy Lopez" || g.White != "alice" || g.Black != "bob" {
		t.Errorf("header fields = %+v", g)
	}
	if g.MoveText != "e4 e5" {
		t.Errorf("MoveText = %q", g.MoveText)
	}
	if len(g.Moves) != 2 {
		t.Fatalf("got %d moves, want 2", len(g.Moves))
	}
	if !g.Moves[0].HasEval || g.Moves[0].EvalCP != 30 {
		t.Errorf("move 0 = %+v, want eval 30", g.Moves[0])
	}
	if g.Moves[1].Judgment != "blunder" || g.Moves[1].CPLoss != 310 {
		t.Errorf("move 1 = %+v, want blunder 310", g.Moves[1])
	}
}

func TestNormalizeSkipsRecordsWithoutID(t *testing.T) {
	raws := []Raw{
		{"opening": "Italian Game"},
		{"id": "ok"},
	}
	games, skipped := Normalize(raws)
	if skipped != 1 || len(games) != 1 || games[0].ID != "ok" {
		t.Errorf("games = %+v, skipped = %d", games, skipped)
	}
}

func TestNormalizeGlyphJudgments(t *testing.T) {
	raws := []Raw{
		{
			"id": "g",
			"moves": []any{
				map[string]any{"annotation": "??"},
				map[string]any{"annotation": "?"},
				map[string]any{"annotation": "?!"},
			},
		},
	}
	games, _ := Normalize(raws)
	want := []string{"blunder", "mistake", "inaccuracy"}
	for i, w := range want {
		if games[0].Moves[i].Judgment != w {
			t.Errorf("move %d judgment = %q, want %q", i, games[0].Moves[i].Judgment, w)
		}
	}
	// Plies defaulted from sequence position.
	if games[0].Moves[2].Ply != 3 {
		t.Errorf("ply = %d, want 3", games[0].Moves[2].Ply)
	}
}

func TestNormalizeNestedJudgment(t *testing.T) {
	raws := []Raw{
		{
			"id": "g",
			"moves": []any{
				map[string]any{"judgment": map[string]any{"name": "Mistake"}},
			},
		},
	}
	games, _ := Normalize(raws)
	if games[0].Moves[0].Judgment != "mistake" {
		t.Errorf("judgment = %q, want mistake", games[0].Moves[0].Judgment)
	}
}

func TestNormalizeMateFlag(t *testing.T) {
	raws := []Raw{
		{
			"id": "g",
			"moves": []any{
				map[string]any{"mateIn": float64(2)},
				map[string]any{"eval": float64(-40)},
			},
		},
	}
	games, _ := Normalize(raws)
	if !games[0].Moves[0].Mate || games[0].Moves[0].MateIn != 2 {
		t.Errorf("move 0 = %+v, want mate in 2", games[0].Moves[0])
	}
	if !games[0].Moves[1].HasEval || games[0].Moves[1].EvalCP != -40 {
		t.Errorf("move 1 = %+v, want eval -40", games[0].Moves[1])
	}
}

func TestEvaluated(t *testing.T) {
	unevaluated := GameRecord{ID: "a", Moves: []AnalyzedMove{{Ply: 1}, {Ply: 2}}}
	if unevaluated.Evaluated() {
		t.Error("bare moves should not count as evaluated")
	}
	evaluated := GameRecord{ID: "b", Moves: []AnalyzedMove{{Ply: 1, HasEval: true}}}
	if !evaluated.Evaluated() {
		t.Error("numeric eval should count as evaluated")
	}
	judged := GameRecord{ID: "c", Moves: []AnalyzedMove{{Ply: 1, Judgment: "blunder"}}}
	if !judged.Evaluated() {
		t.Error("judgment should count as evaluated")
	}
}

func TestSideOf(t *testing.T) {
	g := GameRecord{White: "alice", Black: "bob"}
	if g.SideOf("alice") != White || g.SideOf("bob") != Black || g.SideOf("carol") != "" {
		t.Errorf("SideOf mismatch")
	}
	if SideForPly(1) != White || SideForPly(2) != Black || SideForPly(7) != White {
		t.Errorf("SideForPly mismatch")
	}
	if MoveNumber(1) != 1 || MoveNumber(2) != 1 || MoveNumber(5) != 3 {
		t.Errorf("MoveNumber mismatch")
	}
}
