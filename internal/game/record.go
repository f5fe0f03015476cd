// Package game defines the strict game record model and the normalization
// step that converts loosely-shaped uploaded records into it.
package game

// Side is the color that made a move.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

// SideForPly derives the mover from ply parity. Ply 1 is white's first move.
func SideForPly(ply int) Side {
	if ply%2 == 1 {
		return White
	}
	return Black
}

// MoveNumber returns the full-move number for a ply (ceil(ply/2)).
func MoveNumber(ply int) int {
	return (ply + 1) / 2
}

// AnalyzedMove is one half-move with whatever annotation data it arrived with.
// A move carries either a pre-computed judgment label with a centipawn loss,
// or a raw evaluation (centipawns from white's perspective, or a mate
// distance), or nothing at all.
type AnalyzedMove struct {
	Ply      int    `json:"ply"`
	Judgment string `json:"judgment,omitempty"` // normalized lowercase label, empty if none
	CPLoss   int    `json:"cpLoss,omitempty"`   // loss associated with Judgment
	HasEval  bool   `json:"hasEval,omitempty"`
	EvalCP   int    `json:"eval,omitempty"` // centipawns, white's perspective
	Mate     bool   `json:"mate,omitempty"` // evaluation is a mate distance, not centipawns
	MateIn   int    `json:"mateIn,omitempty"`
}

// GameRecord is a strictly typed game as consumed by the classifier and the
// bootstrap engine. Produced only by Normalize.
type GameRecord struct {
	ID       string         `json:"id"`
	Opening  string         `json:"opening,omitempty"`
	White    string         `json:"white,omitempty"` // username of the white player
	Black    string         `json:"black,omitempty"`
	MoveText string         `json:"moveText,omitempty"` // SAN move text, no tags
	Moves    []AnalyzedMove `json:"moves,omitempty"`
}

// Evaluated reports whether any move carries a judgment or a numeric
// evaluation. Games failing this are candidates for bootstrapping.
func (g *GameRecord) Evaluated() bool {
	for i := range g.Moves {
		m := &g.Moves[i]
		if m.Judgment != "" || m.HasEval || m.Mate {
			return true
		}
	}
	return false
}

// SideOf resolves a username to the side it played in this game, or "" when
// the name matches neither player.
func (g *GameRecord) SideOf(username string) Side {
	if username == "" {
		return ""
	}
	if g.White == username {
		return White
	}
	if g.Black == username {
		return Black
	}
	return ""
}

// EvaluatedMoveCount counts moves carrying any annotation data. Used by the
// cache key so that annotating more moves of a game invalidates its entry.
func (g *GameRecord) EvaluatedMoveCount() int {
	n := 0
	for i := range g.Moves {
		m := &g.Moves[i]
		if m.Judgment != "" || m.HasEval || m.Mate {
			n++
		}
	}
	return n
}
