package game

import (
	"strconv"
	"strings"
)

// Raw is a loosely-shaped game record as received from the upload layer.
// Field names vary by source, so lookups go through alias lists.
type Raw map[string]any

var (
	idAliases       = []string{"id", "gameId", "game_id", "uuid"}
	openingAliases  = []string{"opening", "openingName", "opening_name", "eco_name"}
	whiteAliases    = []string{"white", "whiteUsername", "white_name", "whitePlayer"}
	blackAliases    = []string{"black", "blackUsername", "black_name", "blackPlayer"}
	moveTextAliases = []string{"moveText", "pgn", "san", "move_text"}
	movesAliases    = []string{"moves", "analyzedMoves", "analysis"}

	plyAliases      = []string{"ply", "halfMove", "half_move"}
	judgmentAliases = []string{"judgment", "annotation", "label", "name"}
	cpLossAliases   = []string{"cpLoss", "centipawnLoss", "centipawn_loss", "loss"}
	evalAliases     = []string{"eval", "cp", "score", "centipawns"}
	mateAliases     = []string{"mate", "mateIn", "mate_in"}
)

// Normalize converts raw records into strict GameRecords. Records without a
// usable identifier are dropped; the second return value is the drop count.
func Normalize(raws []Raw) ([]GameRecord, int) {
	out := make([]GameRecord, 0, len(raws))
	skipped := 0
	for _, r := range raws {
		g, ok := normalizeOne(r)
		if !ok {
			skipped++
			continue
		}
		out = append(out, g)
	}
	return out, skipped
}

func normalizeOne(r Raw) (GameRecord, bool) {
	g := GameRecord{
		ID:       firstString(r, idAliases),
		Opening:  firstString(r, openingAliases),
		White:    firstString(r, whiteAliases),
		Black:    firstString(r, blackAliases),
		MoveText: firstString(r, moveTextAliases),
	}
	if g.ID == "" {
		return GameRecord{}, false
	}

	rawMoves, ok := firstSlice(r, movesAliases)
	if !ok {
		return g, true
	}
	g.Moves = make([]AnalyzedMove, 0, len(rawMoves))
	for i, rv := range rawMoves {
		mr, ok := rv.(map[string]any)
		if !ok {
			continue
		}
		mv := AnalyzedMove{Ply: i + 1}
		if ply, ok := firstNumber(mr, plyAliases); ok && int(ply) > 0 {
			mv.Ply = int(ply)
		}
		if j := firstString(mr, judgmentAliases); j != "" {
			mv.Judgment = canonicalJudgment(j)
		}
		if loss, ok := firstNumber(mr, cpLossAliases); ok {
			mv.CPLoss = int(loss)
		}
		if mate, ok := firstNumber(mr, mateAliases); ok && mate != 0 {
			mv.Mate = true
			mv.MateIn = int(mate)
		} else if b, ok := mr["mate"].(bool); ok && b {
			mv.Mate = true
		} else if ev, ok := firstNumber(mr, evalAliases); ok {
			mv.HasEval = true
			mv.EvalCP = int(ev)
		}
		g.Moves = append(g.Moves, mv)
	}
	return g, true
}

// canonicalJudgment maps the label spellings seen in the wild (words and
// NAG-style glyphs) to lowercase words. Unknown labels pass through lowercased
// so the classifier can ignore them.
func canonicalJudgment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blunder", "??":
		return "blunder"
	case "mistake", "?":
		return "mistake"
	case "inaccuracy", "?!", "dubious":
		return "inaccuracy"
	default:
		return strings.ToLower(strings.TrimSpace(s))
	}
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case map[string]any:
			// Sources sometimes nest, e.g. {"judgment": {"name": "Blunder"}}
			if inner := firstString(s, judgmentAliases); inner != "" {
				return inner
			}
		}
	}
	return ""
}

// firstNumber accepts the numeric shapes JSON decoding produces: float64 from
// encoding/json, plus ints and numeric strings from other front ends.
func firstNumber(m map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func firstSlice(m map[string]any, keys []string) ([]any, bool) {
	for _, k := range keys {
		if v, ok := m[k].([]any); ok {
			return v, true
		}
	}
	return nil, false
}
